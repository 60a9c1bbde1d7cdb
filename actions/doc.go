// Package actions holds the governance actions run through a multisig session: token refunds
// and the weekly gauge weight vote.
package actions
