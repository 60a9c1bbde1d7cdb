package actions

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/saddle-finance/multisig-ops/contracts"
	"github.com/saddle-finance/multisig-ops/multisig"
	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

var _ multisig.Action = (*Refund)(nil)

// RefundConfig describes a refund of one token to a list of recipients.
type RefundConfig struct {
	Description string
	Token       common.Address
	// Decimals is the precision the plan amounts were converted with. It must match the token.
	Decimals   uint8
	Multisig   common.Address
	Recipients []multisig.RecipientEntry
}

// Refund transfers a token from the multisig to every recipient of a ledger, in ledger order.
type Refund struct {
	cfg   RefundConfig
	lggr  logger.Logger
	token *contracts.ERC20

	symbol  string
	total   *big.Int
	balance *big.Int
}

func NewRefund(lggr logger.Logger, caller bind.ContractCaller, cfg RefundConfig) *Refund {
	return &Refund{
		cfg:   cfg,
		lggr:  lggr.Named("refund"),
		token: contracts.NewERC20(cfg.Token, caller),
	}
}

func (*Refund) Name() string { return "refund" }

func (r *Refund) Description() string { return r.cfg.Description }

// Validate checks the ledger, the token decimals and that the multisig holds the total.
func (r *Refund) Validate(ctx context.Context) error {
	total, err := multisig.ValidateLedger(r.cfg.Recipients)
	if err != nil {
		return err
	}
	r.total = total

	decimals, err := r.token.Decimals(ctx)
	if err != nil {
		return fmt.Errorf("failed to read token decimals: %w", err)
	}
	if decimals != r.cfg.Decimals {
		return fmt.Errorf("%w: plan uses %d decimals but token %s has %d",
			multisig.ErrInvalidPayload, r.cfg.Decimals, r.cfg.Token.Hex(), decimals)
	}

	r.symbol, err = r.token.Symbol(ctx)
	if err != nil {
		r.lggr.Warnw("Failed to read token symbol", "token", r.cfg.Token.Hex(), "error", err)
		r.symbol = r.cfg.Token.Hex()
	}

	r.lggr.Infof("Total amount to be refunded: %s %s to %d recipients",
		r.amount(total), r.symbol, len(r.cfg.Recipients))
	for i, e := range r.cfg.Recipients {
		r.lggr.Infof("  %2d. %s  %s %s", i+1, e.Address.Hex(), r.amount(e.Amount), r.symbol)
	}

	r.balance, err = r.token.BalanceOf(ctx, r.cfg.Multisig)
	if err != nil {
		return fmt.Errorf("failed to read multisig balance: %w", err)
	}
	if r.balance.Cmp(total) < 0 {
		return fmt.Errorf("%w: multisig %s holds %s %s but the refund needs %s",
			multisig.ErrInsufficientBalance, r.cfg.Multisig.Hex(), r.amount(r.balance), r.symbol, r.amount(total))
	}

	return nil
}

// Steps returns one transfer per recipient.
func (r *Refund) Steps(context.Context, multisig.CallBackend) ([]multisig.Step, error) {
	if r.total == nil {
		return nil, errors.New("refund must be validated before building steps")
	}

	steps := make([]multisig.Step, 0, len(r.cfg.Recipients))
	for i, e := range r.cfg.Recipients {
		data, err := contracts.PackTransfer(e.Address, e.Amount)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		steps = append(steps, multisig.FixedStep(fmt.Sprintf("transfer-%d", i), multisig.Call{
			To:           r.cfg.Token,
			Data:         data,
			ContractType: contracts.TypeERC20,
			Tags:         []string{"refund"},
		}))
	}

	return steps, nil
}

func (r *Refund) Summary() []string {
	if r.total == nil {
		return nil
	}

	return []string{
		fmt.Sprintf("Refund: %s %s to %d recipients", r.amount(r.total), r.symbol, len(r.cfg.Recipients)),
		fmt.Sprintf("Multisig balance: %s %s", r.amount(r.balance), r.symbol),
	}
}

func (r *Refund) amount(v *big.Int) string {
	return FormatUnits(v, r.cfg.Decimals)
}
