package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"gopkg.in/yaml.v3"

	"github.com/saddle-finance/multisig-ops/actions"
	"github.com/saddle-finance/multisig-ops/multisig"
)

// Plan kinds.
const (
	KindRefund = "refund"
	KindGauges = "gauges"
)

// Plan is a loaded plan of any kind.
type Plan interface {
	PlanHeader() Header
	// Check runs the offline checks of the plan: amounts and weight sums.
	Check() error
}

var (
	_ Plan = (*RefundPlan)(nil)
	_ Plan = (*GaugePlan)(nil)
)

// Header is shared by every plan: where the batch goes and the nonce it takes.
type Header struct {
	Kind string `yaml:"kind" validate:"required,oneof=refund gauges"`
	// Network is a chain-selectors name such as "ethereum-mainnet", or a numeric selector.
	Network     string  `yaml:"network" validate:"required"`
	Multisig    string  `yaml:"multisig" validate:"required,eth_addr"`
	Nonce       *uint64 `yaml:"nonce" validate:"required"`
	Description string  `yaml:"description" validate:"required"`
}

// Recipient is a ledger line with a decimal amount in whole tokens.
type Recipient struct {
	Address string `yaml:"address" validate:"required,eth_addr"`
	Amount  string `yaml:"amount" validate:"required,numeric"`
}

// RefundPlan is the vote data of a refund.
type RefundPlan struct {
	Header     `yaml:",inline"`
	Token      string      `yaml:"token" validate:"required,eth_addr"`
	Decimals   *uint8      `yaml:"decimals" validate:"required,max=36"`
	Recipients []Recipient `yaml:"recipients" validate:"required,min=1,dive"`
}

// Weight is the target weight of one gauge, in basis points of the vote.
type Weight struct {
	Gauge  string  `yaml:"gauge" validate:"required,eth_addr"`
	Weight *uint64 `yaml:"weight" validate:"required"`
	Label  string  `yaml:"label"`
}

// Band overrides the accepted total of the weight table.
type Band struct {
	Expected  uint64 `yaml:"expected" validate:"required"`
	Tolerance uint64 `yaml:"tolerance"`
}

// GaugePlan is the vote data of a weekly gauge vote.
type GaugePlan struct {
	Header     `yaml:",inline"`
	Controller string      `yaml:"controller" validate:"required,eth_addr"`
	Token      string      `yaml:"token" validate:"omitempty,eth_addr"`
	Decimals   *uint8      `yaml:"decimals" validate:"required,max=36"`
	Vesting    []string    `yaml:"vesting" validate:"dive,eth_addr"`
	Transfers  []Recipient `yaml:"transfers" validate:"dive"`
	Weights    []Weight    `yaml:"weights" validate:"required,min=1,dive"`
	Band       *Band       `yaml:"band"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadPlan reads and validates a plan of any kind.
func LoadPlan(path string) (Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	var head struct {
		Kind string `yaml:"kind"`
	}
	if err = yaml.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", multisig.ErrInvalidPayload, err)
	}

	var plan Plan
	switch head.Kind {
	case KindRefund:
		plan = &RefundPlan{}
	case KindGauges:
		plan = &GaugePlan{}
	default:
		return nil, fmt.Errorf("%w: unknown plan kind %q", multisig.ErrInvalidPayload, head.Kind)
	}
	if err = decodePlan(bytes.NewReader(raw), plan); err != nil {
		return nil, err
	}

	return plan, nil
}

// LoadRefundPlan reads and validates a refund plan.
func LoadRefundPlan(path string) (*RefundPlan, error) {
	return loadKind[*RefundPlan](path, KindRefund)
}

// LoadGaugePlan reads and validates a gauge vote plan.
func LoadGaugePlan(path string) (*GaugePlan, error) {
	return loadKind[*GaugePlan](path, KindGauges)
}

func loadKind[T Plan](path, kind string) (T, error) {
	var zero T

	plan, err := LoadPlan(path)
	if err != nil {
		return zero, err
	}
	typed, ok := plan.(T)
	if !ok {
		return zero, fmt.Errorf("%w: expected a %s plan, got %s", multisig.ErrInvalidPayload, kind, plan.PlanHeader().Kind)
	}

	return typed, nil
}

func decodePlan(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: plan is empty", multisig.ErrInvalidPayload)
		}

		return fmt.Errorf("%w: %w", multisig.ErrInvalidPayload, err)
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %w", multisig.ErrInvalidPayload, describeValidation(err))
	}

	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}

	return errors.New(strings.Join(msgs, "; "))
}

// ChainSelector resolves the network of the plan.
func (h Header) ChainSelector() (uint64, error) {
	if selector, err := strconv.ParseUint(h.Network, 10, 64); err == nil {
		if _, ok := chainsel.ChainBySelector(selector); !ok {
			return 0, fmt.Errorf("unknown chain selector %d", selector)
		}

		return selector, nil
	}

	chainID, err := chainsel.ChainIdFromName(h.Network)
	if err != nil {
		return 0, fmt.Errorf("unknown network %q: %w", h.Network, err)
	}

	return chainsel.SelectorFromChainId(chainID)
}

// MultisigAddress returns the address of the multisig.
func (h Header) MultisigAddress() common.Address {
	return common.HexToAddress(h.Multisig)
}

// StartingNonce returns the nonce of the first operation.
func (h Header) StartingNonce() uint64 {
	if h.Nonce == nil {
		return 0
	}

	return *h.Nonce
}

// recipientEntries converts the recipients to base units.
func recipientEntries(recipients []Recipient, decimals uint8) ([]multisig.RecipientEntry, error) {
	entries := make([]multisig.RecipientEntry, 0, len(recipients))
	for i, r := range recipients {
		amount, err := actions.ParseUnits(r.Amount, decimals)
		if err != nil {
			return nil, fmt.Errorf("%w: recipient %d: %w", multisig.ErrInvalidPayload, i, err)
		}
		entries = append(entries, multisig.RecipientEntry{
			Address: common.HexToAddress(r.Address),
			Amount:  amount,
		})
	}

	return entries, nil
}

// ActionConfig converts the plan to the refund action configuration.
func (p *RefundPlan) ActionConfig() (actions.RefundConfig, error) {
	entries, err := recipientEntries(p.Recipients, *p.Decimals)
	if err != nil {
		return actions.RefundConfig{}, err
	}

	return actions.RefundConfig{
		Description: p.Description,
		Token:       common.HexToAddress(p.Token),
		Decimals:    *p.Decimals,
		Multisig:    p.MultisigAddress(),
		Recipients:  entries,
	}, nil
}

// ActionConfig converts the plan to the gauge vote action configuration.
func (p *GaugePlan) ActionConfig() (actions.GaugeVoteConfig, error) {
	transfers, err := recipientEntries(p.Transfers, *p.Decimals)
	if err != nil {
		return actions.GaugeVoteConfig{}, err
	}

	cfg := actions.GaugeVoteConfig{
		Description: p.Description,
		Multisig:    p.MultisigAddress(),
		Controller:  common.HexToAddress(p.Controller),
		Decimals:    *p.Decimals,
		Transfers:   transfers,
		Band:        multisig.DefaultWeightBand,
	}
	if p.Token != "" {
		cfg.Token = common.HexToAddress(p.Token)
	}
	if p.Band != nil {
		cfg.Band = multisig.WeightBand{Expected: p.Band.Expected, Tolerance: p.Band.Tolerance}
	}
	for _, v := range p.Vesting {
		cfg.Vesting = append(cfg.Vesting, common.HexToAddress(v))
	}
	for _, w := range p.Weights {
		cfg.Weights = append(cfg.Weights, multisig.GaugeWeightEntry{
			Gauge:  common.HexToAddress(w.Gauge),
			Weight: *w.Weight,
			Label:  w.Label,
		})
	}

	return cfg, nil
}

func (p *RefundPlan) PlanHeader() Header { return p.Header }

func (p *GaugePlan) PlanHeader() Header { return p.Header }

// Check validates the ledger of the plan.
func (p *RefundPlan) Check() error {
	cfg, err := p.ActionConfig()
	if err != nil {
		return err
	}
	_, err = multisig.ValidateLedger(cfg.Recipients)

	return err
}

// Check validates the weight table and the transfers of the plan.
func (p *GaugePlan) Check() error {
	cfg, err := p.ActionConfig()
	if err != nil {
		return err
	}
	if _, err = multisig.ValidateWeights(cfg.Weights, cfg.Band); err != nil {
		return err
	}
	if len(cfg.Transfers) > 0 {
		if cfg.Token == (common.Address{}) {
			return fmt.Errorf("%w: transfers need a token", multisig.ErrInvalidPayload)
		}
		if _, err = multisig.ValidateLedger(cfg.Transfers); err != nil {
			return err
		}
	}

	return nil
}
