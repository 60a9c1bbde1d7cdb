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

var _ multisig.Action = (*GaugeVote)(nil)

// weightUnit scales get_total_weight down to the basis points of the vote.
var weightUnit = big.NewInt(1e18)

// GaugeVoteConfig describes a weekly gauge vote and the treasury chores run with it.
type GaugeVoteConfig struct {
	Description string
	Multisig    common.Address
	Controller  common.Address
	// Token is the treasury token sent by Transfers.
	Token     common.Address
	Decimals  uint8
	Vesting   []common.Address
	Transfers []multisig.RecipientEntry
	Weights   []multisig.GaugeWeightEntry
	Band      multisig.WeightBand
}

// GaugeVote releases vested tokens, sends treasury transfers and sets gauge weights to the vote
// result, skipping gauges already at their target.
type GaugeVote struct {
	cfg        GaugeVoteConfig
	lggr       logger.Logger
	caller     bind.ContractCaller
	controller *contracts.GaugeController
	token      *contracts.ERC20

	names []string
}

func NewGaugeVote(lggr logger.Logger, caller bind.ContractCaller, cfg GaugeVoteConfig) *GaugeVote {
	if cfg.Band == (multisig.WeightBand{}) {
		cfg.Band = multisig.DefaultWeightBand
	}

	return &GaugeVote{
		cfg:        cfg,
		lggr:       lggr.Named("gauges"),
		caller:     caller,
		controller: contracts.NewGaugeController(cfg.Controller, caller),
		token:      contracts.NewERC20(cfg.Token, caller),
	}
}

func (*GaugeVote) Name() string { return "gauges" }

func (g *GaugeVote) Description() string { return g.cfg.Description }

// Validate checks the weight table and the transfers, then prints every gauge with its target
// weight before any call is made.
func (g *GaugeVote) Validate(ctx context.Context) error {
	total, err := multisig.ValidateWeights(g.cfg.Weights, g.cfg.Band)
	if err != nil {
		return err
	}
	if len(g.cfg.Transfers) > 0 {
		if g.cfg.Token == (common.Address{}) {
			return fmt.Errorf("%w: transfers need a token", multisig.ErrInvalidPayload)
		}
		if _, err = multisig.ValidateLedger(g.cfg.Transfers); err != nil {
			return err
		}
	}

	g.names = make([]string, len(g.cfg.Weights))
	for i, w := range g.cfg.Weights {
		name, err := contracts.NewLiquidityGauge(w.Gauge, g.caller).Name(ctx)
		if err != nil {
			return fmt.Errorf("failed to read name of gauge %s: %w", w.Gauge.Hex(), err)
		}
		if w.Label != "" && w.Label != name {
			g.lggr.Warnw("Gauge label differs from its on-chain name", "gauge", w.Gauge.Hex(), "label", w.Label, "name", name)
		}
		g.names[i] = name
		g.lggr.Infof("Setting %s's weight to %d", name, w.Weight)
	}
	g.lggr.Infof("Total weight of the vote: %d", total)

	return nil
}

// Steps returns the vesting releases, the transfers and one step per gauge, followed by the
// total weight check. When backend applies calls, every transfer is followed by a balance check
// on its recipient and the total is read on-chain, otherwise the total is projected from the
// weight changes.
func (g *GaugeVote) Steps(_ context.Context, backend multisig.CallBackend) ([]multisig.Step, error) {
	if g.names == nil {
		return nil, errors.New("gauge vote must be validated before building steps")
	}

	var steps []multisig.Step

	release, err := contracts.PackRelease()
	if err != nil {
		return nil, err
	}
	for i, v := range g.cfg.Vesting {
		steps = append(steps, multisig.FixedStep(fmt.Sprintf("release-%d", i), multisig.Call{
			To:           v,
			Data:         release,
			ContractType: contracts.TypeVesting,
			Tags:         []string{"vesting"},
		}))
	}

	for i, t := range g.cfg.Transfers {
		data, err := contracts.PackTransfer(t.Address, t.Amount)
		if err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i, err)
		}
		steps = append(steps, multisig.FixedStep(fmt.Sprintf("transfer-%d", i), multisig.Call{
			To:           g.cfg.Token,
			Data:         data,
			ContractType: contracts.TypeERC20,
			Tags:         []string{"treasury"},
		}))
		if backend.Mutates() {
			steps = append(steps, multisig.CheckStep(fmt.Sprintf("transfer-%d-balance", i), g.balanceCheck(t)))
		}
	}

	// change of the controller total weight caused by the issued calls
	delta := new(big.Int)
	for i, w := range g.cfg.Weights {
		steps = append(steps, multisig.NewStep(fmt.Sprintf("gauge-%d", i), g.weightStep(g.names[i], w, delta)))
	}

	if backend.Mutates() {
		steps = append(steps, multisig.CheckStep("total-weight", g.appliedTotalCheck))
	} else {
		steps = append(steps, multisig.CheckStep("total-weight", func(ctx context.Context) error {
			return g.projectedTotalCheck(ctx, delta)
		}))
	}

	return steps, nil
}

func (g *GaugeVote) Summary() []string {
	lines := make([]string, 0, len(g.cfg.Weights)+len(g.cfg.Transfers)+1)
	for i, t := range g.cfg.Transfers {
		lines = append(lines, fmt.Sprintf("Transfer %d: %s to %s", i, FormatUnits(t.Amount, g.cfg.Decimals), t.Address.Hex()))
	}
	for i, w := range g.cfg.Weights {
		name := w.Label
		if i < len(g.names) {
			name = g.names[i]
		}
		lines = append(lines, fmt.Sprintf("%s: %d", name, w.Weight))
	}

	return lines
}

func (g *GaugeVote) balanceCheck(t multisig.RecipientEntry) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		balance, err := g.token.BalanceOf(ctx, t.Address)
		if err != nil {
			return fmt.Errorf("failed to read balance of %s: %w", t.Address.Hex(), err)
		}
		if balance.Cmp(t.Amount) < 0 {
			return fmt.Errorf("%w: %s holds %s after the transfer of %s",
				multisig.ErrInsufficientBalance, t.Address.Hex(),
				FormatUnits(balance, g.cfg.Decimals), FormatUnits(t.Amount, g.cfg.Decimals))
		}

		return nil
	}
}

func (g *GaugeVote) weightStep(name string, w multisig.GaugeWeightEntry, totalDelta *big.Int) func(ctx context.Context) (*multisig.Call, error) {
	return func(ctx context.Context) (*multisig.Call, error) {
		target := new(big.Int).SetUint64(w.Weight)

		current, err := g.controller.GaugeWeight(ctx, w.Gauge)
		if err != nil {
			return nil, fmt.Errorf("failed to read weight of %s: %w", name, err)
		}
		if current.Cmp(target) == 0 {
			g.lggr.Infof("%s is already at %d, skipping", name, w.Weight)
			return nil, nil
		}

		gaugeType, err := g.controller.GaugeType(ctx, w.Gauge)
		if err != nil {
			return nil, fmt.Errorf("failed to read type of %s: %w", name, err)
		}
		typeWeight, err := g.controller.TypeWeight(ctx, gaugeType)
		if err != nil {
			return nil, fmt.Errorf("failed to read type weight of %s: %w", name, err)
		}
		change := new(big.Int).Sub(target, current)
		totalDelta.Add(totalDelta, change.Mul(change, typeWeight))

		data, err := contracts.PackChangeGaugeWeight(w.Gauge, target)
		if err != nil {
			return nil, err
		}
		g.lggr.Infof("Changing %s's weight from %s to %d", name, current, w.Weight)

		return &multisig.Call{
			To:           g.cfg.Controller,
			Data:         data,
			ContractType: contracts.TypeGaugeController,
			Tags:         []string{"gauge-weight"},
		}, nil
	}
}

func (g *GaugeVote) appliedTotalCheck(ctx context.Context) error {
	total, err := g.controller.TotalWeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to read total weight: %w", err)
	}

	return g.checkTotal(total)
}

func (g *GaugeVote) projectedTotalCheck(ctx context.Context, totalDelta *big.Int) error {
	total, err := g.controller.TotalWeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to read total weight: %w", err)
	}

	return g.checkTotal(total.Add(total, totalDelta))
}

func (g *GaugeVote) checkTotal(raw *big.Int) error {
	total := new(big.Int).Quo(raw, weightUnit)
	if total.Sign() < 0 || !total.IsUint64() {
		return fmt.Errorf("%w: total weight %s is out of range", multisig.ErrWeightOutOfBand, total)
	}
	g.lggr.Infof("Total weight after the vote: %s", total)

	return g.cfg.Band.Check(total.Uint64())
}
