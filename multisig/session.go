package multisig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/mcms"
	mcmstypes "github.com/smartcontractkit/mcms/types"

	"github.com/saddle-finance/multisig-ops/operations"
	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// State is the stage a session has reached.
type State int

const (
	StateInit State = iota
	StateValidated
	StateExecuted
	StateAssembled
	StateSigned
	StateConfirmed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateValidated:
		return "VALIDATED"
	case StateExecuted:
		return "EXECUTED"
	case StateAssembled:
		return "ASSEMBLED"
	case StateSigned:
		return "SIGNED"
	case StateConfirmed:
		return "CONFIRMED"
	case StateAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateAborted
}

// Action is one governance action: it checks its payload and produces the steps of the batch.
type Action interface {
	Name() string
	Description() string
	// Validate runs every precondition that can be checked before a call is issued.
	Validate(ctx context.Context) error
	// Steps returns the ordered steps. backend tells whether applied calls are visible to
	// later reads.
	Steps(ctx context.Context, backend CallBackend) ([]Step, error)
	// Summary returns the action lines shown in the preview.
	Summary() []string
}

// SessionConfig binds a session to one network and one multisig.
type SessionConfig struct {
	Logger          logger.Logger
	Network         string
	ChainSelector   uint64
	MultisigAddress common.Address
	Nonce           uint64

	Backend   CallBackend
	Nonces    *NonceGuard
	Signer    *Signer
	Confirmer Confirmer
	Submitter Submitter

	// Optional: Reporter records every applied call. Defaults to an in-memory reporter.
	Reporter operations.Reporter
	// Optional: Validity overrides DefaultValidity.
	Validity time.Duration
	// Colored enables colors in the preview.
	Colored bool
}

func (c SessionConfig) validate() error {
	var missing []string
	if c.Logger == nil {
		missing = append(missing, "logger")
	}
	if c.Backend == nil {
		missing = append(missing, "backend")
	}
	if c.Nonces == nil {
		missing = append(missing, "nonce guard")
	}
	if c.Signer == nil {
		missing = append(missing, "signer")
	}
	if c.Confirmer == nil {
		missing = append(missing, "confirmer")
	}
	if c.Submitter == nil {
		missing = append(missing, "submitter")
	}
	if c.MultisigAddress == (common.Address{}) {
		missing = append(missing, "multisig address")
	}
	if len(missing) > 0 {
		return fmt.Errorf("session config is missing: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Result is what a session run produced, up to the state it reached.
type Result struct {
	State     State
	Receipts  []Receipt
	Proposal  *mcms.Proposal
	Signature *mcmstypes.Signature
	Preview   string
	Path      string
}

// Session drives a single action from validation to hand-off. A session runs once.
type Session struct {
	cfg   SessionConfig
	lggr  logger.Logger
	state State
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Session{cfg: cfg, lggr: cfg.Logger.Named("session"), state: StateInit}, nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

func (s *Session) transition(to State) error {
	if s.state.Terminal() {
		return fmt.Errorf("%w: session is %s", ErrInvalidTransition, s.state)
	}
	if to != StateAborted && to != s.state+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}

	s.lggr.Debugw("Session transition", "from", s.state.String(), "to", to.String())
	s.state = to

	return nil
}

// Run validates the action, executes its steps, assembles and signs the batch, asks for
// confirmation and submits it. Any failure aborts the session and is returned along with what
// was produced so far.
func (s *Session) Run(ctx context.Context, action Action) (*Result, error) {
	if s.state != StateInit {
		return nil, fmt.Errorf("%w: session already ran (%s)", ErrInvalidTransition, s.state)
	}

	res := &Result{}
	err := s.run(ctx, action, res)
	if err != nil {
		if terr := s.transition(StateAborted); terr != nil {
			err = errors.Join(err, terr)
		}
		if errors.Is(err, ErrDeclined) {
			s.lggr.Warnw("Batch declined, nothing submitted", "action", action.Name())
		} else {
			s.lggr.Errorw("Session aborted", "action", action.Name(), "error", err)
		}
	}
	res.State = s.state

	return res, err
}

func (s *Session) run(ctx context.Context, action Action, res *Result) error {
	s.lggr.Infow("Starting session",
		"action", action.Name(), "network", s.cfg.Network, "multisig", s.cfg.MultisigAddress.Hex(),
		"nonce", s.cfg.Nonce, "backend", s.cfg.Backend.Name())

	if err := action.Validate(ctx); err != nil {
		return err
	}
	if err := s.transition(StateValidated); err != nil {
		return err
	}

	steps, err := action.Steps(ctx, s.cfg.Backend)
	if err != nil {
		return err
	}
	executor := NewExecutor(s.cfg.Logger, s.cfg.Backend, s.cfg.MultisigAddress, s.cfg.Reporter)
	res.Receipts, err = executor.Execute(ctx, steps)
	if err != nil {
		return err
	}
	if len(res.Receipts) == 0 {
		return fmt.Errorf("%w: on-chain state already matches %s", ErrEmptyBatch, action.Name())
	}
	if err = s.transition(StateExecuted); err != nil {
		return err
	}

	if err = s.cfg.Nonces.Check(ctx, s.cfg.Nonce, uint64(len(res.Receipts))); err != nil {
		return err
	}
	assembler := NewAssembler(s.cfg.ChainSelector, s.cfg.MultisigAddress, action.Description())
	if s.cfg.Validity > 0 {
		assembler.Validity = s.cfg.Validity
	}
	res.Proposal, err = assembler.Assemble(res.Receipts, s.cfg.Nonce)
	if err != nil {
		return err
	}
	if err = s.transition(StateAssembled); err != nil {
		return err
	}

	sig, err := s.cfg.Signer.Sign(res.Proposal)
	if err != nil {
		return err
	}
	res.Signature = &sig
	if err = s.transition(StateSigned); err != nil {
		return err
	}

	var preview strings.Builder
	err = Preview{
		Action:        action.Name(),
		ChainSelector: s.cfg.ChainSelector,
		Proposal:      res.Proposal,
		Summary:       action.Summary(),
		Colored:       s.cfg.Colored,
	}.Render(&preview)
	if err != nil {
		return err
	}
	res.Preview = preview.String()

	ok, err := s.cfg.Confirmer.Confirm(ctx, res.Preview)
	if err != nil {
		return fmt.Errorf("failed to get confirmation: %w", err)
	}
	if !ok {
		return ErrDeclined
	}

	res.Path, err = s.cfg.Submitter.Submit(ctx, Submission{
		Network: s.cfg.Network,
		Action:  action.Name(),
		Nonce:   s.cfg.Nonce,
	}, res.Proposal)
	if err != nil {
		return err
	}

	return s.transition(StateConfirmed)
}
