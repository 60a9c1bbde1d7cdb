package multisig

import "context"

// Step produces at most one call. Build reads whatever on-chain state it needs when the step
// is reached, so earlier steps applied on a fork are visible to it. It returns a nil call when
// the state already matches the target, and an error to abort the run.
type Step interface {
	Name() string
	Build(ctx context.Context) (*Call, error)
}

type stepFunc struct {
	name  string
	build func(ctx context.Context) (*Call, error)
}

// NewStep returns a Step from a build function.
func NewStep(name string, build func(ctx context.Context) (*Call, error)) Step {
	return &stepFunc{name: name, build: build}
}

// FixedStep returns a Step that always issues call.
func FixedStep(name string, call Call) Step {
	return NewStep(name, func(context.Context) (*Call, error) { return &call, nil })
}

// CheckStep returns a Step that issues no call and fails when check fails. It is used for
// post-conditions that must hold at its position in the sequence.
func CheckStep(name string, check func(ctx context.Context) error) Step {
	return NewStep(name, func(ctx context.Context) (*Call, error) { return nil, check(ctx) })
}

func (s *stepFunc) Name() string { return s.name }

func (s *stepFunc) Build(ctx context.Context) (*Call, error) { return s.build(ctx) }
