package operations

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// Bundle is what every handler receives besides its deps and input.
type Bundle struct {
	Logger     logger.Logger
	GetContext func() context.Context
	reporter   Reporter
}

// NewBundle creates a Bundle. A nil reporter keeps reports in memory.
func NewBundle(getContext func() context.Context, lggr logger.Logger, reporter Reporter) Bundle {
	if reporter == nil {
		reporter = NewMemoryReporter()
	}

	return Bundle{Logger: lggr, GetContext: getContext, reporter: reporter}
}

// Reporter returns the reporter executions are recorded to.
func (b Bundle) Reporter() Reporter {
	return b.reporter
}

// Handler performs the side effect of an operation. It must perform at most one.
type Handler[IN, OUT, DEP any] func(b Bundle, deps DEP, input IN) (OUT, error)

// Definition identifies an operation in reports.
type Definition struct {
	ID          string          `json:"id"`
	Version     *semver.Version `json:"version"`
	Description string          `json:"description"`
}

// Operation is a versioned handler. Create it with NewOperation.
type Operation[IN, OUT, DEP any] struct {
	def     Definition
	handler Handler[IN, OUT, DEP]
}

// NewOperation defines an operation. Create version with semver.MustParse.
func NewOperation[IN, OUT, DEP any](
	id string, version *semver.Version, description string, handler Handler[IN, OUT, DEP],
) *Operation[IN, OUT, DEP] {
	return &Operation[IN, OUT, DEP]{
		def:     Definition{ID: id, Version: version, Description: description},
		handler: handler,
	}
}

func (o *Operation[IN, OUT, DEP]) ID() string {
	return o.def.ID
}

func (o *Operation[IN, OUT, DEP]) Def() Definition {
	return o.def
}
