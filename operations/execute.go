package operations

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotSerializable is returned when an input or output cannot be written to the audit trail.
var ErrNotSerializable = errors.New("value cannot be serialized to JSON")

// ExecuteOperation runs operation exactly once and records a Report, failed or not. The handler
// error is returned unchanged so callers can match it with errors.Is and errors.As.
//
// Inputs and outputs are persisted as JSON, so both must be serializable.
func ExecuteOperation[IN, OUT, DEP any](
	b Bundle, operation *Operation[IN, OUT, DEP], deps DEP, input IN,
) (Report[IN, OUT], error) {
	def := operation.def
	if err := serializable(input); err != nil {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s input: %w", def.ID, err)
	}

	b.Logger.Debugw("Executing operation", "id", def.ID, "version", def.Version.String())
	output, err := operation.handler(b, deps, input)
	if err == nil {
		if serr := serializable(output); serr != nil {
			return Report[IN, OUT]{}, fmt.Errorf("operation %s output: %w", def.ID, serr)
		}
	}

	report := NewReport(def, input, output, err)
	if rerr := b.reporter.AddReport(report.ToGenericReport()); rerr != nil {
		return report, errors.Join(err, fmt.Errorf("failed to record report of %s: %w", def.ID, rerr))
	}

	return report, err
}

func serializable(v any) error {
	if _, err := json.Marshal(v); err != nil {
		return fmt.Errorf("%w: %T: %w", ErrNotSerializable, v, err)
	}

	return nil
}
