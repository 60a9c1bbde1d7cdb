package operations

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrReportNotFound is returned when no report has the requested ID.
var ErrReportNotFound = errors.New("report not found")

// Report is the audit record of one execution: the definition that ran, its input and output,
// and the error when it failed.
type Report[IN, OUT any] struct {
	ID        string       `json:"id"`
	Def       Definition   `json:"definition"`
	Output    OUT          `json:"output"`
	Input     IN           `json:"input"`
	Timestamp *time.Time   `json:"timestamp"`
	Err       *ReportError `json:"error"`
}

// NewReport records an execution of def. A nil err marks it successful.
func NewReport[IN, OUT any](def Definition, input IN, output OUT, err error) Report[IN, OUT] {
	at := time.Now().UTC()

	var rerr *ReportError
	if err != nil {
		rerr = &ReportError{Message: err.Error()}
	}

	return Report[IN, OUT]{
		ID:        uuid.NewString(),
		Def:       def,
		Input:     input,
		Output:    output,
		Timestamp: &at,
		Err:       rerr,
	}
}

// Failed reports whether the execution returned an error.
func (r Report[IN, OUT]) Failed() bool {
	return r.Err != nil
}

// ToGenericReport erases the input and output types so the report can be stored.
func (r Report[IN, OUT]) ToGenericReport() Report[any, any] {
	return Report[any, any]{
		ID:        r.ID,
		Def:       r.Def,
		Input:     r.Input,
		Output:    r.Output,
		Timestamp: r.Timestamp,
		Err:       r.Err,
	}
}

// ReportError is the JSON form of an execution error.
type ReportError struct {
	Message string `json:"message"`
}

func (e ReportError) Error() string {
	return e.Message
}

// Reporter stores reports in the order they were added.
type Reporter interface {
	AddReport(report Report[any, any]) error
	GetReports() ([]Report[any, any], error)
	GetReport(id string) (Report[any, any], error)
}

// MemoryReporter keeps reports for the lifetime of the process. It is safe for concurrent use.
type MemoryReporter struct {
	mu      sync.RWMutex
	reports []Report[any, any]
}

func NewMemoryReporter() *MemoryReporter {
	return &MemoryReporter{}
}

func (m *MemoryReporter) AddReport(report Report[any, any]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports = append(m.reports, report)

	return nil
}

// GetReports returns a copy of the stored reports.
func (m *MemoryReporter) GetReports() ([]Report[any, any], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Report[any, any](nil), m.reports...), nil
}

func (m *MemoryReporter) GetReport(id string) (Report[any, any], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return findReport(m.reports, id)
}

func findReport(reports []Report[any, any], id string) (Report[any, any], error) {
	for _, r := range reports {
		if r.ID == id {
			return r, nil
		}
	}

	return Report[any, any]{}, fmt.Errorf("report %s: %w", id, ErrReportNotFound)
}

// CountFailed returns how many reports of r are failed executions.
func CountFailed(r Reporter) (int, error) {
	reports, err := r.GetReports()
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, report := range reports {
		if report.Failed() {
			failed++
		}
	}

	return failed, nil
}
