package operations

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var _ Reporter = (*FileReporter)(nil)

// FileReporter appends every report as one JSON line to a file. The file is the audit trail of
// a run and is kept next to the proposal it produced.
type FileReporter struct {
	path string
	mu   sync.Mutex
}

// NewFileReporter creates a reporter writing to path, creating parent directories as needed.
// Every reporter starts a new trail: records left at path by an earlier run are discarded.
func NewFileReporter(path string) (*FileReporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to reset report file: %w", err)
	}
	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("failed to reset report file: %w", err)
	}

	return &FileReporter{path: path}, nil
}

// Path returns the file the reports are written to.
func (r *FileReporter) Path() string {
	return r.path
}

// AddReport appends report to the file.
func (r *FileReporter) AddReport(report Report[any, any]) error {
	line, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report %s: %w", report.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	if _, err = f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write report %s: %w", report.ID, err)
	}

	return f.Sync()
}

// GetReports reads back every report in the file.
func (r *FileReporter) GetReports() ([]Report[any, any], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	var reports []Report[any, any]
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var report Report[any, any]
		if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	return reports, nil
}

// GetReport returns a report by ID.
func (r *FileReporter) GetReport(id string) (Report[any, any], error) {
	reports, err := r.GetReports()
	if err != nil {
		return Report[any, any]{}, err
	}

	return findReport(reports, id)
}
