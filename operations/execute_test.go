package operations

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

var errCallFailed = errors.New("call failed")

func Test_ExecuteOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handlerErr error
		wantOutput int
		wantErr    string
	}{
		{
			name:       "success",
			wantOutput: 2,
		},
		{
			name:       "failure is not retried",
			handlerErr: errCallFailed,
			wantErr:    "call failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			handler := func(b Bundle, deps any, input int) (int, error) {
				calls++
				if tt.handlerErr != nil {
					return 0, tt.handlerErr
				}

				return input + 1, nil
			}
			op := NewOperation("plus1", semver.MustParse("1.0.0"), "test operation", handler)
			reporter := NewMemoryReporter()
			e := NewBundle(context.Background, logger.Test(t), reporter)

			res, err := ExecuteOperation(e, op, nil, 1)
			assert.Equal(t, 1, calls)

			if tt.wantErr != "" {
				require.ErrorIs(t, err, tt.handlerErr)
				require.NotNil(t, res.Err)
				assert.Equal(t, tt.wantErr, res.Err.Error())
			} else {
				require.NoError(t, err)
				require.Nil(t, res.Err)
				assert.Equal(t, tt.wantOutput, res.Output)
			}

			// failed and successful executions are both reported
			reports, err := reporter.GetReports()
			require.NoError(t, err)
			require.Len(t, reports, 1)
			assert.Equal(t, res.ID, reports[0].ID)
			assert.Equal(t, "plus1", reports[0].Def.ID)
			assert.Equal(t, 1, reports[0].Input)
		})
	}
}

func Test_ExecuteOperation_RunsEveryTime(t *testing.T) {
	t.Parallel()

	calls := 0
	op := NewOperation("count", semver.MustParse("1.0.0"), "count calls",
		func(b Bundle, deps any, input int) (int, error) {
			calls++
			return input, nil
		})
	reporter := NewMemoryReporter()
	e := NewBundle(context.Background, logger.Test(t), reporter)

	_, err := ExecuteOperation(e, op, nil, 1)
	require.NoError(t, err)
	_, err = ExecuteOperation(e, op, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	reports, err := reporter.GetReports()
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func Test_ExecuteOperation_NotSerializable(t *testing.T) {
	t.Parallel()

	e := NewBundle(context.Background, logger.Test(t), NewMemoryReporter())

	inputOp := NewOperation("input", semver.MustParse("1.0.0"), "bad input",
		func(b Bundle, deps any, input float64) (int, error) { return 0, nil })
	_, err := ExecuteOperation(e, inputOp, nil, math.NaN())
	require.ErrorIs(t, err, ErrNotSerializable)

	outputOp := NewOperation("output", semver.MustParse("1.0.0"), "bad output",
		func(b Bundle, deps any, input int) (chan int, error) { return make(chan int), nil })
	_, err = ExecuteOperation(e, outputOp, nil, 1)
	require.ErrorIs(t, err, ErrNotSerializable)
}

type failingReporter struct{ *MemoryReporter }

func (failingReporter) AddReport(Report[any, any]) error { return errors.New("disk full") }

func Test_ExecuteOperation_ReporterFailure(t *testing.T) {
	t.Parallel()

	op := NewOperation("op", semver.MustParse("1.0.0"), "op",
		func(b Bundle, deps any, input int) (int, error) { return 0, errCallFailed })
	e := NewBundle(context.Background, logger.Test(t), failingReporter{NewMemoryReporter()})

	_, err := ExecuteOperation(e, op, nil, 1)
	require.ErrorIs(t, err, errCallFailed)
	require.ErrorContains(t, err, "disk full")
}
