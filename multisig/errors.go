package multisig

import (
	"errors"
	"fmt"
)

// Precondition failures. They are detected before any call is issued or before the batch is
// signed, and abort the run.
var (
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrWeightOutOfBand     = errors.New("total weight out of band")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNonceUsed           = errors.New("nonce already used")
	ErrNoncePending        = errors.New("nonce used by a pending proposal")
	ErrEmptyBatch          = errors.New("batch has no operations")
	ErrAlreadySigned       = errors.New("batch is already signed")
)

// ErrCallReverted is returned by a CallBackend when the call reverts.
var ErrCallReverted = errors.New("call reverted")

// ErrDeclined is returned when the operator does not confirm the batch.
var ErrDeclined = errors.New("batch declined by operator")

// ErrInvalidTransition is returned when the session is driven out of order.
var ErrInvalidTransition = errors.New("invalid session transition")

// PartialExecutionError is returned when a step fails after earlier steps were applied. The
// completed receipts are kept so the operator can see how far the run got. Nothing is retried.
type PartialExecutionError struct {
	Completed   []Receipt
	FailedIndex int
	Step        string
	Err         error
}

func (e *PartialExecutionError) Error() string {
	return fmt.Sprintf("step %d (%s) failed after %d completed calls: %v",
		e.FailedIndex, e.Step, len(e.Completed), e.Err)
}

func (e *PartialExecutionError) Unwrap() error {
	return e.Err
}
