package sproutbank

import (
	"errors"
	"fmt"
)

var (
	ErrInternalServer = errors.New("internal server error")

	// ErrInvalidAmount covers non-positive and non-finite amounts, and
	// amounts that round to zero cents.
	ErrInvalidAmount = errors.New("amount must be a positive finite value")

	ErrInvalidRate = errors.New("interest rate must be non-negative")

	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOverloaded is returned when the service sheds load.
	ErrOverloaded = errors.New("service overloaded")

	// ErrStorage wraps any underlying persistence error. The account
	// update and the transaction append either both commit or neither
	// does; callers only ever see the wrapped failure.
	ErrStorage = errors.New("storage failure")
)

type ErrBadRequest struct {
	Fields map[string]string `json:"fields"`
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}

type ErrNotFound struct {
	ID string `json:"id"`
}

func (e ErrNotFound) Error() string {
	return "account not found"
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
