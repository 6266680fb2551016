package quotes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a quote id does not exist.
var ErrNotFound = errors.New("quote not found")

// StoreError wraps a storage failure with the operation that produced it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("quotes store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Code is picked up by handler log summaries as err_code.
func (e *StoreError) Code() string {
	return "STORE_" + strings.ToUpper(strings.ReplaceAll(e.Op, ".", "_"))
}

// WrapStore returns nil for nil err, passes ErrNotFound through, and wraps everything else.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
