package proxmox

import (
	"errors"
	"fmt"
)

// TransportError indicates the cluster API could not be reached or
// rejected the call at the HTTP/auth level. It is not retried within a
// single orchestration attempt; only the discovery loop keeps polling
// through it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("proxmox: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func transportErr(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
