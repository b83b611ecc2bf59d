package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrUnsupportedModel marks a codename no backend can serve. It surfaces
// before any provider call and is fatal to the run that requested it.
var ErrUnsupportedModel = errors.New("llm: unsupported model")

// ErrorKind classifies a failed provider call. Every backend failure maps
// onto exactly one kind so callers never branch on provider details.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindTimeout
	KindConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	default:
		return "unexpected"
	}
}

// CallError is the canonical failure for a chat or warm-up call.
type CallError struct {
	Kind    ErrorKind
	Backend string
	Err     error
}

func (e *CallError) Error() string {
	if e == nil {
		return "llm: call error <nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("llm: %s: %s", e.Backend, e.Kind)
	}
	return fmt.Sprintf("llm: %s: %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTimeout reports whether err is a call failure of kind Timeout.
func IsTimeout(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind == KindTimeout
}

// classifyErr folds a raw transport or SDK error into a CallError.
// Deadline expiry and net timeouts become Timeout, unreachable servers
// become Connection, everything else is Unexpected.
func classifyErr(backend string, err error) *CallError {
	if err == nil {
		return nil
	}

	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}

	kind := KindUnexpected
	switch {
	case isTimeoutErr(err):
		kind = KindTimeout
	case isConnectionErr(err):
		kind = KindConnection
	}

	return &CallError{Kind: kind, Backend: backend, Err: err}
}

func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionErr(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
