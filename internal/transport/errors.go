package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Reason classifies a transport failure.
type Reason string

const (
	ReasonStatus  Reason = "status"
	ReasonNetwork Reason = "network"
	ReasonTimeout Reason = "timeout"
	ReasonDecode  Reason = "decode"
	ReasonEncode  Reason = "encode"
)

// Failure is returned for any call that did not produce a usable 2xx body.
type Failure struct {
	Endpoint Endpoint
	Reason   Reason
	Status   int
	Err      error
}

func (f *Failure) Error() string {
	if f.Reason == ReasonStatus {
		return fmt.Sprintf("%s: %s: status %d: %v", f.Endpoint, f.Reason, f.Status, f.Err)
	}
	return fmt.Sprintf("%s: %s: %v", f.Endpoint, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Is(target error) bool {
	return target == ErrFailed
}

// AsFailure extracts the *Failure in err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func classifyNetworkError(endpoint Endpoint, err error) *Failure {
	reason := ReasonNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		reason = ReasonTimeout
	}
	return &Failure{Endpoint: endpoint, Reason: reason, Err: err}
}
