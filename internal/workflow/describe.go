package workflow

import (
	"errors"
	"net/http"

	"github.com/manash/bizforge/internal/transport"
)

// Messages shown for failed results. They carry retry guidance only, never
// status codes or raw error text.
const (
	MsgUnreachable  = "Could not reach the service. Make sure the backend is running and try again."
	MsgTimeout      = "The service took too long to respond. Please try again."
	MsgServerError  = "The service had a problem completing this request. Please try again in a moment."
	MsgRateLimited  = "Too many requests right now. Please wait a moment and try again."
	MsgBadRequest   = "The service could not accept these inputs. Check the fields and try again."
	MsgBadResponse  = "The service returned an unexpected response. Please try again."
	MsgRejected     = "The service could not complete the request. Please try again."
	MsgEmpty        = "The service returned an empty result. Please try again with different inputs."
	MsgNotPrepared  = "The request could not be prepared. Please try again."
	MsgUnknownError = "Something went wrong. Please try again."
	MsgBusy         = "This request is still running. Wait for it to finish before sending another."
)

// Describe summarizes a failure for display.
func Describe(err error) string {
	if f, ok := transport.AsFailure(err); ok {
		switch f.Reason {
		case transport.ReasonNetwork:
			return MsgUnreachable
		case transport.ReasonTimeout:
			return MsgTimeout
		case transport.ReasonDecode:
			return MsgBadResponse
		case transport.ReasonEncode:
			return MsgNotPrepared
		case transport.ReasonStatus:
			switch {
			case f.Status == http.StatusTooManyRequests:
				return MsgRateLimited
			case f.Status >= 500:
				return MsgServerError
			default:
				return MsgBadRequest
			}
		}
	}

	var de *decodeError
	switch {
	case errors.As(err, &de):
		return MsgBadResponse
	case errors.Is(err, errRejected):
		return MsgRejected
	case errors.Is(err, errEmptyPayload):
		return MsgEmpty
	default:
		return MsgUnknownError
	}
}
