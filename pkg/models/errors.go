package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind   = errors.New("unknown workflow")
	ErrBusy          = errors.New("workflow already running")
	ErrInvalidResult = errors.New("invalid result")
)

// ValidationError reports required inputs that were left blank. It is
// raised before any request is built.
type ValidationError struct {
	Kind   Kind
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required input: %s", e.Kind, strings.Join(e.Fields, ", "))
}

// UserMessage is the text shown next to the form that was rejected.
func (e *ValidationError) UserMessage() string {
	switch e.Kind {
	case KindBrandName:
		return "Please enter keywords"
	case KindContent:
		return "Please enter brand name and description"
	case KindSentiment:
		return "Please enter a customer review"
	case KindChat:
		return "Please enter a message"
	default:
		return "Please fill in all fields"
	}
}

// DecodeError reports an identity token whose claims could not be read.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode identity token: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode identity token: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
