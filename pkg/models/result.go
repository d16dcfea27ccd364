package models

import (
	"fmt"
	"strings"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps a free-form label onto the enum. ok is false for labels
// outside the enum (including "mixed").
func ParseSentiment(label string) (Sentiment, bool) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(label))) {
	case SentimentPositive:
		return SentimentPositive, true
	case SentimentNeutral:
		return SentimentNeutral, true
	case SentimentNegative:
		return SentimentNegative, true
	default:
		return "", false
	}
}

// Result is the uniform outcome of one workflow invocation. A failed result
// carries only ErrorMessage; a successful one carries Primary and the optional
// slots its Kind produces.
type Result struct {
	Kind           Kind      `json:"kind"`
	Success        bool      `json:"success"`
	Primary        string    `json:"primary,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	Confidence     *float64  `json:"confidence,omitempty"`
	ImageRef       string    `json:"image_ref,omitempty"`
	ImprovedReview string    `json:"improved_review,omitempty"`
}

func FailureResult(kind Kind, message string) Result {
	return Result{Kind: kind, Success: false, ErrorMessage: message}
}

// Validate checks the shape invariants of r.
func (r Result) Validate() error {
	if !r.Success {
		if r.ErrorMessage == "" {
			return fmt.Errorf("%w: failure without message", ErrInvalidResult)
		}
		if r.Primary != "" || r.Sentiment != "" || r.Confidence != nil || r.ImageRef != "" || r.ImprovedReview != "" {
			return fmt.Errorf("%w: failure with payload", ErrInvalidResult)
		}
		return nil
	}

	if r.ErrorMessage != "" {
		return fmt.Errorf("%w: success with error message", ErrInvalidResult)
	}
	if r.Primary == "" && r.ImageRef == "" {
		return fmt.Errorf("%w: success without payload", ErrInvalidResult)
	}
	if r.Kind != KindLogo && r.ImageRef != "" {
		return fmt.Errorf("%w: image reference on %s", ErrInvalidResult, r.Kind)
	}
	if r.Kind != KindSentiment && (r.Sentiment != "" || r.Confidence != nil || r.ImprovedReview != "") {
		return fmt.Errorf("%w: sentiment fields on %s", ErrInvalidResult, r.Kind)
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidResult, *r.Confidence)
	}
	return nil
}
