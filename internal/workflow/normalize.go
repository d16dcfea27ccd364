package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/manash/bizforge/pkg/models"
)

var (
	errRejected     = errors.New("service reported failure")
	errEmptyPayload = errors.New("response has no payload")
)

// Wire shapes of the six success bodies. Success is a pointer because older
// deployments omit it.
type brandNameResponse struct {
	Success     *bool  `json:"success"`
	Suggestions string `json:"suggestions"`
}

type logoResponse struct {
	Success  *bool   `json:"success"`
	Prompts  *string `json:"prompts"`
	ImageURL *string `json:"image_url"`
}

type contentResponse struct {
	Success *bool  `json:"success"`
	Content string `json:"content"`
}

type designResponse struct {
	Success         *bool  `json:"success"`
	Recommendations string `json:"recommendations"`
}

type sentimentResponse struct {
	Success        *bool    `json:"success"`
	Analysis       string   `json:"analysis"`
	Sentiment      string   `json:"sentiment"`
	Confidence     *float64 `json:"confidence"`
	ImprovedReview string   `json:"improved_review"`
}

type chatResponse struct {
	Success  *bool  `json:"success"`
	Response string `json:"response"`
}

// Normalize turns one transport outcome into a Result. A non-nil err yields
// the same failure shape for every kind.
func Normalize(kind models.Kind, body []byte, err error) models.Result {
	if err != nil {
		return models.FailureResult(kind, Describe(err))
	}

	var (
		result models.Result
		nerr   error
	)
	switch kind {
	case models.KindBrandName:
		result, nerr = normalizeBrandName(body)
	case models.KindLogo:
		result, nerr = normalizeLogo(body)
	case models.KindContent:
		result, nerr = normalizeContent(body)
	case models.KindDesign:
		result, nerr = normalizeDesign(body)
	case models.KindSentiment:
		result, nerr = normalizeSentiment(body)
	case models.KindChat:
		result, nerr = normalizeChat(body)
	default:
		nerr = fmt.Errorf("%w: %s", models.ErrUnknownKind, kind)
	}
	if nerr != nil {
		return models.FailureResult(kind, Describe(nerr))
	}
	result.Kind = kind
	result.Success = true
	return result
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func rejected(success *bool) bool {
	return success != nil && !*success
}

func normalizeText(success *bool, text string) (models.Result, error) {
	if rejected(success) {
		return models.Result{}, errRejected
	}
	if strings.TrimSpace(text) == "" {
		return models.Result{}, errEmptyPayload
	}
	return models.Result{Primary: text}, nil
}

func normalizeBrandName(body []byte) (models.Result, error) {
	var resp brandNameResponse
	if err := decode(body, &resp); err != nil {
		return models.Result{}, err
	}
	return normalizeText(resp.Success, resp.Suggestions)
}

// normalizeLogo accepts an image without prompts; the service currently
// returns prompts as null.
func normalizeLogo(body []byte) (models.Result, error) {
	var resp logoResponse
	if err := decode(body, &resp); err != nil {
		return models.Result{}, err
	}
	if rejected(resp.Success) {
		return models.Result{}, errRejected
	}

	var result models.Result
	if resp.Prompts != nil {
		result.Primary = strings.TrimSpace(*resp.Prompts)
	}
	if resp.ImageURL != nil {
		result.ImageRef = strings.TrimSpace(*resp.ImageURL)
	}
	if result.Primary == "" && result.ImageRef == "" {
		return models.Result{}, errEmptyPayload
	}
	return result, nil
}

func normalizeContent(body []byte) (models.Result, error) {
	var resp contentResponse
	if err := decode(body, &resp); err != nil {
		return models.Result{}, err
	}
	return normalizeText(resp.Success, resp.Content)
}

func normalizeDesign(body []byte) (models.Result, error) {
	var resp designResponse
	if err := decode(body, &resp); err != nil {
		return models.Result{}, err
	}
	return normalizeText(resp.Success, resp.Recommendations)
}

func normalizeSentiment(body []byte) (models.Result, error) {
	var resp sentimentResponse
	if err := decode(body, &resp); err != nil {
		return models.Result{}, err
	}
	result, err := normalizeText(resp.Success, resp.Analysis)
	if err != nil {
		return models.Result{}, err
	}
	if label, ok := models.ParseSentiment(resp.Sentiment); ok {
		result.Sentiment = label
	}
	result.Confidence = normalizeConfidence(resp.Confidence)
	result.ImprovedReview = strings.TrimSpace(resp.ImprovedReview)
	return result, nil
}

func normalizeChat(body []byte) (models.Result, error) {
	var resp chatResponse
	if err := decode(body, &resp); err != nil {
		return models.Result{}, err
	}
	return normalizeText(resp.Success, resp.Response)
}

// normalizeConfidence keeps values in [0,1], rescales percentages and drops
// anything else.
func normalizeConfidence(c *float64) *float64 {
	if c == nil || math.IsNaN(*c) {
		return nil
	}
	v := *c
	switch {
	case v >= 0 && v <= 1:
	case v > 1 && v <= 100:
		v /= 100
	default:
		return nil
	}
	return &v
}
