// Package workflow maps raw user inputs to endpoint payloads and endpoint
// responses back to the uniform models.Result. Everything here is pure.
package workflow

import (
	"fmt"
	"strings"

	"github.com/manash/bizforge/pkg/models"
)

// Defaults forced onto fields the endpoints require but the forms do not
// expose.
const (
	DefaultKeyword          = "general"
	DefaultBrandAudience    = "general"
	DefaultLogoStyle        = "modern"
	DefaultContentAudience  = "General Audience"
	DefaultDesignAudience   = "General"
	DefaultSentimentContext = "Customer Review"
)

// Build maps inputs to the request payload for kind. It does not check
// required fields; see models.Inputs.Validate.
func Build(kind models.Kind, in models.Inputs) (models.Request, error) {
	switch kind {
	case models.KindBrandName:
		return BuildBrandName(in), nil
	case models.KindLogo:
		return BuildLogo(in), nil
	case models.KindContent:
		return BuildContent(in), nil
	case models.KindDesign:
		return BuildDesign(in), nil
	case models.KindSentiment:
		return BuildSentiment(in), nil
	case models.KindChat:
		return BuildChat(in), nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownKind, kind)
	}
}

func BuildBrandName(in models.Inputs) models.BrandNameRequest {
	return models.BrandNameRequest{
		Industry:       in.Industry,
		Keywords:       SplitKeywords(in.Keywords),
		Style:          in.Tone,
		TargetAudience: DefaultBrandAudience,
		Context:        "",
	}
}

func BuildLogo(in models.Inputs) models.LogoRequest {
	return models.LogoRequest{
		BrandName:       in.BrandName,
		Industry:        in.Industry,
		BrandValues:     in.Keywords,
		Style:           DefaultLogoStyle,
		IconPreferences: "",
		Colors:          "",
	}
}

func BuildContent(in models.Inputs) models.ContentRequest {
	return models.ContentRequest{
		BrandName:        in.BrandName,
		BrandDescription: in.Description,
		ContentType:      in.ContentType,
		TargetAudience:   DefaultContentAudience,
		Tone:             in.Tone,
	}
}

// BuildDesign uses the tone both as the brand personality and the mood.
func BuildDesign(in models.Inputs) models.DesignRequest {
	return models.DesignRequest{
		BrandName:        in.BrandName,
		Industry:         in.Industry,
		BrandPersonality: in.Tone,
		TargetAudience:   DefaultDesignAudience,
		Mood:             in.Tone,
	}
}

func BuildSentiment(in models.Inputs) models.SentimentRequest {
	return models.SentimentRequest{
		Text:    in.Text,
		Context: DefaultSentimentContext,
	}
}

func BuildChat(in models.Inputs) models.ChatRequest {
	return models.ChatRequest{
		Message:             in.Message,
		ConversationHistory: []models.ChatMessage{},
		BusinessContext:     "",
	}
}

// SplitKeywords splits a comma separated list, trimming entries and dropping
// empty ones. An empty result becomes the single unconstrained keyword.
func SplitKeywords(raw string) []string {
	var keywords []string
	for _, part := range strings.Split(raw, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return []string{DefaultKeyword}
	}
	return keywords
}

// ApplyProfile fills blank industry and tone inputs from the saved brand
// voice. Inputs the user typed always win.
func ApplyProfile(in models.Inputs, profile models.BrandVoiceProfile) models.Inputs {
	if strings.TrimSpace(in.Industry) == "" {
		in.Industry = profile.Industry
	}
	if strings.TrimSpace(in.Tone) == "" {
		in.Tone = profile.Tone
	}
	return in
}
