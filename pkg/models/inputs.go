package models

import "strings"

// Inputs carries the raw, user-facing values of a single invocation. Each
// workflow reads only the fields it needs.
type Inputs struct {
	Keywords    string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Industry    string `json:"industry,omitempty" yaml:"industry,omitempty"`
	Tone        string `json:"tone,omitempty" yaml:"tone,omitempty"`
	BrandName   string `json:"brand_name,omitempty" yaml:"brand_name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Field names used in validation errors.
const (
	FieldKeywords    = "keywords"
	FieldIndustry    = "industry"
	FieldTone        = "tone"
	FieldBrandName   = "brand_name"
	FieldDescription = "description"
	FieldText        = "text"
	FieldMessage     = "message"
)

// RequiredFields lists the inputs that must be non-empty before a request for
// kind may be sent.
func RequiredFields(kind Kind) []string {
	switch kind {
	case KindBrandName:
		return []string{FieldKeywords}
	case KindLogo:
		return []string{FieldBrandName, FieldIndustry, FieldKeywords}
	case KindContent:
		return []string{FieldBrandName, FieldDescription}
	case KindDesign:
		return []string{FieldBrandName, FieldTone, FieldIndustry}
	case KindSentiment:
		return []string{FieldText}
	case KindChat:
		return []string{FieldMessage}
	default:
		return nil
	}
}

func (in Inputs) field(name string) string {
	switch name {
	case FieldKeywords:
		return in.Keywords
	case FieldIndustry:
		return in.Industry
	case FieldTone:
		return in.Tone
	case FieldBrandName:
		return in.BrandName
	case FieldDescription:
		return in.Description
	case FieldText:
		return in.Text
	case FieldMessage:
		return in.Message
	default:
		return ""
	}
}

// Validate reports the required fields of kind that are blank.
func (in Inputs) Validate(kind Kind) error {
	if !kind.IsValid() {
		return ErrUnknownKind
	}
	var missing []string
	for _, name := range RequiredFields(kind) {
		if strings.TrimSpace(in.field(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Kind: kind, Fields: missing}
	}
	return nil
}
