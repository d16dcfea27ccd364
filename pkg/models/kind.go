package models

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies one of the generation workflows.
type Kind string

const (
	KindBrandName Kind = "brand_name"
	KindLogo      Kind = "logo"
	KindContent   Kind = "content"
	KindDesign    Kind = "design"
	KindSentiment Kind = "sentiment"
	KindChat      Kind = "chat"
)

func AllKinds() []Kind {
	return []Kind{KindBrandName, KindLogo, KindContent, KindDesign, KindSentiment, KindChat}
}

func (k Kind) IsValid() bool {
	return slices.Contains(AllKinds(), k)
}

func (k Kind) String() string {
	return string(k)
}

func (k Kind) DisplayName() string {
	switch k {
	case KindBrandName:
		return "Brand Names"
	case KindLogo:
		return "Logo"
	case KindContent:
		return "Marketing Content"
	case KindDesign:
		return "Design System"
	case KindSentiment:
		return "Sentiment Analysis"
	case KindChat:
		return "Branding Chat"
	default:
		return string(k)
	}
}

// ParseKind accepts the canonical name as well as the dashed CLI spelling.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}
