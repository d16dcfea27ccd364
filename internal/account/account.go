// Package account wraps the account-level remote calls: brand voice
// persistence, user sync, brand guide export, and service health.
package account

import (
	"context"
	"net/url"

	"github.com/manash/bizforge/internal/transport"
	"github.com/manash/bizforge/pkg/models"
)

const (
	DefaultGuideName      = "My Brand"
	DefaultTagline        = "Powered by BizForge AI"
	DefaultPrimaryColor   = "#667eea"
	DefaultSecondaryColor = "#764ba2"
	DefaultFontPrimary    = "Inter"
	DefaultFontSecondary  = "Roboto"
)

type Client struct {
	t transport.Transport
}

func New(t transport.Transport) *Client {
	return &Client{t: t}
}

func subjectQuery(subjectID string) url.Values {
	return url.Values{"google_id": []string{subjectID}}
}

type brandVoiceEnvelope struct {
	BrandVoice *models.BrandVoiceProfile `json:"brand_voice"`
}

// FetchBrandVoice returns the remote profile for subjectID. A nil profile
// with a nil error means the remote holds nothing.
func (c *Client) FetchBrandVoice(ctx context.Context, subjectID string) (*models.BrandVoiceProfile, error) {
	resp, err := c.t.Do(ctx, transport.Call{
		Endpoint: transport.EndpointBrandVoiceGet,
		Query:    subjectQuery(subjectID),
	})
	if err != nil {
		return nil, err
	}

	var env brandVoiceEnvelope
	if err := transport.DecodeJSON(transport.EndpointBrandVoiceGet, resp, &env); err != nil {
		return nil, err
	}
	return env.BrandVoice, nil
}

func (c *Client) PushBrandVoice(ctx context.Context, subjectID string, p models.BrandVoiceProfile) error {
	_, err := c.t.Do(ctx, transport.Call{
		Endpoint: transport.EndpointBrandVoicePut,
		Query:    subjectQuery(subjectID),
		Body:     p,
	})
	return err
}

type userSyncRequest struct {
	GoogleID string `json:"google_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture,omitempty"`
}

func (c *Client) SyncUser(ctx context.Context, sess *models.Session) error {
	_, err := c.t.Do(ctx, transport.Call{
		Endpoint: transport.EndpointUserSync,
		Body: userSyncRequest{
			GoogleID: sess.SubjectID,
			Email:    sess.Email,
			Name:     sess.DisplayName,
			Picture:  sess.AvatarURI,
		},
	})
	return err
}

// BrandGuide is the export request body.
type BrandGuide struct {
	BrandName      string                   `json:"brand_name"`
	Tagline        string                   `json:"tagline"`
	Industry       *string                  `json:"industry"`
	Description    *string                  `json:"description"`
	BrandVoice     models.BrandVoiceProfile `json:"brand_voice"`
	PrimaryColor   string                   `json:"primary_color"`
	SecondaryColor string                   `json:"secondary_color"`
	FontPrimary    string                   `json:"font_primary"`
	FontSecondary  string                   `json:"font_secondary"`
}

// NewBrandGuide composes an export request from the signed-in user's name
// and profile. Empty industry and personality are sent as null.
func NewBrandGuide(displayName string, p models.BrandVoiceProfile) BrandGuide {
	name := displayName
	if name == "" {
		name = DefaultGuideName
	}
	return BrandGuide{
		BrandName:      name,
		Tagline:        DefaultTagline,
		Industry:       optional(p.Industry),
		Description:    optional(p.Personality),
		BrandVoice:     p,
		PrimaryColor:   DefaultPrimaryColor,
		SecondaryColor: DefaultSecondaryColor,
		FontPrimary:    DefaultFontPrimary,
		FontSecondary:  DefaultFontSecondary,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Export is a rendered brand guide document.
type Export struct {
	ContentType string
	Data        []byte
}

// ExportBrandGuide returns the document bytes exactly as served.
func (c *Client) ExportBrandGuide(ctx context.Context, guide BrandGuide) (*Export, error) {
	resp, err := c.t.Do(ctx, transport.Call{
		Endpoint: transport.EndpointExport,
		Body:     guide,
	})
	if err != nil {
		return nil, err
	}
	return &Export{ContentType: resp.ContentType, Data: resp.Body}, nil
}

type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Model   string `json:"model"`
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.t.Do(ctx, transport.Call{Endpoint: transport.EndpointHealth})
	if err != nil {
		return nil, err
	}
	var h HealthStatus
	if err := transport.DecodeJSON(transport.EndpointHealth, resp, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
