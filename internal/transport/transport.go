package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/manash/bizforge/pkg/models"
)

var (
	ErrFailed          = errors.New("transport failure")
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrBaseURLRequired = errors.New("base URL is required")
)

// Endpoint identifies a remote operation. The HTTP method and path live in
// the route table, not at call sites.
type Endpoint string

const (
	EndpointBrandName     Endpoint = "brand.generate_name"
	EndpointLogo          Endpoint = "logo.prompt"
	EndpointContent       Endpoint = "content.generate"
	EndpointDesign        Endpoint = "design.palette"
	EndpointSentiment     Endpoint = "sentiment.analyze"
	EndpointChat          Endpoint = "chat"
	EndpointBrandVoiceGet Endpoint = "users.brand_voice.get"
	EndpointBrandVoicePut Endpoint = "users.brand_voice.put"
	EndpointUserSync      Endpoint = "users.sync"
	EndpointExport        Endpoint = "export.brand_bible"
	EndpointHealth        Endpoint = "health"
)

type route struct {
	method string
	path   string
	// root routes are served outside the API prefix.
	root bool
}

var routes = map[Endpoint]route{
	EndpointBrandName:     {method: "POST", path: "/brand/generate-name"},
	EndpointLogo:          {method: "POST", path: "/logo/prompt"},
	EndpointContent:       {method: "POST", path: "/content/generate"},
	EndpointDesign:        {method: "POST", path: "/design/palette"},
	EndpointSentiment:     {method: "POST", path: "/sentiment/analyze"},
	EndpointChat:          {method: "POST", path: "/chat"},
	EndpointBrandVoiceGet: {method: "GET", path: "/users/me/brand-voice"},
	EndpointBrandVoicePut: {method: "PUT", path: "/users/me/brand-voice"},
	EndpointUserSync:      {method: "POST", path: "/users/sync"},
	EndpointExport:        {method: "POST", path: "/export/brand-bible"},
	EndpointHealth:        {method: "GET", path: "/health", root: true},
}

// EndpointFor returns the generation endpoint serving kind.
func EndpointFor(kind models.Kind) (Endpoint, error) {
	switch kind {
	case models.KindBrandName:
		return EndpointBrandName, nil
	case models.KindLogo:
		return EndpointLogo, nil
	case models.KindContent:
		return EndpointContent, nil
	case models.KindDesign:
		return EndpointDesign, nil
	case models.KindSentiment:
		return EndpointSentiment, nil
	case models.KindChat:
		return EndpointChat, nil
	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnknownKind, kind)
	}
}

// Method returns the default HTTP method of e.
func (e Endpoint) Method() string {
	return routes[e].method
}

// Call is one abstract request. Body, when non-nil, is sent as JSON.
// Method overrides the route's default method when set.
type Call struct {
	Endpoint Endpoint
	Method   string
	Query    url.Values
	Body     any
}

type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Transport issues calls against the remote service. Implementations return
// *Failure for every unsuccessful outcome.
type Transport interface {
	Do(ctx context.Context, call Call) (*Response, error)
}

type Config struct {
	BaseURL    string
	TimeoutSec int
	// Retries applies to idempotent (GET) calls only.
	Retries int
	Verbose bool
}
