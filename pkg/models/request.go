package models

// Request is the payload sent to a workflow endpoint. The set of
// implementations is closed: one struct per Kind, each tagged with the exact
// field names its endpoint expects.
type Request interface {
	Kind() Kind
	isRequest()
}

type BrandNameRequest struct {
	Industry       string   `json:"industry"`
	Keywords       []string `json:"keywords"`
	Style          string   `json:"style"`
	TargetAudience string   `json:"target_audience"`
	Context        string   `json:"context"`
}

type LogoRequest struct {
	BrandName       string `json:"brand_name"`
	Industry        string `json:"industry"`
	BrandValues     string `json:"brand_values"`
	Style           string `json:"style"`
	IconPreferences string `json:"icon_preferences"`
	Colors          string `json:"colors"`
}

type ContentRequest struct {
	BrandName        string `json:"brand_name"`
	BrandDescription string `json:"brand_description"`
	ContentType      string `json:"content_type"`
	TargetAudience   string `json:"target_audience"`
	Tone             string `json:"tone"`
}

type DesignRequest struct {
	BrandName        string `json:"brand_name"`
	Industry         string `json:"industry"`
	BrandPersonality string `json:"brand_personality"`
	TargetAudience   string `json:"target_audience"`
	Mood             string `json:"mood"`
}

type SentimentRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
	BusinessContext     string        `json:"business_context"`
}

func (BrandNameRequest) Kind() Kind { return KindBrandName }
func (LogoRequest) Kind() Kind      { return KindLogo }
func (ContentRequest) Kind() Kind   { return KindContent }
func (DesignRequest) Kind() Kind    { return KindDesign }
func (SentimentRequest) Kind() Kind { return KindSentiment }
func (ChatRequest) Kind() Kind      { return KindChat }

func (BrandNameRequest) isRequest() {}
func (LogoRequest) isRequest()      {}
func (ContentRequest) isRequest()   {}
func (DesignRequest) isRequest()    {}
func (SentimentRequest) isRequest() {}
func (ChatRequest) isRequest()      {}
