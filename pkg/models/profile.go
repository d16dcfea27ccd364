package models

// BrandVoiceProfile is the user's durable preference record. It is always
// read and written as a whole.
type BrandVoiceProfile struct {
	Personality    string `json:"personality" yaml:"personality"`
	Industry       string `json:"industry" yaml:"industry"`
	TargetAudience string `json:"target_audience" yaml:"target_audience"`
	Tone           string `json:"tone" yaml:"tone"`
}

func (p BrandVoiceProfile) IsZero() bool {
	return p == BrandVoiceProfile{}
}
