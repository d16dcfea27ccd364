package models

import "time"

// Session is the single active identity. The token is carried as-is; it has
// not been verified.
type Session struct {
	Token       string `json:"token"`
	SubjectID   string `json:"subject_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURI   string `json:"avatar_uri,omitempty"`
	ExpiresAtMs int64  `json:"expires_at_ms"`
}

func (s *Session) ExpiresAt() time.Time {
	return time.UnixMilli(s.ExpiresAtMs)
}

func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() > s.ExpiresAtMs
}

// FirstName returns the first word of the display name, used in greetings.
func (s *Session) FirstName() string {
	for i, r := range s.DisplayName {
		if r == ' ' {
			return s.DisplayName[:i]
		}
	}
	return s.DisplayName
}
