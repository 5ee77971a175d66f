package models

import "time"

// ServerConfiguration stores a chat server endpoint alongside its
// authentication state. At most one configuration is active.
type ServerConfiguration struct {
	ID               string
	Name             string
	BaseURL          string
	AuthType         AuthType
	AuthToken        *string
	RefreshToken     *string
	TokenExpiresAt   *time.Time
	IsActive         bool
	IsSecure         bool
	LastConnected    *time.Time
	ConnectionStatus ConnectionStatus
	APIVersion       string
	CreatedAt        time.Time
}

// TokenIsValid reports whether the stored access token is unexpired at now.
// A token without a known expiry is treated as invalid.
func (s *ServerConfiguration) TokenIsValid(now time.Time) bool {
	return s.AuthToken != nil && s.TokenExpiresAt != nil && s.TokenExpiresAt.After(now)
}
