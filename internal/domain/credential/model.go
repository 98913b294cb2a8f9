// Package credential holds the provider token material a caller presents
// when asking for data on their behalf.
package credential

import "time"

// Credential carries the OAuth token set extracted from a request. IDToken
// identifies the user; AccessToken authorizes provider calls.
type Credential struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	IDToken      string    `json:"idToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (c Credential) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !c.ExpiresAt.After(now)
}

func (c Credential) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.IDToken == ""
}
