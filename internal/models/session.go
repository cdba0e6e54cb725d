package models

import "time"

// Session is the explicit signed-in context issued on credential acquisition
// and deleted on sign out.
type Session struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	IDToken   string    `json:"idToken,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResult is returned by every successful sign in flavour.
type AuthResult struct {
	Session   *Session `json:"session"`
	Profile   *Profile `json:"profile"`
	IsNewUser bool     `json:"isNewUser"`
}
