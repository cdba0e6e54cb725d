// Package auth talks to the hosted identity provider. Provider failures are
// returned as *Error carrying the provider's error code; the service layer
// translates those codes into rejection reasons.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Provider error codes, as reported by Firebase Identity Toolkit.
const (
	CodeMissingEmail        = "MISSING_EMAIL"
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeInvalidEmail        = "INVALID_EMAIL"
	CodeOperationNotAllowed = "OPERATION_NOT_ALLOWED"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeInvalidPassword     = "INVALID_PASSWORD"
	CodeInvalidCredentials  = "INVALID_LOGIN_CREDENTIALS"
	CodeEmailNotFound       = "EMAIL_NOT_FOUND"
	CodeUserDisabled        = "USER_DISABLED"
	CodeMissingPassword     = "MISSING_PASSWORD"
)

type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Code, e.Err)
	}
	return "auth: " + e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code extracts the provider error code from err, or "" when err did not come
// from the provider.
func Code(err error) string {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Code
	}
	return ""
}

// Credential is issued by the provider on successful authentication.
type Credential struct {
	UID       string
	Email     string
	PhotoURL  string
	IDToken   string
	IsNewUser bool
}

// FederatedAssertion is the identity provider response forwarded by the
// client, e.g. "id_token=...&providerId=google.com".
type FederatedAssertion struct {
	PostBody   string `json:"postBody"`
	RequestURI string `json:"requestUri"`
}

type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (*Credential, error)
	Authenticate(ctx context.Context, email, password string) (*Credential, error)
	FederatedAuthenticate(ctx context.Context, assertion FederatedAssertion) (*Credential, error)
	DeleteAccount(ctx context.Context, cred *Credential) error
	SignOut(ctx context.Context, uid string) error
}
