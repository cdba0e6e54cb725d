package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// IdentityToolkit signs users in through the Identity Toolkit relying party
// API (the same endpoints the Firebase web SDK uses) and revokes sessions
// with the Firebase Admin auth client.
type IdentityToolkit struct {
	rp    *identitytoolkit.RelyingpartyService
	admin *fbauth.Client
	l     *zap.Logger
}

func NewIdentityToolkit(ctx context.Context, apiKey string, admin *fbauth.Client, l *zap.Logger) (*IdentityToolkit, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("auth: failed to create identity toolkit client: %w", err)
	}
	return &IdentityToolkit{
		rp:    svc.Relyingparty,
		admin: admin,
		l:     l,
	}, nil
}

func (p *IdentityToolkit) CreateAccount(ctx context.Context, email, password string) (*Credential, error) {
	resp, err := p.rp.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, p.providerError("signup", err)
	}
	return &Credential{
		UID:       resp.LocalId,
		Email:     resp.Email,
		IDToken:   resp.IdToken,
		IsNewUser: true,
	}, nil
}

func (p *IdentityToolkit) Authenticate(ctx context.Context, email, password string) (*Credential, error) {
	resp, err := p.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, p.providerError("verify password", err)
	}
	return &Credential{
		UID:      resp.LocalId,
		Email:    resp.Email,
		PhotoURL: resp.PhotoUrl,
		IDToken:  resp.IdToken,
	}, nil
}

func (p *IdentityToolkit) FederatedAuthenticate(ctx context.Context, assertion FederatedAssertion) (*Credential, error) {
	resp, err := p.rp.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          assertion.PostBody,
		RequestUri:        assertion.RequestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, p.providerError("verify assertion", err)
	}
	return &Credential{
		UID:       resp.LocalId,
		Email:     resp.Email,
		PhotoURL:  resp.PhotoUrl,
		IDToken:   resp.IdToken,
		IsNewUser: resp.IsNewUser,
	}, nil
}

func (p *IdentityToolkit) DeleteAccount(ctx context.Context, cred *Credential) error {
	_, err := p.rp.DeleteAccount(&identitytoolkit.IdentitytoolkitRelyingpartyDeleteAccountRequest{
		IdToken: cred.IDToken,
		LocalId: cred.UID,
	}).Context(ctx).Do()
	if err != nil {
		return p.providerError("delete account", err)
	}
	return nil
}

func (p *IdentityToolkit) SignOut(ctx context.Context, uid string) error {
	if p.admin == nil {
		return nil
	}
	if err := p.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		p.l.Debug("failed to revoke refresh tokens", zap.String("uid", uid), zap.Error(err))
		return &Error{Code: "REVOKE_FAILED", Err: err}
	}
	return nil
}

func (p *IdentityToolkit) providerError(op string, err error) error {
	code := "UNKNOWN"
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" && len(gerr.Errors) > 0 {
			msg = gerr.Errors[0].Message
		}
		// messages look like "WEAK_PASSWORD : Password should be at least 6 characters"
		if c, _, _ := strings.Cut(msg, ":"); strings.TrimSpace(c) != "" {
			code = strings.TrimSpace(c)
		}
	}
	p.l.Debug("identity toolkit error", zap.String("op", op), zap.String("code", code), zap.Error(err))
	return &Error{Code: code, Err: err}
}
