package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaam8/poll_profiles/internal/auth"
	"github.com/jaam8/poll_profiles/internal/models"
	"github.com/jaam8/poll_profiles/internal/session"
	"go.uber.org/zap"
)

// AuthService signs users in and out. Every successful sign in yields an
// explicit session; sign out tears it down.
type AuthService struct {
	p        auth.Provider
	profiles *ProfileService
	sessions session.Store
	l        *zap.Logger
}

func NewAuthService(p auth.Provider, profiles *ProfileService, sessions session.Store, l *zap.Logger) *AuthService {
	return &AuthService{
		p:        p,
		profiles: profiles,
		sessions: sessions,
		l:        l,
	}
}

func (s *AuthService) SignUp(ctx context.Context, email, password, confirmPassword string) (*models.AuthResult, error) {
	if password != confirmPassword {
		return nil, models.ErrPasswordMismatch
	}

	cred, err := s.p.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, s.signUpError(err)
	}

	profile, err := s.provision(ctx, cred, models.Identity{UID: cred.UID, Email: cred.Email})
	if err != nil {
		return nil, err
	}
	return s.open(ctx, cred, profile, true)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.AuthResult, error) {
	cred, err := s.p.Authenticate(ctx, email, password)
	if err != nil {
		return nil, s.signInError(err)
	}
	profile, err := s.profiles.LoadProfile(ctx, cred.UID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.l.Warn("signed in without profile", zap.String("uid", cred.UID))
		}
		return nil, err
	}
	return s.open(ctx, cred, profile, false)
}

// FederatedSignIn provisions a profile for identities the provider has not
// seen before and loads the existing one otherwise.
func (s *AuthService) FederatedSignIn(ctx context.Context, assertion auth.FederatedAssertion) (*models.AuthResult, error) {
	cred, err := s.p.FederatedAuthenticate(ctx, assertion)
	if err != nil {
		return nil, s.signInError(err)
	}

	var profile *models.Profile
	if cred.IsNewUser {
		profile, err = s.provision(ctx, cred, models.Identity{UID: cred.UID, Email: cred.Email, Image: cred.PhotoURL})
	} else {
		profile, err = s.profiles.LoadProfile(ctx, cred.UID)
	}
	if err != nil {
		return nil, err
	}
	return s.open(ctx, cred, profile, cred.IsNewUser)
}

// SignOut is best effort: it drops the session and revokes provider tokens,
// and returns whatever failed for the caller to log or ignore.
func (s *AuthService) SignOut(ctx context.Context, sess *models.Session) error {
	err := errors.Join(
		s.sessions.Delete(ctx, sess.ID),
		s.p.SignOut(ctx, sess.UID),
	)
	if err != nil {
		s.l.Warn("sign out incomplete", zap.String("uid", sess.UID), zap.Error(err))
		return fmt.Errorf("service: sign out: %w", err)
	}
	s.l.Info("signed out", zap.String("uid", sess.UID))
	return nil
}

// Resolve returns the live session with the given id.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, models.ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			return nil, models.ErrUnauthenticated
		default:
			s.l.Error("failed to load session", zap.Error(err))
			return nil, fmt.Errorf("service: failed to load session: %w", err)
		}
	}
	return sess, nil
}

// provision creates the profile of a new account. Without a profile the
// account could never sign in, so it is deleted again on failure.
func (s *AuthService) provision(ctx context.Context, cred *auth.Credential, identity models.Identity) (*models.Profile, error) {
	profile, err := s.profiles.CreateProfile(ctx, identity)
	if err != nil {
		if derr := s.p.DeleteAccount(ctx, cred); derr != nil {
			s.l.Error("failed to delete account after profile failure", zap.String("uid", cred.UID), zap.Error(derr))
		}
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) open(ctx context.Context, cred *auth.Credential, profile *models.Profile, isNew bool) (*models.AuthResult, error) {
	sess := session.New(cred.UID, cred.Email, cred.IDToken)
	if err := s.sessions.Put(ctx, sess); err != nil {
		s.l.Error("failed to store session", zap.String("uid", cred.UID), zap.Error(err))
		return nil, fmt.Errorf("service: failed to store session: %w: %w", models.ErrUnknown, err)
	}
	s.l.Info("signed in", zap.String("uid", cred.UID), zap.Bool("is_new_user", isNew))
	return &models.AuthResult{Session: sess, Profile: profile, IsNewUser: isNew}, nil
}

func (s *AuthService) signUpError(err error) error {
	switch auth.Code(err) {
	case auth.CodeMissingEmail:
		return models.ErrMissingEmail
	case auth.CodeEmailExists:
		return models.ErrEmailInUse
	case auth.CodeInvalidEmail:
		return models.ErrInvalidEmail
	case auth.CodeOperationNotAllowed:
		return models.ErrSignUpDisabled
	case auth.CodeWeakPassword:
		return models.ErrWeakPassword
	default:
		s.l.Error("unable to create account", zap.Error(err))
		return fmt.Errorf("service: sign up: %w: %w", models.ErrUnknown, err)
	}
}

func (s *AuthService) signInError(err error) error {
	switch auth.Code(err) {
	case auth.CodeMissingEmail:
		return models.ErrMissingEmail
	case auth.CodeInvalidEmail:
		return models.ErrInvalidEmail
	case auth.CodeOperationNotAllowed, auth.CodeUserDisabled:
		return models.ErrSignInDisabled
	case auth.CodeInvalidPassword, auth.CodeInvalidCredentials:
		return models.ErrWrongPassword
	default:
		s.l.Error("unable to sign in", zap.Error(err))
		return fmt.Errorf("service: sign in: %w: %w", models.ErrUnknown, err)
	}
}
