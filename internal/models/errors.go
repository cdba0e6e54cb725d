package models

import "errors"

// Rejection reasons surfaced to clients. Each one maps to a Kind name and a
// short human readable text through Kind and Reason.
var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrMissingEmail     = errors.New("please enter email")
	ErrEmailInUse       = errors.New("email already in use")
	ErrInvalidEmail     = errors.New("email is invalid")
	ErrSignUpDisabled   = errors.New("error during sign up")
	ErrWeakPassword     = errors.New("password is not strong enough")
	ErrSignInDisabled   = errors.New("error during sign in")
	ErrWrongPassword    = errors.New("wrong password")
	ErrCreateConflict   = errors.New("unable to create profile")
	ErrUpdateConflict   = errors.New("unable to update profile")
	ErrFollowConflict   = errors.New("unable to follow user")
	ErrUnfollowConflict = errors.New("unable to unfollow user")
	ErrNotFound         = errors.New("profile is not found")
	ErrUnknown          = errors.New("something went wrong")
)

var (
	ErrHandleTaken     = errors.New("username is already taken")
	ErrHandleExhausted = errors.New("no free username after retries")
	ErrInvalidHandle   = errors.New("username is empty")
	ErrInvalidChoice   = errors.New("vote must be yes or no")
	ErrUnauthenticated = errors.New("not signed in")
)

type kind struct {
	name string
	err  error
}

// order matters: the first match wins, so the client-facing kinds come before
// the conflict kinds that may wrap them.
var kinds = []kind{
	{"PasswordMismatch", ErrPasswordMismatch},
	{"MissingEmail", ErrMissingEmail},
	{"EmailInUse", ErrEmailInUse},
	{"InvalidEmail", ErrInvalidEmail},
	{"SignUpDisabled", ErrSignUpDisabled},
	{"WeakPassword", ErrWeakPassword},
	{"SignInDisabled", ErrSignInDisabled},
	{"WrongPassword", ErrWrongPassword},
	{"InvalidChoice", ErrInvalidChoice},
	{"Unauthenticated", ErrUnauthenticated},
	{"CreateConflict", ErrCreateConflict},
	{"UpdateConflict", ErrUpdateConflict},
	{"FollowConflict", ErrFollowConflict},
	{"UnfollowConflict", ErrUnfollowConflict},
	{"NotFound", ErrNotFound},
}

// Kind returns the taxonomy name of err, or "Unknown".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unknown"
}

// Reason returns the text shown to the user for err.
func Reason(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err.Error()
		}
	}
	return ErrUnknown.Error()
}
