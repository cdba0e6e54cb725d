package auth

import (
	"context"
	"fmt"
	"sync"
)

type fakeAccount struct {
	uid      string
	password string
	disabled bool
}

// FakeProvider is an in-memory Provider for tests and local runs. Federated
// assertions are looked up by PostBody in Federated.
type FakeProvider struct {
	mu        sync.Mutex
	accounts  map[string]*fakeAccount
	seq       int
	Federated map[string]*Credential
	// SignUpDisabled makes CreateAccount fail with OPERATION_NOT_ALLOWED.
	SignUpDisabled bool
	SignedOut      []string
	Deleted        []string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		accounts:  make(map[string]*fakeAccount),
		Federated: make(map[string]*Credential),
	}
}

func (p *FakeProvider) CreateAccount(_ context.Context, email, password string) (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case email == "":
		return nil, &Error{Code: CodeMissingEmail}
	case !validEmail(email):
		return nil, &Error{Code: CodeInvalidEmail}
	case p.SignUpDisabled:
		return nil, &Error{Code: CodeOperationNotAllowed}
	case len(password) < 6:
		return nil, &Error{Code: CodeWeakPassword}
	}
	if _, ok := p.accounts[email]; ok {
		return nil, &Error{Code: CodeEmailExists}
	}
	p.seq++
	acc := &fakeAccount{uid: fmt.Sprintf("uid-%d", p.seq), password: password}
	p.accounts[email] = acc
	return &Credential{UID: acc.uid, Email: email, IDToken: "token-" + acc.uid, IsNewUser: true}, nil
}

func (p *FakeProvider) Authenticate(_ context.Context, email, password string) (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case email == "":
		return nil, &Error{Code: CodeMissingEmail}
	case !validEmail(email):
		return nil, &Error{Code: CodeInvalidEmail}
	}
	acc, ok := p.accounts[email]
	if !ok {
		return nil, &Error{Code: CodeEmailNotFound}
	}
	if acc.disabled {
		return nil, &Error{Code: CodeUserDisabled}
	}
	if acc.password != password {
		return nil, &Error{Code: CodeInvalidPassword}
	}
	return &Credential{UID: acc.uid, Email: email, IDToken: "token-" + acc.uid}, nil
}

func (p *FakeProvider) FederatedAuthenticate(_ context.Context, assertion FederatedAssertion) (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cred, ok := p.Federated[assertion.PostBody]
	if !ok {
		return nil, &Error{Code: "INVALID_IDP_RESPONSE"}
	}
	out := *cred
	// only the first assertion for an identity is new
	cred.IsNewUser = false
	return &out, nil
}

func (p *FakeProvider) DeleteAccount(_ context.Context, cred *Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for email, acc := range p.accounts {
		if acc.uid == cred.UID {
			delete(p.accounts, email)
		}
	}
	// a deleted federated identity is new again on its next assertion
	for _, fed := range p.Federated {
		if fed.UID == cred.UID {
			fed.IsNewUser = true
		}
	}
	p.Deleted = append(p.Deleted, cred.UID)
	return nil
}

func (p *FakeProvider) SignOut(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SignedOut = append(p.SignedOut, uid)
	return nil
}

// Disable marks the account for email as disabled.
func (p *FakeProvider) Disable(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if acc, ok := p.accounts[email]; ok {
		acc.disabled = true
	}
}

// Accounts returns the number of registered accounts.
func (p *FakeProvider) Accounts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.accounts)
}

func validEmail(email string) bool {
	at := -1
	for i, c := range email {
		if c == '@' {
			if at >= 0 {
				return false
			}
			at = i
		}
	}
	return at > 0 && at < len(email)-1
}
