// Package identity is the port to the external identity provider. Sign-in,
// sign-up, and confirmation flows live entirely outside this system; all it
// needs is the identity of the calling user.
package identity

import (
	"context"
	"strings"

	"compass/internal/core"
)

// Identity names an authenticated user.
type Identity struct {
	UserID string
	Email  string
}

// Provider resolves the calling user's identity. Implementations return
// core.ErrUnauthenticated when no identity can be resolved.
type Provider interface {
	CurrentIdentity(ctx context.Context) (Identity, error)
}

// Static is a provider with a fixed identity, used by the CLI (which reads
// it from configuration) and by tests.
type Static struct {
	UserID string
	Email  string
}

func (s Static) CurrentIdentity(context.Context) (Identity, error) {
	if strings.TrimSpace(s.UserID) == "" {
		return Identity{}, core.ErrUnauthenticated
	}
	email := s.Email
	if email == "" {
		email = s.UserID + "@example.com"
	}
	return Identity{UserID: s.UserID, Email: email}, nil
}

// None is a provider that never resolves an identity.
type None struct{}

func (None) CurrentIdentity(context.Context) (Identity, error) {
	return Identity{}, core.ErrUnauthenticated
}
