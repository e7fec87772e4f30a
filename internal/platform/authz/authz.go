// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authz is the authorization gate in front of every mutation.

Checks run before any store call so a rejected caller never costs a round-trip.

  - RequireAuthenticated: an identity must be present.
  - RequireRole: the identity's role must be at least the target role.
  - RequireOwnerOrRole: the identity owns the row or holds the role.
*/
package authz

import (
	"context"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/ctxutil"
)

// Role is the authorization level stored on a profile.
//
// Transitions usuario ⇄ administrador happen only through an administrator
// invoked role change on another profile.
type Role string

const (
	RoleUsuario       Role = "usuario"       // Default role for registered members.
	RoleAdministrador Role = "administrador" // Manages content and member roles.
)

// level maps a role to a numeric hierarchy level.
func (r Role) level() int {
	switch r {
	case RoleAdministrador:
		return 20
	case RoleUsuario:
		return 10
	default:
		return 0
	}
}

// IsValid reports whether r is a recognised [Role].
func (r Role) IsValid() bool {
	return r.level() > 0
}

// AtLeast checks if the current role meets or exceeds the target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// Identity is the signed-in caller.
type Identity struct {
	ID   string
	Role Role
}

// IdentityProvider exposes the current identity, if any.
type IdentityProvider interface {
	Identity(ctx context.Context) (Identity, bool)
}

// ProviderFunc adapts a plain function to [IdentityProvider].
type ProviderFunc func(ctx context.Context) (Identity, bool)

// Identity implements [IdentityProvider].
func (f ProviderFunc) Identity(ctx context.Context) (Identity, bool) {
	return f(ctx)
}

// ClaimsProvider reads the token claims that the Authenticate middleware
// stored in the request context.
type ClaimsProvider struct{}

// Identity implements [IdentityProvider].
func (ClaimsProvider) Identity(ctx context.Context) (Identity, bool) {
	claims := ctxutil.GetAuthUser(ctx)
	if claims == nil || claims.UserID == "" {
		return Identity{}, false
	}

	role := Role(claims.Role)
	if !role.IsValid() {
		role = RoleUsuario
	}
	return Identity{ID: claims.UserID, Role: role}, true
}

// Gate performs the authorization checks.
type Gate struct {
	provider IdentityProvider
}

// NewGate constructs a [Gate] over provider.
func NewGate(provider IdentityProvider) *Gate {
	return &Gate{provider: provider}
}

// RequireAuthenticated returns the caller or an UNAUTHENTICATED error.
func (gate *Gate) RequireAuthenticated(ctx context.Context) (Identity, error) {
	identity, ok := gate.provider.Identity(ctx)
	if !ok {
		return Identity{}, apperr.Unauthenticated("Authentication required")
	}
	return identity, nil
}

// RequireRole fails with FORBIDDEN when identity ranks below role.
func (gate *Gate) RequireRole(identity Identity, role Role) error {
	if !identity.Role.AtLeast(role) {
		return apperr.Forbidden("Insufficient permissions")
	}
	return nil
}

// RequireOwnerOrRole allows the row owner, or anyone holding role.
func (gate *Gate) RequireOwnerOrRole(identity Identity, ownerID string, role Role) error {
	if identity.ID == ownerID {
		return nil
	}
	return gate.RequireRole(identity, role)
}
