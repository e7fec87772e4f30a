// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"

	"github.com/taibuivan/comunidad/internal/platform/authz"
)

// Repository defines the persistence contract for profiles.
type Repository interface {
	// List returns every profile ordered by full name.
	List(context context.Context) ([]*Profile, error)

	// GetByID returns the profile or NOT_FOUND.
	GetByID(context context.Context, id string) (*Profile, error)

	// Update applies the non-nil fields of input and returns the stored row.
	Update(context context.Context, id string, input UpdateInput) (*Profile, error)

	// UpdateRole sets the role column only.
	UpdateRole(context context.Context, id string, role authz.Role) (*Profile, error)
}
