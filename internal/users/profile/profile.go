// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile manages member profiles and their roles.

Self-service edits and role changes are separate operations:

  - UpdateOwnProfile: any signed-in member, always on their own profile, never the role.
  - ChangeRole: administrators only, never on their own profile.
*/
package profile

import (
	"time"

	"github.com/taibuivan/comunidad/internal/platform/authz"
)

// Profile is the public identity of a member. ID equals the identity id.
type Profile struct {
	ID        string     `json:"id"`
	FullName  string     `json:"full_name"`
	Username  *string    `json:"username"`
	Bio       *string    `json:"bio"`
	Location  *string    `json:"location"`
	Phone     *string    `json:"phone"`
	Website   *string    `json:"website"`
	Instagram *string    `json:"instagram"`
	Twitter   *string    `json:"twitter"`
	LinkedIn  *string    `json:"linkedin"`
	Role      authz.Role `json:"role"`
	AvatarURL *string    `json:"avatar_url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UpdateInput defines the self-editable subset of profile fields. Nil fields
// are left unchanged.
type UpdateInput struct {
	FullName  *string `json:"full_name"`
	Username  *string `json:"username"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	Phone     *string `json:"phone"`
	Website   *string `json:"website"`
	Instagram *string `json:"instagram"`
	Twitter   *string `json:"twitter"`
	LinkedIn  *string `json:"linkedin"`
	AvatarURL *string `json:"avatar_url"`
}

// Global field names for validation
const (
	FieldID        = "id"
	FieldFullName  = "full_name"
	FieldUsername  = "username"
	FieldBio       = "bio"
	FieldWebsite   = "website"
	FieldAvatarURL = "avatar_url"
	FieldRole      = "role"
)
