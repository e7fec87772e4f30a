// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UsersProfileTable represents the 'profiles' table
type UsersProfileTable struct {
	Table     string
	ID        string
	FullName  string
	Username  string
	Bio       string
	Location  string
	Phone     string
	Website   string
	Instagram string
	Twitter   string
	LinkedIn  string
	Role      string
	AvatarURL string
	CreatedAt string
	UpdatedAt string
}

// UsersProfile is the schema definition for profiles
var UsersProfile = UsersProfileTable{
	Table:     "profiles",
	ID:        "id",
	FullName:  "full_name",
	Username:  "username",
	Bio:       "bio",
	Location:  "location",
	Phone:     "phone",
	Website:   "website",
	Instagram: "instagram",
	Twitter:   "twitter",
	LinkedIn:  "linkedin",
	Role:      "role",
	AvatarURL: "avatar_url",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

func (t UsersProfileTable) Columns() []string {
	return []string{
		t.ID, t.FullName, t.Username, t.Bio, t.Location, t.Phone, t.Website,
		t.Instagram, t.Twitter, t.LinkedIn, t.Role, t.AvatarURL, t.CreatedAt, t.UpdatedAt,
	}
}
