// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

// Entity names lead every key. They are shared here because a mutation in
// one package (deleting a tag) invalidates keys owned by another (posts).
const (
	EntityPosts    = "posts"    // ("posts", status)
	EntityPost     = "post"     // ("post", slug) and ("post", "id", id)
	EntityTags     = "tags"     // ("tags")
	EntityTag      = "tag"      // ("tag", slug)
	EntityProfiles = "profiles" // ("profiles")
	EntityProfile  = "profile"  // ("profile", id)
	EntityStats    = "stats"    // ("stats")
)
