// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import "strings"

// keySeparator cannot appear in slugs, ids or status values.
const keySeparator = "\x1f"

// Key addresses one cached query: the entity name followed by the full
// parameter tuple, e.g. ("posts", "published") or ("post", "hello").
type Key []string

// NewKey builds a key from its parts. An absent parameter is the empty string.
func NewKey(parts ...string) Key {
	return Key(parts)
}

// String renders the key as a map index.
func (k Key) String() string {
	return strings.Join(k, keySeparator)
}

// Entity returns the first part, used as the metrics label.
func (k Key) Entity() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether prefix matches the leading parts of k. Matching is
// part-wise: ("post") is a prefix of ("post", "hello") but not of ("posts").
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, part := range prefix {
		if k[i] != part {
			return false
		}
	}
	return true
}
