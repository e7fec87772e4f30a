// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import "context"

// Repository is the persistence contract for tags.
type Repository interface {
	List(context context.Context) ([]*Tag, error)
	GetBySlug(context context.Context, slug string) (*Tag, error)
	GetByID(context context.Context, id string) (*Tag, error)
	Create(context context.Context, input Input) (*Tag, error)
	Delete(context context.Context, id string) error
}
