// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comunidad/internal/core/tag"
	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/authz"
	"github.com/taibuivan/comunidad/internal/platform/cache"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/notify"
	"github.com/taibuivan/comunidad/internal/platform/store"
)

type recordingSink struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (sink *recordingSink) Notify(_ context.Context, notification notify.Notification) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.items = append(sink.items, notification)
}

func (sink *recordingSink) last() notify.Notification {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.items[len(sink.items)-1]
}

type fixture struct {
	client   *store.Memory
	cache    *cache.Coordinator
	sink     *recordingSink
	service  *tag.Service
	identity *authz.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		client: store.NewMemory(schema.MemoryTables()...),
		cache:  cache.New(),
		sink:   &recordingSink{},
	}
	gate := authz.NewGate(authz.ProviderFunc(func(context.Context) (authz.Identity, bool) {
		if f.identity == nil {
			return authz.Identity{}, false
		}
		return *f.identity, true
	}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = tag.NewService(tag.NewRelationalRepository(f.client), f.cache, gate, f.sink, logger)
	return f
}

func (f *fixture) signIn(role authz.Role) {
	f.identity = &authz.Identity{ID: "0190b3c4-0000-7000-8000-000000000001", Role: role}
}

func TestService_CreateTag(t *testing.T) {
	f := newFixture(t)
	f.signIn(authz.RoleUsuario)

	created, err := f.service.CreateTag(context.Background(), "go", "go", "#00ADD8")
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "go", created.Name)
	assert.Equal(t, "go", created.Slug)
	assert.Equal(t, "#00ADD8", created.Color)
	assert.Equal(t, notify.SeveritySuccess, f.sink.last().Severity)
}

func TestService_CreateTag_DerivesSlug(t *testing.T) {
	f := newFixture(t)
	f.signIn(authz.RoleUsuario)

	created, err := f.service.CreateTag(context.Background(), "Programación Web", "", "")
	require.NoError(t, err)
	assert.Equal(t, "programacion-web", created.Slug)
}

func TestService_CreateTag_Errors(t *testing.T) {
	tests := []struct {
		name     string
		signedIn bool
		tagName  string
		slug     string
		code     string
	}{
		{name: "anonymous", signedIn: false, tagName: "go", slug: "go", code: apperr.CodeUnauthenticated},
		{name: "missing name", signedIn: true, tagName: "", slug: "go", code: apperr.CodeValidation},
		{name: "bad slug", signedIn: true, tagName: "go", slug: "Not A Slug", code: apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.signedIn {
				f.signIn(authz.RoleUsuario)
			}

			_, err := f.service.CreateTag(context.Background(), tt.tagName, tt.slug, "")
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, notify.SeverityError, f.sink.last().Severity)

			count, err := f.client.Count(context.Background(), schema.ContentTag.Table)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestService_CreateTag_DuplicateSlugConflicts(t *testing.T) {
	f := newFixture(t)
	f.signIn(authz.RoleUsuario)

	_, err := f.service.CreateTag(context.Background(), "go", "go", "")
	require.NoError(t, err)

	_, err = f.service.CreateTag(context.Background(), "Go", "go", "")
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
}

func TestService_ListTags_OrderedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	f.signIn(authz.RoleUsuario)
	ctx := context.Background()

	_, err := f.service.CreateTag(ctx, "rust", "rust", "")
	require.NoError(t, err)

	tags, err := f.service.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	_, ok := f.cache.Get(cache.NewKey(cache.EntityTags))
	require.True(t, ok)

	_, err = f.service.CreateTag(ctx, "go", "go", "")
	require.NoError(t, err)

	_, ok = f.cache.Get(cache.NewKey(cache.EntityTags))
	assert.False(t, ok)

	tags, err = f.service.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "go", tags[0].Name)
	assert.Equal(t, "rust", tags[1].Name)
}

func TestService_GetTagBySlug_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetTagBySlug(context.Background(), "missing")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestService_DeleteTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.signIn(authz.RoleUsuario)
	created, err := f.service.CreateTag(ctx, "go", "go", "")
	require.NoError(t, err)

	err = f.service.DeleteTag(ctx, created.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	f.signIn(authz.RoleAdministrador)
	f.cache.Set(cache.NewKey(cache.EntityPosts, ""), "stale")
	require.NoError(t, f.service.DeleteTag(ctx, created.ID))

	_, ok := f.cache.Get(cache.NewKey(cache.EntityPosts, ""))
	assert.False(t, ok)

	_, err = f.service.GetTagBySlug(ctx, "go")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	err = f.service.DeleteTag(ctx, created.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
