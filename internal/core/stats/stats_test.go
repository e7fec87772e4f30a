// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package stats_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comunidad/internal/core/stats"
	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/cache"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/store"
)

type failingCounter struct {
	store.Client
	table string
}

func (c failingCounter) Count(ctx context.Context, table string, filters ...store.Filter) (int, error) {
	if table == c.table {
		return 0, apperr.StoreError(errors.New("timeout"))
	}
	return c.Client.Count(ctx, table, filters...)
}

func seed(t *testing.T, memory *store.Memory) {
	t.Helper()
	ctx := context.Background()

	profiles, err := memory.Insert(ctx, schema.UsersProfile.Table, []store.Values{
		{schema.UsersProfile.ID: "0190b3c4-0000-7000-8000-0000000000a1", schema.UsersProfile.FullName: "Ana"},
		{schema.UsersProfile.ID: "0190b3c4-0000-7000-8000-0000000000b2", schema.UsersProfile.FullName: "Bruno"},
	})
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	events, err := memory.Insert(ctx, schema.CommunityEvent.Table, []store.Values{{schema.CommunityEvent.Title: "GopherCon"}})
	require.NoError(t, err)
	event, err := store.DecodeOne[map[string]any](events[0])
	require.NoError(t, err)

	_, err = memory.Insert(ctx, schema.CommunitySponsor.Table, []store.Values{
		{schema.CommunitySponsor.Name: "Acme"},
		{schema.CommunitySponsor.Name: "Globex"},
		{schema.CommunitySponsor.Name: "Initech"},
	})
	require.NoError(t, err)

	_, err = memory.Insert(ctx, schema.CommunityParticipation.Table, []store.Values{
		{schema.CommunityParticipation.EventID: event["id"], schema.CommunityParticipation.ProfileID: "0190b3c4-0000-7000-8000-0000000000a1"},
	})
	require.NoError(t, err)
}

func TestService_GetStats(t *testing.T) {
	memory := store.NewMemory(schema.MemoryTables()...)
	seed(t, memory)
	coordinator := cache.New()
	service := stats.NewService(stats.NewRepository(memory), coordinator, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := service.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &stats.Stats{Members: 2, Events: 1, Sponsors: 3, Participations: 1}, got)

	_, err = memory.Insert(context.Background(), schema.CommunitySponsor.Table, []store.Values{{schema.CommunitySponsor.Name: "Umbrella"}})
	require.NoError(t, err)

	cached, err := service.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, cached.Sponsors)

	coordinator.Invalidate(cache.EntityStats)
	fresh, err := service.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.Sponsors)
}

func TestService_GetStats_FailureNotCached(t *testing.T) {
	memory := store.NewMemory(schema.MemoryTables()...)
	coordinator := cache.New()
	repo := stats.NewRepository(failingCounter{Client: memory, table: schema.CommunitySponsor.Table})
	service := stats.NewService(repo, coordinator, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := service.GetStats(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeStoreError))

	_, ok := coordinator.Get(cache.NewKey(cache.EntityStats))
	assert.False(t, ok)
}
