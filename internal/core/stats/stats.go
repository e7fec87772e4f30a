// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package stats aggregates the community counters shown on the landing page.
package stats

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/comunidad/internal/platform/cache"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/store"
)

// Stats holds the community counters.
type Stats struct {
	Members        int `json:"members"`
	Events         int `json:"events"`
	Sponsors       int `json:"sponsors"`
	Participations int `json:"participations"`
}

// Repository counts rows per table.
type Repository struct {
	client store.Client
}

func NewRepository(client store.Client) *Repository {
	return &Repository{client: client}
}

// Load runs the four counts concurrently. The first failure cancels the rest.
func (repository *Repository) Load(context context.Context) (*Stats, error) {
	var stats Stats
	group, groupContext := errgroup.WithContext(context)

	counters := []struct {
		table  string
		target *int
	}{
		{schema.UsersProfile.Table, &stats.Members},
		{schema.CommunityEvent.Table, &stats.Events},
		{schema.CommunitySponsor.Table, &stats.Sponsors},
		{schema.CommunityParticipation.Table, &stats.Participations},
	}
	for _, counter := range counters {
		group.Go(func() error {
			count, err := repository.client.Count(groupContext, counter.table)
			if err != nil {
				return err
			}
			*counter.target = count
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Service serves cached stats. The entry is invalidated by profile mutations.
type Service struct {
	repo   *Repository
	cache  *cache.Coordinator
	logger *slog.Logger
}

func NewService(repo *Repository, coordinator *cache.Coordinator, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: coordinator, logger: logger}
}

func (service *Service) GetStats(ctx context.Context) (*Stats, error) {
	return cache.Query(ctx, service.cache, cache.NewKey(cache.EntityStats), func(ctx context.Context) (*Stats, error) {
		stats, err := service.repo.Load(ctx)
		if err != nil {
			service.logger.Warn("stats_load_failed", slog.Any("error", err))
			return nil, err
		}
		return stats, nil
	})
}
