// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comunidad/internal/platform/redis"
)

func TestNewClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("connects and pings", func(t *testing.T) {
		server := miniredis.RunT(t)

		client, err := redis.NewClient(context.Background(), "redis://"+server.Addr(), logger)
		require.NoError(t, err)
		defer func() { _ = client.Close() }()

		assert.NoError(t, redis.Ping(context.Background(), client))
	})

	t.Run("rejects an invalid URL", func(t *testing.T) {
		_, err := redis.NewClient(context.Background(), "://nope", logger)
		assert.ErrorContains(t, err, "invalid URL")
	})

	t.Run("fails when the server is gone", func(t *testing.T) {
		server := miniredis.RunT(t)
		addr := server.Addr()
		server.Close()

		_, err := redis.NewClient(context.Background(), "redis://"+addr, logger)
		assert.ErrorContains(t, err, "ping failed")
	})
}
