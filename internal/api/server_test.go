// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comunidad/internal/api"
	"github.com/taibuivan/comunidad/internal/core/post"
	"github.com/taibuivan/comunidad/internal/core/stats"
	"github.com/taibuivan/comunidad/internal/core/tag"
	"github.com/taibuivan/comunidad/internal/platform/authz"
	"github.com/taibuivan/comunidad/internal/platform/cache"
	"github.com/taibuivan/comunidad/internal/platform/config"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/middleware"
	"github.com/taibuivan/comunidad/internal/platform/notify"
	"github.com/taibuivan/comunidad/internal/platform/sec"
	"github.com/taibuivan/comunidad/internal/platform/store"
	"github.com/taibuivan/comunidad/internal/users/profile"
)

const (
	memberID = "0190b3c4-0000-7000-8000-0000000000a1"
	adminID  = "0190b3c4-0000-7000-8000-0000000000c3"
)

type testServer struct {
	*httptest.Server
	tokens *sec.TokenService
}

func newTestServer(t *testing.T, health api.HealthDependencies) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{ServerPort: "0", Environment: "development"}

	memory := store.NewMemory(schema.MemoryTables()...)
	_, err := memory.Insert(context.Background(), schema.UsersProfile.Table, []store.Values{
		{schema.UsersProfile.ID: memberID, schema.UsersProfile.FullName: "Carla"},
		{schema.UsersProfile.ID: adminID, schema.UsersProfile.FullName: "Ana", schema.UsersProfile.Role: "administrador"},
	})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	coordinator := cache.New(cache.WithMetrics(cache.NewMetrics(registry)))
	gate := authz.NewGate(authz.ClaimsProvider{})
	sink := notify.NewLogSink(logger)

	tokens, err := sec.NewTokenService("secret", "comunidad.app")
	require.NoError(t, err)

	liveness, readiness := api.NewHealthHandlers(health, logger)
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Post:      post.NewHandler(post.NewService(post.NewRelationalRepository(memory), coordinator, gate, sink, logger)),
		Tag:       tag.NewHandler(tag.NewService(tag.NewRelationalRepository(memory), coordinator, gate, sink, logger)),
		Profile:   profile.NewHandler(profile.NewService(profile.NewRelationalRepository(memory), coordinator, gate, sink, logger)),
		Stats:     stats.NewHandler(stats.NewService(stats.NewRepository(memory), coordinator, logger)),
	}

	limiter := middleware.NewRateLimiter(1000, 1000)
	server := httptest.NewServer(api.NewServer(cfg, logger, tokens, limiter, handlers).Handler())
	t.Cleanup(server.Close)

	return &testServer{Server: server, tokens: tokens}
}

func (s *testServer) token(t *testing.T, id string, role authz.Role) string {
	t.Helper()
	token, err := s.tokens.Sign(id, string(role), time.Minute)
	require.NoError(t, err)
	return token
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(encoded)
	}

	request, err := http.NewRequest(method, s.URL+path, payload)
	require.NoError(t, err)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := s.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	var decoded map[string]any
	if response.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))
	}
	return response.StatusCode, decoded
}

func TestServer_ExampleScenario(t *testing.T) {
	server := newTestServer(t, api.HealthDependencies{})
	member := server.token(t, memberID, authz.RoleUsuario)

	status, body := server.call(t, http.MethodPost, "/api/v1/tags", member, map[string]any{
		"name": "go", "slug": "go", "color": "#00ADD8",
	})
	require.Equal(t, http.StatusCreated, status, body)
	tagID := body["data"].(map[string]any)["id"].(string)

	status, body = server.call(t, http.MethodPost, "/api/v1/posts", member, map[string]any{
		"title": "Hello", "slug": "hello", "status": "draft", "tag_ids": []string{tagID},
	})
	require.Equal(t, http.StatusCreated, status, body)
	created := body["data"].(map[string]any)
	assert.Nil(t, created["published_at"])
	assert.Equal(t, "draft", created["status"])
	tags := created["tags"].([]any)
	require.Len(t, tags, 1)
	assert.Equal(t, "go", tags[0].(map[string]any)["name"])

	status, body = server.call(t, http.MethodPatch, "/api/v1/posts/"+created["id"].(string), member, map[string]any{
		"status": "published",
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = server.call(t, http.MethodGet, "/api/v1/posts/hello", "", nil)
	require.Equal(t, http.StatusOK, status)
	read := body["data"].(map[string]any)
	assert.Equal(t, "published", read["status"])
	assert.NotNil(t, read["published_at"])
	assert.Len(t, read["tags"], 1)
}

func TestServer_RoleChangeAndStats(t *testing.T) {
	server := newTestServer(t, api.HealthDependencies{})
	member := server.token(t, memberID, authz.RoleUsuario)
	admin := server.token(t, adminID, authz.RoleAdministrador)

	status, body := server.call(t, http.MethodPut, "/api/v1/profiles/"+adminID+"/role", member, map[string]any{"role": "usuario"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, body = server.call(t, http.MethodPatch, "/api/v1/profiles/me", member, map[string]any{"role": "administrador"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	status, body = server.call(t, http.MethodPut, "/api/v1/profiles/"+memberID+"/role", admin, map[string]any{"role": "administrador"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "administrador", body["data"].(map[string]any)["role"])

	status, body = server.call(t, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["data"].(map[string]any)["members"])
}

func TestServer_Infrastructure(t *testing.T) {
	server := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckNotifier: func(context.Context) error { return errors.New("connection refused") },
	})

	status, body := server.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["data"].(map[string]any)["status"])

	status, body = server.call(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["data"].(map[string]any)["status"])

	// Generate one miss so the counter family is exported
	_, _ = server.call(t, http.MethodGet, "/api/v1/tags", "", nil)

	response, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()
	metrics, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(metrics), "comunidad_cache_misses_total"), string(metrics))

	status, body = server.call(t, http.MethodGet, "/api/v1/posts", "Bearer-less", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])
}
