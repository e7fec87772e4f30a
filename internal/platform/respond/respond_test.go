// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/respond"
)

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"not found", apperr.NotFound("Post"), http.StatusNotFound, apperr.CodeNotFound, "Post not found"},
		{"store error hides cause", apperr.StoreError(errors.New("dial tcp: refused")), http.StatusBadGateway, apperr.CodeStoreError, "The data store could not complete the request"},
		{"plain error becomes internal", errors.New("boom"), http.StatusInternalServerError, apperr.CodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respond.Error(recorder, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			body := decode(t, recorder)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestWritten(t *testing.T) {
	entity := map[string]string{"slug": "hello"}
	request := httptest.NewRequest(http.MethodPost, "/", nil)

	t.Run("created", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		respond.Written(recorder, request, entity, nil)
		assert.Equal(t, http.StatusCreated, recorder.Code)
		assert.Equal(t, map[string]any{"slug": "hello"}, decode(t, recorder)["data"])
	})

	t.Run("partial failure keeps the entity", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		respond.Written(recorder, request, entity, apperr.PartialFailure("Post created without tags", errors.New("fk")))

		assert.Equal(t, http.StatusMultiStatus, recorder.Code)
		body := decode(t, recorder)
		assert.Equal(t, apperr.CodePartialFailure, body["code"])
		assert.Equal(t, map[string]any{"slug": "hello"}, body["data"])
	})

	t.Run("total failure", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		respond.Written(recorder, request, nil, apperr.Conflict("duplicate slug"))
		assert.Equal(t, http.StatusConflict, recorder.Code)
		assert.NotContains(t, decode(t, recorder), "data")
	})
}
