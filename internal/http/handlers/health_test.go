package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/admithub/internal/http/handlers"
)

func TestHealthz(t *testing.T) {
	h := handlers.NewHealthHandler(nil, nil)

	r := setupRouter(http.MethodGet, "/healthz", h.Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		cacheErr       error
		wantStatusCode int
		wantCacheNote  bool
	}{
		{
			name:           "all_up",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "db_down_gates_readiness",
			dbErr:          errors.New("connection refused"),
			wantStatusCode: http.StatusServiceUnavailable,
		},
		{
			name:           "cache_down_degrades_only",
			cacheErr:       errors.New("connection refused"),
			wantStatusCode: http.StatusOK,
			wantCacheNote:  true,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(
				func() error { return tt.dbErr },
				func() error { return tt.cacheErr },
			)

			r := setupRouter(http.MethodGet, "/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			var resp map[string]string

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			if _, ok := resp["cache"]; ok != tt.wantCacheNote {
				t.Fatalf("cache note presence = %v, want %v", ok, tt.wantCacheNote)
			}
		})
	}
}
