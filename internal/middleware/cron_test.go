// Waboku.gg | 2026
// cron_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCronAuth(t *testing.T) {
	handler := CronAuth("topsecret")(okHandler())

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "no credentials",
			setup:      func(_ *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong header secret",
			setup: func(r *http.Request) {
				r.Header.Set("X-Cron-Secret", "nope")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "correct header secret",
			setup: func(r *http.Request) {
				r.Header.Set("X-Cron-Secret", "topsecret")
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "correct bearer token",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer topsecret")
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "wrong bearer token",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer nope")
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost,
				"/internal/cron/archive-expired",
				nil,
			)
			tt.setup(req)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCronAuthEmptyConfiguredSecretRejectsAll(t *testing.T) {
	handler := CronAuth("")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/internal/cron/archive-expired", nil)
	req.Header.Set("X-Cron-Secret", "")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookAuth(t *testing.T) {
	handler := WebhookAuth("hooksecret")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/billing", nil)
	req.Header.Set("X-Webhook-Secret", "hooksecret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
