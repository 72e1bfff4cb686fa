// Waboku.gg | 2026
// cron.go

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

const cronSecretHeader = "X-Cron-Secret"

// CronAuth guards scheduler-invoked endpoints with a shared secret.
// Rejection happens before any store read. The secret is accepted either
// as a bearer token or in the X-Cron-Secret header, since schedulers
// differ in which one they can set.
func CronAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(cronSecretHeader)
			if presented == "" {
				presented = ExtractToken(r)
			}

			if !secretsEqual(presented, secret) {
				core.JSONError(
					w,
					core.UnauthorizedError("invalid cron secret"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WebhookAuth guards vendor webhook endpoints with a shared secret
// carried in the X-Webhook-Secret header.
func WebhookAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Webhook-Secret")

			if !secretsEqual(presented, secret) {
				core.JSONError(
					w,
					core.UnauthorizedError("invalid webhook secret"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func secretsEqual(presented, expected string) bool {
	if presented == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare(
		[]byte(presented),
		[]byte(expected),
	) == 1
}
