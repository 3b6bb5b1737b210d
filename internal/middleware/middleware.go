package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/cors"

	"askgm/internal/httpresponse"
)

const BetaKeyHeader = "X-Beta-Key"

// CORS lets browser clients on any http(s) origin call the API and send
// the beta passcode header.
var CORS = cors.Handler(cors.Options{
	AllowedOrigins: []string{"http://*", "https://*"},
	AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	AllowedHeaders: []string{"Content-Type", BetaKeyHeader},
	MaxAge:         300,
})

// BetaGate rejects requests without the passcode. An empty passcode turns
// the gate off.
func BetaGate(passcode string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if passcode == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(BetaKeyHeader)
			if key == "" {
				// browsers cannot set headers on websocket upgrades
				key = r.URL.Query().Get("beta_key")
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(passcode)) != 1 {
				httpresponse.WriteErrorWithStatus(w, http.StatusUnauthorized, "Beta access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
