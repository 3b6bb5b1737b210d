package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestBetaGate(t *testing.T) {
	tests := []struct {
		name     string
		passcode string
		header   string
		query    string
		want     int
	}{
		{"gate off", "", "", "", http.StatusTeapot},
		{"missing key", "s3cret", "", "", http.StatusUnauthorized},
		{"wrong key", "s3cret", "guess", "", http.StatusUnauthorized},
		{"header", "s3cret", "s3cret", "", http.StatusTeapot},
		{"query", "s3cret", "", "?beta_key=s3cret", http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/health"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(BetaKeyHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			BetaGate(tt.passcode)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	tests := []struct {
		name       string
		headers    string
		wantOrigin string
	}{
		{"beta key header", "Content-Type, X-Beta-Key", "http://localhost:5173"},
		{"unknown header", "X-Debug", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", tt.headers)
			rec := httptest.NewRecorder()
			CORS(ok).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("code = %d", rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestCORSSimpleRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/games/g1/", nil)
	req.Header.Set("Origin", "https://app.askgm.dev")
	rec := httptest.NewRecorder()
	CORS(ok).ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("code = %d, request did not reach the handler", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.askgm.dev" {
		t.Errorf("allow origin = %q", got)
	}
}
