package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEvalFallbackOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fen":"x","knodes":100,"depth":30,"pvs":[{"moves":"e2e4 e7e5 g1f3","cp":25}]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	args := []string{"analyze", "eval", "--fallback-only", "--cloud-url", srv.URL, "--timeout", "5s"}
	if err := newApp(&out).Run(context.Background(), args); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{"bestmove e2e4", "eval +0.25", "(fallback)", "pv e2e4 e7e5 g1f3"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q does not contain %q", got, want)
		}
	}
}

func TestEvalRejectsBadFEN(t *testing.T) {
	var out bytes.Buffer
	args := []string{"analyze", "eval", "--fallback-only", "--fen", "nonsense"}
	if err := newApp(&out).Run(context.Background(), args); err == nil {
		t.Error("bad FEN accepted")
	}
}
