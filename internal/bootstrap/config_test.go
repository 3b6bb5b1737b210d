package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetupDefaults(t *testing.T) {
	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if cfg.EngineDepth != 15 {
		t.Errorf("EngineDepth = %d", cfg.EngineDepth)
	}
	if cfg.CloudEvalUrl != "https://lichess.org" {
		t.Errorf("CloudEvalUrl = %q", cfg.CloudEvalUrl)
	}
	if cfg.CloudEvalTimeout != 5*time.Second {
		t.Errorf("CloudEvalTimeout = %s", cfg.CloudEvalTimeout)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
}

func TestSetupFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "ENGINE_DEPTH=20\nENGINE_ARGS=--threads 2\nCLOUD_EVAL_TIMEOUT=2s\nLOCAL_CORS=true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Setup(path)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if cfg.EngineDepth != 20 {
		t.Errorf("EngineDepth = %d", cfg.EngineDepth)
	}
	if got := cfg.EngineArgList(); len(got) != 2 || got[0] != "--threads" {
		t.Errorf("EngineArgList = %q", got)
	}
	if cfg.CloudEvalTimeout != 2*time.Second {
		t.Errorf("CloudEvalTimeout = %s", cfg.CloudEvalTimeout)
	}
	if !cfg.IsLocalCors {
		t.Error("IsLocalCors not read from file")
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want value from environment", cfg.ServerPort)
	}
}
