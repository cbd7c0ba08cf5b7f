package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("FOO", "")
	t.Setenv("BAR", "")

	envPath := filepath.Join(t.TempDir(), ".env.test")
	content := "\n# sample dotenv file\nFOO=alpha\nexport BAR=\"beta gamma\"\nnot a pair\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	if err := LoadEnvFiles(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("FOO"); got != "alpha" {
		t.Fatalf("FOO=%q, want alpha", got)
	}
	if got := os.Getenv("BAR"); got != "beta gamma" {
		t.Fatalf("BAR=%q, want %q", got, "beta gamma")
	}
}

func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestLoadEnvFiles_ShellWinsAndCommentsStripped(t *testing.T) {
	t.Setenv("WORDTRACK_POLICY", "fast")
	t.Setenv("WORDTRACK_OUTLINE_TOKEN", "")
	t.Setenv("WORDTRACK_LLM_MODEL", "")
	path := filepath.Join(t.TempDir(), ".env")
	content := "WORDTRACK_POLICY=enhanced\nWORDTRACK_OUTLINE_TOKEN=tok-123 # issued for the demo\nWORDTRACK_LLM_MODEL='gpt #4' # quoted hash kept\n= orphan\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	if err := LoadEnvFiles(path); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("WORDTRACK_POLICY"); got != "fast" {
		t.Fatalf("shell value should win over env file, got %q", got)
	}
	if got := os.Getenv("WORDTRACK_OUTLINE_TOKEN"); got != "tok-123" {
		t.Fatalf("inline comment not stripped: %q", got)
	}
	if got := os.Getenv("WORDTRACK_LLM_MODEL"); got != "gpt #4" {
		t.Fatalf("quoted value mangled: %q", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("WORDTRACK_POLICY", "enhanced")
	t.Setenv("WORDTRACK_GOOD_ENOUGH", "500")
	t.Setenv("WORDTRACK_REQUEST_DELAY", "1s")
	t.Setenv("WORDTRACK_EXHAUSTIVE", "yes")
	t.Setenv("WORDTRACK_CACHE_STRICT_PERMS", "off")
	t.Setenv("WORDTRACK_LLM_MODEL", "")
	t.Setenv("LLM_MODEL", "local-model")
	t.Setenv("WORDTRACK_MAX_DEPTH", "not-a-number")

	cfg := DefaultConfig()
	cfg.CacheStrictPerms = true
	ApplyEnvOverrides(&cfg)
	if cfg.Policy != "enhanced" || cfg.GoodEnoughWords != 500 {
		t.Fatalf("extraction overrides not applied: %+v", cfg)
	}
	if cfg.RequestDelay != time.Second || !cfg.Exhaustive {
		t.Fatalf("outline overrides not applied: delay=%v exhaustive=%v", cfg.RequestDelay, cfg.Exhaustive)
	}
	if cfg.CacheStrictPerms {
		t.Fatalf("falsey env should clear a boolean")
	}
	if cfg.LLMModel != "local-model" {
		t.Fatalf("LLM_MODEL fallback not used: %q", cfg.LLMModel)
	}
	if cfg.MaxDepth != 30 {
		t.Fatalf("invalid integer should be ignored, got %d", cfg.MaxDepth)
	}
}
