package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultAndNormalize(t *testing.T) {
	cfg := Default()
	if cfg.Port == 0 || cfg.DownloadDir == "" || cfg.GracePeriod <= 0 || cfg.ProgressInterval <= 0 {
		t.Fatalf("default config invalid: %+v", cfg)
	}
	if cfg.GuardStaleAfter != 0 {
		t.Fatalf("guard expiry must be disabled by default, got %s", cfg.GuardStaleAfter)
	}

	got := normalizeLanguages([]string{" en ", "zh-TW", "en", ""})
	if len(got) != 2 || got[0] != "en" || got[1] != "zh-TW" {
		t.Fatalf("unexpected normalized languages %v", got)
	}
	if langs := normalizeLanguages(nil); len(langs) == 0 || langs[0] != "zh-TW" {
		t.Fatalf("expected default language priority, got %v", langs)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("not_exists.yml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadReadsAndValidates(t *testing.T) {
	path := writeConfig(t, `
port: 9090
download_dir: testdata
grace_period: 250ms
guard_stale_after: 30m
caption_languages: [en, ja]
cache:
  provider: Memory
  size: 12
  ttl: 5m
summary:
  model: gemini-test
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 || cfg.DownloadDir != "testdata" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.GracePeriod != 250*time.Millisecond || cfg.GuardStaleAfter != 30*time.Minute {
		t.Fatalf("durations not parsed: grace=%s stale=%s", cfg.GracePeriod, cfg.GuardStaleAfter)
	}
	if cfg.Cache.Provider != "memory" || cfg.Cache.Size != 12 || cfg.Cache.TTL != 5*time.Minute {
		t.Fatalf("unexpected cache cfg: %+v", cfg.Cache)
	}
	if cfg.Summary.Model != "gemini-test" || cfg.Summary.MaxInputChars != defaultSummaryMaxInputChars {
		t.Fatalf("unexpected summary cfg: %+v", cfg.Summary)
	}
	if len(cfg.CaptionLanguages) != 2 || cfg.CaptionLanguages[1] != "ja" {
		t.Fatalf("unexpected languages: %v", cfg.CaptionLanguages)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []string{
		"guard_stale_after: -1s\n",
		"grace_period: -5s\n",
		"cache:\n  provider: redis\n",
		"port: 70000\n",
	}
	for _, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	cfg, err := Load(writeConfig(t, "summary:\n  api_key: from-file\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Summary.APIKey != "from-env" {
		t.Fatalf("expected env api key, got %q", cfg.Summary.APIKey)
	}
}
