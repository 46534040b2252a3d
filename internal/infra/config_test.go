package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ARK_API_KEY", "test-key")
	t.Setenv("ARK_BASE_URL", "")
	t.Setenv("POLL_INTERVAL_SECONDS", "")
	t.Setenv("MAX_WAIT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ArkBase != "https://ark.cn-beijing.volces.com" {
		t.Fatalf("ArkBase mismatch: got %q", cfg.ArkBase)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval mismatch: got %v", cfg.PollInterval)
	}
	if cfg.MaxWait != 600*time.Second {
		t.Fatalf("MaxWait mismatch: got %v", cfg.MaxWait)
	}
	if cfg.DefaultModelID != "doubao-seedance-1-0-pro-250528" {
		t.Fatalf("DefaultModelID mismatch: got %q", cfg.DefaultModelID)
	}
	if !cfg.GenerateAudio {
		t.Fatalf("GenerateAudio should default to true")
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("ARK_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when ARK_API_KEY is missing")
	}
}

func TestLoadConfigRejectsNonPositiveIntervals(t *testing.T) {
	t.Setenv("ARK_API_KEY", "test-key")
	t.Setenv("POLL_INTERVAL_SECONDS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for zero poll interval")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("ARK_API_KEY", "test-key")
	t.Setenv("POLL_INTERVAL_SECONDS", "5")
	t.Setenv("MAX_WAIT_SECONDS", "120")
	t.Setenv("VIDEO_RATIO", "9:16")
	t.Setenv("KEEP_VIDEO_FILES", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval mismatch: got %v", cfg.PollInterval)
	}
	if cfg.MaxWait != 120*time.Second {
		t.Fatalf("MaxWait mismatch: got %v", cfg.MaxWait)
	}
	if cfg.VideoRatio != "9:16" {
		t.Fatalf("VideoRatio mismatch: got %q", cfg.VideoRatio)
	}
	if cfg.KeepVideoFiles {
		t.Fatalf("KeepVideoFiles should be false")
	}
}
