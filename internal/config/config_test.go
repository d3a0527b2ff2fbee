package config

import (
	"testing"
	"time"
)

func TestLoad_BreakerDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BreakerFailureRatio != 0.5 {
		t.Errorf("expected default failure ratio 0.5, got %v", cfg.BreakerFailureRatio)
	}
	if cfg.BreakerProbes != 3 {
		t.Errorf("expected default probe count 3, got %d", cfg.BreakerProbes)
	}
	if cfg.BreakerInterval != time.Minute {
		t.Errorf("expected default interval 1m, got %v", cfg.BreakerInterval)
	}
}

func TestLoad_BreakerOverrides(t *testing.T) {
	t.Setenv("BREAKER_FAILURE_RATIO", "0.8")
	t.Setenv("BREAKER_PROBES", "5")
	t.Setenv("BREAKER_COOLDOWN", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BreakerFailureRatio != 0.8 {
		t.Errorf("expected failure ratio 0.8, got %v", cfg.BreakerFailureRatio)
	}
	if cfg.BreakerProbes != 5 {
		t.Errorf("expected probe count 5, got %d", cfg.BreakerProbes)
	}
	if cfg.BreakerCooldown != 10*time.Second {
		t.Errorf("expected cooldown 10s, got %v", cfg.BreakerCooldown)
	}

	// Garbage falls back rather than zeroing the breaker out.
	t.Setenv("BREAKER_FAILURE_RATIO", "lots")
	t.Setenv("BREAKER_PROBES", "-1")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BreakerFailureRatio != 0.5 || cfg.BreakerProbes != 3 {
		t.Errorf("expected defaults on bad input, got %v/%d", cfg.BreakerFailureRatio, cfg.BreakerProbes)
	}
}
