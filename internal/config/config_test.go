package config

import (
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.InterpDuration != 5*time.Second || cfg.TickInterval != 200*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.OSRMURL != "" {
		t.Fatalf("OSRM must be off by default, got %q", cfg.OSRMURL)
	}
}

func TestLoadServerConfigReadsOSRMURL(t *testing.T) {
	t.Setenv("OSRM_URL", "  http://osrm.internal:5000 ")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OSRMURL != "http://osrm.internal:5000" {
		t.Fatalf("expected trimmed OSRM url, got %q", cfg.OSRMURL)
	}
}

func TestLoadServerConfigRejectsBadValues(t *testing.T) {
	t.Setenv("INTERP_DURATION", "banana")
	t.Setenv("NEARBY_LIMIT", "0")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatal("expected validation errors")
	}
}
