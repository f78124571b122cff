package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("SNMP_WRITE_COMMUNITY", "")
	t.Setenv("DURABLE_REVERT", "")

	cfg := Load()
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.WriteCommunity != "private" {
		t.Errorf("WriteCommunity = %q, want private", cfg.WriteCommunity)
	}
	if !cfg.DurableRevert {
		t.Error("DurableRevert should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "5")
	t.Setenv("SNMP_READ_COMMUNITY", "ro")
	t.Setenv("SNMP_WRITE_COMMUNITY", "rw")
	t.Setenv("DURABLE_REVERT", "false")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Load()
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.ReadCommunity != "ro" || cfg.WriteCommunity != "rw" {
		t.Errorf("communities = %q/%q", cfg.ReadCommunity, cfg.WriteCommunity)
	}
	if cfg.DurableRevert {
		t.Error("DurableRevert should be false")
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("DBMaxConns = %d, want fallback 10", cfg.DBMaxConns)
	}
}
