package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RPCAddress == "" || cfg.DataDir == "" || cfg.NetworkName == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not written: %v", err)
	}

	// Loading the freshly-written file must parse back cleanly.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.RPCAddress != cfg.RPCAddress {
		t.Fatalf("reload mismatch: %s vs %s", again.RPCAddress, cfg.RPCAddress)
	}
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `RPCAddress = "0.0.0.0:9999"
GatewayAddress = "0.0.0.0:9998"
DataDir = "/tmp/hub"
NetworkName = "hub-test"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RPCAddress != "0.0.0.0:9999" {
		t.Fatalf("RPCAddress = %s", cfg.RPCAddress)
	}
	if cfg.GatewayAddress != "0.0.0.0:9998" {
		t.Fatalf("GatewayAddress = %s", cfg.GatewayAddress)
	}
	if cfg.NetworkName != "hub-test" {
		t.Fatalf("NetworkName = %s", cfg.NetworkName)
	}
	if cfg.MetricsAddress == "" {
		t.Fatalf("metrics default missing")
	}
}
