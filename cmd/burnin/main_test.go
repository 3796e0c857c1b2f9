package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/burnin-project/burnin/internal/config"
)

func TestVersionFlag(t *testing.T) {
	cmd := buildRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Errorf("version output %q missing %q", out.String(), version)
	}
}

func TestConfigInitWritesDefaults(t *testing.T) {
	t.Setenv("BURNIN_DISK_PATH", "")
	t.Setenv("BURNIN_NETWORK_URL", "")
	t.Setenv("BURNIN_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	cmd := buildRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"config", "init", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	def := config.DefaultConfig()
	if cfg.Disk.BufferSizeMB != def.Disk.BufferSizeMB {
		t.Errorf("disk buffer = %d, want %d", cfg.Disk.BufferSizeMB, def.Disk.BufferSizeMB)
	}
	if cfg.Network.URL != def.Network.URL {
		t.Errorf("network url = %q, want %q", cfg.Network.URL, def.Network.URL)
	}
	if cfg.Monitor.Interval.Duration != def.Monitor.Interval.Duration {
		t.Errorf("monitor interval = %v, want %v", cfg.Monitor.Interval.Duration, def.Monitor.Interval.Duration)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers:\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := buildRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"config", "init", path})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for existing file")
	}

	cmd = buildRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"config", "init", "--force", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("force overwrite: %v", err)
	}
}
