package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kerr-srl/ubxlib/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sanitize()
	if cfg.RingCapacity != 1024 || cfg.MaxChannels != 8 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.SendTimeout != 100*time.Millisecond {
		t.Errorf("send timeout default = %s", cfg.SendTimeout)
	}
	if cfg.QueueDepth != 16 {
		t.Errorf("queue depth must resolve to 2*MaxChannels, got %d", cfg.QueueDepth)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sps.yaml")
	data := []byte("ring_capacity: 2048\nmax_channels: 4\nsend_timeout: 250ms\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RingCapacity != 2048 || cfg.MaxChannels != 4 {
		t.Errorf("yaml fields not applied: %+v", cfg)
	}
	if cfg.SendTimeout != 250*time.Millisecond {
		t.Errorf("send_timeout = %s", cfg.SendTimeout)
	}
	if cfg.QueueDepth != 8 {
		t.Errorf("derived queue depth = %d, want 8", cfg.QueueDepth)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("UBX_MAX_CHANNELS", "2")
	t.Setenv("UBX_SEND_TIMEOUT", "1s")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxChannels != 2 || cfg.SendTimeout != time.Second {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RingCapacity = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero ring capacity must not validate")
	}
	cfg = config.DefaultConfig()
	cfg.MaxChannels = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative max channels must not validate")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sps.yaml")
	if err := os.WriteFile(path, []byte("ring_capacity: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Error("malformed yaml must fail to load")
	}
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sps.yaml")
	if err := os.WriteFile(path, []byte("max_channels: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := config.NewWatcher(path)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	changed := make(chan *config.Config, 1)
	w.OnChange(func(_, updated *config.Config) {
		changed <- updated
	})

	if err := os.WriteFile(path, []byte("max_channels: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-changed:
		if cfg.MaxChannels != 6 {
			t.Errorf("reloaded max_channels = %d, want 6", cfg.MaxChannels)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("change callback not invoked")
	}
}
