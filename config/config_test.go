package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("telegram.token", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Token)
	}
	if cfg.BaseURL != "https://api.telegram.org" {
		t.Fatalf("base url = %q", cfg.BaseURL)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
	if cfg.AutoDeleteSeconds != 300 {
		t.Fatalf("auto_delete_seconds = %d", cfg.AutoDeleteSeconds)
	}
	if cfg.SearchPageSize != 10 || cfg.DeliverAllCap != 8 {
		t.Fatalf("paging = %d/%d", cfg.SearchPageSize, cfg.DeliverAllCap)
	}
	if cfg.BroadcastDelay != 50*time.Millisecond {
		t.Fatalf("broadcast delay = %v", cfg.BroadcastDelay)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	if _, err := Load(); err == nil {
		t.Fatal("expected missing-token error")
	}
}

func TestLoadDestinations(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("telegram.token", "123:abc")
	viper.Set("archive.destinations", []string{"-1001234", " -1005678 ", ""})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.ArchiveDestinations) != 2 ||
		cfg.ArchiveDestinations[0] != -1001234 ||
		cfg.ArchiveDestinations[1] != -1005678 {
		t.Fatalf("destinations = %v", cfg.ArchiveDestinations)
	}
}

func TestLoadRejectsBadDestination(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("telegram.token", "123:abc")
	viper.Set("archive.destinations", []string{"not-a-number"})

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid destination error")
	}
}

func TestLoadRejectsNegativeAutoDelete(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("telegram.token", "123:abc")
	viper.Set("auto_delete_seconds", -1)

	if _, err := Load(); err == nil {
		t.Fatal("expected auto_delete_seconds error")
	}
}
