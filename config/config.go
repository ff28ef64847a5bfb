package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ajmalps/trovebot/db"
)

// ForceSub gates bot functionality on membership in a channel.
type ForceSub struct {
	// Channel is a destination ref (numeric id or @username). Empty
	// disables the gate.
	Channel string
	// Optional downgrades an ambiguous membership check to
	// warn-and-continue instead of block-and-report.
	Optional bool
}

// Config is built once at process start and passed into every component
// constructor. Components never read ambient environment themselves.
type Config struct {
	Token   string
	BaseURL string

	Listen         string
	WebhookBaseURL string

	OwnerID             int64
	ArchiveDestinations []int64
	AutoDeleteSeconds   int
	ForceSub            ForceSub

	SearchPageSize int
	DeliverAllCap  int
	BroadcastDelay time.Duration

	DB db.Config

	LogLevel  string
	LogFormat string
}

func applyDefaults() {
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("listen", "127.0.0.1:8080")
	viper.SetDefault("auto_delete_seconds", 300)
	viper.SetDefault("force_sub.optional", false)
	viper.SetDefault("search.page_size", 10)
	viper.SetDefault("retrieval.deliver_all_cap", 8)
	viper.SetDefault("broadcast.delay_ms", 50)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// Load reads a .env file when present, applies defaults, and builds the
// config struct from viper's merged state (config file, env, flags).
func Load() (Config, error) {
	// Missing .env is fine; explicit env still wins through viper.
	_ = godotenv.Load()
	applyDefaults()

	destinations, err := destinationList("archive.destinations")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Token:               strings.TrimSpace(viper.GetString("telegram.token")),
		BaseURL:             strings.TrimSpace(viper.GetString("telegram.base_url")),
		Listen:              strings.TrimSpace(viper.GetString("listen")),
		WebhookBaseURL:      strings.TrimSpace(viper.GetString("webhook.base_url")),
		OwnerID:             viper.GetInt64("owner_id"),
		ArchiveDestinations: destinations,
		AutoDeleteSeconds:   viper.GetInt("auto_delete_seconds"),
		ForceSub: ForceSub{
			Channel:  strings.TrimSpace(viper.GetString("force_sub.channel")),
			Optional: viper.GetBool("force_sub.optional"),
		},
		SearchPageSize: viper.GetInt("search.page_size"),
		DeliverAllCap:  viper.GetInt("retrieval.deliver_all_cap"),
		BroadcastDelay: time.Duration(viper.GetInt("broadcast.delay_ms")) * time.Millisecond,
		DB:             db.DefaultConfig(),
		LogLevel:       strings.TrimSpace(viper.GetString("log.level")),
		LogFormat:      strings.TrimSpace(viper.GetString("log.format")),
	}
	cfg.DB.DSN = strings.TrimSpace(viper.GetString("db.dsn"))

	if cfg.Token == "" {
		return Config{}, fmt.Errorf("missing telegram.token (set TROVEBOT_TELEGRAM_TOKEN or the config file)")
	}
	if cfg.AutoDeleteSeconds < 0 {
		return Config{}, fmt.Errorf("auto_delete_seconds must be >= 0")
	}
	return cfg, nil
}

// destinationList parses an ordered list of numeric chat ids. YAML may
// carry them as numbers or strings.
func destinationList(key string) ([]int64, error) {
	raw := viper.GetStringSlice(key)
	out := make([]int64, 0, len(raw))
	for i, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s[%d]: %q", key, i, item)
		}
		out = append(out, id)
	}
	return out, nil
}
