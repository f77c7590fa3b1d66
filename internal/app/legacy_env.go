package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// legacyVar maps an environment variable of the Node deployment onto a config field. It only
// applies when the FARMIQ_* variable for the same key is unset.
type legacyVar struct {
	name     string
	override string
	apply    func(cfg *Config, value string) error
}

var legacyVars = []legacyVar{
	{name: "DATA_GOV_API_KEY", override: "FARMIQ_MARKET_API_KEY", apply: func(cfg *Config, value string) error {
		cfg.Market.APIKey = value
		return nil
	}},
	{name: "DATA_GOV_API_CACHE_TTL_SEC", override: "FARMIQ_MARKET_CACHE_TTL", apply: func(cfg *Config, value string) error {
		seconds, err := positiveInt(value)
		if err != nil {
			return err
		}
		cfg.Market.CacheTTL = time.Duration(seconds) * time.Second
		return nil
	}},
	{name: "DATA_GOV_API_TIMEOUT_MS", override: "FARMIQ_MARKET_TIMEOUT", apply: func(cfg *Config, value string) error {
		millis, err := positiveInt(value)
		if err != nil {
			return err
		}
		cfg.Market.Timeout = time.Duration(millis) * time.Millisecond
		return nil
	}},
	{name: "DATA_GOV_API_MAX_LIMIT", override: "FARMIQ_MARKET_MAX_LIMIT", apply: func(cfg *Config, value string) error {
		limit, err := positiveInt(value)
		if err != nil {
			return err
		}
		cfg.Market.MaxLimit = limit
		return nil
	}},
	{name: "PORT", override: "FARMIQ_SERVER_PORT", apply: func(cfg *Config, value string) error {
		port, err := positiveInt(value)
		if err != nil {
			return err
		}
		cfg.Server.Port = port
		return nil
	}},
	{name: "NODE_ENV", override: "FARMIQ_SERVER_ENVIRONMENT", apply: func(cfg *Config, value string) error {
		cfg.Server.Environment = value
		return nil
	}},
	{name: "SUPABASE_DB_URL", override: "FARMIQ_MIGRATION_DESTINATION_DSN", apply: func(cfg *Config, value string) error {
		cfg.Migration.Destination.Driver = "postgres"
		cfg.Migration.Destination.DSN = value
		return nil
	}},
}

// applyLegacyEnv overlays the legacy variables returned by lookup onto cfg.
func applyLegacyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, lv := range legacyVars {
		if value, ok := lookup(lv.override); ok && strings.TrimSpace(value) != "" {
			continue
		}
		value, ok := lookup(lv.name)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		if err := lv.apply(cfg, value); err != nil {
			return fmt.Errorf("config: %s: %w", lv.name, err)
		}
	}
	return nil
}

func positiveInt(value string) (int, error) {
	n, err := cast.ToIntE(value)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
