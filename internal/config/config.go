// Package config loads abt settings from a .env file and ABT_* environment
// variables. Environment variables always take precedence over .env values,
// and command-line flags take precedence over both.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/xlatombet/abt/internal/entry"
	"github.com/xlatombet/abt/internal/fetch"
	"github.com/xlatombet/abt/internal/ground"
	"github.com/xlatombet/abt/internal/schedule"
)

// EnvPrefix namespaces every variable, e.g. ABT_DATA_DIR.
const EnvPrefix = "ABT"

const DefaultDataDir = "~/.local/share/abt"

// Config holds the settings shared by every command.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	CacheTTL     time.Duration // 0 disables the page cache
	GroundURL    string
	NetkeibaBase string
	JRABase      string
	DataDir      string
	Debug        bool
	Rank         entry.RankMethod
}

// Load reads the given .env files (".env" when none are named; missing
// files are ignored) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("USER_AGENT", fetch.UserAgent)
	v.SetDefault("TIMEOUT", fetch.Timeout.String())
	v.SetDefault("CACHE_TTL", fetch.DefaultCacheTTL.String())
	v.SetDefault("GROUND_URL", ground.URL)
	v.SetDefault("NETKEIBA_BASE", "https://race.netkeiba.com")
	v.SetDefault("JRA_BASE", schedule.JRABase)
	v.SetDefault("DATA_DIR", DefaultDataDir)
	v.SetDefault("DEBUG", false)
	v.SetDefault("RANK", "dense")

	timeout, err := time.ParseDuration(v.GetString("TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("config: %s_TIMEOUT: %w", EnvPrefix, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("config: %s_TIMEOUT must be positive, got %s", EnvPrefix, timeout)
	}
	cacheTTL, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("config: %s_CACHE_TTL: %w", EnvPrefix, err)
	}
	if cacheTTL < 0 {
		return nil, fmt.Errorf("config: %s_CACHE_TTL must not be negative, got %s", EnvPrefix, cacheTTL)
	}
	rank, err := entry.ParseRankMethod(v.GetString("RANK"))
	if err != nil {
		return nil, fmt.Errorf("config: %s_RANK: %w", EnvPrefix, err)
	}

	return &Config{
		UserAgent:    v.GetString("USER_AGENT"),
		Timeout:      timeout,
		CacheTTL:     cacheTTL,
		GroundURL:    v.GetString("GROUND_URL"),
		NetkeibaBase: strings.TrimSuffix(v.GetString("NETKEIBA_BASE"), "/"),
		JRABase:      strings.TrimSuffix(v.GetString("JRA_BASE"), "/"),
		DataDir:      v.GetString("DATA_DIR"),
		Debug:        v.GetBool("DEBUG"),
		Rank:         rank,
	}, nil
}

// RaceURL is the netkeiba page of a race for mode ("shutuba" or "result").
func (c *Config) RaceURL(mode, raceID string) string {
	return fmt.Sprintf("%s/race/%s.html?race_id=%s", c.NetkeibaBase, mode, raceID)
}
