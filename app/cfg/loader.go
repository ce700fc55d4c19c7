package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"cignite_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"cignite_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"cignite" description:"Database name"`

	// Optional Redis cache
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for short-TTL caching (optional, e.g. localhost:6379)"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://api.example.com)"`
	DomainsDir        string `long:"domains-dir" env:"DOMAINS_DIR" default:"./domains" description:"Directory containing snapshot domain configuration files"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for sync processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`

	// LinkedIn Member Data Portability API
	LinkedInAPIBase      string `long:"linkedin-api-base" env:"LINKEDIN_API_BASE" default:"https://api.linkedin.com" description:"LinkedIn API base URL"`
	LinkedInClientID     string `long:"linkedin-client-id" env:"LINKEDIN_CLIENT_ID" description:"LinkedIn OAuth client ID"`
	LinkedInClientSecret string `long:"linkedin-client-secret" env:"LINKEDIN_CLIENT_SECRET" description:"LinkedIn OAuth client secret"`
	LinkedInRedirectURL  string `long:"linkedin-redirect-url" env:"LINKEDIN_REDIRECT_URL" description:"LinkedIn OAuth redirect URL"`

	// LLM suggestion provider (optional)
	LLMAPIBase string `long:"llm-api-base" env:"LLM_API_BASE" default:"https://openrouter.ai/api/v1" description:"LLM provider base URL"`
	LLMAPIKey  string `long:"llm-api-key" env:"LLM_API_KEY" description:"LLM provider API key (optional, canned suggestions used when unset)"`
	LLMModel   string `long:"llm-model" env:"LLM_MODEL" default:"openai/gpt-4o-mini" description:"LLM model identifier"`

	// Session tokens
	JWTSecret string `long:"jwt-secret" env:"JWT_SECRET" description:"Secret for signing session tokens (required)" required:"true"`

	// Staleness thresholds
	SyncThresholdHours  int `long:"sync-threshold-hours" env:"SYNC_THRESHOLD_HOURS" default:"6" description:"Hours before a user's post cache is considered stale"`
	DMAThresholdMinutes int `long:"dma-threshold-minutes" env:"DMA_THRESHOLD_MINUTES" default:"15" description:"Minutes before a cached DMA consent status is rechecked"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Cignite/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:               raw.DBHost,
		DBPort:               raw.DBPort,
		DBUser:               raw.DBUser,
		DBPassword:           raw.DBPassword,
		DBName:               raw.DBName,
		RedisAddr:            raw.RedisAddr,
		Port:                 raw.Port,
		BaseUrl:              raw.BaseUrl,
		DomainsDir:           raw.DomainsDir,
		WorkerCount:          raw.WorkerCount,
		SchedulerInterval:    raw.SchedulerInterval,
		LinkedInAPIBase:      raw.LinkedInAPIBase,
		LinkedInClientID:     raw.LinkedInClientID,
		LinkedInClientSecret: raw.LinkedInClientSecret,
		LinkedInRedirectURL:  raw.LinkedInRedirectURL,
		LLMAPIBase:           raw.LLMAPIBase,
		LLMAPIKey:            raw.LLMAPIKey,
		LLMModel:             raw.LLMModel,
		JWTSecret:            raw.JWTSecret,
		SyncThresholdHours:   raw.SyncThresholdHours,
		DMAThresholdMinutes:  raw.DMAThresholdMinutes,
		UserAgent:            raw.UserAgent,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
