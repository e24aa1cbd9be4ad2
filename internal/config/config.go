package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
	"gopkg.in/yaml.v3"
)

const (
	QuoteModeRFC4180 = "rfc4180"
	QuoteModeStrip   = "strip"
)

type Config struct {
	Chain    ChainConfig
	Subscan  SubscanConfig
	Pipeline PipelineConfig
	Files    FilesConfig
	Log      LogConfig
	Tracing  TracingConfig
	Metrics  MetricsConfig
	Alert    AlertConfig
}

type ChainConfig struct {
	Network         model.Network
	Endpoint        string
	DialTimeout     time.Duration
	CallTimeout     time.Duration
	ExpectedGenesis string
	AffiliateCall   string
	BatchCall       string
}

type SubscanConfig struct {
	BaseURL     string
	APIKey      string
	EventID     string
	PageSize    int
	Workers     int
	RPS         float64
	Burst       int
	MaxAttempts int
	Timeout     time.Duration

	BreakerThreshold   int
	BreakerOpenTimeout time.Duration
}

type PipelineConfig struct {
	BatchSize         int
	AffiliateMaxLevel int
	QuoteMode         string
	DuplicatePolicy   model.DuplicatePolicy
}

type FilesConfig struct {
	EventIDs         string
	EventAccounts    string
	AffiliateeChains string
	EncodedCalls     string
}

type LogConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
	Insecure bool
}

type MetricsConfig struct {
	TextfilePath string
}

type AlertConfig struct {
	SlackWebhookURL string
	WebhookURL      string
}

// fileConfig mirrors the YAML layout accepted by Load.
type fileConfig struct {
	Chain struct {
		Network         string `yaml:"network"`
		Endpoint        string `yaml:"endpoint"`
		DialTimeoutSec  int    `yaml:"dial_timeout_sec"`
		CallTimeoutSec  int    `yaml:"call_timeout_sec"`
		ExpectedGenesis string `yaml:"expected_genesis"`
		AffiliateCall   string `yaml:"affiliate_call"`
		BatchCall       string `yaml:"batch_call"`
	} `yaml:"chain"`
	Subscan struct {
		BaseURL     string  `yaml:"base_url"`
		APIKey      string  `yaml:"api_key"`
		EventID     string  `yaml:"event_id"`
		PageSize    int     `yaml:"page_size"`
		Workers     int     `yaml:"workers"`
		RPS         float64 `yaml:"rps"`
		Burst       int     `yaml:"burst"`
		MaxAttempts int     `yaml:"max_attempts"`
		TimeoutSec  int     `yaml:"timeout_sec"`

		BreakerThreshold      int `yaml:"breaker_threshold"`
		BreakerOpenTimeoutSec int `yaml:"breaker_open_timeout_sec"`
	} `yaml:"subscan"`
	Pipeline struct {
		BatchSize         int    `yaml:"batch_size"`
		AffiliateMaxLevel int    `yaml:"affiliate_max_level"`
		QuoteMode         string `yaml:"quote_mode"`
		DuplicatePolicy   string `yaml:"duplicate_policy"`
	} `yaml:"pipeline"`
	Files struct {
		EventIDs         string `yaml:"event_ids"`
		EventAccounts    string `yaml:"event_accounts"`
		AffiliateeChains string `yaml:"affiliatee_chains"`
		EncodedCalls     string `yaml:"encoded_calls"`
	} `yaml:"files"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Tracing struct {
		Enabled  bool   `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
		Insecure *bool  `yaml:"insecure"`
	} `yaml:"tracing"`
	Metrics struct {
		TextfilePath string `yaml:"textfile_path"`
	} `yaml:"metrics"`
	Alert struct {
		SlackWebhookURL string `yaml:"slack_webhook_url"`
		WebhookURL      string `yaml:"webhook_url"`
	} `yaml:"alert"`
}

var defaultEndpoints = map[model.Network]string{
	model.NetworkBajun: "wss://bajun.api.onfinality.io/public-ws",
	model.NetworkAjuna: "wss://ajuna.api.onfinality.io/public-ws",
}

var defaultSubscanURLs = map[model.Network]string{
	model.NetworkBajun: "https://bajun.api.subscan.io",
	model.NetworkAjuna: "https://ajuna.api.subscan.io",
}

func defaults() *Config {
	return &Config{
		Chain: ChainConfig{
			Network:       model.NetworkBajun,
			DialTimeout:   30 * time.Second,
			CallTimeout:   60 * time.Second,
			AffiliateCall: model.CallForceSetAffiliateeState,
			BatchCall:     model.CallBatchAll,
		},
		Subscan: SubscanConfig{
			EventID:     model.EventAffiliated,
			PageSize:    100,
			Workers:     1,
			RPS:         5,
			Burst:       1,
			MaxAttempts: 4,
			Timeout:     30 * time.Second,

			BreakerThreshold:   5,
			BreakerOpenTimeout: 30 * time.Second,
		},
		Pipeline: PipelineConfig{
			BatchSize:         model.DefaultBatchSize,
			AffiliateMaxLevel: 2,
			QuoteMode:         QuoteModeRFC4180,
			DuplicatePolicy:   model.DuplicateLastWriteWins,
		},
		Files: FilesConfig{
			EventIDs:         "event-ids.csv",
			EventAccounts:    "event-accounts.csv",
			AffiliateeChains: "affiliatee-chains.csv",
			EncodedCalls:     "encoded-call.txt",
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			Insecure: true,
		},
	}
}

// Load resolves configuration as defaults, then the YAML file at path (when
// path is non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.applyNetworkDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Chain.Endpoint, f.Chain.Endpoint)
	if f.Chain.Network != "" {
		c.Chain.Network = model.Network(f.Chain.Network)
	}
	setSeconds(&c.Chain.DialTimeout, f.Chain.DialTimeoutSec)
	setSeconds(&c.Chain.CallTimeout, f.Chain.CallTimeoutSec)
	setString(&c.Chain.ExpectedGenesis, f.Chain.ExpectedGenesis)
	setString(&c.Chain.AffiliateCall, f.Chain.AffiliateCall)
	setString(&c.Chain.BatchCall, f.Chain.BatchCall)

	setString(&c.Subscan.BaseURL, f.Subscan.BaseURL)
	setString(&c.Subscan.APIKey, f.Subscan.APIKey)
	setString(&c.Subscan.EventID, f.Subscan.EventID)
	setInt(&c.Subscan.PageSize, f.Subscan.PageSize)
	setInt(&c.Subscan.Workers, f.Subscan.Workers)
	if f.Subscan.RPS > 0 {
		c.Subscan.RPS = f.Subscan.RPS
	}
	setInt(&c.Subscan.Burst, f.Subscan.Burst)
	setInt(&c.Subscan.MaxAttempts, f.Subscan.MaxAttempts)
	setSeconds(&c.Subscan.Timeout, f.Subscan.TimeoutSec)
	setInt(&c.Subscan.BreakerThreshold, f.Subscan.BreakerThreshold)
	setSeconds(&c.Subscan.BreakerOpenTimeout, f.Subscan.BreakerOpenTimeoutSec)

	setInt(&c.Pipeline.BatchSize, f.Pipeline.BatchSize)
	setInt(&c.Pipeline.AffiliateMaxLevel, f.Pipeline.AffiliateMaxLevel)
	setString(&c.Pipeline.QuoteMode, f.Pipeline.QuoteMode)
	if f.Pipeline.DuplicatePolicy != "" {
		c.Pipeline.DuplicatePolicy = model.DuplicatePolicy(f.Pipeline.DuplicatePolicy)
	}

	setString(&c.Files.EventIDs, f.Files.EventIDs)
	setString(&c.Files.EventAccounts, f.Files.EventAccounts)
	setString(&c.Files.AffiliateeChains, f.Files.AffiliateeChains)
	setString(&c.Files.EncodedCalls, f.Files.EncodedCalls)

	setString(&c.Log.Level, f.Log.Level)

	c.Tracing.Enabled = c.Tracing.Enabled || f.Tracing.Enabled
	setString(&c.Tracing.Endpoint, f.Tracing.Endpoint)
	if f.Tracing.Insecure != nil {
		c.Tracing.Insecure = *f.Tracing.Insecure
	}

	setString(&c.Metrics.TextfilePath, f.Metrics.TextfilePath)
	setString(&c.Alert.SlackWebhookURL, f.Alert.SlackWebhookURL)
	setString(&c.Alert.WebhookURL, f.Alert.WebhookURL)
	return nil
}

func (c *Config) applyEnv() {
	c.Chain.Network = model.Network(getEnv("CHAIN_NETWORK", c.Chain.Network.String()))
	c.Chain.Endpoint = getEnv("CHAIN_ENDPOINT", c.Chain.Endpoint)
	c.Chain.DialTimeout = time.Duration(getEnvInt("CHAIN_DIAL_TIMEOUT_SEC", int(c.Chain.DialTimeout/time.Second))) * time.Second
	c.Chain.CallTimeout = time.Duration(getEnvInt("CHAIN_CALL_TIMEOUT_SEC", int(c.Chain.CallTimeout/time.Second))) * time.Second
	c.Chain.ExpectedGenesis = getEnv("CHAIN_EXPECTED_GENESIS", c.Chain.ExpectedGenesis)
	c.Chain.AffiliateCall = getEnv("CHAIN_AFFILIATE_CALL", c.Chain.AffiliateCall)
	c.Chain.BatchCall = getEnv("CHAIN_BATCH_CALL", c.Chain.BatchCall)

	c.Subscan.BaseURL = getEnv("SUBSCAN_BASE_URL", c.Subscan.BaseURL)
	c.Subscan.APIKey = getEnv("SUBSCAN_API_KEY", c.Subscan.APIKey)
	c.Subscan.EventID = getEnv("SUBSCAN_EVENT_ID", c.Subscan.EventID)
	c.Subscan.PageSize = getEnvInt("SUBSCAN_PAGE_SIZE", c.Subscan.PageSize)
	c.Subscan.Workers = getEnvInt("SUBSCAN_WORKERS", c.Subscan.Workers)
	c.Subscan.RPS = getEnvFloat("SUBSCAN_RPS", c.Subscan.RPS)
	c.Subscan.Burst = getEnvInt("SUBSCAN_BURST", c.Subscan.Burst)
	c.Subscan.MaxAttempts = getEnvInt("SUBSCAN_MAX_ATTEMPTS", c.Subscan.MaxAttempts)
	c.Subscan.Timeout = time.Duration(getEnvInt("SUBSCAN_TIMEOUT_SEC", int(c.Subscan.Timeout/time.Second))) * time.Second
	c.Subscan.BreakerThreshold = getEnvInt("SUBSCAN_BREAKER_THRESHOLD", c.Subscan.BreakerThreshold)
	c.Subscan.BreakerOpenTimeout = time.Duration(getEnvInt("SUBSCAN_BREAKER_OPEN_TIMEOUT_SEC", int(c.Subscan.BreakerOpenTimeout/time.Second))) * time.Second

	c.Pipeline.BatchSize = getEnvInt("BATCH_SIZE", c.Pipeline.BatchSize)
	c.Pipeline.AffiliateMaxLevel = getEnvInt("AFFILIATE_MAX_LEVEL", c.Pipeline.AffiliateMaxLevel)
	c.Pipeline.QuoteMode = strings.ToLower(getEnv("CSV_QUOTE_MODE", c.Pipeline.QuoteMode))
	c.Pipeline.DuplicatePolicy = model.DuplicatePolicy(strings.ToLower(getEnv("DUPLICATE_POLICY", c.Pipeline.DuplicatePolicy.String())))

	c.Files.EventIDs = getEnv("EVENT_IDS_FILE", c.Files.EventIDs)
	c.Files.EventAccounts = getEnv("EVENT_ACCOUNTS_FILE", c.Files.EventAccounts)
	c.Files.AffiliateeChains = getEnv("AFFILIATEE_CHAINS_FILE", c.Files.AffiliateeChains)
	c.Files.EncodedCalls = getEnv("ENCODED_CALLS_FILE", c.Files.EncodedCalls)

	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))

	c.Tracing.Enabled = getEnvBool("OTEL_TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.Insecure = getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", c.Tracing.Insecure)

	c.Metrics.TextfilePath = getEnv("METRICS_TEXTFILE_PATH", c.Metrics.TextfilePath)

	c.Alert.SlackWebhookURL = getEnv("ALERT_SLACK_WEBHOOK_URL", c.Alert.SlackWebhookURL)
	c.Alert.WebhookURL = getEnv("ALERT_WEBHOOK_URL", c.Alert.WebhookURL)
}

func (c *Config) applyNetworkDefaults() {
	if c.Chain.Endpoint == "" {
		c.Chain.Endpoint = defaultEndpoints[c.Chain.Network]
	}
	if c.Subscan.BaseURL == "" {
		c.Subscan.BaseURL = defaultSubscanURLs[c.Chain.Network]
	}
}

// Validate checks the resolved configuration. It is exported so callers
// that apply CLI overrides after Load can re-check the result.
func (c *Config) Validate() error {
	if c.Chain.Endpoint == "" {
		return fmt.Errorf("CHAIN_ENDPOINT is required for network %q", c.Chain.Network)
	}
	if !strings.HasPrefix(c.Chain.Endpoint, "ws://") && !strings.HasPrefix(c.Chain.Endpoint, "wss://") {
		return fmt.Errorf("CHAIN_ENDPOINT must be a ws:// or wss:// url, got %q", c.Chain.Endpoint)
	}
	if c.Chain.AffiliateCall == "" || c.Chain.BatchCall == "" {
		return fmt.Errorf("CHAIN_AFFILIATE_CALL and CHAIN_BATCH_CALL are required")
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.AffiliateMaxLevel <= 0 {
		return fmt.Errorf("AFFILIATE_MAX_LEVEL must be positive, got %d", c.Pipeline.AffiliateMaxLevel)
	}
	switch c.Pipeline.QuoteMode {
	case QuoteModeRFC4180, QuoteModeStrip:
	default:
		return fmt.Errorf("CSV_QUOTE_MODE must be %q or %q, got %q", QuoteModeRFC4180, QuoteModeStrip, c.Pipeline.QuoteMode)
	}
	if !c.Pipeline.DuplicatePolicy.Valid() {
		return fmt.Errorf("DUPLICATE_POLICY must be %q or %q, got %q",
			model.DuplicateLastWriteWins, model.DuplicateReject, c.Pipeline.DuplicatePolicy)
	}
	if c.Subscan.PageSize <= 0 {
		return fmt.Errorf("SUBSCAN_PAGE_SIZE must be positive, got %d", c.Subscan.PageSize)
	}
	if c.Subscan.Workers <= 0 {
		return fmt.Errorf("SUBSCAN_WORKERS must be positive, got %d", c.Subscan.Workers)
	}
	if c.Subscan.RPS <= 0 {
		return fmt.Errorf("SUBSCAN_RPS must be positive, got %v", c.Subscan.RPS)
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setSeconds(dst *time.Duration, sec int) {
	if sec > 0 {
		*dst = time.Duration(sec) * time.Second
	}
}

// SetNetwork switches the target network. The endpoint and Subscan URL follow
// the new network unless they hold a non-default value.
func (c *Config) SetNetwork(n model.Network) {
	if c.Chain.Endpoint == defaultEndpoints[c.Chain.Network] {
		c.Chain.Endpoint = ""
	}
	if c.Subscan.BaseURL == defaultSubscanURLs[c.Chain.Network] {
		c.Subscan.BaseURL = ""
	}
	c.Chain.Network = n
	c.applyNetworkDefaults()
}
