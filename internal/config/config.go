// Package config loads the host application configuration the way the
// teacher's pkg/config does: an optional .env, an optional YAML file, then
// struct-tag environment overrides on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// DatasetsConfig controls dataset-spec discovery and hot reload.
type DatasetsConfig struct {
	Directory       string        `yaml:"directory" env:"DATASETS_DIRECTORY"`
	HotReload       bool          `yaml:"hotReload" env:"DATASETS_HOT_RELOAD"`
	PollInterval    time.Duration `yaml:"pollInterval" env:"DATASETS_POLL_INTERVAL"`
	StopGracePeriod time.Duration `yaml:"stopGracePeriod" env:"DATASETS_STOP_GRACE_PERIOD"`
}

// SecretsConfig selects and configures the vault backend (C1).
type SecretsConfig struct {
	Provider       string        `yaml:"provider" env:"SECRETS_PROVIDER"`
	BaseURL        string        `yaml:"baseUrl" env:"SECRETS_BASE_URL"`
	Token          string        `yaml:"token" env:"SECRETS_TOKEN"`
	APIKey         string        `yaml:"apiKey" env:"SECRETS_API_KEY"`
	MutualTLS      bool          `yaml:"mutualTls" env:"SECRETS_MUTUAL_TLS"`
	Thumbprint     string        `yaml:"thumbprint" env:"SECRETS_CERT_THUMBPRINT"`
	SubjectName    string        `yaml:"subjectName" env:"SECRETS_CERT_SUBJECT"`
	StoreName      string        `yaml:"storeName" env:"SECRETS_CERT_STORE_NAME"`
	StoreLocation  string        `yaml:"storeLocation" env:"SECRETS_CERT_STORE_LOCATION"`
	CacheTTL       time.Duration `yaml:"cacheTtl" env:"SECRETS_CACHE_TTL"`
	RateLimitPerS  float64       `yaml:"rateLimitPerSecond" env:"SECRETS_RATE_LIMIT_PER_SECOND"`
}

// UploadConfig holds per-provider base paths/containers (C7).
type UploadConfig struct {
	FSBasePath      string `yaml:"fsBasePath" env:"UPLOAD_FS_BASE_PATH"`
	BlobAccountURL  string `yaml:"blobAccountUrl" env:"UPLOAD_BLOB_ACCOUNT_URL"`
	BlobContainer   string `yaml:"blobContainer" env:"UPLOAD_BLOB_CONTAINER"`
}

// LedgerConfig is the optional Postgres execution-history sink (§2.5).
type LedgerConfig struct {
	DSN               string `yaml:"dsn" env:"LEDGER_DSN"`
	MigrationsPath    string `yaml:"migrationsPath" env:"LEDGER_MIGRATIONS_PATH"`
}

// OpsConfig is the liveness/readiness/metrics surface, not a UI.
type OpsConfig struct {
	ListenAddr string `yaml:"listenAddr" env:"OPS_LISTEN_ADDR"`
}

// LoggingConfig mirrors internal/logging.Config for layered decoding.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	Output string `yaml:"output" env:"LOG_OUTPUT"`
	Path   string `yaml:"path" env:"LOG_PATH"`
}

// Config is the top-level host application configuration (spec §6.3).
type Config struct {
	Environment string         `yaml:"environment" env:"ENVIRONMENT"`
	Datasets    DatasetsConfig `yaml:"datasets"`
	Secrets     SecretsConfig  `yaml:"secrets"`
	Upload      UploadConfig   `yaml:"upload"`
	Ledger      LedgerConfig   `yaml:"ledger"`
	Ops         OpsConfig      `yaml:"ops"`
	Logging     LoggingConfig  `yaml:"logging"`

	// ConnectionTemplates maps a connection key (SourceSpec.connectionKey)
	// to a template string, possibly containing {vault:<path>} tokens and
	// ${NAME} environment-variable interpolation tokens.
	ConnectionTemplates map[string]string `yaml:"connectionTemplates"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Environment: "Production",
		Datasets: DatasetsConfig{
			Directory:       "./datasets",
			HotReload:       false,
			PollInterval:    30 * time.Second,
			StopGracePeriod: 30 * time.Second,
		},
		Secrets: SecretsConfig{
			Provider:      "backend-a",
			CacheTTL:      5 * time.Minute,
			RateLimitPerS: 10,
		},
		Upload: UploadConfig{
			FSBasePath: "./out",
		},
		Ops: OpsConfig{
			ListenAddr: ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		ConnectionTemplates: map[string]string{},
	}
}

// Load layers .env, an optional YAML file, and struct-tag env overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "configs/config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w: %v", path, ingesterr.ErrConfig, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w: %v", path, ingesterr.ErrConfig, err)
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("config: decode environment: %w: %v", ingesterr.ErrConfig, err)
	}

	if cfg.Datasets.Directory == "" {
		return nil, fmt.Errorf("config: datasets directory is required: %w", ingesterr.ErrConfig)
	}
	for k, v := range cfg.ConnectionTemplates {
		cfg.ConnectionTemplates[k] = expandEnv(v)
	}
	return cfg, nil
}

// expandEnv resolves ${NAME} tokens against the process environment,
// leaving {vault:...} tokens untouched for the Connection Template Resolver.
func expandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		return os.Getenv(name)
	})
}
