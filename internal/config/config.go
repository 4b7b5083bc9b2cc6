package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alertas-dev/alertas/internal/amount"
	"github.com/alertas-dev/alertas/internal/mailbox"
	"github.com/alertas-dev/alertas/internal/model"
)

// FileName is the default config file name.
const FileName = "alertas.yaml"

// Environment overrides, applied after the file is loaded.
const (
	EnvSince       = "ALERTAS_SINCE"
	EnvCredentials = "ALERTAS_GMAIL_CREDENTIALS"
	EnvToken       = "ALERTAS_GMAIL_TOKEN"
	EnvExportDir   = "ALERTAS_EXPORT_DIR"
)

// Config represents the top-level alertas.yaml configuration.
type Config struct {
	Since    string       `yaml:"since"` // "YYYY-MM-DD", e.g. "2025-07-24"
	Brands   BrandsConfig `yaml:"brands"`
	Export   ExportConfig `yaml:"export"`
	Gmail    GmailConfig  `yaml:"gmail"`
	RunLog   string       `yaml:"run_log,omitempty"`
	LogLevel string       `yaml:"log_level"`
}

// BrandsConfig holds per-brand mailbox settings.
type BrandsConfig struct {
	Visa       BrandConfig `yaml:"visa"`
	Mastercard BrandConfig `yaml:"mastercard"`
}

// BrandConfig identifies one brand's alert sender and amount convention.
type BrandConfig struct {
	Sender     string `yaml:"sender"`
	Convention string `yaml:"convention"` // "argentine" or "us"
}

// ExportConfig controls the CSV export.
type ExportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	GCSURI  string `yaml:"gcs_uri,omitempty"`
}

// GmailConfig points at the OAuth credential files.
type GmailConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

// Load reads an alertas.yaml file from disk. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the stock senders and conventions.
func Default() *Config {
	return &Config{
		Since: "2025-07-24",
		Brands: BrandsConfig{
			Visa: BrandConfig{
				Sender:     "alertas@infomistarjetas.com",
				Convention: string(amount.Argentine),
			},
			Mastercard: BrandConfig{
				Sender:     "mcalertas@mcalertas.com.ar",
				Convention: string(amount.US),
			},
		},
		Export: ExportConfig{
			Enabled: true,
			Dir:     ".",
		},
		Gmail: GmailConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
		},
		LogLevel: "info",
	}
}

// LoadEnv loads a .env file into the process environment. A missing file is
// not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file values with any ALERTAS_* variables set in the
// environment.
func (c *Config) ApplyEnv() {
	override := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	override(EnvSince, &c.Since)
	override(EnvCredentials, &c.Gmail.CredentialsFile)
	override(EnvToken, &c.Gmail.TokenFile)
	override(EnvExportDir, &c.Export.Dir)
}

// Brand returns the settings for b.
func (c *Config) Brand(b model.Brand) BrandConfig {
	if b == model.BrandMastercard {
		return c.Brands.Mastercard
	}
	return c.Brands.Visa
}

// Conventions maps each brand to its configured amount convention.
// Call Validate first; unparseable values are skipped.
func (c *Config) Conventions() map[model.Brand]amount.Convention {
	out := make(map[model.Brand]amount.Convention, len(model.Brands))
	for _, b := range model.Brands {
		if conv, err := amount.ParseConvention(c.Brand(b).Convention); err == nil {
			out[b] = conv
		}
	}
	return out
}

// Validate reports every problem in c as one error.
func (c *Config) Validate() error {
	var errs []error
	if _, err := mailbox.ParseSince(c.Since); err != nil {
		errs = append(errs, fmt.Errorf("since: %w", err))
	}
	for _, b := range model.Brands {
		bc := c.Brand(b)
		key := strings.ToLower(string(b))
		if strings.TrimSpace(bc.Sender) == "" {
			errs = append(errs, fmt.Errorf("brands.%s.sender: must not be empty", key))
		}
		if _, err := amount.ParseConvention(bc.Convention); err != nil {
			errs = append(errs, fmt.Errorf("brands.%s.convention: %w", key, err))
		}
	}
	if c.Export.Enabled && strings.TrimSpace(c.Export.Dir) == "" {
		errs = append(errs, errors.New("export.dir: must not be empty when export is enabled"))
	}
	if c.Export.GCSURI != "" && !strings.HasPrefix(c.Export.GCSURI, "gs://") {
		errs = append(errs, fmt.Errorf("export.gcs_uri: %q must start with gs://", c.Export.GCSURI))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}
