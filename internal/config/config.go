package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AppName is used for the config directory and keyring service
const AppName = "billbook"

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Invoice settings
	Invoice InvoiceConfig `yaml:"invoice"`

	// User info for invoices
	User UserConfig `yaml:"user"`

	// Log settings
	Log LogConfig `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type InvoiceConfig struct {
	DefaultDueDays  int     `yaml:"default_due_days"` // Days until invoice due
	DefaultTaxRate  float64 `yaml:"default_tax_rate"` // Tax rate as decimal (0.10 = 10%)
	StepCount       int     `yaml:"step_count"`       // Builder wizard steps
	MinLineItems    int     `yaml:"min_line_items"`   // Items the builder refuses to remove below
	OutputDir       string  `yaml:"output_dir"`       // Directory for generated documents
	NumberPrefix    string  `yaml:"number_prefix"`    // Invoice number prefix (e.g., "INV")
	DefaultTemplate string  `yaml:"default_template"` // professional, minimal or creative
	LogoPath        string  `yaml:"logo_path"`        // Optional image drawn when the logo block is on
	SignaturePath   string  `yaml:"signature_path"`   // Optional image drawn when the signature block is on
}

type UserConfig struct {
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}

type LogConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Path        string `yaml:"path"`        // Log file; the TUI owns stdout
	Development bool   `yaml:"development"` // Console encoder instead of JSON
}

func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		homeDir = "."
	}
	return filepath.Join(homeDir, ".config", AppName)
}

// DefaultConfigPath returns ~/.config/billbook/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := configDir()

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, AppName+".db"),
		},
		Invoice: InvoiceConfig{
			DefaultDueDays:  30,
			DefaultTaxRate:  0.10,
			StepCount:       5,
			MinLineItems:    0,
			OutputDir:       filepath.Join(dir, "invoices"),
			NumberPrefix:    "INV",
			DefaultTemplate: "professional",
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(dir, AppName+".log"),
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist
func Load(path string) (*Config, error) {
	// If file doesn't exist, return defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// Validate rejects settings the builder cannot work with
func (c *Config) Validate() error {
	if c.Invoice.DefaultTaxRate < 0 || c.Invoice.DefaultTaxRate > 1 {
		return fmt.Errorf("invoice.default_tax_rate must be between 0 and 1, got %v", c.Invoice.DefaultTaxRate)
	}
	if c.Invoice.StepCount < 1 {
		return fmt.Errorf("invoice.step_count must be at least 1, got %d", c.Invoice.StepCount)
	}
	if c.Invoice.MinLineItems < 0 {
		return fmt.Errorf("invoice.min_line_items cannot be negative, got %d", c.Invoice.MinLineItems)
	}
	if c.Invoice.DefaultDueDays < 0 {
		return fmt.Errorf("invoice.default_due_days cannot be negative, got %d", c.Invoice.DefaultDueDays)
	}
	return nil
}

// TaxRate returns the configured default tax rate as a decimal
func (c *Config) TaxRate() decimal.Decimal {
	return decimal.NewFromFloat(c.Invoice.DefaultTaxRate)
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates all necessary directories (for database, invoices, logs)
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
		c.Invoice.OutputDir,
	}
	if c.Log.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Log.Path))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}
