package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Invoice.DefaultDueDays)
	assert.Equal(t, 5, cfg.Invoice.StepCount)
	assert.Equal(t, 0, cfg.Invoice.MinLineItems)
	assert.Equal(t, "INV", cfg.Invoice.NumberPrefix)
	assert.Equal(t, "professional", cfg.Invoice.DefaultTemplate)
	assert.True(t, cfg.TaxRate().Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("invoice:\n  default_tax_rate: 0.0825\n  min_line_items: 1\nuser:\n  name: Jane Smith\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.TaxRate().Equal(decimal.RequireFromString("0.0825")))
	assert.Equal(t, 1, cfg.Invoice.MinLineItems)
	assert.Equal(t, 30, cfg.Invoice.DefaultDueDays)
	assert.Equal(t, "Jane Smith", cfg.User.Name)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"tax above one", "invoice:\n  default_tax_rate: 10\n"},
		{"zero steps", "invoice:\n  step_count: 0\n"},
		{"negative minimum", "invoice:\n  min_line_items: -1\n"},
		{"malformed", "invoice: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.User.Email = "jane@example.com"
	cfg.Invoice.NumberPrefix = "BB"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "db", "billbook.db")
	cfg.Invoice.OutputDir = filepath.Join(dir, "out")
	cfg.Log.Path = filepath.Join(dir, "logs", "billbook.log")

	require.NoError(t, cfg.EnsureDirectories())

	for _, sub := range []string{"db", "out", "logs"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
