package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/codecbench/compress"
	"github.com/arloliu/codecbench/format"
	"github.com/arloliu/codecbench/report"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 3, cfg.Iterations)
	require.Equal(t, "data/generated", cfg.DataDir)

	b, err := cfg.BaselineSpec()
	require.NoError(t, err)
	require.Equal(t, compress.DefaultBaseline, b)
	require.Equal(t, report.JSON, cfg.Encoding())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "iterations", mutate: func(c *Config) { c.Iterations = 0 }, field: "iterations"},
		{name: "warmup", mutate: func(c *Config) { c.Warmup = -1 }, field: "warmup"},
		{name: "workers", mutate: func(c *Config) { c.Workers = 0 }, field: "workers"},
		{name: "data dir", mutate: func(c *Config) { c.DataDir = "" }, field: "data_dir"},
		{name: "output format", mutate: func(c *Config) { c.OutputFormat = "xml" }, field: "output_format"},
		{name: "clustering tag", mutate: func(c *Config) { c.ClusteringTag = -5 }, field: "clustering_tag"},
		{name: "engine", mutate: func(c *Config) { c.Engine = "brotli" }, field: "engine"},
		{name: "baseline algorithm", mutate: func(c *Config) { c.Baseline.Algorithm = "gzip" }, field: "baseline"},
		{name: "baseline level", mutate: func(c *Config) { c.Baseline.Level = 30 }, field: "baseline"},
		{name: "exporter", mutate: func(c *Config) { c.Telemetry.Exporter = "jaeger" }, field: "telemetry.exporter"},
		{name: "prometheus listen", mutate: func(c *Config) {
			c.Telemetry.Exporter = "prometheus"
			c.Telemetry.Listen = ""
		}, field: "telemetry.listen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			require.ErrorContains(t, err, tt.field)
		})
	}
}

func TestValidate_ReportsAllFields(t *testing.T) {
	cfg := Default()
	cfg.Iterations = 0
	cfg.Workers = 0

	err := cfg.Validate()
	require.ErrorContains(t, err, "iterations")
	require.ErrorContains(t, err, "workers")
}

func TestBaselineSpec_LevelIgnoredForS2(t *testing.T) {
	cfg := Default()
	cfg.Baseline = Baseline{Algorithm: "S2", Level: 99}

	b, err := cfg.BaselineSpec()
	require.NoError(t, err)
	require.Equal(t, format.CompressionS2, b.Algorithm)
	require.Equal(t, "s2", b.Label())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codecbench.yaml")
	content := `
data_dir: /corpus
iterations: 5
output_format: yaml
baseline:
  algorithm: zstd
  level: 9
telemetry:
  exporter: stdout
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CODECBENCH_BASELINE_LEVEL", "12")
	t.Setenv("CODECBENCH_FILTER", "otel")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	require.Equal(t, "/corpus", cfg.DataDir)
	require.Equal(t, 5, cfg.Iterations)
	require.Equal(t, 12, cfg.Baseline.Level)
	require.Equal(t, "otel", cfg.Filter)
	require.Equal(t, "stdout", cfg.Telemetry.Exporter)
	require.Equal(t, report.YAML, cfg.Encoding())
	require.Equal(t, "data", cfg.ModelDir)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("iterations: 0\n"), 0o644))
	_, err = Load(NewViper(), path)
	require.ErrorIs(t, err, ErrInvalid)
}
