// Package config holds the settings of a benchmark run.
//
// Values are resolved by viper in the order flags, CODECBENCH_* environment
// variables, config file, defaults. Nested keys use "_" in the environment:
// baseline.level is CODECBENCH_BASELINE_LEVEL.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/arloliu/codecbench/compress"
	"github.com/arloliu/codecbench/format"
	"github.com/arloliu/codecbench/internal/telemetry"
	"github.com/arloliu/codecbench/report"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CODECBENCH"

// Engine names.
const (
	EngineReference = "zlref"
	EngineOpenZL    = "openzl"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Baseline selects the generic compressor.
type Baseline struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
	// Level only applies to zstd.
	Level int `mapstructure:"level" yaml:"level"`
}

// Telemetry selects the metrics exporter.
type Telemetry struct {
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
	// Listen is the address of the Prometheus /metrics endpoint.
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Config is the full run configuration.
type Config struct {
	DataDir       string    `mapstructure:"data_dir" yaml:"data_dir"`
	ModelDir      string    `mapstructure:"model_dir" yaml:"model_dir"`
	OutputDir     string    `mapstructure:"output_dir" yaml:"output_dir"`
	OutputFormat  string    `mapstructure:"output_format" yaml:"output_format"`
	Filter        string    `mapstructure:"filter" yaml:"filter"`
	Iterations    int       `mapstructure:"iterations" yaml:"iterations"`
	Warmup        int       `mapstructure:"warmup" yaml:"warmup"`
	Workers       int       `mapstructure:"workers" yaml:"workers"`
	ClusteringTag int       `mapstructure:"clustering_tag" yaml:"clustering_tag"`
	Engine        string    `mapstructure:"engine" yaml:"engine"`
	Baseline      Baseline  `mapstructure:"baseline" yaml:"baseline"`
	Telemetry     Telemetry `mapstructure:"telemetry" yaml:"telemetry"`
	LogLevel      string    `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DataDir:       "data/generated",
		ModelDir:      "data",
		OutputDir:     "data",
		OutputFormat:  string(report.JSON),
		Filter:        "all",
		Iterations:    3,
		Warmup:        0,
		Workers:       runtime.GOMAXPROCS(0),
		ClusteringTag: 0,
		Engine:        EngineReference,
		Baseline: Baseline{
			Algorithm: format.CompressionZstd.Slug(),
			Level:     compress.DefaultZstdLevel,
		},
		Telemetry: Telemetry{
			Exporter: telemetry.ExporterNone,
			Listen:   ":9464",
		},
		LogLevel: "info",
	}
}

// NewViper returns a viper instance carrying the defaults and reading
// CODECBENCH_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()

	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("model_dir", d.ModelDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("filter", d.Filter)
	v.SetDefault("iterations", d.Iterations)
	v.SetDefault("warmup", d.Warmup)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("clustering_tag", d.ClusteringTag)
	v.SetDefault("engine", d.Engine)
	v.SetDefault("baseline.algorithm", d.Baseline.Algorithm)
	v.SetDefault("baseline.level", d.Baseline.Level)
	v.SetDefault("telemetry.exporter", d.Telemetry.Exporter)
	v.SetDefault("telemetry.listen", d.Telemetry.Listen)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads path (if not empty) into v, then decodes and validates the
// merged configuration.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func invalid(field, reason string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(reason, args...))
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, invalid("data_dir", "must not be empty"))
	}
	if c.ModelDir == "" {
		errs = append(errs, invalid("model_dir", "must not be empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, invalid("output_dir", "must not be empty"))
	}
	if _, err := report.ParseEncoding(c.OutputFormat); err != nil {
		errs = append(errs, invalid("output_format", "%v", err))
	}
	if c.Iterations < 1 {
		errs = append(errs, invalid("iterations", "must be at least 1, got %d", c.Iterations))
	}
	if c.Warmup < 0 {
		errs = append(errs, invalid("warmup", "must not be negative, got %d", c.Warmup))
	}
	if c.Workers < 1 {
		errs = append(errs, invalid("workers", "must be at least 1, got %d", c.Workers))
	}
	if c.ClusteringTag < -1 {
		errs = append(errs, invalid("clustering_tag", "must be -1 or greater, got %d", c.ClusteringTag))
	}
	switch c.Engine {
	case EngineReference, EngineOpenZL:
	default:
		errs = append(errs, invalid("engine", "unknown engine %q", c.Engine))
	}
	if _, err := c.BaselineSpec(); err != nil {
		errs = append(errs, invalid("baseline", "%v", err))
	}
	switch strings.ToLower(c.Telemetry.Exporter) {
	case "", telemetry.ExporterNone, telemetry.ExporterStdout:
	case telemetry.ExporterPrometheus:
		if c.Telemetry.Listen == "" {
			errs = append(errs, invalid("telemetry.listen", "required for the prometheus exporter"))
		}
	default:
		errs = append(errs, invalid("telemetry.exporter", "unknown exporter %q", c.Telemetry.Exporter))
	}

	return errors.Join(errs...)
}

// BaselineSpec converts the baseline section into a compress.Baseline.
func (c Config) BaselineSpec() (compress.Baseline, error) {
	algo, ok := format.ParseCompressionType(c.Baseline.Algorithm)
	if !ok {
		return compress.Baseline{}, fmt.Errorf("unknown algorithm %q", c.Baseline.Algorithm)
	}

	b := compress.Baseline{Algorithm: algo, Level: c.Baseline.Level}
	if _, err := b.New(); err != nil {
		return compress.Baseline{}, err
	}

	return b, nil
}

// Encoding returns the parsed output format.
func (c Config) Encoding() report.Encoding {
	enc, err := report.ParseEncoding(c.OutputFormat)
	if err != nil {
		return report.JSON
	}

	return enc
}
