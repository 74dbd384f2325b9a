package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/lexicon"
)

// Dataset split parameters shared by downstream model training.
const (
	RandomSeed     = 42
	TestSize       = 0.2
	ValidationSize = 0.1
)

// EnvPrefix prefixes environment overrides, e.g. QAPREP_TEXT_USE_STEMMING.
const EnvPrefix = "QAPREP"

// Config is the process configuration. It is built once at startup and
// passed to the components that need it.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Text     TextConfig     `mapstructure:"text"`
	Features FeaturesConfig `mapstructure:"features"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Store    StoreConfig    `mapstructure:"store"`
}

// PathsConfig names the stage directories. Bare input file names are
// looked up in Raw or Processed, and outputs default into Processed or
// Features.
type PathsConfig struct {
	Raw       string `mapstructure:"raw"`
	Processed string `mapstructure:"processed"`
	Features  string `mapstructure:"features"`
}

type TextConfig struct {
	UseStopwords bool     `mapstructure:"use_stopwords"`
	UseStemming  bool     `mapstructure:"use_stemming"`
	StoplistPath string   `mapstructure:"stoplist_path"`
	LexiconPath  string   `mapstructure:"lexicon_path"`
	// LemmaPOS lists the parts of speech the lemmatizer reduces
	// (n, v, a); the default is nouns only.
	LemmaPOS []string `mapstructure:"lemma_pos"`
	Columns  []string `mapstructure:"columns"`
}

type FeaturesConfig struct {
	// Extended adds digit_ratio to the standard feature set.
	Extended bool `mapstructure:"extended"`
	XLSX     bool `mapstructure:"xlsx"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	// Textfile, when set, receives a Prometheus text dump after each run.
	Textfile string `mapstructure:"textfile"`
}

type StoreConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// Load reads configuration from path (YAML), environment overrides and
// defaults. An empty path searches for qaprep.yaml in . and ./config and
// falls back to defaults when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: config file %s: %v", internalerr.ErrMissingResource, path, err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("qaprep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration Load produces without file or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: defaults: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.raw", filepath.Join("data", "raw"))
	v.SetDefault("paths.processed", filepath.Join("data", "processed"))
	v.SetDefault("paths.features", filepath.Join("data", "features"))

	v.SetDefault("text.use_stopwords", true)
	v.SetDefault("text.use_stemming", false)
	v.SetDefault("text.stoplist_path", "")
	v.SetDefault("text.lexicon_path", "")
	v.SetDefault("text.lemma_pos", []string{"n"})
	v.SetDefault("text.columns", []string{"context", "question", "answer"})

	v.SetDefault("features.extended", false)
	v.SetDefault("features.xlsx", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", filepath.Join("data", "qaprep.db"))
}

// Validate checks the settings that cannot be corrected silently.
func (c *Config) Validate() error {
	if len(c.Text.Columns) == 0 {
		return fmt.Errorf("%w: text.columns is empty", internalerr.ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Text.Columns))
	for _, col := range c.Text.Columns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%w: text.columns contains a blank name", internalerr.ErrInvalidConfig)
		}
		if seen[col] {
			return fmt.Errorf("%w: text.columns lists %q twice", internalerr.ErrInvalidConfig, col)
		}
		seen[col] = true
	}

	for _, p := range c.Text.LemmaPOS {
		if _, err := lexicon.ParsePOS(p); err != nil {
			return fmt.Errorf("%w: text.lemma_pos: %v", internalerr.ErrInvalidConfig, err)
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging.format must be json or console, got %q", internalerr.ErrInvalidConfig, c.Logging.Format)
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the sqlite driver", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", internalerr.ErrInvalidConfig, c.Store.Driver)
	}
	return nil
}
