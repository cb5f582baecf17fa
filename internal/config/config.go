package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Match      MatchConfig      `yaml:"match" mapstructure:"match" json:"match"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation" json:"validation"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store" json:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server" json:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log" json:"log"`
}

// MatchConfig configures the linker tiers, strategy thresholds and
// deduplication.
type MatchConfig struct {
	MinConfidence            float64  `yaml:"min_confidence" mapstructure:"min_confidence" json:"min_confidence"`
	FuzzySimilarityThreshold float64  `yaml:"fuzzy_similarity_threshold" mapstructure:"fuzzy_similarity_threshold" json:"fuzzy_similarity_threshold"`
	Similarity               string   `yaml:"similarity" mapstructure:"similarity" json:"similarity"`
	MinAcronymLength         int      `yaml:"min_acronym_length" mapstructure:"min_acronym_length" json:"min_acronym_length"`
	MinContainedNameLength   int      `yaml:"min_contained_name_length" mapstructure:"min_contained_name_length" json:"min_contained_name_length"`
	MinCommonWordLength      int      `yaml:"min_common_word_length" mapstructure:"min_common_word_length" json:"min_common_word_length"`
	AmbiguityEpsilon         float64  `yaml:"ambiguity_epsilon" mapstructure:"ambiguity_epsilon" json:"ambiguity_epsilon"`
	Tier2Saturation          int      `yaml:"tier2_saturation" mapstructure:"tier2_saturation" json:"tier2_saturation"`
	Workers                  int      `yaml:"workers" mapstructure:"workers" json:"workers"`
	DisabledStrategies       []string `yaml:"disabled_strategies" mapstructure:"disabled_strategies" json:"disabled_strategies,omitempty"`
	LegalSuffixes            []string `yaml:"legal_suffixes" mapstructure:"legal_suffixes" json:"legal_suffixes,omitempty"`
}

// ValidationConfig configures the review sampler and acceptance target.
type ValidationConfig struct {
	SampleSize    int     `yaml:"sample_size" mapstructure:"sample_size" json:"sample_size"`
	SampleSeed    uint64  `yaml:"sample_seed" mapstructure:"sample_seed" json:"sample_seed"`
	Stratify      bool    `yaml:"stratify" mapstructure:"stratify" json:"stratify"`
	MinPerStratum int     `yaml:"min_per_stratum" mapstructure:"min_per_stratum" json:"min_per_stratum"`
	MinAccuracy   float64 `yaml:"min_accuracy" mapstructure:"min_accuracy" json:"min_accuracy"`
}

// StoreConfig configures the run store.
type StoreConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver" json:"driver"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url" json:"-"`
	ConnectAttempts int    `yaml:"connect_attempts" mapstructure:"connect_attempts" json:"connect_attempts"`
}

// ServerConfig configures the labeling API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port" json:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" json:"level"`
	Format string `yaml:"format" mapstructure:"format" json:"format"`
}

// Load reads configuration from firmlink.yaml (optional) and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from an explicit file path. An empty path
// searches the working directory for firmlink.yaml.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("firmlink")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("FIRMLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("match.min_confidence", 0.94)
	v.SetDefault("match.fuzzy_similarity_threshold", 0.90)
	v.SetDefault("match.similarity", "token_set")
	v.SetDefault("match.min_acronym_length", 3)
	v.SetDefault("match.min_contained_name_length", 5)
	v.SetDefault("match.min_common_word_length", 8)
	v.SetDefault("match.ambiguity_epsilon", 0.005)
	v.SetDefault("match.tier2_saturation", 0)
	v.SetDefault("match.workers", 8)
	v.SetDefault("match.disabled_strategies", []string{})
	v.SetDefault("match.legal_suffixes", []string{})
	v.SetDefault("validation.sample_size", 200)
	v.SetDefault("validation.sample_seed", 42)
	v.SetDefault("validation.stratify", true)
	v.SetDefault("validation.min_per_stratum", 5)
	v.SetDefault("validation.min_accuracy", 0.90)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "firmlink.db")
	v.SetDefault("store.connect_attempts", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	// Read config file (optional when searching)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
