package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no firmlink.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.94, cfg.Match.MinConfidence, 0.0001)
	assert.InDelta(t, 0.90, cfg.Match.FuzzySimilarityThreshold, 0.0001)
	assert.Equal(t, "token_set", cfg.Match.Similarity)
	assert.Equal(t, 3, cfg.Match.MinAcronymLength)
	assert.Equal(t, 5, cfg.Match.MinContainedNameLength)
	assert.Equal(t, 8, cfg.Match.MinCommonWordLength)
	assert.InDelta(t, 0.005, cfg.Match.AmbiguityEpsilon, 0.00001)
	assert.Equal(t, 0, cfg.Match.Tier2Saturation)
	assert.Equal(t, 8, cfg.Match.Workers)
	assert.Empty(t, cfg.Match.DisabledStrategies)
	assert.Equal(t, 200, cfg.Validation.SampleSize)
	assert.Equal(t, uint64(42), cfg.Validation.SampleSeed)
	assert.True(t, cfg.Validation.Stratify)
	assert.Equal(t, 5, cfg.Validation.MinPerStratum)
	assert.InDelta(t, 0.90, cfg.Validation.MinAccuracy, 0.0001)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "firmlink.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 5, cfg.Store.ConnectAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.NoError(t, cfg.Validate("match"))
	assert.NoError(t, cfg.Validate("sample"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
match:
  min_confidence: 0.96
  similarity: jaro_winkler
  disabled_strategies:
    - fuzzy_similarity
store:
  driver: postgres
  database_url: postgres://localhost/firmlink
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "firmlink.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.96, cfg.Match.MinConfidence, 0.0001)
	assert.Equal(t, "jaro_winkler", cfg.Match.Similarity)
	assert.Equal(t, []string{"fuzzy_similarity"}, cfg.Match.DisabledStrategies)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Match.MinAcronymLength)
}

func TestLoadFile_ExplicitPath(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("match:\n  fuzzy_similarity_threshold: 0.85\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, cfg.Match.FuzzySimilarityThreshold, 0.0001)
}

func TestLoadFile_MissingExplicitPath(t *testing.T) {
	chdirTemp(t)
	_, err := LoadFile("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "firmlink.yaml"), []byte(yaml), 0644))

	t.Setenv("FIRMLINK_STORE_DRIVER", "postgres")
	t.Setenv("FIRMLINK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("FIRMLINK_SERVER_PORT", "3000")
	t.Setenv("FIRMLINK_MATCH_MIN_CONFIDENCE", "0.97")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 0.97, cfg.Match.MinConfidence, 0.0001)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Match = MatchConfig{
		MinConfidence:            0.94,
		FuzzySimilarityThreshold: 0.90,
		Similarity:               "token_set",
		MinAcronymLength:         3,
		MinContainedNameLength:   5,
		MinCommonWordLength:      8,
		AmbiguityEpsilon:         0.005,
		Workers:                  8,
	}
	cfg.Validation = ValidationConfig{SampleSize: 200, SampleSeed: 42, Stratify: true, MinPerStratum: 5, MinAccuracy: 0.9}
	cfg.Store = StoreConfig{Driver: "sqlite", DatabaseURL: "firmlink.db"}
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModes(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"match", "sample", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateMatch_ThresholdRanges(t *testing.T) {
	cfg := validDefaults()

	cfg.Match.MinConfidence = 1.2
	err := cfg.Validate("match")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.min_confidence")

	cfg.Match.MinConfidence = 0.94
	cfg.Match.FuzzySimilarityThreshold = 0
	err = cfg.Validate("match")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.fuzzy_similarity_threshold")

	cfg.Match.FuzzySimilarityThreshold = 0.9
	cfg.Match.AmbiguityEpsilon = -0.1
	err = cfg.Match.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.ambiguity_epsilon")
}

func TestValidateMatch_ReportsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Match.Similarity = "soundex"
	cfg.Match.MinAcronymLength = 0
	cfg.Match.Workers = 0
	cfg.Match.DisabledStrategies = []string{"exact_name", "magic"}

	err := cfg.Validate("match")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.similarity must be one of")
	assert.Contains(t, err.Error(), "match.min_acronym_length must be >= 1")
	assert.Contains(t, err.Error(), "match.workers must be between 1 and 256")
	assert.Contains(t, err.Error(), "unknown method magic")
	assert.NotContains(t, err.Error(), "exact_name")
}

func TestValidateMatch_CommonWordFloor(t *testing.T) {
	cfg := validDefaults()
	cfg.Match.MinCommonWordLength = 4
	err := cfg.Match.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_common_word_length")
}

func TestValidateSample(t *testing.T) {
	cfg := validDefaults()
	cfg.Validation.SampleSize = 0
	cfg.Validation.MinAccuracy = 1.5

	err := cfg.Validate("sample")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation.sample_size must be >= 1")
	assert.Contains(t, err.Error(), "validation.min_accuracy")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}
