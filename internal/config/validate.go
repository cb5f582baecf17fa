package config

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/similarity"
)

// Validate checks the configuration required by a command mode ("match",
// "sample", "serve"). All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "match":
		errs = append(errs, c.Match.problems()...)
		errs = append(errs, c.Store.problems()...)
	case "sample":
		errs = append(errs, c.Validation.problems()...)
		errs = append(errs, c.Store.problems()...)
	case "serve":
		errs = append(errs, c.Store.problems()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks matching thresholds. A miscalibrated run must not start.
func (m MatchConfig) Validate() error {
	if errs := m.problems(); len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (m MatchConfig) problems() []string {
	var errs []string
	if m.MinConfidence <= 0 || m.MinConfidence > 1 {
		errs = append(errs, "match.min_confidence must be in (0, 1]")
	}
	if m.FuzzySimilarityThreshold <= 0 || m.FuzzySimilarityThreshold > 1 {
		errs = append(errs, "match.fuzzy_similarity_threshold must be in (0, 1]")
	}
	if _, err := similarity.Lookup(m.Similarity); err != nil {
		errs = append(errs, "match.similarity must be one of "+strings.Join(similarity.Names(), ", "))
	}
	if m.MinAcronymLength < 1 {
		errs = append(errs, "match.min_acronym_length must be >= 1")
	}
	if m.MinContainedNameLength < 1 {
		errs = append(errs, "match.min_contained_name_length must be >= 1")
	}
	if m.MinCommonWordLength < m.MinContainedNameLength {
		errs = append(errs, "match.min_common_word_length must be >= match.min_contained_name_length")
	}
	if m.AmbiguityEpsilon < 0 || m.AmbiguityEpsilon >= 1 {
		errs = append(errs, "match.ambiguity_epsilon must be in [0, 1)")
	}
	if m.Tier2Saturation < 0 {
		errs = append(errs, "match.tier2_saturation must be >= 0")
	}
	if m.Workers < 1 || m.Workers > 256 {
		errs = append(errs, "match.workers must be between 1 and 256")
	}
	for _, s := range m.DisabledStrategies {
		if !model.Method(strings.TrimSpace(s)).Valid() {
			errs = append(errs, "match.disabled_strategies: unknown method "+s)
		}
	}
	return errs
}

func (v ValidationConfig) problems() []string {
	var errs []string
	if v.SampleSize < 1 {
		errs = append(errs, "validation.sample_size must be >= 1")
	}
	if v.MinPerStratum < 0 {
		errs = append(errs, "validation.min_per_stratum must be >= 0")
	}
	if v.MinAccuracy < 0 || v.MinAccuracy > 1 {
		errs = append(errs, "validation.min_accuracy must be in [0, 1]")
	}
	return errs
}

func (s StoreConfig) problems() []string {
	var errs []string
	switch s.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if s.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}
