package deckforge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the tuning surface of the pipeline. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// MaxIterations bounds the generate/validate/score loop.
	MaxIterations int `yaml:"max_iterations"`
	// MaxFixIterations bounds the fix/re-validate cycles per iteration.
	MaxFixIterations int `yaml:"max_fix_iterations"`
	// TargetQualityScore is the total score that ends iteration early.
	TargetQualityScore float64 `yaml:"target_quality_score"`
	// DimensionWeights maps quality dimensions to their share of the
	// total. Must sum to 1.
	DimensionWeights map[string]float64 `yaml:"dimension_weights"`
	// SafeMargin is the canvas edge margin in inches.
	SafeMargin float64 `yaml:"safe_margin"`
	// MECESimilarityThreshold is the keyword similarity above which two
	// slides count as overlapping.
	MECESimilarityThreshold float64 `yaml:"mece_similarity_threshold"`
	// SoWhatPassThreshold is the minimum passing headline score.
	SoWhatPassThreshold float64 `yaml:"so_what_pass_threshold"`
	// IterationTimeout is the wall-clock budget per full iteration.
	IterationTimeout time.Duration `yaml:"iteration_timeout"`
	// WorkerCount bounds the per-slide worker pool in the validate and
	// fix phases.
	WorkerCount int `yaml:"worker_count"`
	// Locale selects the analysis lexicon when the request leaves it
	// empty.
	Locale string `yaml:"locale"`
}

// DefaultConfig returns the standard pipeline tuning.
func DefaultConfig() Config {
	return Config{
		MaxIterations:           3,
		MaxFixIterations:        2,
		TargetQualityScore:      defaultTargetScore,
		DimensionWeights:        DefaultScoringPolicy().Weights,
		SafeMargin:              0.125,
		MECESimilarityThreshold: defaultSimilarityThreshold,
		SoWhatPassThreshold:     defaultSoWhatThreshold,
		IterationTimeout:        30 * time.Second,
		WorkerCount:             4,
		Locale:                  "en",
	}
}

// LoadConfig reads a YAML config file over the defaults, so a file
// only needs the keys it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and the weight sum.
func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations %d, want >= 1", c.MaxIterations)
	}
	if c.MaxFixIterations < 0 {
		return fmt.Errorf("max_fix_iterations %d, want >= 0", c.MaxFixIterations)
	}
	if c.SafeMargin < 0 {
		return fmt.Errorf("safe_margin %.3f, want >= 0", c.SafeMargin)
	}
	if c.MECESimilarityThreshold <= 0 || c.MECESimilarityThreshold > 1 {
		return fmt.Errorf("mece_similarity_threshold %.2f outside (0,1]", c.MECESimilarityThreshold)
	}
	if c.SoWhatPassThreshold <= 0 || c.SoWhatPassThreshold > 1 {
		return fmt.Errorf("so_what_pass_threshold %.2f outside (0,1]", c.SoWhatPassThreshold)
	}
	if c.IterationTimeout <= 0 {
		return fmt.Errorf("iteration_timeout %s, want > 0", c.IterationTimeout)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count %d, want >= 1", c.WorkerCount)
	}
	return c.ScoringPolicy().Validate()
}

// ScoringPolicy derives the scoring policy this config describes.
func (c Config) ScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Version: "v1",
		Weights: c.DimensionWeights,
		Target:  c.TargetQualityScore,
	}
}

// SafeMarginEMU converts the configured margin to EMU.
func (c Config) SafeMarginEMU() int64 {
	return Inch(c.SafeMargin)
}
