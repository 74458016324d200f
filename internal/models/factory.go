package models

import (
	"fmt"
)

type ModelConfig struct {
	Algorithm string `yaml:"algorithm"`
	K         int    `yaml:"k,omitempty"`
	Distance  string `yaml:"distance,omitempty"`
	MaxDepth  int    `yaml:"max_depth,omitempty"`
	MinSplit  int    `yaml:"min_samples_split,omitempty"`
	Seed      int64  `yaml:"-"`
}

// CreateModel builds an unfitted model. Zero values fall back to the
// defaults of DefaultConfig.
func CreateModel(config ModelConfig) (Model, error) {
	switch config.Algorithm {
	case "knn":
		if config.K <= 0 {
			config.K = DefaultNeighbors
		}
		if config.Distance == "" {
			config.Distance = "euclidean"
		}
		if config.Distance != "euclidean" && config.Distance != "manhattan" {
			return nil, fmt.Errorf("unknown distance: %s", config.Distance)
		}
		return NewKNN(config.K, config.Distance), nil

	case "tree":
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		return NewDecisionTree(config.MaxDepth, config.MinSplit, config.Seed), nil

	default:
		return nil, fmt.Errorf("unknown algorithm: %s", config.Algorithm)
	}
}

func DefaultConfig(algorithm string) ModelConfig {
	config := ModelConfig{Algorithm: algorithm}

	switch algorithm {
	case "knn":
		config.K = DefaultNeighbors
		config.Distance = "euclidean"
	case "tree":
		config.MinSplit = 2
	}

	return config
}

// Scaled reports whether the algorithm expects standardized features.
func Scaled(algorithm string) bool {
	return algorithm == "knn"
}
