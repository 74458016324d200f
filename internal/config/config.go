// Package config loads the churn run settings from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"telcochurn/internal/data"
	"telcochurn/internal/evaluation"
	"telcochurn/internal/features"
	"telcochurn/internal/models"
)

const (
	DefaultPath                 = "config/churn.yaml"
	DefaultDataPath             = "Telco-Customer-Churn.csv"
	DefaultTarget               = "Churn"
	DefaultIDColumn             = "customerID"
	DefaultCorrelationThreshold = features.DefaultThreshold
	DefaultNeighbors            = models.DefaultNeighbors
	DefaultSeed                 = evaluation.DefaultSeed
	DefaultTestSize             = 0.2
)

type Config struct {
	Data     DataConfig     `yaml:"data"`
	Explore  ExploreConfig  `yaml:"explore"`
	Features FeaturesConfig `yaml:"features"`
	Split    SplitConfig    `yaml:"split"`
	Tree     TreeConfig     `yaml:"tree"`
	KNN      KNNConfig      `yaml:"knn"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DataConfig struct {
	Path     string `yaml:"path"`
	Target   string `yaml:"target"`
	IDColumn string `yaml:"id_column"`
	// NumericColumns are coerced to numbers before cleaning; unparsable
	// cells become missing.
	NumericColumns []string `yaml:"numeric_columns"`
}

type ExploreConfig struct {
	Categorical []string `yaml:"categorical"`
	Numeric     []string `yaml:"numeric"`
}

type FeaturesConfig struct {
	Threshold float64 `yaml:"threshold"`
}

type SplitConfig struct {
	TestSize float64 `yaml:"test_size"`
	Seed     int64   `yaml:"seed"`
}

type TreeConfig struct {
	MaxDepth        int `yaml:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split"`
}

type KNNConfig struct {
	K        int    `yaml:"k"`
	Distance string `yaml:"distance"`
}

// OutputConfig paths are optional; an empty path disables that output.
type OutputConfig struct {
	PlotDir    string `yaml:"plot_dir"`
	Artifact   string `yaml:"artifact"`
	MetricsCSV string `yaml:"metrics_csv"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the settings of the reference churn analysis.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:           DefaultDataPath,
			Target:         DefaultTarget,
			IDColumn:       DefaultIDColumn,
			NumericColumns: []string{"TotalCharges"},
		},
		Explore: ExploreConfig{
			Categorical: []string{
				"gender", "SeniorCitizen", "Partner", "Dependents",
				"PhoneService", "InternetService", "Contract",
				"PaymentMethod", "PaperlessBilling",
			},
			Numeric: []string{"tenure", "MonthlyCharges", "TotalCharges"},
		},
		Features: FeaturesConfig{Threshold: DefaultCorrelationThreshold},
		Split:    SplitConfig{TestSize: DefaultTestSize, Seed: DefaultSeed},
		Tree:     TreeConfig{MaxDepth: 0, MinSamplesSplit: 2},
		KNN:      KNNConfig{K: DefaultNeighbors, Distance: "euclidean"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// CHURN_DATA and CHURN_SEED override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: failed to read config: %w", data.ErrIO, err)
		}
	} else if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", data.ErrParse, err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv("CHURN_DATA"); path != "" {
		c.Data.Path = path
	}
	if seed := os.Getenv("CHURN_SEED"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: CHURN_SEED=%q is not an integer", data.ErrValue, seed)
		}
		c.Split.Seed = v
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create config directory: %w", data.ErrIO, err)
	}

	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write config: %w", data.ErrIO, err)
	}

	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.Data.Path == "":
		return fmt.Errorf("%w: data.path is empty", data.ErrValue)
	case c.Data.Target == "":
		return fmt.Errorf("%w: data.target is empty", data.ErrValue)
	case c.Data.IDColumn == c.Data.Target:
		return fmt.Errorf("%w: data.id_column must differ from the target", data.ErrValue)
	case c.Features.Threshold < 0 || c.Features.Threshold >= 1:
		return fmt.Errorf("%w: features.threshold %.2f outside [0, 1)", data.ErrValue, c.Features.Threshold)
	case c.Split.TestSize <= 0 || c.Split.TestSize >= 1:
		return fmt.Errorf("%w: split.test_size %.2f outside (0, 1)", data.ErrValue, c.Split.TestSize)
	case c.Tree.MaxDepth < 0:
		return fmt.Errorf("%w: tree.max_depth must not be negative", data.ErrValue)
	case c.Tree.MinSamplesSplit < 2:
		return fmt.Errorf("%w: tree.min_samples_split must be at least 2", data.ErrValue)
	case c.KNN.K < 1:
		return fmt.Errorf("%w: knn.k must be positive", data.ErrValue)
	case c.KNN.Distance != "euclidean" && c.KNN.Distance != "manhattan":
		return fmt.Errorf("%w: knn.distance %q is not euclidean or manhattan", data.ErrValue, c.KNN.Distance)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q is unknown", data.ErrValue, c.Logging.Level)
	}
	return nil
}

// ModelConfigs lists the classifiers of a run in training order.
func (c *Config) ModelConfigs() []models.ModelConfig {
	return []models.ModelConfig{
		{
			Algorithm: "tree",
			MaxDepth:  c.Tree.MaxDepth,
			MinSplit:  c.Tree.MinSamplesSplit,
			Seed:      c.Split.Seed,
		},
		{
			Algorithm: "knn",
			K:         c.KNN.K,
			Distance:  c.KNN.Distance,
		},
	}
}
