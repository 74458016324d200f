package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telcochurn/internal/data"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.19, cfg.Features.Threshold)
	assert.Equal(t, 5, cfg.KNN.K)
	assert.Equal(t, int64(42), cfg.Split.Seed)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churn.yaml")
	require.NoError(t, os.WriteFile(path, []byte("knn:\n  k: 7\noutput:\n  plot_dir: plots\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.KNN.K)
	assert.Equal(t, "euclidean", cfg.KNN.Distance)
	assert.Equal(t, "plots", cfg.Output.PlotDir)
	assert.Equal(t, DefaultDataPath, cfg.Data.Path)
}

func TestLoad_SampleFileMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "churn.yaml"))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config/churn.yaml drifted from defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("knn: [unclosed"), 0o644))
	_, err := Load(path)
	assert.True(t, errors.Is(err, data.ErrParse))

	t.Setenv("CHURN_SEED", "forty-two")
	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.Is(err, data.ErrValue))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHURN_DATA", "/data/churn.csv")
	t.Setenv("CHURN_SEED", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/data/churn.csv", cfg.Data.Path)
	assert.Equal(t, int64(7), cfg.Split.Seed)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tree.MaxDepth = 6
	cfg.Output.Artifact = "run.gob"

	path := filepath.Join(t.TempDir(), "nested", "churn.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty path", func(c *Config) { c.Data.Path = "" }},
		{"id is target", func(c *Config) { c.Data.IDColumn = c.Data.Target }},
		{"negative threshold", func(c *Config) { c.Features.Threshold = -0.1 }},
		{"threshold of one", func(c *Config) { c.Features.Threshold = 1 }},
		{"zero test size", func(c *Config) { c.Split.TestSize = 0 }},
		{"negative depth", func(c *Config) { c.Tree.MaxDepth = -1 }},
		{"min split of one", func(c *Config) { c.Tree.MinSamplesSplit = 1 }},
		{"zero k", func(c *Config) { c.KNN.K = 0 }},
		{"cosine distance", func(c *Config) { c.KNN.Distance = "cosine" }},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), data.ErrValue))
		})
	}
}

func TestModelConfigs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Split.Seed = 9

	mc := cfg.ModelConfigs()
	require.Len(t, mc, 2)
	assert.Equal(t, "tree", mc[0].Algorithm)
	assert.Equal(t, int64(9), mc[0].Seed)
	assert.Equal(t, "knn", mc[1].Algorithm)
	assert.Equal(t, 5, mc[1].K)
}
