// Package pipeline runs the churn analysis end to end: load, clean,
// profile, encode, select features, split, scale, train and evaluate.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"telcochurn/internal/config"
	"telcochurn/internal/data"
	"telcochurn/internal/evaluation"
	"telcochurn/internal/features"
	"telcochurn/internal/jobs"
	"telcochurn/internal/models"
	"telcochurn/internal/persistence"
	"telcochurn/internal/preprocessing"
	"telcochurn/internal/profile"
	"telcochurn/internal/report"
)

// ModelRun is one trained and evaluated classifier.
type ModelRun struct {
	Name         string
	Algorithm    string
	Model        models.Model
	Scaled       bool
	Predictions  []int
	Metrics      *evaluation.ClassificationMetrics
	TrainingTime time.Duration
}

// Result holds the output of every stage of a run.
type Result struct {
	Dataset     string
	Raw         *data.Frame
	RawQuality  *profile.Quality
	Cleaned     *data.Frame
	Cleaning    preprocessing.CleanReport
	Exploration *profile.Exploration
	Encoded     *data.Frame
	Encoding    *preprocessing.Encoding
	Selection   *features.Selection
	Split       *evaluation.Split
	Scaler      *preprocessing.StandardScaler
	Models      []ModelRun
	Charts      []string
	Artifact    *persistence.Artifact
	Stages      []jobs.Snapshot
}

type Pipeline struct {
	cfg       *config.Config
	logger    *zap.Logger
	validator *data.DataValidator
}

func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, logger: logger, validator: data.NewDataValidator()}, nil
}

// RunFile loads the configured dataset and runs every stage on it.
func (p *Pipeline) RunFile() (*Result, error) {
	tracker := jobs.NewManager(p.logger)

	var raw *data.Frame
	err := tracker.Track("load", func(job *jobs.Job) error {
		var err error
		raw, err = data.LoadCSV(p.cfg.Data.Path)
		if err != nil {
			return err
		}
		rows, cols := raw.Shape()
		job.Logf("%d rows, %d columns", rows, cols)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p.run(raw, p.cfg.Data.Path, tracker)
}

// Run processes an already loaded raw frame.
func (p *Pipeline) Run(raw *data.Frame) (*Result, error) {
	return p.run(raw, p.cfg.Data.Path, jobs.NewManager(p.logger))
}

func (p *Pipeline) run(raw *data.Frame, dataset string, tracker *jobs.Manager) (*Result, error) {
	cfg := p.cfg
	res := &Result{Dataset: dataset, Raw: raw}

	stages := []struct {
		name string
		fn   func(job *jobs.Job) error
	}{
		{"inspect", func(job *jobs.Job) error {
			res.RawQuality = profile.Inspect(raw)
			job.Logf("%d duplicate rows", res.RawQuality.Duplicates)
			return nil
		}},
		{"clean", func(job *jobs.Job) error {
			cleaner := preprocessing.NewCleaner(preprocessing.CleanOptions{
				IDColumn:       cfg.Data.IDColumn,
				NumericColumns: cfg.Data.NumericColumns,
			}, p.logger)
			var err error
			res.Cleaned, res.Cleaning, err = cleaner.Clean(raw)
			if err != nil {
				return err
			}
			job.Logf("%d rows dropped", res.Cleaning.RowsDropped())
			return p.validator.ValidateComplete(res.Cleaned)
		}},
		{"explore", func(*jobs.Job) error {
			var err error
			res.Exploration, err = profile.Explore(res.Cleaned, profile.ExploreOptions{
				Target:      cfg.Data.Target,
				Categorical: presentColumns(res.Cleaned, cfg.Explore.Categorical),
				Numeric:     presentColumns(res.Cleaned, cfg.Explore.Numeric),
			})
			return err
		}},
		{"encode", func(job *jobs.Job) error {
			var err error
			res.Encoded, res.Encoding, err = preprocessing.EncodeFrame(res.Cleaned)
			if err != nil {
				return err
			}
			job.Logf("%d columns encoded", len(res.Encoding.Columns))
			return nil
		}},
		{"select", func(job *jobs.Job) error {
			sel, err := features.NewSelector(cfg.Data.Target, cfg.Features.Threshold).Select(res.Encoded)
			if err != nil {
				return err
			}
			if len(sel.Features) == 0 {
				return fmt.Errorf("%w: no feature has |r| > %.2f with %s", data.ErrValue, sel.Threshold, sel.Target)
			}
			res.Selection = sel
			job.Logf("%d features selected", len(sel.Features))
			return nil
		}},
		{"split", func(job *jobs.Job) error {
			return p.split(res, job)
		}},
		{"scale", func(*jobs.Job) error {
			res.Scaler = preprocessing.NewStandardScaler()
			return res.Scaler.Fit(res.Split.XTrain)
		}},
	}

	for _, stage := range stages {
		if err := tracker.Track(stage.name, stage.fn); err != nil {
			return nil, fmt.Errorf("%s: %w", stage.name, err)
		}
	}

	for _, mc := range cfg.ModelConfigs() {
		name := "train_" + mc.Algorithm
		if err := tracker.Track(name, func(job *jobs.Job) error {
			run, err := p.train(mc, res)
			if err != nil {
				return err
			}
			res.Models = append(res.Models, *run)
			job.Logf("accuracy %.4f, f1 %.4f", run.Metrics.Accuracy, run.Metrics.F1Score)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	if err := p.outputs(res, tracker); err != nil {
		return nil, err
	}

	res.Stages = tracker.ListJobs()
	p.logger.Info("pipeline finished",
		zap.Int("stages", len(res.Stages)),
		zap.Duration("elapsed", tracker.Elapsed()),
	)
	return res, nil
}

func (p *Pipeline) split(res *Result, job *jobs.Job) error {
	X, err := res.Encoded.Matrix(res.Selection.Features)
	if err != nil {
		return err
	}
	y, err := res.Encoded.Labels(p.cfg.Data.Target)
	if err != nil {
		return err
	}
	if err := p.validator.ValidateDataset(X, y); err != nil {
		return err
	}
	if err := p.validator.ValidateLabels(y); err != nil {
		return err
	}

	splitter := evaluation.NewTrainTestSplitter(p.cfg.Split.TestSize, p.cfg.Split.Seed)
	res.Split, err = splitter.StratifiedSplit(X, y)
	if err != nil {
		return err
	}

	s := res.Split
	job.Logf("train %d, test %d", len(s.YTrain), len(s.YTest))
	return p.validator.ValidateTrainTestSplit(s.XTrain, s.XTest, s.YTrain, s.YTest)
}

func (p *Pipeline) train(mc models.ModelConfig, res *Result) (*ModelRun, error) {
	model, err := models.CreateModel(mc)
	if err != nil {
		return nil, err
	}

	XTrain, XTest := res.Split.XTrain, res.Split.XTest
	scaled := models.Scaled(mc.Algorithm)
	if scaled {
		if XTrain, err = res.Scaler.Transform(XTrain); err != nil {
			return nil, err
		}
		if XTest, err = res.Scaler.Transform(XTest); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	if err := model.Fit(XTrain, res.Split.YTrain); err != nil {
		return nil, err
	}
	predictions, err := model.Predict(XTest)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	metrics, err := evaluation.CalculateMetrics(res.Split.YTest, predictions, evaluation.PositiveClass)
	if err != nil {
		return nil, err
	}

	p.logger.Info("model evaluated",
		zap.String("model", model.GetName()),
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Float64("f1", metrics.F1Score),
		zap.Duration("elapsed", elapsed),
	)

	return &ModelRun{
		Name:         model.GetName(),
		Algorithm:    mc.Algorithm,
		Model:        model,
		Scaled:       scaled,
		Predictions:  predictions,
		Metrics:      metrics,
		TrainingTime: elapsed,
	}, nil
}

// outputs builds the artifact and writes the optional charts, artifact
// and metrics files.
func (p *Pipeline) outputs(res *Result, tracker *jobs.Manager) error {
	cfg := p.cfg

	res.Artifact = persistence.NewArtifact(res.Dataset, cfg.Data.Target, cfg.Features.Threshold,
		res.Encoding, res.Selection.Features, res.Scaler)
	for _, run := range res.Models {
		res.Artifact.AddModel(run.Name, run.Model.GetParams(), run.Metrics, run.TrainingTime)
	}

	if cfg.Output.PlotDir == "" {
		tracker.Skip("charts", "no plot directory configured")
	} else if err := tracker.Track("charts", func(job *jobs.Job) error {
		d, err := p.chartData(res)
		if err != nil {
			return err
		}
		res.Charts, err = report.NewVisualizer(cfg.Output.PlotDir, p.logger).Render(d)
		job.Logf("%d charts in %s", len(res.Charts), cfg.Output.PlotDir)
		return err
	}); err != nil {
		return fmt.Errorf("charts: %w", err)
	}

	if cfg.Output.Artifact == "" {
		tracker.Skip("artifact", "no artifact path configured")
	} else if err := tracker.Track("artifact", func(job *jobs.Job) error {
		if err := res.Artifact.Save(cfg.Output.Artifact); err != nil {
			return err
		}
		summary := SummaryPath(cfg.Output.Artifact)
		job.Logf("run %s saved", res.Artifact.RunID)
		return res.Artifact.SaveSummary(summary)
	}); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}

	if cfg.Output.MetricsCSV == "" {
		tracker.Skip("export", "no metrics path configured")
	} else if err := tracker.Track("export", func(*jobs.Job) error {
		results := make([]report.ModelResult, len(res.Models))
		for i, run := range res.Models {
			results[i] = report.ModelResult{
				Dataset:      res.Dataset,
				Algorithm:    run.Name,
				Parameters:   run.Model.GetParams(),
				Features:     res.Selection.Features,
				TrainRows:    len(res.Split.YTrain),
				TestRows:     len(res.Split.YTest),
				Metrics:      run.Metrics,
				TrainingTime: run.TrainingTime,
			}
		}
		return report.ExportMetrics(results, cfg.Output.MetricsCSV)
	}); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	return nil
}

// chartData gathers the inputs of every chart. Distributions are drawn from
// the raw frame after numeric coercion, before rows with missing values
// are dropped.
func (p *Pipeline) chartData(res *Result) (report.ChartData, error) {
	d := report.ChartData{Exploration: res.Exploration}

	numeric := presentColumns(res.Cleaned, p.cfg.Explore.Numeric)
	for _, name := range numeric {
		col, err := res.Raw.Column(name)
		if err != nil {
			return d, err
		}
		if col.Kind == data.Categorical {
			col, _ = preprocessing.CoerceNumeric(col)
		}
		d.Distributions = append(d.Distributions, report.Series{Name: name, Values: col.Floats()})
	}

	if len(numeric) > 1 {
		corr, err := features.CorrelationMatrix(res.Cleaned, numeric)
		if err != nil {
			return d, err
		}
		d.NumericCorr = corr
	}

	full, err := features.CorrelationMatrix(res.Encoded, res.Encoded.Names())
	if err != nil {
		return d, err
	}
	d.FullCorr = full
	return d, nil
}

// presentColumns keeps the names f has, so the exploration lists can name
// columns a reduced dataset lacks.
func presentColumns(f *data.Frame, names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if f.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// SummaryPath is the text summary written next to an artifact.
func SummaryPath(artifact string) string {
	return strings.TrimSuffix(artifact, filepath.Ext(artifact)) + ".summary.txt"
}
