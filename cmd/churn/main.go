package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"telcochurn/internal/config"
	"telcochurn/internal/data"
	"telcochurn/internal/persistence"
	"telcochurn/internal/pipeline"
	"telcochurn/internal/report"
)

var (
	configPath string
	dataPath   string
	plotDir    string
	artifact   string
	metricsCSV string
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "churn",
	Short: "Telecom customer churn analysis",
	Long: `Loads a telecom customer CSV, cleans and profiles it, selects features by
correlation with churn, and evaluates a decision tree and a k-nearest-neighbours
classifier on a stratified hold-out split.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("data") {
			cfg.Data.Path = dataPath
		}
		if flags.Changed("plots") {
			cfg.Output.PlotDir = plotDir
		}
		if flags.Changed("artifact") {
			cfg.Output.Artifact = artifact
		}
		if flags.Changed("metrics-csv") {
			cfg.Output.MetricsCSV = metricsCSV
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to parse log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if noColor {
			color.NoColor = true
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cfg, logger)
		if err != nil {
			return err
		}
		res, err := p.RunFile()
		if err != nil {
			return err
		}

		console := report.NewConsole(cmd.OutOrStdout(), noColor)
		res.Print(console, cfg.Data.IDColumn)

		out := cmd.OutOrStdout()
		if len(res.Charts) > 0 {
			fmt.Fprintf(out, "\n%d charts written to %s\n", len(res.Charts), cfg.Output.PlotDir)
		}
		if cfg.Output.Artifact != "" {
			fmt.Fprintf(out, "Artifact %s saved to %s (summary %s)\n",
				res.Artifact.RunID, cfg.Output.Artifact, pipeline.SummaryPath(cfg.Output.Artifact))
		}
		if cfg.Output.MetricsCSV != "" {
			fmt.Fprintf(out, "Metrics exported to %s\n", cfg.Output.MetricsCSV)
		}
		return nil
	},
}

var encodeInput string

// encodeCmd re-applies a saved run's encoding and scaling to new records.
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode raw customer records with a saved run artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Output.Artifact == "" {
			return fmt.Errorf("%w: --artifact is required", data.ErrValue)
		}
		a, err := persistence.Load(cfg.Output.Artifact)
		if err != nil {
			return err
		}
		f, err := data.LoadCSV(encodeInput)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetAutoFormatHeaders(false)
		table.SetHeader(append([]string{"row"}, a.Features...))

		cols := f.Columns()
		for i := 0; i < f.Rows(); i++ {
			record := make(map[string]string, len(cols))
			for _, col := range cols {
				record[col.Name] = col.String(i)
			}
			x, err := a.EncodeRecord(record)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			row := []string{fmt.Sprint(i + 1)}
			for _, v := range x {
				row = append(row, fmt.Sprintf("%.4f", v))
			}
			table.Append(row)
		}
		table.Render()

		logger.Info("records encoded", zap.String("run", a.RunID), zap.Int("rows", f.Rows()))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data:       %s\n", cfg.Data.Path)
		fmt.Fprintf(out, "target:     %s (id %s)\n", cfg.Data.Target, cfg.Data.IDColumn)
		fmt.Fprintf(out, "threshold:  %.2f\n", cfg.Features.Threshold)
		fmt.Fprintf(out, "split:      test %.2f, seed %d\n", cfg.Split.TestSize, cfg.Split.Seed)
		for _, mc := range cfg.ModelConfigs() {
			params := []string{}
			if mc.Algorithm == "knn" {
				params = append(params, fmt.Sprintf("k=%d", mc.K), "distance="+mc.Distance)
			} else {
				params = append(params, fmt.Sprintf("max_depth=%d", mc.MaxDepth), fmt.Sprintf("min_samples_split=%d", mc.MinSplit))
			}
			sort.Strings(params)
			fmt.Fprintf(out, "model:      %s %s\n", mc.Algorithm, strings.Join(params, " "))
		}
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write the default configuration to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath, "path to the YAML configuration")
	pf.StringVar(&dataPath, "data", config.DefaultDataPath, "path to the customer CSV")
	pf.StringVar(&plotDir, "plots", "", "directory for PNG charts (disabled when empty)")
	pf.StringVar(&artifact, "artifact", "", "path of the run artifact")
	pf.StringVar(&metricsCSV, "metrics-csv", "", "path of the metrics CSV export")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&noColor, "no-color", false, "disable coloured output")

	encodeCmd.Flags().StringVar(&encodeInput, "input", "", "CSV of raw customer records")
	_ = encodeCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(encodeCmd, configCmd, initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		report.NewConsole(os.Stderr, noColor).Error(err)
		os.Exit(1)
	}
}
