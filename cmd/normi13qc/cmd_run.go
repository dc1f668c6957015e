package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"normi13qc/pkg/analysis"
	"normi13qc/pkg/config"
	"normi13qc/pkg/dicomio"
	"normi13qc/pkg/pipeline"
	"normi13qc/pkg/results"
	"normi13qc/pkg/visualization"
)

var runFlags struct {
	configPath  string
	dataDir     string
	resultsPath string
	dbPath      string
	outDir      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured QC actions on a study",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.configPath, "config", "c", "", "Module configuration file (required)")
	f.StringVarP(&runFlags.dataDir, "data", "d", "", "Directory holding the DICOM series (required)")
	f.StringVarP(&runFlags.resultsPath, "results", "r", "results.json", "Results JSON file")
	f.StringVar(&runFlags.dbPath, "db", "", "Also store results in this SQLite database")
	f.StringVar(&runFlags.outDir, "out", "", "Thumbnail directory (overrides output.dir)")

	_ = runCmd.MarkFlagRequired("config")
	_ = runCmd.MarkFlagRequired("data")
}

func runRun(cmd *cobra.Command, _ []string) error {
	// Step 1: configuration
	cfg, err := config.LoadConfig(runFlags.configPath)
	if err != nil {
		return err
	}
	outDir := cfg.Output.Dir
	if runFlags.outDir != "" {
		outDir = runFlags.outDir
	}

	// Step 2: one-time rendering setup, before any analysis runs
	visualization.Setup(visualization.Options{
		MaxSize: cfg.Output.ThumbnailSize,
		Quality: cfg.Output.JPEGQuality,
	})

	// Step 3: input series
	files, err := dicomio.SeriesFiles(runFlags.dataDir)
	if err != nil {
		return err
	}

	// Step 4: result writers
	writers := []results.Writer{&results.JSONFile{Path: runFlags.resultsPath}}
	if runFlags.dbPath != "" {
		store, err := results.OpenSQLite(runFlags.dbPath, runFlags.dataDir)
		if err != nil {
			return err
		}
		defer store.Close()
		writers = append(writers, store)
	}
	sink := results.NewCollector(writers...)

	// Step 5: dispatch
	d := pipeline.NewDispatcher(
		&pipeline.Params{OutputDir: outDir},
		dicomio.NewReader(),
		analysis.NewXRayQC(visualization.NewRenderer()),
		sink,
	)
	start := time.Now()
	if err := d.Run(cfg.Actions, files); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d results to %s in %.2f seconds\n",
		len(sink.Results()), runFlags.resultsPath, time.Since(start).Seconds())
	return nil
}
