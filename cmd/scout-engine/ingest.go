// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/internal/logging"
	"github.com/pdiddy/scout-engine/internal/notify"
	"github.com/pdiddy/scout-engine/internal/pipeline"
	"github.com/pdiddy/scout-engine/internal/reports"
	"github.com/pdiddy/scout-engine/internal/store"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// stageNames in pipeline order. A run directory holds one text file per
// stage, <stage>.json or <stage>.txt.
var stageNames = []string{"discovery", "scoring", "categorization", "reporting"}

var ingestCmd = &cobra.Command{
	Use:   "ingest [run-dir]",
	Short: "Ingest one run's stage outputs into the record set",
	Long: `Ingest reads the four stage text files of a completed analysis run,
extracts entity records from the discovery output, merges scoring and
categorization annotations onto them, deduplicates against the existing
record set, and persists what survives together with a run summary and
report artifacts.

Stage texts come from a run directory (one <stage>.json or <stage>.txt
file per stage; missing stages contribute nothing) or from per-stage
file flags, which take precedence over the directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("run-id", "", "run identifier (default: run_<timestamp>)")
	for _, name := range stageNames {
		ingestCmd.Flags().String(name, "", name+" stage text file (overrides run-dir)")
	}
	ingestCmd.Flags().Int("max-per-run", 0, "cap on admitted records (0 = config value)")
	ingestCmd.Flags().Float64("threshold", 0, "duplicate-name similarity threshold (0 = config value)")
	ingestCmd.Flags().String("db", "", "SQLite database path (overrides config)")
	ingestCmd.Flags().Bool("no-report", false, "skip writing report artifacts")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Storage.Path = db
	}
	if maxPer, _ := cmd.Flags().GetInt("max-per-run"); maxPer > 0 {
		cfg.Ingest.MaxPerRun = maxPer
	}
	if th, _ := cmd.Flags().GetFloat64("threshold"); th > 0 {
		cfg.Dedupe.Threshold = th
	}

	runDir := ""
	if len(args) == 1 {
		runDir = args[0]
	}

	stages, err := readStages(cmd, runDir)
	if err != nil {
		return err
	}
	if stages.Discovery == "" {
		return fmt.Errorf("no discovery stage text found: provide a run directory or --discovery")
	}

	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = types.NewRunID(time.Now().UTC())
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := pipeline.Options{
		Store:  st,
		Dedupe: cfg.Dedupe,
		Ingest: cfg.Ingest,
		Sink:   events.NewZapSink(log),
	}
	if noReport, _ := cmd.Flags().GetBool("no-report"); !noReport {
		opts.Reports = reports.NewWriter(cfg.Reports)
	}
	if cfg.Notify.Enabled {
		opts.Notifier = notify.NewSMTPNotifier(cfg.Notify, secretDefault("smtp-password", ""))
	}

	res, err := pipeline.Run(context.Background(), runID, stages, opts)
	if err != nil {
		return err
	}

	printRunResult(os.Stdout, res)
	return nil
}

// readStages resolves each stage's text, flag override first, then the
// run directory. A stage with no file is an empty string.
func readStages(cmd *cobra.Command, runDir string) (pipeline.StageOutputs, error) {
	texts := make(map[string]string, len(stageNames))
	for _, name := range stageNames {
		if path, _ := cmd.Flags().GetString(name); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return pipeline.StageOutputs{}, fmt.Errorf("reading %s stage: %w", name, err)
			}
			texts[name] = string(data)
			continue
		}
		if runDir != "" {
			texts[name] = readStageFile(runDir, name)
		}
	}
	return pipeline.StageOutputs{
		Discovery:      texts["discovery"],
		Scoring:        texts["scoring"],
		Categorization: texts["categorization"],
		Reporting:      texts["reporting"],
	}, nil
}

// readStageFile tries the accepted file names for one stage under dir.
// Missing files are not an error; the stage is simply absent.
func readStageFile(dir, name string) string {
	for _, candidate := range []string{
		name + ".json", name + ".txt",
		name + "_output.json", name + "_output.txt",
	} {
		data, err := os.ReadFile(filepath.Join(dir, candidate))
		if err == nil {
			return string(data)
		}
	}
	return ""
}

func printRunResult(w io.Writer, res *pipeline.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	sum := res.Summary
	fmt.Fprintf(w, "Run %s %s in %.1fs\n", sum.RunID, sum.Status, sum.ProcessingTime)
	fmt.Fprintf(w, "  Found:      %d\n", res.Counts.Found)
	fmt.Fprintf(w, "  Inserted:   %s\n", green(res.Counts.Inserted))
	fmt.Fprintf(w, "  Duplicates: %s\n", yellow(res.Counts.Duplicates))
	if res.Counts.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped:    %d (per-run cap)\n", res.Counts.Skipped)
	}
	fmt.Fprintf(w, "  Tiers:      %d / %d / %d\n", sum.Tier1Count, sum.Tier2Count, sum.Tier3Count)
	if res.ReportDir != "" {
		fmt.Fprintf(w, "  Report:     %s\n", res.ReportDir)
	}
}
