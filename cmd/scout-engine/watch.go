// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/scout-engine/internal/events"
	"github.com/pdiddy/scout-engine/internal/logging"
	"github.com/pdiddy/scout-engine/internal/notify"
	"github.com/pdiddy/scout-engine/internal/pipeline"
	"github.com/pdiddy/scout-engine/internal/reports"
	"github.com/pdiddy/scout-engine/internal/store"
	"github.com/pdiddy/scout-engine/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest spooled runs on a schedule",
	Long: `Watch scans the spool directory on a cron schedule and ingests any run
directory it has not processed before. Each spool subdirectory holds one
run's stage text files, named like the ingest command expects.

Processed directories are checkpointed in the database, so restarting the
watcher does not re-ingest old spool entries; if a directory is ever
re-processed anyway, the record set's uniqueness keys suppress the
duplicates.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("schedule", "", `cron schedule or descriptor (default "@daily")`)
	watchCmd.Flags().String("spool-dir", "", "directory scanned for run directories")
	watchCmd.Flags().Bool("once", false, "scan once now and exit instead of scheduling")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if s, _ := cmd.Flags().GetString("schedule"); s != "" {
		cfg.Watch.Schedule = s
	}
	if d, _ := cmd.Flags().GetString("spool-dir"); d != "" {
		cfg.Watch.SpoolDir = d
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	if once, _ := cmd.Flags().GetBool("once"); once {
		return ingestSpool(context.Background(), cfg, log)
	}

	if _, err := cron.ParseStandard(cfg.Watch.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Watch.Schedule, err)
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Watch.Schedule, func() {
		if err := ingestSpool(context.Background(), cfg, log); err != nil {
			log.Errorw("spool scan failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	defer c.Stop()
	log.Infow("watching spool", "dir", cfg.Watch.SpoolDir, "schedule", cfg.Watch.Schedule)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Infow("watch stopped")
	return nil
}

// ingestSpool processes every unprocessed run directory under the spool
// directory. Failures on one directory do not stop the scan.
func ingestSpool(ctx context.Context, cfg types.PipelineConfig, log *zap.SugaredLogger) error {
	entries, err := os.ReadDir(cfg.Watch.SpoolDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugw("spool directory missing", "dir", cfg.Watch.SpoolDir)
			return nil
		}
		return fmt.Errorf("reading spool directory: %w", err)
	}

	st, err := store.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := pipeline.Options{
		Store:   st,
		Dedupe:  cfg.Dedupe,
		Ingest:  cfg.Ingest,
		Reports: reports.NewWriter(cfg.Reports),
		Sink:    events.NewZapSink(log),
	}
	if cfg.Notify.Enabled {
		opts.Notifier = notify.NewSMTPNotifier(cfg.Notify, secretDefault("smtp-password", ""))
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		key := "spool:" + name

		done, err := st.GetMeta(ctx, key)
		if err != nil {
			return err
		}
		if done != "" {
			continue
		}

		dir := filepath.Join(cfg.Watch.SpoolDir, name)
		stages := spoolStages(dir)
		if stages.Discovery == "" {
			log.Debugw("spool entry has no discovery stage yet", "dir", name)
			continue
		}

		runID := name
		if !strings.HasPrefix(runID, "run_") {
			runID = types.NewRunID(time.Now().UTC())
		}

		res, err := pipeline.Run(ctx, runID, stages, opts)
		if err != nil {
			log.Errorw("spooled run failed", "dir", name, "error", err)
			continue
		}
		if err := st.SetMeta(ctx, key, runID); err != nil {
			return err
		}
		log.Infow("spooled run ingested", "dir", name, "run_id", runID,
			"inserted", res.Counts.Inserted, "duplicates", res.Counts.Duplicates)
	}
	return nil
}

func spoolStages(dir string) pipeline.StageOutputs {
	return pipeline.StageOutputs{
		Discovery:      readStageFile(dir, "discovery"),
		Scoring:        readStageFile(dir, "scoring"),
		Categorization: readStageFile(dir, "categorization"),
		Reporting:      readStageFile(dir, "reporting"),
	}
}
