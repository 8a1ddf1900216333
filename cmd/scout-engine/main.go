// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scout-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scout-engine/internal/secrets"
	"github.com/pdiddy/scout-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, the secret value for key
// otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the scout-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "scout-engine",
	Short: "Ingest and query discovered-entity pipeline output",
	Long: `scout-engine ingests the loosely-structured text output of a multi-stage
entity analysis pipeline, deduplicates the records it finds, and maintains a
query-able SQLite record set with per-run summaries.

Use ingest to process a completed run's stage outputs, discover to search
public sources for new candidates, query and runs to inspect the record set,
and watch to ingest spooled runs on a schedule.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scout-engine.yaml or ~/.config/scout-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scout-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scout-engine"))
		}
	}

	viper.SetEnvPrefix("SCOUT_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("storage.path", filepath.Join("data", "scout.db"))
	viper.SetDefault("dedupe.threshold", 0.85)
	viper.SetDefault("ingest.max_per_run", 100)
	viper.SetDefault("ingest.min_fit_score", 40)
	viper.SetDefault("discovery.timeout", 30*time.Second)
	viper.SetDefault("discovery.user_agent", "scout-engine/"+version)
	viper.SetDefault("discovery.enable_html_fallback", true)
	viper.SetDefault("discovery.max_results", 10)
	viper.SetDefault("discovery.requests_per_second", 1.0)
	viper.SetDefault("discovery.max_retries", 3)
	viper.SetDefault("reports.output_dir", filepath.Join("output", "runs"))
	viper.SetDefault("notify.enabled", false)
	viper.SetDefault("notify.smtp_port", 587)
	viper.SetDefault("watch.schedule", "@daily")
	viper.SetDefault("watch.spool_dir", "spool")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.mode", "prod")
}

// loadConfig assembles the pipeline configuration from viper (config file,
// environment, defaults) and the secrets directory.
func loadConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Storage: types.StorageConfig{
			Path: viper.GetString("storage.path"),
		},
		Dedupe: types.DedupeConfig{
			Threshold: viper.GetFloat64("dedupe.threshold"),
		},
		Ingest: types.IngestConfig{
			MaxPerRun:   viper.GetInt("ingest.max_per_run"),
			MinFitScore: viper.GetInt("ingest.min_fit_score"),
		},
		Discovery: types.DiscoveryConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("discovery.timeout"),
				UserAgent: viper.GetString("discovery.user_agent"),
			},
			GoogleAPIKey:       secretDefault("google-api-key", viper.GetString("discovery.google_api_key")),
			GoogleCX:           secretDefault("google-search-cx", viper.GetString("discovery.google_cx")),
			ProductHuntToken:   secretDefault("producthunt-token", viper.GetString("discovery.producthunt_token")),
			EnableHTMLFallback: viper.GetBool("discovery.enable_html_fallback"),
			MaxResults:         viper.GetInt("discovery.max_results"),
			RequestsPerSecond:  viper.GetFloat64("discovery.requests_per_second"),
			MaxRetries:         viper.GetInt("discovery.max_retries"),
		},
		Reports: types.ReportsConfig{
			OutputDir: viper.GetString("reports.output_dir"),
		},
		Notify: types.NotifyConfig{
			Enabled:  viper.GetBool("notify.enabled"),
			SMTPHost: viper.GetString("notify.smtp_host"),
			SMTPPort: viper.GetInt("notify.smtp_port"),
			From:     viper.GetString("notify.from"),
			To:       viper.GetString("notify.to"),
			Username: viper.GetString("notify.username"),
		},
		Watch: types.WatchConfig{
			Schedule: viper.GetString("watch.schedule"),
			SpoolDir: viper.GetString("watch.spool_dir"),
		},
		Log: types.LogConfig{
			Level: viper.GetString("log.level"),
			Mode:  viper.GetString("log.mode"),
		},
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
