package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/scholarly/internal/app"
	"github.com/abhisek/scholarly/internal/config"
	"github.com/abhisek/scholarly/internal/logger"
	"github.com/abhisek/scholarly/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "scholarly",
	Short: "Learn any topic with generated lessons and quizzes",
	Long: "Scholarly builds a learning path for any topic, teaches it one subtopic at a time\n" +
		"and quizzes you until you master it. Missed questions come back as spaced reviews.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

// cfg is loaded once per invocation by the root pre-run hook.
var cfg *config.Config

// ExecuteContext runs the root command. Interrupting ctx ends a running
// session cleanly.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SCHOLARLY_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: $XDG_CONFIG_HOME/scholarly/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(freezeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		c.Log.Level = lvl
	}
	logger.Setup(c.Log.Level, c.Log.Format, os.Stderr)
	cfg = c
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore opens the database for commands that only read or reset data.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openApp builds the full dependency graph.
func openApp(cmd *cobra.Command, opts app.Options) (*app.App, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	return app.New(cmd.Context(), cfg, dbPath, nil, opts)
}

// closeApp gives background lesson writes a few seconds to finish.
func closeApp(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		a.Logger.Warn("close store", "error", err)
	}
}
