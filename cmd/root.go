package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/sunny/internal/config"
	"github.com/abhisek/sunny/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "sunny",
	Short: "Adaptive AI tutor for kids and teens",
	Long: "Sunny is an adaptive tutor for learners aged 4 to 18. It asks questions,\n" +
		"grades answers, teaches when an answer is off and levels learners up as they go.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: ./sunny.yaml or $XDG_CONFIG_HOME/sunny/sunny.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SUNNY_STORE_DB)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(homeworkCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// env is the resolved configuration and logger shared by every command.
type env struct {
	cfg config.Config
	log *logrus.Logger
}

// loadEnv reads configuration with command-line flags taking priority
// over the environment and config file.
func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		v.Set("store.db", p)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		v.Set("log.level", lvl)
	}

	cfg := config.Load(v)
	log := config.NewLogger(cfg.Log)
	if f := v.ConfigFileUsed(); f != "" {
		log.WithField("file", f).Debug("config loaded")
	}
	return &env{cfg: cfg, log: log}, nil
}

// resolveDBPath returns the database path from config (--db flag or
// SUNNY_STORE_DB), then SUNNY_DB, then the default XDG path.
func resolveDBPath(cfg config.StoreConfig) (string, error) {
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// openLocal opens the SQLite database holding the event log and the local
// profile tier.
func openLocal(e *env) (*store.Store, error) {
	dbPath, err := resolveDBPath(e.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
