package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"samlib/internal/agent"
	"samlib/internal/config"
	"samlib/internal/debuglog"
)

// Version is set at build time.
var Version = "dev"

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

func main() {
	root := &cobra.Command{
		Use:           "samlib",
		Short:         "Tracks authors on samlib.ru and their new and updated works",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to configuration file")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "path to database file (overrides config)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error, off")

	root.AddCommand(
		newAddCmd(),
		newRemoveCmd(),
		newSyncCmd(),
		newAuthorsCmd(),
		newGroupsCmd(),
		newWorksCmd(),
		newReadCmd(),
		newUnreadCmd(),
		newFetchCmd(),
		newInitConfigCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	debuglog.Close()
}

// openAgent loads the configuration, wires the logger and opens the store.
// Callers own the returned agent and must Close it.
func openAgent() (*agent.Agent, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return nil, err
	}

	return agent.New(cfg)
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, _ := os.UserHomeDir()
			path := filepath.Join(home, ".config", "samlib", "config.toml")
			if flagConfig != "" {
				path = flagConfig
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return err
			}
			cmd.Printf("Generated default configuration at: %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("samlib %s\n", Version)
		},
	}
}
