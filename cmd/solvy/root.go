package main

import (
	"fmt"
	"os"

	"github.com/HendryAvila/solvy/internal/config"
	"github.com/HendryAvila/solvy/internal/logging"
	solvyserver "github.com/HendryAvila/solvy/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	dataDir    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "solvy",
		Short:         "Iterative task solver with memory",
		Long:          "Solvy derives requirements and tests for a task, proposes an answer and retries until the tests pass.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: <data dir>/"+config.FileName+" when present)")
	root.PersistentFlags().StringVar(&g.dataDir, "data-dir", "", "override memory.data_dir")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newSolveCmd(g),
		newServeCmd(g),
		newRunsCmd(g),
		newMemoryCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return root
}

// load resolves the configuration for a command. Without --config, the
// default file under the data directory is used when it exists.
func (g *globals) load() (*config.Config, error) {
	path := g.configPath
	if path == "" {
		dir := g.dataDir
		if dir == "" {
			dir = config.Default().Memory.DataDir
		}
		if p := config.Path(dir); fileExists(p) {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if g.dataDir != "" {
		cfg.Memory.DataDir = g.dataDir
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (g *globals) logger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
		Output:   cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "solvy v%s\n", solvyserver.Version)
		},
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
