package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"todoscan/internal/config"
	"todoscan/internal/logging"
	"todoscan/internal/todo"
)

// rootOptions holds the persistent flags and the configuration they load.
type rootOptions struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "todoscan",
		Short: "Find TODO comments in source code",
		Long: "A CLI tool that reports TODO comments in Go, Python, JavaScript and TypeScript " +
			"sources, and optionally indexes them for semantic search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			logging.SetLevel(cfg.Log.Level)
			if cfg.File != "" {
				logging.Default().Debug("Loaded config", "file", cfg.File)
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "Config file (default ~/.todoscan/todoscan.yaml or ./todoscan.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newIndexCmd(opts))
	rootCmd.AddCommand(newQueryCmd(opts))
	rootCmd.AddCommand(newClearIndexCmd(opts))
	rootCmd.AddCommand(newIndexStatsCmd(opts))
	rootCmd.AddCommand(newMCPCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the todoscan command tree.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) extractor() *todo.Extractor {
	return todo.NewExtractor(
		todo.WithPlainMarkers(o.cfg.Markers.Plain...),
		todo.WithDocMarkers(o.cfg.Markers.Doc...),
	)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
