package cmd

import (
	"github.com/spf13/cobra"

	"todoscan/internal/logging"
	"todoscan/internal/mcp"
	"todoscan/internal/qdrant"
	"todoscan/internal/scanner"
)

func newMCPCmd(root *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Default()
			sc := scanner.New(scanner.Options{
				Workers:   root.cfg.Scan.Workers,
				Exclude:   root.cfg.Scan.Exclude,
				NoCache:   root.cfg.Scan.NoCache,
				Extractor: root.extractor(),
				Logger:    logger,
			})

			// The Qdrant connection is only opened once search_todos is used.
			var qc *qdrant.Client
			openSearcher := func() (mcp.Searcher, error) {
				pub, client, err := openPublisher(root.cfg, dir)
				if err != nil {
					return nil, err
				}
				qc = client
				return pub, nil
			}
			defer func() {
				if qc != nil {
					qc.Close()
				}
			}()

			server, err := mcp.NewServer(dir, sc, openSearcher, Version, logger)
			if err != nil {
				return err
			}
			logger.Debug("MCP server listening on stdio", "dir", dir)
			return server.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Project root directory (server scopes scans and searches to this directory)")
	return cmd
}
