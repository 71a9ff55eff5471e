package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"todoscan/internal/config"
	"todoscan/internal/embeddings"
	"todoscan/internal/index"
	"todoscan/internal/logging"
	"todoscan/internal/qdrant"
	"todoscan/internal/scanner"
	"todoscan/internal/utils"
)

// openPublisher connects to Qdrant and returns a publisher for the project
// at dir. The caller closes the returned client.
func openPublisher(cfg *config.Config, dir string) (*index.Publisher, *qdrant.Client, error) {
	projectID, err := utils.ComputeProjectID(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute project id: %w", err)
	}

	qc, err := qdrant.NewClient(cfg.Qdrant)
	if err != nil {
		return nil, nil, err
	}
	ec := embeddings.NewClient(cfg.OpenAI, logging.Default())
	return index.NewPublisher(qc, ec, projectID, logging.Default()), qc, nil
}

func newIndexCmd(root *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan a project and publish its TODO comments to Qdrant",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Default()
			sc := scanner.New(scanner.Options{
				Workers:      root.cfg.Scan.Workers,
				Exclude:      root.cfg.Scan.Exclude,
				NoCache:      root.cfg.Scan.NoCache,
				IncludeEmpty: true,
				Extractor:    root.extractor(),
				Logger:       logger,
			})

			logger.Info("Indexing project", "dir", dir)
			reports, err := sc.ScanProject(cmd.Context(), dir)
			if err != nil {
				return err
			}

			pub, qc, err := openPublisher(root.cfg, dir)
			if err != nil {
				return err
			}
			defer qc.Close()

			logger.Info("Using collection", "collection", pub.Collection())
			n, err := pub.Sync(cmd.Context(), reports)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d TODO comments from %d files into %s\n", n, len(reports), pub.Collection())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Project root directory")
	return cmd
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	var (
		q    string
		topK int
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search indexed TODO comments with a natural language query",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := utils.NormalizeQuery(q)
			if query == "" {
				return fmt.Errorf("--q is required")
			}
			if topK <= 0 {
				topK = 10
			}

			pub, qc, err := openPublisher(root.cfg, dir)
			if err != nil {
				return err
			}
			defer qc.Close()

			hits, err := pub.Search(cmd.Context(), query, topK)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), hits)
		},
	}

	cmd.Flags().StringVar(&q, "q", "", "Natural language query")
	cmd.Flags().IntVar(&topK, "top_k", 10, "Maximum number of results to return")
	cmd.Flags().StringVar(&dir, "dir", ".", "Project root directory (must match the directory passed to 'todoscan index')")
	return cmd
}

func newClearIndexCmd(root *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "clear-index",
		Short: "Delete the project's Qdrant collection and local finding cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := utils.ComputeProjectID(dir)
			if err != nil {
				return fmt.Errorf("failed to compute project id: %w", err)
			}

			pub, qc, err := openPublisher(root.cfg, dir)
			if err != nil {
				return err
			}
			defer qc.Close()

			logging.Default().Info("Deleting collection", "collection", pub.Collection())
			if err := pub.Drop(cmd.Context()); err != nil {
				return err
			}
			if err := scanner.ClearProjectState(projectID); err != nil {
				return fmt.Errorf("failed to clear local state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %s\n", pub.Collection())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Project root directory to clear from Qdrant")
	return cmd
}

func newIndexStatsCmd(root *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "index-stats",
		Short: "Count the TODO comments stored for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, qc, err := openPublisher(root.cfg, dir)
			if err != nil {
				return err
			}
			defer qc.Close()

			points, files, err := pub.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Collection %s: %d TODO comments in %d files\n", pub.Collection(), points, files)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Project root directory")
	return cmd
}
