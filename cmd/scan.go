package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"todoscan/internal/logging"
	"todoscan/internal/models"
	"todoscan/internal/parser"
	"todoscan/internal/scanner"
	"todoscan/internal/todo"
)

func newScanCmd(root *rootOptions) *cobra.Command {
	var (
		fromStdin    bool
		lang         string
		workers      int
		noCache      bool
		includeEmpty bool
		failOnTodo   bool
	)

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Print the TODO comments of files or directories as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			var count int
			if fromStdin {
				findings, err := scanStdin(cmd.InOrStdin(), lang, root.extractor())
				if err != nil {
					return err
				}
				if err := writeJSON(cmd.OutOrStdout(), findings); err != nil {
					return err
				}
				count = len(findings)
			} else {
				if !cmd.Flags().Changed("workers") {
					workers = root.cfg.Scan.Workers
				}
				sc := scanner.New(scanner.Options{
					Workers:      workers,
					Exclude:      root.cfg.Scan.Exclude,
					NoCache:      noCache || root.cfg.Scan.NoCache,
					IncludeEmpty: includeEmpty,
					Extractor:    root.extractor(),
					Logger:       logging.Default(),
				})

				if len(args) == 0 {
					args = []string{"."}
				}
				reports := make([]models.FileReport, 0)
				for _, path := range args {
					found, err := scanArg(cmd, sc, path)
					if err != nil {
						return err
					}
					reports = append(reports, found...)
				}
				if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
					return err
				}
				count = scanner.CountTodos(reports)
			}

			if failOnTodo && count > 0 {
				return fmt.Errorf("found %d TODO comments", count)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read source code from stdin and print its findings")
	cmd.Flags().StringVar(&lang, "lang", string(parser.LanguageTypeScript), "Language of stdin input (go, python, javascript, typescript, tsx)")
	cmd.Flags().IntVar(&workers, "workers", scanner.DefaultWorkers, "Number of files scanned in parallel")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Re-parse every file instead of using the finding cache")
	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "Also report files without TODO comments")
	cmd.Flags().BoolVar(&failOnTodo, "fail-on-todo", false, "Exit with status 1 when any TODO comment is found")

	return cmd
}

func scanStdin(r io.Reader, lang string, extractor *todo.Extractor) ([]todo.Finding, error) {
	language, err := parser.ParseLanguage(lang)
	if err != nil {
		return nil, err
	}
	source, err := parser.NewFactory().GetSource(language)
	if err != nil {
		return nil, err
	}
	code, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return todo.DetectWith(source, extractor, "", code)
}

// scanArg scans one command-line path. Report paths of a directory are
// joined to the argument so results from several arguments stay distinct.
func scanArg(cmd *cobra.Command, sc *scanner.Scanner, path string) ([]models.FileReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	reports, err := sc.ScanPath(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		for i := range reports {
			reports[i].Path = filepath.ToSlash(filepath.Join(path, filepath.FromSlash(reports[i].Path)))
		}
	}
	return reports, nil
}
