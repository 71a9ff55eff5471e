package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"todoscan/internal/logging"
	"todoscan/internal/models"
	"todoscan/internal/parser"
	"todoscan/internal/todo"
	"todoscan/internal/utils"
)

// DefaultWorkers is the parse concurrency used when Options.Workers is unset.
const DefaultWorkers = 4

// Options configures a Scanner. Zero fields fall back to defaults.
type Options struct {
	Workers      int
	Exclude      []string
	NoCache      bool
	IncludeEmpty bool
	Extractor    *todo.Extractor
	Logger       *log.Logger
}

// Scanner finds TODO comments across a project tree.
type Scanner struct {
	workers      int
	exclude      []string
	noCache      bool
	includeEmpty bool
	extractor    *todo.Extractor
	sources      *parser.Factory
	log          *log.Logger
}

// New returns a Scanner configured by opts.
func New(opts Options) *Scanner {
	s := &Scanner{
		workers:      opts.Workers,
		exclude:      opts.Exclude,
		noCache:      opts.NoCache,
		includeEmpty: opts.IncludeEmpty,
		extractor:    opts.Extractor,
		sources:      parser.NewFactory(),
		log:          opts.Logger,
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	if s.extractor == nil {
		s.extractor = todo.NewExtractor()
	}
	if s.log == nil {
		s.log = logging.Default()
	}
	return s
}

// ScanPath scans a single file or a project directory.
func (s *Scanner) ScanPath(ctx context.Context, path string) ([]models.FileReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return s.ScanProject(ctx, path)
	}
	report, err := s.ScanFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(report.Todos) == 0 && report.Error == "" && !s.includeEmpty {
		return []models.FileReport{}, nil
	}
	return []models.FileReport{report}, nil
}

// ScanFile scans one file without consulting the cache. Syntax errors are
// recorded in the report; read failures and unsupported files are returned.
func (s *Scanner) ScanFile(ctx context.Context, path string) (models.FileReport, error) {
	if err := ctx.Err(); err != nil {
		return models.FileReport{}, err
	}
	if _, err := s.sources.GetSourceByFilePath(path); err != nil {
		return models.FileReport{}, err
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return models.FileReport{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.scanCode(filepath.ToSlash(path), path, code), nil
}

// ScanProject walks root and scans every supported file on a worker pool.
// Reports are sorted by path, which is relative to root.
func (s *Scanner) ScanProject(ctx context.Context, root string) ([]models.FileReport, error) {
	normalizedRoot, err := utils.NormalizeProjectRoot(root)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize project root: %w", err)
	}

	files, err := utils.GetAllSourceFiles(normalizedRoot, s.exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list source files: %w", err)
	}
	s.log.Debug("Found source files", "root", normalizedRoot, "files", len(files))

	var cache *findingCache
	if !s.noCache {
		projectID, err := utils.ComputeProjectID(normalizedRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to compute project id: %w", err)
		}
		cache, err = loadCache(projectID, s.extractor.Signature())
		if err != nil {
			s.log.Warn("Ignoring unreadable finding cache", "err", err)
			cache = newCache(projectID, s.extractor.Signature())
		}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	reports := make([]models.FileReport, 0, len(files))
	fileCh := make(chan string)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileCh {
				report := s.scanProjectFile(normalizedRoot, path, cache)
				mu.Lock()
				reports = append(reports, report)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, f := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case fileCh <- f:
		}
	}
	close(fileCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.save(); err != nil {
			s.log.Warn("Failed to save finding cache", "err", err)
		}
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })

	out := reports[:0]
	todos := 0
	for _, r := range reports {
		todos += len(r.Todos)
		if s.includeEmpty || len(r.Todos) > 0 || r.Error != "" {
			out = append(out, r)
		}
	}
	s.log.Info("Scan completed", "files", len(files), "todos", todos)
	return out, nil
}

func (s *Scanner) scanProjectFile(root, path string, cache *findingCache) models.FileReport {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	code, err := os.ReadFile(path)
	if err != nil {
		s.log.Error("Failed to read file", "path", rel, "err", err)
		return models.FileReport{Path: rel, Language: string(parser.DetectLanguage(path)), Todos: []todo.Finding{}, Error: err.Error()}
	}

	hash := utils.HashContent(code)
	if cache != nil {
		if entry, ok := cache.lookup(path, hash); ok {
			s.log.Debug("Cache hit", "path", rel)
			return models.FileReport{Path: rel, Language: entry.Language, Todos: entry.Todos, Hash: hash}
		}
	}

	report := s.scanCode(rel, path, code)
	if cache != nil && report.Error == "" {
		cache.store(path, cacheEntry{Hash: hash, Language: report.Language, Todos: report.Todos})
	}
	return report
}

// scanCode runs the extractor over code; display is the path reported back.
func (s *Scanner) scanCode(display, path string, code []byte) models.FileReport {
	report := models.FileReport{
		Path:     display,
		Language: string(parser.DetectLanguage(path)),
		Todos:    []todo.Finding{},
		Hash:     utils.HashContent(code),
	}

	source, err := s.sources.GetSourceByFilePath(path)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	findings, err := todo.DetectWith(source, s.extractor, path, code)
	if err != nil {
		if errors.Is(err, parser.ErrSyntax) {
			s.log.Warn("Skipping file with syntax errors", "path", display, "err", err)
		} else {
			s.log.Error("Failed to scan file", "path", display, "err", err)
		}
		report.Error = err.Error()
		return report
	}

	report.Todos = findings
	if len(findings) > 0 {
		s.log.Debug("Scanned file", "path", display, "todos", len(findings))
	}
	return report
}

// CountTodos sums the findings of reports.
func CountTodos(reports []models.FileReport) int {
	n := 0
	for _, r := range reports {
		n += len(r.Todos)
	}
	return n
}
