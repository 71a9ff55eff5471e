package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"todoscan/internal/logging"
	"todoscan/internal/models"
	"todoscan/internal/todo"
	"todoscan/internal/utils"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"web/a.ts":   "// TODO: ts\nconst a = 1;\n",
		"b.go":       "package b\n\nfunc B() {}\n",
		"tools/c.py": "x = 1  # TODO: py\n",
		"bad.ts":     "function (\n",
		"notes.txt":  "TODO: not source\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return root
}

func paths(reports []models.FileReport) []string {
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.Path)
	}
	return out
}

func TestScanProject(t *testing.T) {
	isolateHome(t)
	root := writeProject(t)

	s := New(Options{Workers: 2, Logger: logging.Discard()})
	reports, err := s.ScanProject(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanProject: %v", err)
	}

	if got, want := paths(reports), []string{"bad.ts", "tools/c.py", "web/a.ts"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("paths=%v, want %v", got, want)
	}

	if reports[0].Error == "" || len(reports[0].Todos) != 0 {
		t.Fatalf("bad.ts report=%+v, want an error and no todos", reports[0])
	}

	wantPy := []todo.Finding{{Text: "TODO: py", Loc: todo.Location{Line: 1, Col: 8}}}
	if !reflect.DeepEqual(reports[1].Todos, wantPy) || reports[1].Language != "python" {
		t.Fatalf("c.py report=%+v, want todos %+v", reports[1], wantPy)
	}

	wantTS := []todo.Finding{{Text: "TODO: ts", Loc: todo.Location{Line: 1, Col: 1}}}
	if !reflect.DeepEqual(reports[2].Todos, wantTS) || reports[2].Language != "typescript" {
		t.Fatalf("a.ts report=%+v, want todos %+v", reports[2], wantTS)
	}

	if n := CountTodos(reports); n != 2 {
		t.Fatalf("CountTodos=%d, want 2", n)
	}
}

func TestScanProjectIncludeEmptyAndExclude(t *testing.T) {
	isolateHome(t)
	root := writeProject(t)

	s := New(Options{IncludeEmpty: true, NoCache: true, Exclude: []string{"tools/"}, Logger: logging.Discard()})
	reports, err := s.ScanProject(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanProject: %v", err)
	}

	if got, want := paths(reports), []string{"b.go", "bad.ts", "web/a.ts"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("paths=%v, want %v", got, want)
	}
	if reports[0].Todos == nil {
		t.Fatalf("b.go todos is nil, want empty slice")
	}
}

func TestScanProjectUsesCache(t *testing.T) {
	isolateHome(t)
	root := writeProject(t)
	s := New(Options{Logger: logging.Discard()})

	if _, err := s.ScanProject(context.Background(), root); err != nil {
		t.Fatalf("ScanProject: %v", err)
	}

	projectID, err := utils.ComputeProjectID(root)
	if err != nil {
		t.Fatalf("ComputeProjectID: %v", err)
	}
	statePath, err := cacheStatePath(projectID)
	if err != nil {
		t.Fatalf("cacheStatePath: %v", err)
	}
	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	normalizedRoot, err := utils.NormalizeProjectRoot(root)
	if err != nil {
		t.Fatalf("NormalizeProjectRoot: %v", err)
	}
	key := normalizeFilePath(filepath.Join(normalizedRoot, "web", "a.ts"))
	entry, ok := f.Files[key]
	if !ok {
		t.Fatalf("cache has no entry for %s: %v", key, f.Files)
	}
	if _, ok := f.Files[normalizeFilePath(filepath.Join(normalizedRoot, "bad.ts"))]; ok {
		t.Fatalf("failed files must not be cached")
	}

	// A doctored entry with a matching hash proves the cache is consulted.
	entry.Todos = []todo.Finding{{Text: "TODO: cached", Loc: todo.Location{Line: 9, Col: 9}}}
	f.Files[key] = entry
	data, err = json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(statePath, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reports, err := s.ScanProject(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanProject: %v", err)
	}
	if got := reports[len(reports)-1].Todos[0].Text; got != "TODO: cached" {
		t.Fatalf("cached scan text=%q, want %q", got, "TODO: cached")
	}

	fresh := New(Options{NoCache: true, Logger: logging.Discard()})
	reports, err = fresh.ScanProject(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanProject: %v", err)
	}
	if got := reports[len(reports)-1].Todos[0].Text; got != "TODO: ts" {
		t.Fatalf("uncached scan text=%q, want %q", got, "TODO: ts")
	}

	custom := New(Options{Extractor: todo.NewExtractor(todo.WithPlainMarkers("TODO: ")), Logger: logging.Discard()})
	if custom.extractor.Signature() != s.extractor.Signature() {
		t.Fatalf("equivalent extractors have different signatures")
	}

	if err := ClearProjectState(projectID); err != nil {
		t.Fatalf("ClearProjectState: %v", err)
	}
	if _, err := os.Stat(statePath); !os.IsNotExist(err) {
		t.Fatalf("cache file still present after ClearProjectState: %v", err)
	}
	if err := ClearProjectState(projectID); err != nil {
		t.Fatalf("ClearProjectState(missing): %v", err)
	}
}

func TestLoadCacheDiscardsOtherMarkers(t *testing.T) {
	isolateHome(t)

	c := newCache("p1", "plain:^TODO: ")
	c.store("/src/a.ts", cacheEntry{Hash: "h", Language: "typescript", Todos: []todo.Finding{}})
	if err := c.save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	same, err := loadCache("p1", "plain:^TODO: ")
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if _, ok := same.lookup("/src/a.ts", "h"); !ok {
		t.Fatalf("lookup missed an entry with the same markers")
	}
	if _, ok := same.lookup("/src/a.ts", "other"); ok {
		t.Fatalf("lookup hit an entry with a different hash")
	}

	other, err := loadCache("p1", "plain:^FIXME: ")
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if len(other.prev) != 0 {
		t.Fatalf("cache with different markers was kept: %v", other.prev)
	}
}

func TestScanProjectCancelled(t *testing.T) {
	isolateHome(t)
	root := writeProject(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Logger: logging.Discard()}).ScanProject(ctx, root)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ScanProject err=%v, want context.Canceled", err)
	}
}

func TestScanPathFile(t *testing.T) {
	isolateHome(t)
	root := writeProject(t)
	s := New(Options{Logger: logging.Discard()})

	reports, err := s.ScanPath(context.Background(), filepath.Join(root, "web", "a.ts"))
	if err != nil {
		t.Fatalf("ScanPath: %v", err)
	}
	if len(reports) != 1 || !strings.HasSuffix(reports[0].Path, "web/a.ts") {
		t.Fatalf("ScanPath reports=%+v", reports)
	}

	reports, err = s.ScanPath(context.Background(), filepath.Join(root, "b.go"))
	if err != nil {
		t.Fatalf("ScanPath: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("ScanPath(b.go)=%+v, want no reports", reports)
	}

	if _, err := s.ScanFile(context.Background(), filepath.Join(root, "notes.txt")); err == nil {
		t.Fatalf("ScanFile(notes.txt) expected error")
	}
	if _, err := s.ScanPath(context.Background(), filepath.Join(root, "missing.ts")); err == nil {
		t.Fatalf("ScanPath(missing) expected error")
	}
}

func TestNormalizeFilePath(t *testing.T) {
	t.Parallel()

	if got := normalizeFilePath("  "); got != "" {
		t.Fatalf("normalizeFilePath(whitespace)=%q, want empty", got)
	}

	dir := t.TempDir()
	input := filepath.Join(dir, "a", "..", "b", "file.go")
	want := filepath.ToSlash(filepath.Clean(input))
	if runtime.GOOS == "windows" {
		want = strings.ToLower(want)
	}
	if got := normalizeFilePath(input); got != want {
		t.Fatalf("normalizeFilePath=%q, want %q", got, want)
	}
}
