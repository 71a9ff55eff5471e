package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"todoscan/internal/config"
	"todoscan/internal/parser"
)

var excludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"__pycache__":  true,
	".venv":        true,
}

// GetAllSourceFiles walks rootPath and returns every file a comment source
// exists for. Well-known dependency/output directories, root .gitignore
// rules and the extra exclude patterns are skipped.
func GetAllSourceFiles(rootPath string, exclude []string) ([]string, error) {
	var files []string
	ignorePatterns := append(loadGitIgnorePatterns(rootPath), exclude...)
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Compute path relative to root for .gitignore-style matching.
		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path != rootPath && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			if isIgnoredPath(relPath, ignorePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if isIgnoredPath(relPath, ignorePatterns) {
			return nil
		}

		if parser.IsSupportedFile(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// HashContent returns the hex SHA-256 of content.
func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// NormalizeProjectRoot returns the absolute, symlink-resolved form of root.
func NormalizeProjectRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return filepath.Clean(abs), nil
}

// ComputeProjectID fingerprints a project by its normalized root path.
func ComputeProjectID(root string) (string, error) {
	normalized, err := NormalizeProjectRoot(root)
	if err != nil {
		return "", err
	}
	key := filepath.ToSlash(normalized)
	if runtime.GOOS == "windows" {
		key = strings.ToLower(key)
	}
	return HashContent([]byte(key))[:16], nil
}

// UserStateDir returns ~/.todoscan, creating it if needed.
func UserStateDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// NormalizeQuery trims a free-text search query.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// loadGitIgnorePatterns reads the root-level .gitignore (if present) and
// returns a list of non-empty, non-comment patterns.
func loadGitIgnorePatterns(rootPath string) []string {
	gitIgnorePath := filepath.Join(rootPath, ".gitignore")
	data, err := os.ReadFile(gitIgnorePath)
	if err != nil {
		return nil
	}

	lines := strings.Split(string(data), "\n")
	var patterns []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// isIgnoredPath applies a minimal subset of .gitignore semantics: directory
// patterns ("dist/"), root-relative globs and bare names matching any path
// segment. Globs without a slash also match the base name.
func isIgnoredPath(relPath string, patterns []string) bool {
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	if relPath == "" || relPath == "." {
		return false
	}

	for _, pattern := range patterns {
		p := strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(pattern)), "/")
		if p == "" {
			continue
		}

		if strings.HasSuffix(p, "/") {
			dir := strings.TrimPrefix(strings.TrimSuffix(p, "/"), "./")
			if relPath == dir || strings.HasPrefix(relPath, dir+"/") {
				return true
			}
			continue
		}

		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}

		if !strings.Contains(p, "/") {
			if ok, _ := filepath.Match(p, filepath.Base(relPath)); ok {
				return true
			}
			if !strings.ContainsAny(p, "*?[") && strings.Contains("/"+relPath+"/", "/"+p+"/") {
				return true
			}
		}
	}

	return false
}
