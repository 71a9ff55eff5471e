package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"todoscan/internal/todo"
	"todoscan/internal/utils"
)

type cacheEntry struct {
	Hash     string         `json:"hash"`
	Language string         `json:"language"`
	Todos    []todo.Finding `json:"todos"`
}

type cacheFile struct {
	Markers string                `json:"markers"`
	Files   map[string]cacheEntry `json:"files"`
}

// findingCache remembers the findings of unchanged files between scans.
// Entries not looked up or stored during a scan are dropped on save.
type findingCache struct {
	mu        sync.Mutex
	projectID string
	markers   string
	prev      map[string]cacheEntry
	next      map[string]cacheEntry
}

func newCache(projectID, markers string) *findingCache {
	return &findingCache{
		projectID: projectID,
		markers:   markers,
		prev:      make(map[string]cacheEntry),
		next:      make(map[string]cacheEntry),
	}
}

// loadCache reads the cache of a project. A cache written with a different
// marker configuration is discarded.
func loadCache(projectID, markers string) (*findingCache, error) {
	c := newCache(projectID, markers)
	statePath, err := cacheStatePath(projectID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}

	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", statePath, err)
	}
	if f.Markers != markers {
		return c, nil
	}
	for k, v := range f.Files {
		if v.Todos == nil {
			v.Todos = []todo.Finding{}
		}
		c.prev[k] = v
	}
	return c, nil
}

func (c *findingCache) lookup(path, hash string) (cacheEntry, bool) {
	key := normalizeFilePath(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.prev[key]
	if !ok || entry.Hash != hash {
		return cacheEntry{}, false
	}
	c.next[key] = entry
	return entry, true
}

func (c *findingCache) store(path string, entry cacheEntry) {
	key := normalizeFilePath(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next[key] = entry
}

func (c *findingCache) save() error {
	statePath, err := cacheStatePath(c.projectID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	data, err := json.MarshalIndent(cacheFile{Markers: c.markers, Files: c.next}, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(statePath, data, 0o644)
}

func cacheStatePath(projectID string) (string, error) {
	stateDir, err := utils.UserStateDir()
	if err != nil {
		return "", err
	}
	if projectID == "" {
		projectID = "default"
	}
	return filepath.Join(stateDir, fmt.Sprintf("%s_todo_cache.json", projectID)), nil
}

// ClearProjectState removes the finding cache of a project.
func ClearProjectState(projectID string) error {
	statePath, err := cacheStatePath(projectID)
	if err != nil {
		return err
	}
	if err := os.Remove(statePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func normalizeFilePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	abs := path
	if !filepath.IsAbs(abs) {
		if a, err := filepath.Abs(abs); err == nil {
			abs = a
		}
	}
	normalized := filepath.ToSlash(filepath.Clean(abs))
	if runtime.GOOS == "windows" {
		normalized = strings.ToLower(normalized)
	}
	return normalized
}
