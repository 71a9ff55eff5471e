package models

import "todoscan/internal/todo"

// FileReport is the scan result for a single source file.
type FileReport struct {
	Path     string         `json:"path"`
	Language string         `json:"language"`
	Todos    []todo.Finding `json:"todos"`
	Hash     string         `json:"hash,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// TodoPayload is the Qdrant point payload stored for one finding.
type TodoPayload struct {
	FilePath string `json:"file_path"`
	Language string `json:"language"`
	Text     string `json:"text"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	FileHash string `json:"file_hash"`
}

// ToMap flattens the payload for qdrant.MapToPayload.
func (p TodoPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"file_path": p.FilePath,
		"language":  p.Language,
		"text":      p.Text,
		"line":      p.Line,
		"col":       p.Col,
		"file_hash": p.FileHash,
	}
}

// TodoPayloadFromMap is the inverse of ToMap. Numeric fields may arrive as
// int64 or float64 depending on how Qdrant encoded them.
func TodoPayloadFromMap(m map[string]interface{}) TodoPayload {
	return TodoPayload{
		FilePath: stringField(m, "file_path"),
		Language: stringField(m, "language"),
		Text:     stringField(m, "text"),
		Line:     intField(m, "line"),
		Col:      intField(m, "col"),
		FileHash: stringField(m, "file_hash"),
	}
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
