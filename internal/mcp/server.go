package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"todoscan/internal/index"
	"todoscan/internal/scanner"
	"todoscan/internal/utils"
)

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603

	protocolVersion = "2024-11-05"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Searcher answers search_todos calls.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]index.SearchHit, error)
}

// Server serves find_todos and search_todos over newline-delimited
// JSON-RPC.
type Server struct {
	root    string
	scanner *scanner.Scanner
	version string
	log     *log.Logger

	openSearcher func() (Searcher, error)
	searchOnce   sync.Once
	searcher     Searcher
	searchErr    error
}

// NewServer creates a server confined to root. openSearcher is called on
// the first search_todos call; nil disables searching.
func NewServer(root string, sc *scanner.Scanner, openSearcher func() (Searcher, error), version string, logger *log.Logger) (*Server, error) {
	normalized, err := utils.NormalizeProjectRoot(root)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize project root: %w", err)
	}
	return &Server{
		root:         normalized,
		scanner:      sc,
		version:      version,
		log:          logger,
		openSearcher: openSearcher,
	}, nil
}

// Run serves requests from in until EOF or ctx is done.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadBytes('\n')
		if len(strings.TrimSpace(string(line))) > 0 {
			var req JSONRPCRequest
			if uerr := json.Unmarshal(line, &req); uerr != nil {
				s.writeError(writer, nil, codeParseError, "Parse error")
			} else {
				s.handleRequest(ctx, writer, &req)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, writer *bufio.Writer, req *JSONRPCRequest) {
	s.log.Debug("Request", "method", req.Method)

	switch req.Method {
	case "initialize":
		s.handleInitialize(writer, req)
	case "tools/list":
		s.handleToolsList(writer, req)
	case "tools/call":
		s.handleToolsCall(ctx, writer, req)
	case "ping":
		s.writeResponse(writer, req.ID, map[string]interface{}{})
	default:
		// Notifications carry no id and get no reply.
		if req.ID == nil || strings.HasPrefix(req.Method, "notifications/") {
			return
		}
		s.writeError(writer, req.ID, codeMethodNotFound, "Method not found")
	}
}

func (s *Server) handleInitialize(writer *bufio.Writer, req *JSONRPCRequest) {
	result := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]string{
			"name":    "todoscan-mcp",
			"version": s.version,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]bool{},
		},
	}
	s.writeResponse(writer, req.ID, result)
}

func (s *Server) handleToolsList(writer *bufio.Writer, req *JSONRPCRequest) {
	tools := []map[string]interface{}{
		{
			"name":        "find_todos",
			"description": "List TODO comments in a file or directory of the project",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]string{"type": "string"},
				},
			},
		},
		{
			"name":        "search_todos",
			"description": "Search indexed TODO comments using a natural language query",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]string{"type": "string"},
					"top_k": map[string]string{"type": "integer"},
				},
				"required": []string{"query"},
			},
		},
	}
	s.writeResponse(writer, req.ID, map[string]interface{}{"tools": tools})
}

func (s *Server) handleToolsCall(ctx context.Context, writer *bufio.Writer, req *JSONRPCRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(writer, req.ID, codeInvalidParams, "Invalid params")
		return
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	var result interface{}
	var err error

	switch params.Name {
	case "find_todos":
		result, err = s.handleFindTodos(ctx, params.Arguments)
	case "search_todos":
		result, err = s.handleSearchTodos(ctx, params.Arguments)
	default:
		s.writeError(writer, req.ID, codeInvalidParams, "Unknown tool")
		return
	}

	if err != nil {
		var pe *paramsError
		if errors.As(err, &pe) {
			s.writeError(writer, req.ID, codeInvalidParams, err.Error())
			return
		}
		s.log.Error("Tool call failed", "tool", params.Name, "err", err)
		s.writeError(writer, req.ID, codeInternalError, err.Error())
		return
	}

	s.writeResponse(writer, req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": formatResult(result),
			},
		},
	})
}

type paramsError struct {
	msg string
}

func (e *paramsError) Error() string {
	return e.msg
}

func (s *Server) handleFindTodos(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, &paramsError{msg: "Invalid params"}
	}

	target, err := s.resolve(input.Path)
	if err != nil {
		return nil, err
	}
	return s.scanner.ScanPath(ctx, target)
}

// resolve maps a tool path onto the filesystem, rejecting paths that
// escape the server root.
func (s *Server) resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return s.root, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &paramsError{msg: fmt.Sprintf("path %q is outside %s", path, s.root)}
	}
	return path, nil
}

func (s *Server) handleSearchTodos(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var input struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, &paramsError{msg: "Invalid params"}
	}
	query := utils.NormalizeQuery(input.Query)
	if query == "" {
		return nil, &paramsError{msg: "query is required"}
	}
	if input.TopK <= 0 {
		input.TopK = 10
	}

	searcher, err := s.getSearcher()
	if err != nil {
		return nil, err
	}
	return searcher.Search(ctx, query, input.TopK)
}

func (s *Server) getSearcher() (Searcher, error) {
	s.searchOnce.Do(func() {
		if s.openSearcher == nil {
			s.searchErr = errors.New("search is not configured")
			return
		}
		s.searcher, s.searchErr = s.openSearcher()
	})
	return s.searcher, s.searchErr
}

func (s *Server) writeResponse(writer *bufio.Writer, id interface{}, result interface{}) {
	s.write(writer, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) writeError(writer *bufio.Writer, id interface{}, code int, message string) {
	s.write(writer, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
		},
	})
}

func (s *Server) write(writer *bufio.Writer, resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("Failed to encode response", "err", err)
		return
	}
	writer.Write(data)
	writer.WriteByte('\n')
	if err := writer.Flush(); err != nil {
		s.log.Error("Failed to write response", "err", err)
	}
}

func formatResult(result interface{}) string {
	data, _ := json.MarshalIndent(result, "", "  ")
	return string(data)
}
