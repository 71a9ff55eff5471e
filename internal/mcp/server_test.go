package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"todoscan/internal/index"
	"todoscan/internal/logging"
	"todoscan/internal/models"
	"todoscan/internal/scanner"
)

type fakeSearcher struct {
	query string
	topK  int
}

func (f *fakeSearcher) Search(_ context.Context, query string, topK int) ([]index.SearchHit, error) {
	f.query, f.topK = query, topK
	return []index.SearchHit{{Score: 0.9, Payload: models.TodoPayload{FilePath: "a.ts", Line: 1, Col: 1, Text: "TODO: cache"}}}, nil
}

func newTestServer(t *testing.T, open func() (Searcher, error)) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("// TODO: cache\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	sc := scanner.New(scanner.Options{NoCache: true, Logger: logging.Discard()})
	srv, err := NewServer(root, sc, open, "test", logging.Discard())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, root
}

func run(t *testing.T, srv *Server, requests ...string) []JSONRPCResponse {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(requests, "\n"))
	if err := srv.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var responses []JSONRPCResponse
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp JSONRPCResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("Unmarshal(%q): %v", line, err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func toolText(t *testing.T, resp JSONRPCResponse) string {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]interface{})
	return content[0].(map[string]interface{})["text"].(string)
}

func TestInitializeAndToolsList(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	responses := run(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}

	info := responses[0].Result.(map[string]interface{})
	if info["protocolVersion"] != protocolVersion {
		t.Fatalf("protocolVersion=%v", info["protocolVersion"])
	}

	tools := responses[1].Result.(map[string]interface{})["tools"].([]interface{})
	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	if strings.Join(names, ",") != "find_todos,search_todos" {
		t.Fatalf("tools=%v", names)
	}
}

func TestFindTodos(t *testing.T) {
	t.Parallel()

	srv, root := newTestServer(t, nil)
	responses := run(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"find_todos","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"find_todos","arguments":{"path":"src/a.ts"}}}`,
	)

	var reports []models.FileReport
	if err := json.Unmarshal([]byte(toolText(t, responses[0])), &reports); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(reports) != 1 || reports[0].Path != "src/a.ts" || len(reports[0].Todos) != 1 {
		t.Fatalf("project reports=%+v", reports)
	}

	reports = nil
	if err := json.Unmarshal([]byte(toolText(t, responses[1])), &reports); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := filepath.ToSlash(filepath.Join(srv.root, "src", "a.ts"))
	if len(reports) != 1 || reports[0].Path != want || reports[0].Todos[0].Text != "TODO: cache" {
		t.Fatalf("file reports=%+v, want path %s (root %s)", reports, want, root)
	}
}

func TestFindTodosRejectsEscapes(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	responses := run(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"find_todos","arguments":{"path":"../outside"}}}`,
	)
	if responses[0].Error == nil || responses[0].Error.Code != codeInvalidParams {
		t.Fatalf("response=%+v, want invalid params", responses[0])
	}
}

func TestSearchTodos(t *testing.T) {
	t.Parallel()

	fake := &fakeSearcher{}
	opened := 0
	srv, _ := newTestServer(t, func() (Searcher, error) {
		opened++
		return fake, nil
	})
	responses := run(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_todos","arguments":{"query":"  cache  misses "}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"search_todos","arguments":{"query":"x","top_k":3}}}`,
	)

	if !strings.Contains(toolText(t, responses[0]), "TODO: cache") {
		t.Fatalf("search result missing hit")
	}
	_ = toolText(t, responses[1])
	if opened != 1 {
		t.Fatalf("searcher opened %d times, want 1", opened)
	}
	if fake.query != "x" || fake.topK != 3 {
		t.Fatalf("last search query=%q topK=%d", fake.query, fake.topK)
	}
}

func TestSearchTodosErrors(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, func() (Searcher, error) {
		return nil, errors.New("qdrant unreachable")
	})
	responses := run(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_todos","arguments":{"query":""}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"search_todos","arguments":{"query":"cache"}}}`,
	)
	if responses[0].Error == nil || responses[0].Error.Code != codeInvalidParams {
		t.Fatalf("empty query response=%+v, want invalid params", responses[0])
	}
	if responses[1].Error == nil || responses[1].Error.Code != codeInternalError || !strings.Contains(responses[1].Error.Message, "unreachable") {
		t.Fatalf("unreachable response=%+v, want internal error", responses[1])
	}
}

func TestProtocolErrors(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, nil)
	responses := run(t, srv,
		`not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":"bad"}`,
	)

	want := []int{codeParseError, codeMethodNotFound, codeInvalidParams, codeInvalidParams}
	if len(responses) != len(want) {
		t.Fatalf("got %d responses, want %d", len(responses), len(want))
	}
	for i, code := range want {
		if responses[i].Error == nil || responses[i].Error.Code != code {
			t.Errorf("response %d=%+v, want code %d", i, responses[i], code)
		}
	}
}
