package parser

import (
	"errors"
	"reflect"
	"testing"
)

func TestGoParser(t *testing.T) {
	code := []byte(`package main

// TODO: wire flags
func main() {
	/* TODO: block */
}
`)

	parser := NewGoParser()
	comments, err := parser.ExtractComments("test.go", code)
	if err != nil {
		t.Fatalf("Failed to parse Go code: %v", err)
	}

	want := []Comment{
		{Text: " TODO: wire flags", StartLine: 3, StartColumn: 0, Kind: CommentLine},
		{Text: " TODO: block ", StartLine: 5, StartColumn: 1, Kind: CommentBlock},
	}
	if !reflect.DeepEqual(comments, want) {
		t.Fatalf("ExtractComments=%#v, want %#v", comments, want)
	}
}

func TestGoParserSyntaxError(t *testing.T) {
	_, err := NewGoParser().ExtractComments("bad.go", []byte("package main\n\nfunc {\n"))
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if synErr.Line != 3 {
		t.Errorf("SyntaxError.Line=%d, want 3", synErr.Line)
	}
}

func TestJavaScriptParser(t *testing.T) {
	code := []byte(`// line one
function add(a, b) {
  /* block
     body */
  return a + b; // trailing
}
`)

	comments, err := NewJavaScriptParser().ExtractComments("test.js", code)
	if err != nil {
		t.Fatalf("Failed to parse JavaScript code: %v", err)
	}

	want := []Comment{
		{Text: " line one", StartLine: 1, StartColumn: 0, Kind: CommentLine},
		{Text: " block\n     body ", StartLine: 3, StartColumn: 2, Kind: CommentBlock},
		{Text: " trailing", StartLine: 5, StartColumn: 16, Kind: CommentLine},
	}
	if !reflect.DeepEqual(comments, want) {
		t.Fatalf("ExtractComments=%#v, want %#v", comments, want)
	}
}

func TestJavaScriptParserNoComments(t *testing.T) {
	comments, err := NewJavaScriptParser().ExtractComments("test.js", []byte("console.log(null);\n"))
	if err != nil {
		t.Fatalf("Failed to parse JavaScript code: %v", err)
	}
	if comments == nil || len(comments) != 0 {
		t.Fatalf("ExtractComments=%#v, want empty non-nil slice", comments)
	}
}

func TestTypeScriptParser(t *testing.T) {
	code := []byte(`/**
 * @todo Type this properly
 */
export function greet(name: string): string {
    return name;
}
`)

	comments, err := NewTypeScriptParser().ExtractComments("test.ts", code)
	if err != nil {
		t.Fatalf("Failed to parse TypeScript code: %v", err)
	}

	want := []Comment{
		{Text: "*\n * @todo Type this properly\n ", StartLine: 1, StartColumn: 0, Kind: CommentBlock},
	}
	if !reflect.DeepEqual(comments, want) {
		t.Fatalf("ExtractComments=%#v, want %#v", comments, want)
	}
}

func TestTypeScriptParserSyntaxError(t *testing.T) {
	_, err := NewTypeScriptParser().ExtractComments("bad.ts", []byte("function (\n"))
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if synErr.Path != "bad.ts" || synErr.Language != LanguageTypeScript {
		t.Errorf("SyntaxError=%+v, want path bad.ts and language typescript", synErr)
	}
}

func TestTSXParser(t *testing.T) {
	code := []byte("const el = <div>{/* TODO: jsx */}</div>;\n")

	comments, err := NewTSXParser().ExtractComments("test.tsx", code)
	if err != nil {
		t.Fatalf("Failed to parse TSX code: %v", err)
	}

	want := []Comment{
		{Text: " TODO: jsx ", StartLine: 1, StartColumn: 17, Kind: CommentBlock},
	}
	if !reflect.DeepEqual(comments, want) {
		t.Fatalf("ExtractComments=%#v, want %#v", comments, want)
	}
}

func TestPythonParser(t *testing.T) {
	code := []byte(`def greet(name):
    """Not a comment"""
    x = 1  # TODO: fix
    return x
`)

	comments, err := NewPythonParser().ExtractComments("test.py", code)
	if err != nil {
		t.Fatalf("Failed to parse Python code: %v", err)
	}

	want := []Comment{
		{Text: " TODO: fix", StartLine: 3, StartColumn: 11, Kind: CommentLine},
	}
	if !reflect.DeepEqual(comments, want) {
		t.Fatalf("ExtractComments=%#v, want %#v", comments, want)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		filePath string
		expected Language
	}{
		{"main.go", LanguageGo},
		{"script.py", LanguagePython},
		{"app.js", LanguageJavaScript},
		{"component.jsx", LanguageJavaScript},
		{"module.mjs", LanguageJavaScript},
		{"types.ts", LanguageTypeScript},
		{"Types.TS", LanguageTypeScript},
		{"component.tsx", LanguageTSX},
		{"unknown.txt", ""},
	}

	for _, tt := range tests {
		result := DetectLanguage(tt.filePath)
		if result != tt.expected {
			t.Errorf("DetectLanguage(%s) = %s, expected %s", tt.filePath, result, tt.expected)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		name    string
		want    Language
		wantErr bool
	}{
		{"typescript", LanguageTypeScript, false},
		{" TSX ", LanguageTSX, false},
		{"ts", LanguageTypeScript, false},
		{".js", LanguageJavaScript, false},
		{"py", LanguagePython, false},
		{"cobol", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLanguage(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLanguage(%q) err=%v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLanguage(%q)=%q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFactory(t *testing.T) {
	factory := NewFactory()

	source, err := factory.GetSource(LanguageGo)
	if err != nil {
		t.Errorf("Failed to get Go source: %v", err)
	}
	if source.Language() != string(LanguageGo) {
		t.Errorf("Expected Go source, got %s", source.Language())
	}

	source, err = factory.GetSourceByFilePath("test.py")
	if err != nil {
		t.Errorf("Failed to get source by file path: %v", err)
	}
	if source.Language() != string(LanguagePython) {
		t.Errorf("Expected Python source, got %s", source.Language())
	}

	source, err = factory.GetSourceByFilePath("view.tsx")
	if err != nil {
		t.Errorf("Failed to get source by file path: %v", err)
	}
	if source.Language() != string(LanguageTSX) {
		t.Errorf("Expected TSX source, got %s", source.Language())
	}

	_, err = factory.GetSource("unsupported")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("Expected ErrUnsupportedLanguage, got %v", err)
	}
	_, err = factory.GetSourceByFilePath("README.md")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("Expected ErrUnsupportedLanguage, got %v", err)
	}
}
