package todo

import (
	"strings"

	"todoscan/internal/parser"
)

// Kind is the branch of the extractor that handled a comment.
type Kind int

const (
	KindBlockDoc   Kind = iota + 1 // decorated documentation comment
	KindSingleLine                 // one-line comment that starts with a marker
	KindMultiLine                  // everything else
)

func (k Kind) String() string {
	switch k {
	case KindBlockDoc:
		return "block-doc"
	case KindSingleLine:
		return "single-line"
	case KindMultiLine:
		return "multi-line"
	default:
		return "unknown"
	}
}

// outcome is the tagged result of one strategy.
type outcome struct {
	kind     Kind
	findings []Finding
}

// strategy returns ok=false when the comment is not its shape.
type strategy func(e *Extractor, c parser.Comment) (out outcome, ok bool)

// strategies are tried in order; the first match owns the comment.
// multiLine always matches.
var strategies = []strategy{
	(*Extractor).blockDoc,
	(*Extractor).singleLine,
	(*Extractor).multiLine,
}

// Extractor turns comments into findings. The zero value is not usable;
// use NewExtractor.
type Extractor struct {
	plain markerSet
	doc   markerSet
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithPlainMarkers replaces the literal prefixes recognized in ordinary
// comments. Blank prefixes are ignored; an empty list keeps the default.
func WithPlainMarkers(prefixes ...string) Option {
	return func(e *Extractor) {
		if set := literalMarkers(prefixes); len(set) > 0 {
			e.plain = set
		}
	}
}

// WithDocMarkers replaces the directive tokens recognized in block-doc
// comments. Blank tokens are ignored; an empty list keeps the default.
func WithDocMarkers(tokens ...string) Option {
	return func(e *Extractor) {
		if set := directiveMarkers(tokens); len(set) > 0 {
			e.doc = set
		}
	}
}

// NewExtractor creates an extractor. Without options it recognizes
// "TODO: " in ordinary comments and "@todo"/"TODO:" in block-doc comments.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		plain: plainMarkers,
		doc:   docMarkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = NewExtractor()

// Signature identifies the marker configuration. Two extractors with the
// same signature produce the same findings.
func (e *Extractor) Signature() string {
	parts := make([]string, 0, len(e.plain)+len(e.doc))
	for _, p := range e.plain {
		parts = append(parts, "plain:"+p.String())
	}
	for _, p := range e.doc {
		parts = append(parts, "doc:"+p.String())
	}
	return strings.Join(parts, "\x00")
}

// Extract returns the findings of comments, in comment order and then in
// line order. The result is never nil.
func (e *Extractor) Extract(comments []parser.Comment) []Finding {
	findings := make([]Finding, 0)
	for _, c := range comments {
		findings = append(findings, e.extract(c).findings...)
	}
	return findings
}

// Classify reports which branch handles c.
func (e *Extractor) Classify(c parser.Comment) Kind {
	return e.extract(c).kind
}

func (e *Extractor) extract(c parser.Comment) outcome {
	for _, s := range strategies {
		if out, ok := s(e, c); ok {
			return out
		}
	}
	return outcome{}
}

func (e *Extractor) blockDoc(c parser.Comment) (outcome, bool) {
	text, ok := unwrapBlockDoc(c.Text)
	if !ok {
		return outcome{}, false
	}

	unwrapped := parser.Comment{
		Text:        text,
		StartLine:   c.StartLine,
		StartColumn: c.StartColumn,
		Kind:        c.Kind,
	}
	return outcome{kind: KindBlockDoc, findings: scanLines(unwrapped, e.doc)}, true
}

// singleLine handles one-line comments without splitting. Leading or
// trailing newlines must go through multiLine so the reported line stays
// on the marker.
func (e *Extractor) singleLine(c parser.Comment) (outcome, bool) {
	if strings.Contains(c.Text, "\n") {
		return outcome{}, false
	}

	text := trimSpace(c.Text)
	if !e.plain.match(text) {
		return outcome{}, false
	}
	return outcome{kind: KindSingleLine, findings: []Finding{newFinding(text, c, 0)}}, true
}

func (e *Extractor) multiLine(c parser.Comment) (outcome, bool) {
	return outcome{kind: KindMultiLine, findings: scanLines(c, e.plain)}, true
}

// DetectFromComments runs the default extractor over comments.
func DetectFromComments(comments []parser.Comment) []Finding {
	return defaultExtractor.Extract(comments)
}
