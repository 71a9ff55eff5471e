package todo

import (
	"regexp"
	"strings"
	"unicode"
)

// ws is the whitespace class used by marker patterns: ASCII whitespace,
// space separators, the line/paragraph separators and the byte order mark.
const ws = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

// isSpace reports whether r belongs to ws.
func isSpace(r rune) bool {
	return r == '\uFEFF' || (unicode.IsSpace(r) && r != '\u0085')
}

// trimSpace trims ws from both ends of s.
func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// MarkerPattern recognizes a TODO marker at the start of a trimmed line.
type MarkerPattern struct {
	// Token is the marker text, e.g. "TODO: " or "@todo".
	Token string
	// TrailingSpace patterns tolerate leading whitespace and require
	// whitespace after Token. Otherwise Token is a literal line prefix.
	TrailingSpace bool

	re *regexp.Regexp
}

// LiteralMarker matches lines starting with prefix.
func LiteralMarker(prefix string) MarkerPattern {
	return MarkerPattern{
		Token: prefix,
		re:    regexp.MustCompile(`^` + regexp.QuoteMeta(prefix)),
	}
}

// DirectiveMarker matches lines starting with token followed by whitespace.
func DirectiveMarker(token string) MarkerPattern {
	return MarkerPattern{
		Token:         token,
		TrailingSpace: true,
		re:            regexp.MustCompile(`^` + ws + `*` + regexp.QuoteMeta(token) + ws),
	}
}

// Match reports whether line starts with the marker.
func (p MarkerPattern) Match(line string) bool {
	return p.re != nil && p.re.MatchString(line)
}

func (p MarkerPattern) String() string {
	return p.re.String()
}

type markerSet []MarkerPattern

// match reports whether any pattern matches; patterns are tried in order.
func (s markerSet) match(line string) bool {
	for _, p := range s {
		if p.Match(line) {
			return true
		}
	}
	return false
}

var (
	// plainMarkers apply to ordinary comments.
	plainMarkers = markerSet{LiteralMarker("TODO: ")}
	// docMarkers apply to unwrapped block-doc comments.
	docMarkers = markerSet{DirectiveMarker("@todo"), DirectiveMarker("TODO:")}
)

func literalMarkers(prefixes []string) markerSet {
	var set markerSet
	for _, prefix := range prefixes {
		if strings.TrimSpace(prefix) == "" {
			continue
		}
		set = append(set, LiteralMarker(prefix))
	}
	return set
}

func directiveMarkers(tokens []string) markerSet {
	var set markerSet
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		set = append(set, DirectiveMarker(token))
	}
	return set
}
