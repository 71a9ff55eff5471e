package todo

import (
	"strings"

	"todoscan/internal/parser"
)

// scanLines reports every line of c.Text whose trimmed content starts with
// one of markers. Lines are numbered from the raw body, so surrounding
// blank lines and indentation never shift the reported line.
func scanLines(c parser.Comment, markers markerSet) []Finding {
	var findings []Finding
	for i, line := range strings.Split(c.Text, "\n") {
		trimmed := trimSpace(line)
		if !markers.match(trimmed) {
			continue
		}
		findings = append(findings, newFinding(trimmed, c, i))
	}
	return findings
}

func newFinding(text string, c parser.Comment, offset int) Finding {
	return Finding{
		Text: text,
		Loc: Location{
			Line: c.StartLine + offset,
			Col:  c.StartColumn + 1,
		},
	}
}
