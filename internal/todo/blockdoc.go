package todo

import "strings"

// docSentinel opens a block-doc body ("/**" minus the "/*" delimiter) and
// decorates each of its continuation lines.
const docSentinel = "*"

// unwrapBlockDoc reports whether text is the body of a block-doc comment
// and, if so, returns it with the gutter stripped. Line count is preserved
// so findings keep their line offsets.
func unwrapBlockDoc(text string) (string, bool) {
	if !strings.HasPrefix(text, docSentinel) {
		return "", false
	}

	all := strings.Split(text, "\n")
	first, lines := all[0], all[1:]

	switch len(lines) {
	case 0:
		return text[len(docSentinel):], true
	case 1:
		// "/** text" followed by the indentation before "*/".
		if isBlank(lines[0]) {
			return text[len(docSentinel):], true
		}
		return "", false
	}

	gutter, ok := gutterOf(lines[0])
	if !ok {
		return "", false
	}

	middle, last := lines[:len(lines)-1], lines[len(lines)-1]
	for _, line := range middle[1:] {
		if !strings.HasPrefix(line, gutter) {
			return "", false
		}
	}
	// The closing "*/" is not part of text, so the last line keeps only
	// the gutter's indentation.
	if last != strings.TrimSuffix(gutter, docSentinel) {
		return "", false
	}

	unwrapped := make([]string, 0, len(all))
	unwrapped = append(unwrapped, first[len(docSentinel):])
	for _, line := range middle {
		unwrapped = append(unwrapped, line[len(gutter):])
	}
	unwrapped = append(unwrapped, "")
	return strings.Join(unwrapped, "\n"), true
}

// gutterOf returns the leading whitespace of line plus the decoration
// character that follows it.
func gutterOf(line string) (string, bool) {
	rest := strings.TrimLeftFunc(line, isSpace)
	if !strings.HasPrefix(rest, docSentinel) {
		return "", false
	}
	return line[:len(line)-len(rest)+len(docSentinel)], true
}

func isBlank(s string) bool {
	return trimSpace(s) == ""
}
