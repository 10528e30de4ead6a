package cst

import "strings"

// lineClass is the classifier's verdict on a single line, before the parser
// applies table context and blob merging.
type lineClass int

const (
	classBlank lineClass = iota
	classComment
	classCategoryOpen
	classSubcategoryOpen
	classCategoryClose
	classTableHeader
	classKeyValue
	classText
)

// classified carries the classifier output for one line.
type classified struct {
	class     lineClass
	name      string
	typeToken string
	value     string
	columns   []ColumnSpec
	text      string
}

// isIdent reports whether s is a lattice identifier: a letter or underscore
// followed by letters, digits, underscores, or hyphens. Dots are reserved
// for the query layer's path syntax.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9', r == '-':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// splitNameType splits "name" or "name:type" and reports whether the result
// is structurally well-formed. The type token itself is not validated.
func splitNameType(s string) (name, typeToken string, ok bool) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return s, "", isIdent(s)
	}
	name = s[:idx]
	typeToken = s[idx+1:]
	if !isIdent(name) || typeToken == "" || strings.ContainsAny(typeToken, " \t") {
		return "", "", false
	}
	return name, typeToken, true
}

// classify assigns a structural class to one line. The input is the line
// with trailing newline removed; leading and trailing whitespace is ignored
// for classification. Anything unrecognized is classText, never an error.
func classify(raw string) classified {
	line := strings.TrimSpace(raw)
	if line == "" {
		return classified{class: classBlank}
	}

	if strings.HasPrefix(line, "//") {
		text := strings.TrimPrefix(line, "//")
		text = strings.TrimPrefix(text, " ")
		return classified{class: classComment, text: text}
	}

	if strings.HasPrefix(line, "/") {
		rest := line[1:]
		if rest == "" {
			return classified{class: classCategoryClose}
		}
		if isIdent(rest) {
			return classified{class: classCategoryClose, name: rest}
		}
		return classified{class: classText, text: line}
	}

	if strings.HasPrefix(line, "#") {
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			return classified{class: classText, text: line}
		}
		cols := make([]ColumnSpec, 0, len(fields))
		for _, f := range fields {
			name, typeToken, ok := splitNameType(f)
			if !ok {
				return classified{class: classText, text: line}
			}
			cols = append(cols, ColumnSpec{Name: name, TypeToken: typeToken})
		}
		return classified{class: classTableHeader, columns: cols}
	}

	// Key-value takes precedence over category-open so "a:int = 5" is a key.
	if idx := strings.IndexByte(line, '='); idx >= 0 {
		lhs := strings.TrimSpace(line[:idx])
		name, typeToken, ok := splitNameType(lhs)
		if ok {
			value := strings.TrimSpace(line[idx+1:])
			return classified{class: classKeyValue, name: name, typeToken: typeToken, value: value}
		}
		return classified{class: classText, text: line}
	}

	if strings.HasSuffix(line, ":") {
		name := line[:len(line)-1]
		if isIdent(name) {
			return classified{class: classCategoryOpen, name: name}
		}
		return classified{class: classText, text: line}
	}

	if strings.HasPrefix(line, ":") {
		name := line[1:]
		if isIdent(name) {
			return classified{class: classSubcategoryOpen, name: name}
		}
		return classified{class: classText, text: line}
	}

	return classified{class: classText, text: line}
}

// splitCells splits a row line on runs of two or more spaces. Single spaces
// and tabs stay inside a cell; cells are trimmed of surrounding whitespace.
func splitCells(line string) []string {
	var cells []string
	var b strings.Builder
	run := 0
	flush := func() {
		cell := strings.TrimSpace(b.String())
		if cell != "" || b.Len() > 0 {
			cells = append(cells, cell)
		}
		b.Reset()
	}
	for _, r := range strings.TrimSpace(line) {
		if r == ' ' {
			run++
			if run < 2 {
				b.WriteRune(r)
			}
			continue
		}
		if run >= 2 {
			flush()
		}
		run = 0
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		flush()
	}
	return cells
}
