package cst

import "strings"

// parser accumulates nodes from classified lines. It tracks exactly two
// pieces of state: a pending comment/paragraph blob and whether a table is
// open, so rows can be recognized without cross-category scope tracking.
type parser struct {
	nodes []Node

	blobKind  Kind // KindComment or KindParagraph when a blob is pending
	blobLines []string
	blobStart int

	inTable    bool
	tableArity int
}

// Parse converts source text into a loss-less Tree. It never fails: every
// line lands in exactly one node, with unrecognized material demoted to
// comments or paragraphs.
func Parse(src string) *Tree {
	p := &parser{}
	lineNo := 0
	for len(src) > 0 {
		lineNo++
		var line string
		if idx := strings.IndexByte(src, '\n'); idx >= 0 {
			line = src[:idx]
			src = src[idx+1:]
		} else {
			line = src
			src = ""
		}
		line = strings.TrimSuffix(line, "\r")
		p.feed(lineNo, line)
	}
	p.flushBlob()
	return &Tree{Nodes: p.nodes}
}

// feed processes one line. Structural lines flush any pending blob and close
// any open table; comment and paragraph lines merge into blobs.
func (p *parser) feed(lineNo int, raw string) {
	c := classify(raw)

	// A line inside an open table is a row when it is not otherwise
	// structural and splits into at least two cells (or the table has a
	// single column). Anything else ends the table and classifies normally.
	if p.inTable && (c.class == classText || c.class == classKeyValue) {
		cells := splitCells(raw)
		if len(cells) >= 2 || p.tableArity == 1 {
			p.flushBlob()
			p.nodes = append(p.nodes, Node{Kind: KindTableRow, Line: lineNo, Cells: cells})
			return
		}
	}

	switch c.class {
	case classBlank:
		p.flushBlob()
		p.inTable = false

	case classComment:
		p.inTable = false
		p.appendBlob(KindComment, lineNo, c.text)

	case classText:
		p.inTable = false
		p.appendBlob(KindParagraph, lineNo, c.text)

	case classCategoryOpen:
		p.structural(Node{Kind: KindCategoryOpen, Line: lineNo, Name: c.name})

	case classSubcategoryOpen:
		p.structural(Node{Kind: KindSubcategoryOpen, Line: lineNo, Name: c.name})

	case classCategoryClose:
		p.structural(Node{Kind: KindCategoryClose, Line: lineNo, Name: c.name})

	case classKeyValue:
		p.structural(Node{Kind: KindKeyValue, Line: lineNo, Name: c.name, TypeToken: c.typeToken, Value: c.value})

	case classTableHeader:
		p.flushBlob()
		p.inTable = true
		p.tableArity = len(c.columns)
		p.nodes = append(p.nodes, Node{Kind: KindTableHeader, Line: lineNo, Columns: c.columns})
	}
}

// structural appends a non-table structural node, flushing blob and table state.
func (p *parser) structural(n Node) {
	p.flushBlob()
	p.inTable = false
	p.nodes = append(p.nodes, n)
}

// appendBlob merges a comment or paragraph line into the pending blob,
// flushing first if the pending blob has the other kind.
func (p *parser) appendBlob(kind Kind, lineNo int, text string) {
	if len(p.blobLines) > 0 && p.blobKind != kind {
		p.flushBlob()
	}
	if len(p.blobLines) == 0 {
		p.blobKind = kind
		p.blobStart = lineNo
	}
	p.blobLines = append(p.blobLines, text)
}

// flushBlob emits the pending comment/paragraph blob, if any.
func (p *parser) flushBlob() {
	if len(p.blobLines) == 0 {
		return
	}
	p.nodes = append(p.nodes, Node{
		Kind: p.blobKind,
		Line: p.blobStart,
		Text: strings.Join(p.blobLines, "\n"),
	})
	p.blobLines = nil
}
