// Package serialize projects a materialized document back to lattice text.
// The projection is deterministic and authored-order preserving: for an
// error-free, unedited document, parsing and materializing the output yields
// a document equal to the original in every preserved field.
package serialize

import (
	"strings"

	"github.com/mesh-intelligence/lattice/pkg/document"
)

// Text renders the document. Top-level categories open with "name:" (which
// resets scope on reparse, so they need no close); nested categories open
// with ":name" and close with "/". Within a category, owned items come out
// in authored order followed by child categories.
func Text(doc *document.Document) string {
	var b strings.Builder
	w := writer{doc: doc, b: &b}
	root, _ := doc.Category(doc.Root())
	w.items(root)
	for _, cid := range root.Children {
		c, ok := doc.Category(cid)
		if !ok {
			continue
		}
		w.line(c.Name + ":")
		w.category(c)
	}
	return b.String()
}

type writer struct {
	doc *document.Document
	b   *strings.Builder
}

func (w writer) line(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

// category renders a category's items then its children. The open line is
// the caller's job; nested children close themselves with "/".
func (w writer) category(c *document.Category) {
	w.items(c)
	for _, cid := range c.Children {
		child, ok := w.doc.Category(cid)
		if !ok {
			continue
		}
		w.line(":" + child.Name)
		w.category(child)
		w.line("/")
	}
}

func (w writer) items(c *document.Category) {
	for i, it := range c.Items {
		switch it.Kind {
		case document.ItemKey:
			if k, ok := w.doc.Key(it.Key); ok {
				w.key(k)
			}
		case document.ItemTable:
			if t, ok := w.doc.Table(it.Table); ok {
				w.table(t)
			}
		case document.ItemBlock:
			if blk, ok := w.doc.Block(it.Block); ok {
				w.block(blk)
			}
		}
		if i+1 < len(c.Items) && w.needGap(it, c.Items[i+1]) {
			w.line("")
		}
	}
}

// needGap reports whether a blank line must separate two adjacent items for
// the projection to reparse to the same document: an open table would absorb
// the next line as a row, and adjacent same-kind blocks would merge back into
// one. Blank lines produce no nodes, so the separator is loss-free.
func (w writer) needGap(cur, next document.Item) bool {
	if cur.Kind == document.ItemTable {
		return true
	}
	if cur.Kind != document.ItemBlock || next.Kind != document.ItemBlock {
		return false
	}
	a, ok := w.doc.Block(cur.Block)
	if !ok {
		return false
	}
	b, ok := w.doc.Block(next.Block)
	return ok && a.Kind == b.Kind
}

func (w writer) key(k *document.Key) {
	name := k.Name
	if k.TypeSource == document.TypeDeclared && k.DeclaredToken != "" {
		name += ":" + k.DeclaredToken
	}
	w.line(name + " = " + k.Value.Raw)
}

func (w writer) table(t *document.Table) {
	var b strings.Builder
	b.WriteByte('#')
	for _, cid := range t.Columns {
		col, ok := w.doc.Column(cid)
		if !ok {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(col.Name)
		if col.TypeSource == document.TypeDeclared && col.DeclaredToken != "" {
			b.WriteString(":" + col.DeclaredToken)
		}
	}
	w.line(b.String())
	for _, rid := range t.Rows {
		r, ok := w.doc.Row(rid)
		if !ok {
			continue
		}
		cells := make([]string, len(r.Cells))
		for i, cell := range r.Cells {
			cells[i] = cell.Raw
		}
		w.line(strings.Join(cells, "  "))
	}
}

func (w writer) block(blk *document.Block) {
	for _, line := range strings.Split(blk.Text, "\n") {
		if blk.Kind == document.BlockComment {
			if line == "" {
				w.line("//")
			} else {
				w.line("// " + line)
			}
			continue
		}
		w.line(line)
	}
}
