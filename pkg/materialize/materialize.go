package materialize

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/lattice/pkg/cst"
	"github.com/mesh-intelligence/lattice/pkg/document"
)

// DefaultMaxCategoryDepth bounds category nesting (root excluded) when the
// caller does not set one.
const DefaultMaxCategoryDepth = 16

// Options tunes the pass.
type Options struct {
	// MaxCategoryDepth bounds nesting depth, root excluded. Zero or
	// negative selects DefaultMaxCategoryDepth.
	MaxCategoryDepth int
}

// Result is the outcome of one pass: the populated document and the ordered
// diagnostic list. The document is always usable; diagnostics tell the
// caller how trustworthy it is.
type Result struct {
	Doc         *document.Document
	Diagnostics []Diagnostic
}

// Errors reports whether any non-warning diagnostic was recorded.
func (r *Result) Errors() bool {
	for _, d := range r.Diagnostics {
		if !d.Warning {
			return true
		}
	}
	return false
}

// Run materializes a concrete parse into a document. The pass is a single
// sweep in source order; every construct either lands in the document or is
// rejected with a diagnostic, and processing always continues.
func Run(tree *cst.Tree, opts Options) *Result {
	maxDepth := opts.MaxCategoryDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCategoryDepth
	}
	m := &pass{
		doc:      document.New(),
		maxDepth: maxDepth,
	}
	m.mut = m.doc.Mutate()
	m.stack = []document.CategoryID{m.doc.Root()}

	for _, n := range tree.Nodes {
		if n.Kind != cst.KindTableRow {
			m.table = 0
		}
		switch n.Kind {
		case cst.KindCategoryOpen:
			m.stack = m.stack[:1]
			m.open(n)
		case cst.KindSubcategoryOpen:
			m.openSub(n)
		case cst.KindCategoryClose:
			m.close(n)
		case cst.KindKeyValue:
			m.key(n)
		case cst.KindTableHeader:
			m.header(n)
		case cst.KindTableRow:
			m.row(n)
		case cst.KindComment:
			m.block(n, document.BlockComment)
		case cst.KindParagraph:
			m.block(n, document.BlockParagraph)
		}
	}
	m.mut.Propagate()
	return &Result{Doc: m.doc, Diagnostics: m.diags}
}

// Source parses and materializes raw text in one call.
func Source(src string, opts Options) *Result {
	return Run(cst.Parse(src), opts)
}

// pass holds the sweep state: the scope stack (index 0 is always root), the
// table currently accepting rows, and per-column inference bookkeeping.
type pass struct {
	doc      *document.Document
	mut      *document.Mutator
	maxDepth int
	stack    []document.CategoryID
	diags    []Diagnostic

	table     document.TableID
	tableCols []document.ColumnID
	inferCols []bool // columns still awaiting first-row inference
	firstRow  bool
}

func (m *pass) errorf(kind string, line int, format string, args ...any) {
	m.diags = append(m.diags, Diagnostic{Kind: kind, Line: line, Message: fmt.Sprintf(format, args...)})
}

func (m *pass) warnf(kind string, line int, format string, args ...any) {
	m.diags = append(m.diags, Diagnostic{Kind: kind, Line: line, Message: fmt.Sprintf(format, args...), Warning: true})
}

func (m *pass) top() document.CategoryID { return m.stack[len(m.stack)-1] }

// depth is the nesting depth of the current scope, root excluded.
func (m *pass) depth() int { return len(m.stack) - 1 }

// open handles a top-level category open. The caller has already reset the
// stack to root, so the new category is a root-level sibling.
func (m *pass) open(n cst.Node) {
	m.push(n, m.doc.Root())
}

// openSub handles ":name". Opening directly under root is invalid; nothing
// is created, scope is unchanged, and later lines attach to the prior scope.
func (m *pass) openSub(n cst.Node) {
	if m.top() == m.doc.Root() {
		m.mut.ConsumeCategoryID()
		m.errorf(KindInvalidSubcategory, n.Line, "subcategory %q cannot open directly under root", n.Name)
		return
	}
	m.push(n, m.top())
}

// push creates a category under parent and enters it, enforcing the depth
// bound and sibling-name uniqueness. Rejected opens burn their ID and leave
// scope at the last valid frame.
func (m *pass) push(n cst.Node, parent document.CategoryID) {
	if m.depth()+1 > m.maxDepth {
		m.mut.ConsumeCategoryID()
		m.errorf(KindDepthExceeded, n.Line, "category %q exceeds maximum nesting depth %d", n.Name, m.maxDepth)
		return
	}
	id, err := m.mut.AddCategory(parent, n.Name)
	if err != nil {
		if errors.Is(err, document.ErrDuplicateCategory) {
			m.errorf(KindInvalidCategoryOpen, n.Line, "category %q already exists in this scope", n.Name)
		} else {
			m.errorf(KindInvalidCategoryOpen, n.Line, "category %q cannot be created: %v", n.Name, err)
		}
		return
	}
	m.stack = append(m.stack, id)
}

// close handles "/" and "/name". A named close searches the open frames
// top-down and pops everything down to and including the match in one step;
// an unmatched name leaves the stack untouched.
func (m *pass) close(n cst.Node) {
	if n.Name == "" {
		if len(m.stack) <= 1 {
			m.errorf(KindInvalidCategoryClose, n.Line, "no open category to close")
			return
		}
		m.stack = m.stack[:len(m.stack)-1]
		return
	}
	for i := len(m.stack) - 1; i >= 1; i-- {
		c, ok := m.doc.Category(m.stack[i])
		if ok && c.Name == n.Name {
			m.stack = m.stack[:i]
			return
		}
	}
	m.errorf(KindInvalidCategoryClose, n.Line, "no open category named %q", n.Name)
}

// key handles "name[:type] = literal". Coercion failures collapse the value
// to string and keep the original literal; the key is retained either way
// unless its name collides.
func (m *pass) key(n cst.Node) {
	k := document.Key{
		Name:       n.Name,
		Origin:     document.OriginAuthored,
		LocalValid: true,
		Line:       n.Line,
	}
	var invalidSlots []int

	switch {
	case n.TypeToken == "":
		k.TypeSource = document.TypeInferred
		k.Value = document.InferScalar(n.Value)

	default:
		k.TypeSource = document.TypeDeclared
		k.DeclaredToken = n.TypeToken
		spec, ok := document.ParseTypeToken(n.TypeToken)
		switch {
		case !ok:
			m.errorf(KindInvalidDeclaredType, n.Line, "key %q declares unrecognized type %q", n.Name, n.TypeToken)
			k.Value = document.StringValue(n.Value)
			k.LocalValid = false
		case spec.Array:
			if spec.Base == document.TypeDate {
				m.warnf(KindDateUnsupported, n.Line, "key %q: date values are recorded but not interpreted", n.Name)
			}
			k.Value, invalidSlots = document.CoerceArray(n.Value, spec.Base)
			for _, slot := range invalidSlots {
				m.errorf(KindInvalidArrayElement, n.Line, "key %q: element %d %q is not a valid %s",
					n.Name, slot+1, k.Value.Elements[slot].Raw, spec.Base)
			}
		default:
			if spec.Base == document.TypeDate {
				m.warnf(KindDateUnsupported, n.Line, "key %q: date values are recorded but not interpreted", n.Name)
			}
			v, ok := document.CoerceScalar(n.Value, spec.Base)
			if !ok {
				m.errorf(KindDeclaredTypeMismatch, n.Line, "key %q: literal %q is not a valid %s", n.Name, n.Value, spec.Base)
				k.Value = document.StringValue(n.Value)
				k.LocalValid = false
			} else {
				k.Value = v
			}
		}
	}

	id, err := m.mut.AddKey(m.top(), k, nil)
	if err != nil {
		if errors.Is(err, document.ErrDuplicateKey) {
			m.errorf(KindDuplicateKey, n.Line, "key %q already defined in this category", n.Name)
		} else {
			m.errorf(KindInvalidLiteral, n.Line, "key %q cannot be stored: %v", n.Name, err)
		}
		return
	}
	if !k.LocalValid || len(invalidSlots) > 0 {
		m.mut.MarkKeySource(id)
	}
}

// header opens a table in the current scope. Column types are validated
// here when declared; undeclared columns wait for first-row inference.
func (m *pass) header(n cst.Node) {
	tid, err := m.mut.AddTable(m.top(), n.Line, nil)
	if err != nil {
		m.errorf(KindInvalidCategoryOpen, n.Line, "table cannot be created: %v", err)
		return
	}
	m.table = tid
	m.tableCols = m.tableCols[:0]
	m.inferCols = m.inferCols[:0]
	m.firstRow = true

	for _, spec := range n.Columns {
		col := document.Column{
			Name:       spec.Name,
			LocalValid: true,
			Spec:       document.TypeSpec{Base: document.TypeString},
		}
		infer := spec.TypeToken == ""
		if infer {
			col.TypeSource = document.TypeInferred
		} else {
			col.TypeSource = document.TypeDeclared
			col.DeclaredToken = spec.TypeToken
			ts, ok := document.ParseTypeToken(spec.TypeToken)
			if !ok {
				m.errorf(KindUnknownType, n.Line, "column %q declares unrecognized type %q", spec.Name, spec.TypeToken)
				col.LocalValid = false
			} else {
				col.Spec = ts
				if ts.Base == document.TypeDate {
					m.warnf(KindDateUnsupported, n.Line, "column %q: date values are recorded but not interpreted", spec.Name)
				}
			}
		}
		cid, err := m.mut.AddColumn(tid, col)
		if err != nil {
			continue
		}
		m.tableCols = append(m.tableCols, cid)
		m.inferCols = append(m.inferCols, infer)
	}
}

// row attaches one data line to the open table. Arity mismatches keep the
// row, flagged locally invalid; they never block later rows. Cell coercion
// failures flag only the cell, contaminating the row.
func (m *pass) row(n cst.Node) {
	if m.table == 0 {
		// Rows reach here only behind a header; a stray row is free text.
		m.block(cst.Node{Line: n.Line, Text: joinCells(n.Cells)}, document.BlockParagraph)
		return
	}
	r := document.Row{
		Origin:     document.OriginAuthored,
		LocalValid: true,
		Line:       n.Line,
		Cells:      make([]document.Cell, len(n.Cells)),
	}
	if len(n.Cells) != len(m.tableCols) {
		m.errorf(KindColumnArityMismatch, n.Line, "row has %d cells, table has %d columns", len(n.Cells), len(m.tableCols))
		r.LocalValid = false
	}

	tainted := false
	for i, raw := range n.Cells {
		cell := document.Cell{Raw: raw, Valid: true, Value: document.StringValue(raw)}
		if i < len(m.tableCols) {
			col, _ := m.mut.ColumnNode(m.tableCols[i])
			if m.firstRow && m.inferCols[i] {
				col.Spec = document.TypeSpec{Base: document.Infer(raw)}
			}
			cell = m.coerceCell(n.Line, col, raw, &tainted)
		}
		r.Cells[i] = cell
	}
	m.firstRow = false

	id, err := m.mut.AddRow(m.table, r)
	if err != nil {
		return
	}
	if !r.LocalValid || tainted {
		m.mut.MarkRowSource(id)
	}
}

// coerceCell interprets one cell under its column's type. Columns with an
// unrecognized declared type carry their cells as plain strings.
func (m *pass) coerceCell(line int, col *document.Column, raw string, tainted *bool) document.Cell {
	cell := document.Cell{Raw: raw, Valid: true}
	if !col.LocalValid {
		cell.Value = document.StringValue(raw)
		return cell
	}
	if col.Spec.Array {
		v, invalid := document.CoerceArray(raw, col.Spec.Base)
		cell.Value = v
		for _, slot := range invalid {
			m.errorf(KindInvalidArrayElement, line, "column %q: element %d %q is not a valid %s",
				col.Name, slot+1, v.Elements[slot].Raw, col.Spec.Base)
		}
		if len(invalid) > 0 {
			*tainted = true
		}
		return cell
	}
	v, ok := document.CoerceScalar(raw, col.Spec.Base)
	if !ok {
		m.errorf(KindTypeMismatch, line, "column %q: cell %q is not a valid %s", col.Name, raw, col.Spec.Base)
		cell.Value = document.StringValue(raw)
		cell.Valid = false
		*tainted = true
		return cell
	}
	cell.Value = v
	return cell
}

// block attaches a comment or paragraph blob to the current scope.
func (m *pass) block(n cst.Node, kind document.BlockKind) {
	_, _ = m.mut.AddBlock(m.top(), kind, n.Text, n.Line, nil)
}

func joinCells(cells []string) string {
	out := ""
	for i, c := range cells {
		if i > 0 {
			out += "  "
		}
		out += c
	}
	return out
}
