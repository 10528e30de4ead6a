package editor

import "github.com/mesh-intelligence/lattice/pkg/document"

// ColumnSpec describes one column for AddTable. An empty TypeToken leaves
// the column on string until re-ascribed.
type ColumnSpec struct {
	Name      string
	TypeToken string
}

// AddTable creates a table with the given columns. Unrecognized column type
// tokens are caller errors; nothing is created then (the table ID is still
// consumed when the failure happens after table creation is underway, so
// validation runs first).
func (e *Editor) AddTable(owner document.CategoryID, columns []ColumnSpec, at *document.Anchor) (document.TableID, error) {
	specs := make([]document.TypeSpec, len(columns))
	for i, c := range columns {
		if c.TypeToken == "" {
			specs[i] = document.TypeSpec{Base: document.TypeString}
			continue
		}
		ts, ok := document.ParseTypeToken(c.TypeToken)
		if !ok {
			return 0, document.ErrUnknownType
		}
		specs[i] = ts
	}
	tid, err := e.mut.AddTable(owner, 0, at)
	if err != nil {
		return 0, err
	}
	for i, c := range columns {
		col := document.Column{Name: c.Name, Spec: specs[i], LocalValid: true}
		if c.TypeToken == "" {
			col.TypeSource = document.TypeInferred
		} else {
			col.TypeSource = document.TypeDeclared
			col.DeclaredToken = c.TypeToken
		}
		if _, err := e.mut.AddColumn(tid, col); err != nil {
			return 0, err
		}
	}
	return tid, nil
}

// AddColumn appends a column to an existing table. Rows gain no cells, so
// every existing row is re-flagged for arity; previously clean rows become
// contamination sources.
func (e *Editor) AddColumn(table document.TableID, name, typeToken string) (document.ColumnID, error) {
	col := document.Column{Name: name, Spec: document.TypeSpec{Base: document.TypeString}, LocalValid: true}
	if typeToken == "" {
		col.TypeSource = document.TypeInferred
	} else {
		ts, ok := document.ParseTypeToken(typeToken)
		if !ok {
			return 0, document.ErrUnknownType
		}
		col.Spec = ts
		col.TypeSource = document.TypeDeclared
		col.DeclaredToken = typeToken
	}
	cid, err := e.mut.AddColumn(table, col)
	if err != nil {
		return 0, err
	}
	e.revalidateTable(table)
	return cid, nil
}

// EraseColumn removes a column from a rowless table.
func (e *Editor) EraseColumn(id document.ColumnID) error {
	return e.mut.EraseColumn(id)
}

// EraseTable removes an empty table.
func (e *Editor) EraseTable(id document.TableID) error {
	return e.mut.EraseTable(id)
}

// AppendRow adds a row of raw cells, coerced under the table's columns.
// Arity mismatches and cell coercion failures are retained and flagged, as
// in authored input.
func (e *Editor) AppendRow(table document.TableID, cells []string) (document.RowID, error) {
	t, ok := e.mut.TableNode(table)
	if !ok {
		return 0, document.ErrNotFound
	}
	r := document.Row{
		Origin:     document.OriginProgrammatic,
		LocalValid: len(cells) == len(t.Columns),
		Cells:      make([]document.Cell, len(cells)),
	}
	for i, raw := range cells {
		r.Cells[i] = e.coerceCellAt(t, i, raw)
	}
	id, err := e.mut.AddRow(table, r)
	if err != nil {
		return 0, err
	}
	e.refreshRow(id)
	return id, nil
}

// InsertRow places a row of raw cells at an anchor-relative position,
// coerced like AppendRow.
func (e *Editor) InsertRow(table document.TableID, cells []string, at document.RowAnchor) (document.RowID, error) {
	t, ok := e.mut.TableNode(table)
	if !ok {
		return 0, document.ErrNotFound
	}
	r := document.Row{
		Origin:     document.OriginProgrammatic,
		LocalValid: len(cells) == len(t.Columns),
		Cells:      make([]document.Cell, len(cells)),
	}
	for i, raw := range cells {
		r.Cells[i] = e.coerceCellAt(t, i, raw)
	}
	id, err := e.mut.InsertRow(table, r, at)
	if err != nil {
		return 0, err
	}
	e.refreshRow(id)
	return id, nil
}

// SetCell replaces one cell's literal and revalidates the row.
func (e *Editor) SetCell(row document.RowID, index int, raw string) error {
	r, ok := e.mut.RowNode(row)
	if !ok {
		return document.ErrNotFound
	}
	if index < 0 || index >= len(r.Cells) {
		return document.ErrIndexOutOfRange
	}
	t, ok := e.mut.TableNode(r.Owner)
	if !ok {
		return document.ErrNotFound
	}
	r.Cells[index] = e.coerceCellAt(t, index, raw)
	e.refreshRow(row)
	return nil
}

// EraseRow removes a row.
func (e *Editor) EraseRow(id document.RowID) error {
	return e.mut.EraseRow(id)
}

// SetColumnType re-ascribes a column's type and bulk-revalidates every cell
// in that column, which may contaminate previously clean rows.
func (e *Editor) SetColumnType(id document.ColumnID, typeToken string) error {
	col, ok := e.mut.ColumnNode(id)
	if !ok {
		return document.ErrNotFound
	}
	ts, ok := document.ParseTypeToken(typeToken)
	if !ok {
		return document.ErrUnknownType
	}
	col.Spec = ts
	col.TypeSource = document.TypeDeclared
	col.DeclaredToken = typeToken
	col.LocalValid = true
	e.revalidateTable(col.Owner)
	return nil
}

// coerceCellAt interprets a raw literal under the table's column at index.
// Cells past the column list (arity overflow) stay plain strings.
func (e *Editor) coerceCellAt(t *document.Table, index int, raw string) document.Cell {
	cell := document.Cell{Raw: raw, Valid: true, Value: document.StringValue(raw)}
	if index >= len(t.Columns) {
		return cell
	}
	col, ok := e.mut.ColumnNode(t.Columns[index])
	if !ok || !col.LocalValid {
		return cell
	}
	if col.Spec.Array {
		cell.Value, _ = document.CoerceArray(raw, col.Spec.Base)
		return cell
	}
	v, ok := document.CoerceScalar(raw, col.Spec.Base)
	if !ok {
		cell.Valid = false
		return cell
	}
	cell.Value = v
	return cell
}

// revalidateTable re-coerces every cell of every row against the current
// column layout and re-derives each row's flags and source membership.
func (e *Editor) revalidateTable(table document.TableID) {
	t, ok := e.mut.TableNode(table)
	if !ok {
		return
	}
	for _, rid := range t.Rows {
		r, ok := e.mut.RowNode(rid)
		if !ok {
			continue
		}
		r.LocalValid = len(r.Cells) == len(t.Columns)
		for i := range r.Cells {
			r.Cells[i] = e.coerceCellAt(t, i, r.Cells[i].Raw)
		}
		if rowIsSource(r) {
			e.mut.MarkRowSource(rid)
		} else {
			e.mut.UnmarkRowSource(rid)
		}
	}
	e.mut.Propagate()
}

// refreshRow re-derives one row's source-set membership and re-propagates.
func (e *Editor) refreshRow(id document.RowID) {
	r, ok := e.mut.RowNode(id)
	if !ok {
		return
	}
	if rowIsSource(r) {
		e.mut.MarkRowSource(id)
	} else {
		e.mut.UnmarkRowSource(id)
	}
	e.mut.Propagate()
}

// rowIsSource reports whether a row belongs in the contamination ground
// truth: locally invalid, or carrying an invalid cell or array element.
func rowIsSource(r *document.Row) bool {
	if !r.LocalValid {
		return true
	}
	for _, c := range r.Cells {
		if !c.Valid {
			return true
		}
		for _, el := range c.Value.Elements {
			if !el.Valid {
				return true
			}
		}
	}
	return false
}
