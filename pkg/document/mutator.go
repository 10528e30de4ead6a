package document

// Anchor addresses a position in a category's item list relative to an
// existing item. Insertions without an anchor append.
type Anchor struct {
	Item   Item
	Before bool
}

// Mutator is the single write capability over a document's storage. The
// materializer and editor hold one; everything else reads. Structural
// invariants (ownership lists, ID monotonicity, source-set membership) are
// maintained here, while validation policy stays with the callers.
type Mutator struct {
	d *Document
}

// Mutate returns the document's mutation capability.
func (d *Document) Mutate() *Mutator { return &Mutator{d: d} }

// ConsumeCategoryID burns one category ID without creating a category.
// Rejected category opens still advance the factory; IDs are never reused.
func (m *Mutator) ConsumeCategoryID() CategoryID {
	m.d.nextCategory++
	return m.d.nextCategory
}

// AddCategory creates a category under parent, appended to the parent's
// child list. The allocated ID is consumed even when creation fails with
// ErrDuplicateCategory or ErrNotFound.
func (m *Mutator) AddCategory(parent CategoryID, name string) (CategoryID, error) {
	id := m.ConsumeCategoryID()
	p, ok := m.d.categories[parent]
	if !ok {
		return 0, ErrNotFound
	}
	if _, exists := m.d.FindChild(parent, name); exists {
		return 0, ErrDuplicateCategory
	}
	c := &Category{ID: id, Name: name, Parent: parent, LocalValid: true}
	m.d.categories[id] = c
	p.Children = append(p.Children, id)
	return id, nil
}

// CategoryAnchor addresses a position in a parent's child-category list.
type CategoryAnchor struct {
	Sibling CategoryID
	Before  bool
}

// InsertCategory creates a category at an anchor-relative position among the
// parent's children. The allocated ID is consumed even on failure.
func (m *Mutator) InsertCategory(parent CategoryID, name string, at CategoryAnchor) (CategoryID, error) {
	id := m.ConsumeCategoryID()
	p, ok := m.d.categories[parent]
	if !ok {
		return 0, ErrNotFound
	}
	if _, exists := m.d.FindChild(parent, name); exists {
		return 0, ErrDuplicateCategory
	}
	pos := -1
	for i, cid := range p.Children {
		if cid == at.Sibling {
			pos = i
			if !at.Before {
				pos = i + 1
			}
			break
		}
	}
	if pos < 0 {
		return 0, ErrInvalidAnchor
	}
	c := &Category{ID: id, Name: name, Parent: parent, LocalValid: true}
	m.d.categories[id] = c
	p.Children = append(p.Children, 0)
	copy(p.Children[pos+1:], p.Children[pos:])
	p.Children[pos] = id
	return id, nil
}

// AddKey creates a key owned by the given category. The Name, Value,
// TypeSource, DeclaredToken, LocalValid, Origin, Edited, and Line fields of
// k are taken as given; ID and Owner are assigned here. The key ID is
// consumed even when the name collides (ErrDuplicateKey).
func (m *Mutator) AddKey(owner CategoryID, k Key, at *Anchor) (KeyID, error) {
	m.d.nextKey++
	id := m.d.nextKey
	c, ok := m.d.categories[owner]
	if !ok {
		return 0, ErrNotFound
	}
	if _, exists := m.d.FindKey(owner, k.Name); exists {
		return 0, ErrDuplicateKey
	}
	k.ID = id
	k.Owner = owner
	stored := k
	if err := m.insertItem(c, Item{Kind: ItemKey, Key: id}, at); err != nil {
		return 0, err
	}
	m.d.keys[id] = &stored
	return id, nil
}

// AddTable creates an empty table owned by the given category.
func (m *Mutator) AddTable(owner CategoryID, line int, at *Anchor) (TableID, error) {
	m.d.nextTable++
	id := m.d.nextTable
	c, ok := m.d.categories[owner]
	if !ok {
		return 0, ErrNotFound
	}
	t := &Table{ID: id, Owner: owner, LocalValid: true, Line: line}
	if err := m.insertItem(c, Item{Kind: ItemTable, Table: id}, at); err != nil {
		return 0, err
	}
	m.d.tables[id] = t
	return id, nil
}

// AddColumn appends a column to a table. Index is assigned from the current
// column count. Name, Spec, TypeSource, DeclaredToken, and LocalValid of c
// are taken as given.
func (m *Mutator) AddColumn(table TableID, c Column) (ColumnID, error) {
	m.d.nextColumn++
	id := m.d.nextColumn
	t, ok := m.d.tables[table]
	if !ok {
		return 0, ErrNotFound
	}
	c.ID = id
	c.Owner = table
	c.Index = len(t.Columns)
	stored := c
	m.d.columns[id] = &stored
	t.Columns = append(t.Columns, id)
	return id, nil
}

// AddRow appends a row to a table. Cells, LocalValid, Origin, and Line of r
// are taken as given.
func (m *Mutator) AddRow(table TableID, r Row) (RowID, error) {
	m.d.nextRow++
	id := m.d.nextRow
	t, ok := m.d.tables[table]
	if !ok {
		return 0, ErrNotFound
	}
	r.ID = id
	r.Owner = table
	stored := r
	m.d.rows[id] = &stored
	t.Rows = append(t.Rows, id)
	return id, nil
}

// RowAnchor addresses a position in a table's row list.
type RowAnchor struct {
	Sibling RowID
	Before  bool
}

// InsertRow places a row at an anchor-relative position among the table's
// rows. The allocated ID is consumed even on failure.
func (m *Mutator) InsertRow(table TableID, r Row, at RowAnchor) (RowID, error) {
	m.d.nextRow++
	id := m.d.nextRow
	t, ok := m.d.tables[table]
	if !ok {
		return 0, ErrNotFound
	}
	pos := -1
	for i, rid := range t.Rows {
		if rid == at.Sibling {
			pos = i
			if !at.Before {
				pos = i + 1
			}
			break
		}
	}
	if pos < 0 {
		return 0, ErrInvalidAnchor
	}
	r.ID = id
	r.Owner = table
	stored := r
	m.d.rows[id] = &stored
	t.Rows = append(t.Rows, 0)
	copy(t.Rows[pos+1:], t.Rows[pos:])
	t.Rows[pos] = id
	return id, nil
}

// AddBlock creates a comment or paragraph block owned by the given category.
func (m *Mutator) AddBlock(owner CategoryID, kind BlockKind, text string, line int, at *Anchor) (BlockID, error) {
	m.d.nextBlock++
	id := m.d.nextBlock
	c, ok := m.d.categories[owner]
	if !ok {
		return 0, ErrNotFound
	}
	b := &Block{ID: id, Owner: owner, Kind: kind, Text: text, Line: line}
	if err := m.insertItem(c, Item{Kind: ItemBlock, Block: id}, at); err != nil {
		return 0, err
	}
	m.d.blocks[id] = b
	return id, nil
}

// insertItem places an item in the owner's list, at the anchor position when
// one is given.
func (m *Mutator) insertItem(c *Category, it Item, at *Anchor) error {
	if at == nil {
		c.Items = append(c.Items, it)
		return nil
	}
	for i, existing := range c.Items {
		if existing != at.Item {
			continue
		}
		pos := i
		if !at.Before {
			pos = i + 1
		}
		c.Items = append(c.Items, Item{})
		copy(c.Items[pos+1:], c.Items[pos:])
		c.Items[pos] = it
		return nil
	}
	return ErrInvalidAnchor
}

// Mutable node access. These return the live nodes; callers that change
// validity-relevant state must follow up with MarkKeySource / UnmarkKeySource
// (or the row equivalents) and Propagate.

// KeyNode returns the mutable key node.
func (m *Mutator) KeyNode(id KeyID) (*Key, bool) { return m.d.Key(id) }

// RowNode returns the mutable row node.
func (m *Mutator) RowNode(id RowID) (*Row, bool) { return m.d.Row(id) }

// ColumnNode returns the mutable column node.
func (m *Mutator) ColumnNode(id ColumnID) (*Column, bool) { return m.d.Column(id) }

// TableNode returns the mutable table node.
func (m *Mutator) TableNode(id TableID) (*Table, bool) { return m.d.Table(id) }

// BlockNode returns the mutable block node.
func (m *Mutator) BlockNode(id BlockID) (*Block, bool) { return m.d.Block(id) }

// MarkKeySource records a key in the contamination ground truth.
func (m *Mutator) MarkKeySource(id KeyID) { m.d.invalidKeys[id] = struct{}{} }

// UnmarkKeySource removes a key from the ground truth after revalidation
// restored it. Policy-gated clearance is Document.ClearSource.
func (m *Mutator) UnmarkKeySource(id KeyID) { delete(m.d.invalidKeys, id) }

// MarkRowSource records a row in the contamination ground truth.
func (m *Mutator) MarkRowSource(id RowID) { m.d.invalidRows[id] = struct{}{} }

// UnmarkRowSource removes a row from the ground truth.
func (m *Mutator) UnmarkRowSource(id RowID) { delete(m.d.invalidRows, id) }

// Propagate recomputes every contamination flag from the source sets.
func (m *Mutator) Propagate() { m.d.propagate() }

// EraseKey removes a key, its item entry, and its source-set membership,
// then recomputes contamination. The freed ID is retired permanently.
func (m *Mutator) EraseKey(id KeyID) error {
	k, ok := m.d.keys[id]
	if !ok {
		return ErrNotFound
	}
	m.removeItem(k.Owner, Item{Kind: ItemKey, Key: id})
	delete(m.d.keys, id)
	delete(m.d.invalidKeys, id)
	m.d.propagate()
	return nil
}

// EraseRow removes a row from its table and the source set.
func (m *Mutator) EraseRow(id RowID) error {
	r, ok := m.d.rows[id]
	if !ok {
		return ErrNotFound
	}
	if t, ok := m.d.tables[r.Owner]; ok {
		t.Rows = removeID(t.Rows, id)
	}
	delete(m.d.rows, id)
	delete(m.d.invalidRows, id)
	m.d.propagate()
	return nil
}

// EraseColumn removes a column. Refused while the table still has rows,
// since their cells depend on the column layout.
func (m *Mutator) EraseColumn(id ColumnID) error {
	c, ok := m.d.columns[id]
	if !ok {
		return ErrNotFound
	}
	t, ok := m.d.tables[c.Owner]
	if !ok {
		return ErrNotFound
	}
	if len(t.Rows) > 0 {
		return ErrNotEmpty
	}
	t.Columns = removeID(t.Columns, id)
	delete(m.d.columns, id)
	for i, cid := range t.Columns {
		m.d.columns[cid].Index = i
	}
	return nil
}

// EraseTable removes a table. Refused while columns or rows remain.
func (m *Mutator) EraseTable(id TableID) error {
	t, ok := m.d.tables[id]
	if !ok {
		return ErrNotFound
	}
	if len(t.Rows) > 0 || len(t.Columns) > 0 {
		return ErrNotEmpty
	}
	m.removeItem(t.Owner, Item{Kind: ItemTable, Table: id})
	delete(m.d.tables, id)
	m.d.propagate()
	return nil
}

// EraseBlock removes a comment or paragraph block.
func (m *Mutator) EraseBlock(id BlockID) error {
	b, ok := m.d.blocks[id]
	if !ok {
		return ErrNotFound
	}
	m.removeItem(b.Owner, Item{Kind: ItemBlock, Block: id})
	delete(m.d.blocks, id)
	return nil
}

// EraseCategory removes an empty category. Refused for the root and for
// categories that still own children or items.
func (m *Mutator) EraseCategory(id CategoryID) error {
	c, ok := m.d.categories[id]
	if !ok {
		return ErrNotFound
	}
	if id == m.d.root {
		return ErrRootImmutable
	}
	if len(c.Children) > 0 || len(c.Items) > 0 {
		return ErrNotEmpty
	}
	if p, ok := m.d.categories[c.Parent]; ok {
		p.Children = removeID(p.Children, id)
	}
	delete(m.d.categories, id)
	m.d.propagate()
	return nil
}

// removeItem deletes one item entry from a category's ordered list.
func (m *Mutator) removeItem(owner CategoryID, it Item) {
	c, ok := m.d.categories[owner]
	if !ok {
		return
	}
	for i, existing := range c.Items {
		if existing == it {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// removeID deletes one ID from an ordered ID slice.
func removeID[T comparable](list []T, id T) []T {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
