package document

import "errors"

// Entity and mutation errors.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicateKey      = errors.New("duplicate key name in category")
	ErrDuplicateCategory = errors.New("duplicate category name under parent")
	ErrNotEmpty          = errors.New("container still has dependents")
	ErrRootImmutable     = errors.New("root category cannot be erased or renamed")
	ErrClearanceDenied   = errors.New("contamination clearance denied")
	ErrInvalidAnchor     = errors.New("anchor does not belong to the target container")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrUnknownType       = errors.New("unrecognized type token")
)

// ContaminationSource identifies one entry of the document's contamination
// ground truth. Exactly one of Key and Row is non-zero.
type ContaminationSource struct {
	Key KeyID
	Row RowID
}

// ClearancePolicy decides whether a contamination source may be cleared.
// Policies are expected to be pure and synchronous. The default policy
// always permits clearance.
type ClearancePolicy func(src ContaminationSource) bool

// Document owns every entity of one materialized lattice document. It is the
// single-writer storage the materializer populates and the editor mutates;
// concurrent access must be serialized by the caller.
//
// The two source sets (keys and rows that carry invalid content) are the
// authoritative contamination ground truth. Every node's Contaminated flag
// is a cache recomputed from them by upward propagation; the flags are never
// set independently.
type Document struct {
	categories map[CategoryID]*Category
	keys       map[KeyID]*Key
	tables     map[TableID]*Table
	columns    map[ColumnID]*Column
	rows       map[RowID]*Row
	blocks     map[BlockID]*Block

	root CategoryID

	nextCategory CategoryID
	nextKey      KeyID
	nextTable    TableID
	nextColumn   ColumnID
	nextRow      RowID
	nextBlock    BlockID

	invalidKeys map[KeyID]struct{}
	invalidRows map[RowID]struct{}

	clearance ClearancePolicy
}

// New creates an empty document holding only the implicit root category.
func New() *Document {
	d := &Document{
		categories:  make(map[CategoryID]*Category),
		keys:        make(map[KeyID]*Key),
		tables:      make(map[TableID]*Table),
		columns:     make(map[ColumnID]*Column),
		rows:        make(map[RowID]*Row),
		blocks:      make(map[BlockID]*Block),
		invalidKeys: make(map[KeyID]struct{}),
		invalidRows: make(map[RowID]struct{}),
		clearance:   func(ContaminationSource) bool { return true },
	}
	d.nextCategory++
	root := &Category{ID: d.nextCategory, LocalValid: true}
	d.categories[root.ID] = root
	d.root = root.ID
	return d
}

// SetClearancePolicy installs the predicate gating contamination clearance.
// A nil policy restores the default (always permit).
func (d *Document) SetClearancePolicy(p ClearancePolicy) {
	if p == nil {
		p = func(ContaminationSource) bool { return true }
	}
	d.clearance = p
}

// Root returns the ID of the implicit root category.
func (d *Document) Root() CategoryID { return d.root }

// Category resolves a category ID. The returned node is owned by the
// document; treat it as read-only and mutate through Mutator.
func (d *Document) Category(id CategoryID) (*Category, bool) {
	c, ok := d.categories[id]
	return c, ok
}

// Key resolves a key ID.
func (d *Document) Key(id KeyID) (*Key, bool) {
	k, ok := d.keys[id]
	return k, ok
}

// Table resolves a table ID.
func (d *Document) Table(id TableID) (*Table, bool) {
	t, ok := d.tables[id]
	return t, ok
}

// Column resolves a column ID.
func (d *Document) Column(id ColumnID) (*Column, bool) {
	c, ok := d.columns[id]
	return c, ok
}

// Row resolves a row ID.
func (d *Document) Row(id RowID) (*Row, bool) {
	r, ok := d.rows[id]
	return r, ok
}

// Block resolves a comment/paragraph block ID.
func (d *Document) Block(id BlockID) (*Block, bool) {
	b, ok := d.blocks[id]
	return b, ok
}

// CategoryCount reports the number of live categories, root included.
func (d *Document) CategoryCount() int { return len(d.categories) }

// KeyCount reports the number of live keys.
func (d *Document) KeyCount() int { return len(d.keys) }

// FindChild returns the child of parent with the given name.
func (d *Document) FindChild(parent CategoryID, name string) (CategoryID, bool) {
	p, ok := d.categories[parent]
	if !ok {
		return 0, false
	}
	for _, cid := range p.Children {
		if c := d.categories[cid]; c != nil && c.Name == name {
			return cid, true
		}
	}
	return 0, false
}

// FindKey returns the key named name owned by the given category.
func (d *Document) FindKey(owner CategoryID, name string) (KeyID, bool) {
	c, ok := d.categories[owner]
	if !ok {
		return 0, false
	}
	for _, it := range c.Items {
		if it.Kind != ItemKey {
			continue
		}
		if k := d.keys[it.Key]; k != nil && k.Name == name {
			return it.Key, true
		}
	}
	return 0, false
}

// Clean reports whether the document is free of contamination sources.
func (d *Document) Clean() bool {
	return len(d.invalidKeys) == 0 && len(d.invalidRows) == 0
}

// Sources returns the current contamination sources, keys first. The slice
// is a snapshot; order within each kind is unspecified.
func (d *Document) Sources() []ContaminationSource {
	out := make([]ContaminationSource, 0, len(d.invalidKeys)+len(d.invalidRows))
	for id := range d.invalidKeys {
		out = append(out, ContaminationSource{Key: id})
	}
	for id := range d.invalidRows {
		out = append(out, ContaminationSource{Row: id})
	}
	return out
}

// ClearSource removes one contamination source after consulting the
// clearance policy, then recomputes every contamination flag. The node
// itself is retained; only its taint is lifted. Returns ErrClearanceDenied
// when the policy refuses, ErrNotFound when the source is not present.
func (d *Document) ClearSource(src ContaminationSource) error {
	switch {
	case src.Key != 0:
		if _, ok := d.invalidKeys[src.Key]; !ok {
			return ErrNotFound
		}
		if !d.clearance(src) {
			return ErrClearanceDenied
		}
		delete(d.invalidKeys, src.Key)
	case src.Row != 0:
		if _, ok := d.invalidRows[src.Row]; !ok {
			return ErrNotFound
		}
		if !d.clearance(src) {
			return ErrClearanceDenied
		}
		delete(d.invalidRows, src.Row)
	default:
		return ErrNotFound
	}
	d.propagate()
	return nil
}

// propagate recomputes every node's Contaminated flag from the source sets.
// Taint flows strictly upward: key -> owning category chain, row -> owning
// table -> owning category chain. A locally invalid node is a source but is
// not itself marked contaminated; a locally valid node that carries invalid
// content (an invalid array element or cell) is.
func (d *Document) propagate() {
	for _, c := range d.categories {
		c.Contaminated = false
	}
	for _, t := range d.tables {
		t.Contaminated = false
	}
	for _, k := range d.keys {
		k.Contaminated = false
	}
	for _, r := range d.rows {
		r.Contaminated = false
	}

	for id := range d.invalidKeys {
		k, ok := d.keys[id]
		if !ok {
			continue
		}
		if k.LocalValid {
			k.Contaminated = true
		}
		d.taintCategory(k.Owner)
	}
	for id := range d.invalidRows {
		r, ok := d.rows[id]
		if !ok {
			continue
		}
		if r.LocalValid {
			r.Contaminated = true
		}
		if t, ok := d.tables[r.Owner]; ok {
			t.Contaminated = true
			d.taintCategory(t.Owner)
		}
	}
}

// taintCategory marks a category and all its ancestors contaminated.
func (d *Document) taintCategory(id CategoryID) {
	for id != 0 {
		c, ok := d.categories[id]
		if !ok || c.Contaminated {
			return
		}
		c.Contaminated = true
		id = c.Parent
	}
}
