// Package document implements the entity storage for materialized lattice
// documents: the ownership tree of categories, keys, tables, columns, rows,
// and comment/paragraph blocks, the per-kind monotonic ID factories, and the
// contamination model. The document owns all nodes; the materializer and
// editor mutate them only through the Mutator capability.
package document

// Kind-scoped entity identifiers. IDs are minted monotonically per kind and
// never reused, even when the construct they were minted for is rejected.
// The zero value of each type means "no entity".
type (
	CategoryID int64
	KeyID      int64
	TableID    int64
	ColumnID   int64
	RowID      int64
	BlockID    int64
)

// TypeSource records whether an entity's value type was inferred from the
// literal's shape or declared with an explicit ":type" annotation.
type TypeSource int

const (
	TypeInferred TypeSource = iota
	TypeDeclared
)

// Origin records how an entity came into existence.
type Origin int

const (
	OriginAuthored Origin = iota
	OriginProgrammatic
)

// ItemKind discriminates the entries of a category's ordered item list.
type ItemKind int

const (
	ItemKey ItemKind = iota
	ItemTable
	ItemBlock
)

// Item is one entry in a category's authored-order item list. Exactly one
// of Key, Table, Block is set, matching Kind.
type Item struct {
	Kind  ItemKind
	Key   KeyID
	Table TableID
	Block BlockID
}

// Category is a named scope in the ownership tree. Child categories and
// owned items are kept in authored order. Contaminated is a derived cache;
// see Document.propagate.
type Category struct {
	ID           CategoryID
	Name         string
	Parent       CategoryID // zero for the root
	Children     []CategoryID
	Items        []Item
	LocalValid   bool
	Contaminated bool
}

// Key is a named typed value owned by a category. Names are unique within
// the owning category. DeclaredToken preserves the raw ":type" annotation
// text when TypeSource is TypeDeclared.
type Key struct {
	ID            KeyID
	Name          string
	Owner         CategoryID
	Value         Value
	TypeSource    TypeSource
	DeclaredToken string
	LocalValid    bool
	Contaminated  bool
	Origin        Origin
	Edited        bool
	Line          int
}

// Table is an ordered grid owned by a category.
type Table struct {
	ID           TableID
	Owner        CategoryID
	Columns      []ColumnID
	Rows         []RowID
	LocalValid   bool
	Contaminated bool
	Line         int
}

// Column is one header slot of a table. Index is the column's position.
// A column is locally invalid when its declared type token is unrecognized.
type Column struct {
	ID            ColumnID
	Owner         TableID
	Name          string
	Spec          TypeSpec
	TypeSource    TypeSource
	DeclaredToken string
	Index         int
	LocalValid    bool
}

// Cell is one value slot of a row, aligned to the column at the same index.
type Cell struct {
	Raw   string
	Value Value
	Valid bool
}

// Row is one data line of a table. A row whose cell count disagrees with
// the table's column count is retained with LocalValid false.
type Row struct {
	ID           RowID
	Owner        TableID
	Cells        []Cell
	LocalValid   bool
	Contaminated bool
	Origin       Origin
	Line         int
}

// BlockKind discriminates free-text blocks.
type BlockKind int

const (
	BlockComment BlockKind = iota
	BlockParagraph
)

// Block is a merged run of consecutive comment or paragraph lines.
type Block struct {
	ID    BlockID
	Owner CategoryID
	Kind  BlockKind
	Text  string
	Line  int
}
