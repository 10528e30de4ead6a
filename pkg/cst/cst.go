// Package cst implements the concrete-syntax layer of the lattice format:
// a line classifier and a loss-less parser. The parser never rejects input;
// any line that does not match a structural form is retained as a comment
// (when //-prefixed) or a free-text paragraph. Scope resolution and type
// checking are deliberately absent here; they belong to materialization.
package cst

// Kind identifies the structural form of a Node.
type Kind int

const (
	// KindCategoryOpen is a top-level category open, "name:".
	KindCategoryOpen Kind = iota
	// KindSubcategoryOpen is a nested category open, ":name".
	KindSubcategoryOpen
	// KindCategoryClose is "/" (shorthand) or "/name" (named close).
	KindCategoryClose
	// KindTableHeader is "# col col:type ...".
	KindTableHeader
	// KindTableRow is a line of cells delimited by two or more spaces.
	KindTableRow
	// KindKeyValue is "name = literal" or "name:type = literal".
	KindKeyValue
	// KindComment is one or more consecutive //-prefixed lines.
	KindComment
	// KindParagraph is one or more consecutive unrecognized lines.
	KindParagraph
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCategoryOpen:
		return "category_open"
	case KindSubcategoryOpen:
		return "subcategory_open"
	case KindCategoryClose:
		return "category_close"
	case KindTableHeader:
		return "table_header"
	case KindTableRow:
		return "table_row"
	case KindKeyValue:
		return "key_value"
	case KindComment:
		return "comment"
	case KindParagraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// ColumnSpec is one token of a table header. TypeToken is the raw text after
// the colon, recorded without validation.
type ColumnSpec struct {
	Name      string
	TypeToken string
}

// Node is one construct in source order. Only the fields relevant to the
// node's Kind are populated:
//
//	CategoryOpen/SubcategoryOpen: Name
//	CategoryClose:                Name (empty for shorthand "/")
//	TableHeader:                  Columns
//	TableRow:                     Cells
//	KeyValue:                     Name, TypeToken (raw, may be empty), Value
//	Comment/Paragraph:            Text (consecutive lines joined by \n)
//
// Line is the 1-based source line of the node's first line.
type Node struct {
	Kind      Kind
	Line      int
	Name      string
	TypeToken string
	Value     string
	Columns   []ColumnSpec
	Cells     []string
	Text      string
}

// Tree is the loss-less concrete parse: every input line is accounted for by
// exactly one node, in source order.
type Tree struct {
	Nodes []Node
}
