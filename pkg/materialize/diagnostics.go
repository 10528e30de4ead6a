// Package materialize implements the semantic pass over a concrete parse:
// scope resolution, type inference and declared-type validation, array
// building, and the two-tier soundness model (local validity plus
// upward-propagating contamination). It populates a document and collects
// an ordered diagnostic list; no diagnostic ever aborts the pass.
package materialize

import "fmt"

// Diagnostic kinds. Errors mark the construct they describe; the single
// warning kind (date_unsupported) does not affect validity.
const (
	KindUnknownType          = "unknown_type"
	KindTypeMismatch         = "type_mismatch"
	KindDeclaredTypeMismatch = "declared_type_mismatch"
	KindInvalidLiteral       = "invalid_literal"
	KindInvalidDeclaredType  = "invalid_declared_type"
	KindInvalidArrayElement  = "invalid_array_element"
	KindColumnArityMismatch  = "column_arity_mismatch"
	KindDuplicateKey         = "duplicate_key"
	KindInvalidSubcategory   = "invalid_subcategory"
	KindInvalidCategoryOpen  = "invalid_category_open"
	KindInvalidCategoryClose = "invalid_category_close"
	KindDepthExceeded        = "depth_exceeded"
	KindDateUnsupported      = "date_unsupported"
)

// Diagnostic is one recorded semantic finding, tied to the 1-based source
// line of the construct that produced it.
type Diagnostic struct {
	Kind    string `json:"kind"`
	Line    int    `json:"line"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}

// String renders the diagnostic as "line N: kind: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Kind, d.Message)
}
