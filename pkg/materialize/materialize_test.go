package materialize

import (
	"testing"

	"github.com/mesh-intelligence/lattice/pkg/document"
)

// countKind tallies diagnostics of one kind.
func countKind(diags []Diagnostic, kind string) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func findKey(t *testing.T, doc *document.Document, owner document.CategoryID, name string) *document.Key {
	t.Helper()
	id, ok := doc.FindKey(owner, name)
	if !ok {
		t.Fatalf("key %q not found", name)
	}
	k, _ := doc.Key(id)
	return k
}

func childCategory(t *testing.T, doc *document.Document, parent document.CategoryID, name string) document.CategoryID {
	t.Helper()
	id, ok := doc.FindChild(parent, name)
	if !ok {
		t.Fatalf("category %q not found", name)
	}
	return id
}

func TestEmptyInputYieldsRootOnly(t *testing.T) {
	res := Source("", Options{})
	if res.Doc.CategoryCount() != 1 {
		t.Errorf("CategoryCount = %d, want 1", res.Doc.CategoryCount())
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", res.Diagnostics)
	}
}

func TestTopLevelCategoriesAreSiblings(t *testing.T) {
	res := Source("a:\n:x\nb:\nk = 1\n", Options{})
	root, _ := res.Doc.Category(res.Doc.Root())
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}
	// "b:" reset scope to root even though a.x was still open.
	b := childCategory(t, res.Doc, res.Doc.Root(), "b")
	findKey(t, res.Doc, b, "k")
}

func TestSubcategoryUnderRootRejected(t *testing.T) {
	res := Source(":orphan\nk = 1\n", Options{})
	if n := countKind(res.Diagnostics, KindInvalidSubcategory); n != 1 {
		t.Fatalf("invalid_subcategory count = %d", n)
	}
	if res.Doc.CategoryCount() != 1 {
		t.Errorf("CategoryCount = %d, want 1", res.Doc.CategoryCount())
	}
	// Subsequent lines still attach to the prior scope (root).
	findKey(t, res.Doc, res.Doc.Root(), "k")
}

func TestNamedCollapse(t *testing.T) {
	res := Source("a:\n  :b\n    :c\n  /a\nsib = 1\n", Options{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}
	// Closing a from within c collapses b and c in one step; the key lands
	// on a's parent, the root.
	findKey(t, res.Doc, res.Doc.Root(), "sib")

	a := childCategory(t, res.Doc, res.Doc.Root(), "a")
	b := childCategory(t, res.Doc, a, "b")
	childCategory(t, res.Doc, b, "c")
}

func TestUnmatchedNamedCloseLeavesScope(t *testing.T) {
	res := Source("a:\n/zzz\nk = 1\n", Options{})
	if n := countKind(res.Diagnostics, KindInvalidCategoryClose); n != 1 {
		t.Fatalf("invalid_category_close count = %d", n)
	}
	a := childCategory(t, res.Doc, res.Doc.Root(), "a")
	findKey(t, res.Doc, a, "k")
}

func TestShorthandCloseAtRoot(t *testing.T) {
	res := Source("/\n", Options{})
	if n := countKind(res.Diagnostics, KindInvalidCategoryClose); n != 1 {
		t.Fatalf("invalid_category_close count = %d", n)
	}
}

func TestDepthExceeded(t *testing.T) {
	res := Source("a:\n:b\n:c\nk = 1\nd:\n", Options{MaxCategoryDepth: 2})
	if n := countKind(res.Diagnostics, KindDepthExceeded); n != 1 {
		t.Fatalf("depth_exceeded count = %d, diags = %v", n, res.Diagnostics)
	}
	a := childCategory(t, res.Doc, res.Doc.Root(), "a")
	b := childCategory(t, res.Doc, a, "b")
	if _, ok := res.Doc.FindChild(b, "c"); ok {
		t.Error("third-level category must not be created")
	}
	// Scope reverted to b; the key attaches there.
	findKey(t, res.Doc, b, "k")
	// Constructs at valid depth still materialize.
	childCategory(t, res.Doc, res.Doc.Root(), "d")
}

func TestDuplicateSiblingCategory(t *testing.T) {
	res := Source("a:\na:\nk = 1\n", Options{})
	if n := countKind(res.Diagnostics, KindInvalidCategoryOpen); n != 1 {
		t.Fatalf("invalid_category_open count = %d", n)
	}
	// The rejected open left scope at root; the key attaches there.
	findKey(t, res.Doc, res.Doc.Root(), "k")
}

func TestTypeInference(t *testing.T) {
	res := Source("i = 42\nf = 2.5\nb = true\ns = hello there\n", Options{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}
	root := res.Doc.Root()
	tests := []struct {
		name string
		want document.ValueType
	}{
		{"i", document.TypeInt},
		{"f", document.TypeFloat},
		{"b", document.TypeBool},
		{"s", document.TypeString},
	}
	for _, tt := range tests {
		k := findKey(t, res.Doc, root, tt.name)
		if k.Value.Spec.Base != tt.want {
			t.Errorf("%s type = %v, want %v", tt.name, k.Value.Spec.Base, tt.want)
		}
		if k.TypeSource != document.TypeInferred {
			t.Errorf("%s type source = %v", tt.name, k.TypeSource)
		}
		if !k.LocalValid {
			t.Errorf("%s should be valid", tt.name)
		}
	}
}

func TestDeclaredTypeMismatchCollapsesToString(t *testing.T) {
	res := Source("a:int = hello\n", Options{})
	if res.Doc.KeyCount() != 1 {
		t.Fatalf("KeyCount = %d, want 1", res.Doc.KeyCount())
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != KindDeclaredTypeMismatch {
		t.Fatalf("diagnostics = %v, want one declared_type_mismatch", res.Diagnostics)
	}
	k := findKey(t, res.Doc, res.Doc.Root(), "a")
	if k.Value.Spec.Base != document.TypeString {
		t.Errorf("collapsed type = %v, want string", k.Value.Spec.Base)
	}
	if k.Value.Raw != "hello" {
		t.Errorf("raw = %q, data must be preserved", k.Value.Raw)
	}
	if k.LocalValid {
		t.Error("key should be locally invalid")
	}
	if k.DeclaredToken != "int" {
		t.Errorf("declared token = %q", k.DeclaredToken)
	}
	if res.Doc.Clean() {
		t.Error("document must carry the key as a contamination source")
	}
}

func TestUnrecognizedDeclaredType(t *testing.T) {
	res := Source("a:quaternion = 1\n", Options{})
	if n := countKind(res.Diagnostics, KindInvalidDeclaredType); n != 1 {
		t.Fatalf("invalid_declared_type count = %d", n)
	}
	k := findKey(t, res.Doc, res.Doc.Root(), "a")
	if k.LocalValid || k.Value.Spec.Base != document.TypeString || k.Value.Raw != "1" {
		t.Errorf("key = %+v", k)
	}
}

func TestDateDeclarationWarns(t *testing.T) {
	res := Source("d:date = 2024-01-02\n", Options{})
	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Kind != KindDateUnsupported || !d.Warning {
		t.Fatalf("diagnostic = %+v", d)
	}
	k := findKey(t, res.Doc, res.Doc.Root(), "d")
	if !k.LocalValid {
		t.Error("date keys stay valid")
	}
	if k.Value.Spec.Base != document.TypeDate || k.Value.Str != "2024-01-02" {
		t.Errorf("value = %+v", k.Value)
	}
	if !res.Doc.Clean() {
		t.Error("a warning must not contaminate")
	}
}

func TestArraySlotPreservation(t *testing.T) {
	res := Source("a:string[] = a||b|\n", Options{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}
	k := findKey(t, res.Doc, res.Doc.Root(), "a")
	if len(k.Value.Elements) != 4 {
		t.Fatalf("elements = %d, want 4", len(k.Value.Elements))
	}
	if !k.Value.Elements[1].Empty || !k.Value.Elements[3].Empty {
		t.Error("slots 2 and 4 should be empty-but-valid")
	}
	if !res.Doc.Clean() {
		t.Error("empty slots are not errors")
	}
}

func TestArrayElementFailureContaminatesKey(t *testing.T) {
	res := Source("a:int[] = 1|x|3\n", Options{})
	if n := countKind(res.Diagnostics, KindInvalidArrayElement); n != 1 {
		t.Fatalf("invalid_array_element count = %d", n)
	}
	k := findKey(t, res.Doc, res.Doc.Root(), "a")
	if !k.LocalValid {
		t.Error("element failure must not invalidate the key")
	}
	if !k.Contaminated {
		t.Error("element failure contaminates the key")
	}
	if res.Doc.Clean() {
		t.Error("key is a contamination source")
	}
}

func TestUndeclaredPipesStayOneString(t *testing.T) {
	res := Source("a = x|y|z\n", Options{})
	k := findKey(t, res.Doc, res.Doc.Root(), "a")
	if k.Value.Spec.Array {
		t.Error("undeclared arrays collapse to one string")
	}
	if k.Value.Str != "x|y|z" {
		t.Errorf("value = %q", k.Value.Str)
	}
}

func TestDuplicateKeyDiagnostic(t *testing.T) {
	res := Source("a = 1\na = 2\n", Options{})
	if n := countKind(res.Diagnostics, KindDuplicateKey); n != 1 {
		t.Fatalf("duplicate_key count = %d", n)
	}
	if res.Doc.KeyCount() != 1 {
		t.Errorf("KeyCount = %d, want 1", res.Doc.KeyCount())
	}
	k := findKey(t, res.Doc, res.Doc.Root(), "a")
	if k.Value.Raw != "1" {
		t.Errorf("first definition wins, raw = %q", k.Value.Raw)
	}
}

func TestColumnInferenceFromFirstRow(t *testing.T) {
	res := Source("# name  port\nalpha  8080\nbeta  not-a-number\n", Options{})
	if n := countKind(res.Diagnostics, KindTypeMismatch); n != 1 {
		t.Fatalf("type_mismatch count = %d, diags = %v", n, res.Diagnostics)
	}
	root, _ := res.Doc.Category(res.Doc.Root())
	var table *document.Table
	for _, it := range root.Items {
		if it.Kind == document.ItemTable {
			table, _ = res.Doc.Table(it.Table)
		}
	}
	if table == nil {
		t.Fatal("table not materialized")
	}
	port, _ := res.Doc.Column(table.Columns[1])
	if port.Spec.Base != document.TypeInt {
		t.Errorf("port type = %v, want int inferred from first row", port.Spec.Base)
	}
	second, _ := res.Doc.Row(table.Rows[1])
	if !second.LocalValid {
		t.Error("cell mismatch must not invalidate the row")
	}
	if second.Cells[1].Valid {
		t.Error("disagreeing cell is flagged per-cell")
	}
	if !table.Contaminated {
		t.Error("row taint reaches the table")
	}
}

func TestColumnArityMismatchRetained(t *testing.T) {
	res := Source("# a  b  c\n1  2\n4  5  6\n", Options{})
	if n := countKind(res.Diagnostics, KindColumnArityMismatch); n != 1 {
		t.Fatalf("column_arity_mismatch count = %d", n)
	}
	root, _ := res.Doc.Category(res.Doc.Root())
	var table *document.Table
	for _, it := range root.Items {
		if it.Kind == document.ItemTable {
			table, _ = res.Doc.Table(it.Table)
		}
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want both retained", len(table.Rows))
	}
	short, _ := res.Doc.Row(table.Rows[0])
	if short.LocalValid {
		t.Error("short row is locally invalid")
	}
	full, _ := res.Doc.Row(table.Rows[1])
	if !full.LocalValid {
		t.Error("later rows are unaffected")
	}
}

func TestUnknownColumnType(t *testing.T) {
	res := Source("# a:widget\nx\n", Options{})
	if n := countKind(res.Diagnostics, KindUnknownType); n != 1 {
		t.Fatalf("unknown_type count = %d", n)
	}
	root, _ := res.Doc.Category(res.Doc.Root())
	var table *document.Table
	for _, it := range root.Items {
		if it.Kind == document.ItemTable {
			table, _ = res.Doc.Table(it.Table)
		}
	}
	col, _ := res.Doc.Column(table.Columns[0])
	if col.LocalValid {
		t.Error("unknown declared type makes the column locally invalid")
	}
	// Cells under the broken column pass through as strings, unflagged.
	row, _ := res.Doc.Row(table.Rows[0])
	if !row.Cells[0].Valid {
		t.Error("cells under an invalid column are not themselves flagged")
	}
}

func TestCommentsAndParagraphsAttach(t *testing.T) {
	res := Source("a:\n// note\nfree prose here\n", Options{})
	a := childCategory(t, res.Doc, res.Doc.Root(), "a")
	cat, _ := res.Doc.Category(a)
	if len(cat.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(cat.Items))
	}
	first, _ := res.Doc.Block(cat.Items[0].Block)
	if first.Kind != document.BlockComment || first.Text != "note" {
		t.Errorf("block = %+v", first)
	}
	second, _ := res.Doc.Block(cat.Items[1].Block)
	if second.Kind != document.BlockParagraph {
		t.Errorf("block = %+v", second)
	}
}

func TestDiagnosticsNeverAbort(t *testing.T) {
	src := ":bad\nz:quux = 1\na = 1\na = 2\n# t:mystery\nrow1\n\ngood = yes\n"
	res := Source(src, Options{})
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}
	// The pass reached the end: the last key materialized.
	findKey(t, res.Doc, res.Doc.Root(), "good")
}
