package serialize

import (
	"testing"

	"github.com/mesh-intelligence/lattice/pkg/document"
	"github.com/mesh-intelligence/lattice/pkg/editor"
	"github.com/mesh-intelligence/lattice/pkg/materialize"
)

func TestTextLayout(t *testing.T) {
	src := "intro prose\n" +
		"// a note\n" +
		"net:\n" +
		"port:int = 8080\n" +
		":http\n" +
		"timeout = 30\n" +
		"/net\n" +
		"db:\n" +
		"# host  port:int\n" +
		"alpha  5432\n"
	res := materialize.Source(src, materialize.Options{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}

	want := "intro prose\n" +
		"// a note\n" +
		"net:\n" +
		"port:int = 8080\n" +
		":http\n" +
		"timeout = 30\n" +
		"/\n" +
		"db:\n" +
		"# host  port:int\n" +
		"alpha  5432\n"
	if got := Text(res.Doc); got != want {
		t.Errorf("Text() =\n%s\nwant:\n%s", got, want)
	}
}

func TestTableFollowedByProseKeepsSeparation(t *testing.T) {
	src := "# name\nalpha\n\nprose paragraph\n"
	res := materialize.Source(src, materialize.Options{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}

	out := Text(res.Doc)
	want := "# name\nalpha\n\nprose paragraph\n"
	if out != want {
		t.Fatalf("Text() =\n%q\nwant:\n%q", out, want)
	}
	// Without the separator, the single-column table would absorb the
	// paragraph as a row on reparse.
	again := materialize.Source(out, materialize.Options{})
	requireSameDocument(t, res.Doc, again.Doc)
}

func TestAdjacentSameKindBlocksKeepSeparation(t *testing.T) {
	for _, src := range []string{
		"prose before\n\nprose after a gap\n",
		"// first note\n\n// second note\n",
	} {
		res := materialize.Source(src, materialize.Options{})
		out := Text(res.Doc)
		if out != src {
			t.Errorf("Text() = %q, want %q", out, src)
		}
		again := materialize.Source(out, materialize.Options{})
		requireSameDocument(t, res.Doc, again.Doc)
	}
}

func TestRoundTripReproducesDocument(t *testing.T) {
	srcs := []string{
		"",
		"k = 1\n",
		"a:\nx = 1\n:b\ny:float = 2.5\narr:int[] = 1|2|3\n/\nz = true\nc:\nw = hi\n",
		"# name  score:float\nalpha  1.5\nbeta  2\n",
		"# name\nalpha\n\nprose paragraph\n",
		"# name\nalpha\n\nk = 1\n",
		"prose before\n\nprose after a gap\n",
		"// top comment\ncfg:\n// inner\nflag:bool = true\n",
		"cfg:\n// note\n\n// later note\nport = 80\n",
	}
	for _, src := range srcs {
		first := materialize.Source(src, materialize.Options{})
		if len(first.Diagnostics) != 0 {
			t.Fatalf("source %q: diagnostics = %v", src, first.Diagnostics)
		}
		out := Text(first.Doc)
		second := materialize.Source(out, materialize.Options{})
		if len(second.Diagnostics) != 0 {
			t.Errorf("source %q: reparse diagnostics = %v", src, second.Diagnostics)
			continue
		}
		requireSameDocument(t, first.Doc, second.Doc)
		if again := Text(second.Doc); again != out {
			t.Errorf("source %q: projection not stable:\nfirst:\n%s\nsecond:\n%s", src, out, again)
		}
	}
}

func TestEditedDocumentSerializes(t *testing.T) {
	res := materialize.Source("cfg:\nport = 80\n", materialize.Options{})
	e := editor.New(res.Doc)
	root := res.Doc.Root()
	cfg, _ := res.Doc.FindChild(root, "cfg")
	if _, err := e.AddKey(cfg, "host", "alpha", "string", nil); err != nil {
		t.Fatal(err)
	}

	out := Text(res.Doc)
	want := "cfg:\nport = 80\nhost:string = alpha\n"
	if out != want {
		t.Errorf("Text() =\n%s\nwant:\n%s", out, want)
	}
	again := materialize.Source(out, materialize.Options{})
	if len(again.Diagnostics) != 0 {
		t.Errorf("reparse diagnostics = %v", again.Diagnostics)
	}
	requireSameDocument(t, res.Doc, again.Doc)
}

// requireSameDocument walks both documents' ownership trees in parallel and
// compares every preserved field: category names, item order and kinds, key
// names and typed values, table columns and cell text, block kinds and text.
func requireSameDocument(t *testing.T, want, got *document.Document) {
	t.Helper()
	compareCategory(t, want, want.Root(), got, got.Root(), "<root>")
}

func compareCategory(t *testing.T, wd *document.Document, wid document.CategoryID, gd *document.Document, gid document.CategoryID, path string) {
	t.Helper()
	wc, _ := wd.Category(wid)
	gc, _ := gd.Category(gid)
	if wc.Name != gc.Name {
		t.Errorf("%s: name %q vs %q", path, wc.Name, gc.Name)
	}
	if len(wc.Items) != len(gc.Items) {
		t.Fatalf("%s: %d items vs %d", path, len(wc.Items), len(gc.Items))
	}
	for i := range wc.Items {
		wi, gi := wc.Items[i], gc.Items[i]
		if wi.Kind != gi.Kind {
			t.Fatalf("%s: item %d kind %v vs %v", path, i, wi.Kind, gi.Kind)
		}
		switch wi.Kind {
		case document.ItemKey:
			compareKey(t, wd, wi.Key, gd, gi.Key, path, i)
		case document.ItemTable:
			compareTable(t, wd, wi.Table, gd, gi.Table, path, i)
		case document.ItemBlock:
			wb, _ := wd.Block(wi.Block)
			gb, _ := gd.Block(gi.Block)
			if wb.Kind != gb.Kind || wb.Text != gb.Text {
				t.Errorf("%s: block %d = (%v, %q) vs (%v, %q)", path, i, wb.Kind, wb.Text, gb.Kind, gb.Text)
			}
		}
	}
	if len(wc.Children) != len(gc.Children) {
		t.Fatalf("%s: %d children vs %d", path, len(wc.Children), len(gc.Children))
	}
	for i := range wc.Children {
		child, _ := wd.Category(wc.Children[i])
		compareCategory(t, wd, wc.Children[i], gd, gc.Children[i], path+"."+child.Name)
	}
}

func compareKey(t *testing.T, wd *document.Document, wid document.KeyID, gd *document.Document, gid document.KeyID, path string, i int) {
	t.Helper()
	wk, _ := wd.Key(wid)
	gk, _ := gd.Key(gid)
	if wk.Name != gk.Name || wk.TypeSource != gk.TypeSource || wk.DeclaredToken != gk.DeclaredToken {
		t.Errorf("%s: key %d = %q/%v/%q vs %q/%v/%q",
			path, i, wk.Name, wk.TypeSource, wk.DeclaredToken, gk.Name, gk.TypeSource, gk.DeclaredToken)
	}
	if wk.Value.Spec != gk.Value.Spec || wk.Value.Raw != gk.Value.Raw {
		t.Errorf("%s: key %q value = %v %q vs %v %q",
			path, wk.Name, wk.Value.Spec, wk.Value.Raw, gk.Value.Spec, gk.Value.Raw)
	}
}

func compareTable(t *testing.T, wd *document.Document, wid document.TableID, gd *document.Document, gid document.TableID, path string, i int) {
	t.Helper()
	wt, _ := wd.Table(wid)
	gt, _ := gd.Table(gid)
	if len(wt.Columns) != len(gt.Columns) {
		t.Fatalf("%s: table %d has %d columns vs %d", path, i, len(wt.Columns), len(gt.Columns))
	}
	for c := range wt.Columns {
		wcol, _ := wd.Column(wt.Columns[c])
		gcol, _ := gd.Column(gt.Columns[c])
		if wcol.Name != gcol.Name || wcol.Spec != gcol.Spec || wcol.DeclaredToken != gcol.DeclaredToken {
			t.Errorf("%s: column %d = %q/%v/%q vs %q/%v/%q",
				path, c, wcol.Name, wcol.Spec, wcol.DeclaredToken, gcol.Name, gcol.Spec, gcol.DeclaredToken)
		}
	}
	if len(wt.Rows) != len(gt.Rows) {
		t.Fatalf("%s: table %d has %d rows vs %d", path, i, len(wt.Rows), len(gt.Rows))
	}
	for r := range wt.Rows {
		wrow, _ := wd.Row(wt.Rows[r])
		grow, _ := gd.Row(gt.Rows[r])
		if len(wrow.Cells) != len(grow.Cells) {
			t.Fatalf("%s: row %d has %d cells vs %d", path, r, len(wrow.Cells), len(grow.Cells))
		}
		for c := range wrow.Cells {
			if wrow.Cells[c].Raw != grow.Cells[c].Raw {
				t.Errorf("%s: row %d cell %d = %q vs %q", path, r, c, wrow.Cells[c].Raw, grow.Cells[c].Raw)
			}
		}
	}
}
