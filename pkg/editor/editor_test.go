package editor

import (
	"errors"
	"testing"

	"github.com/mesh-intelligence/lattice/pkg/document"
	"github.com/mesh-intelligence/lattice/pkg/materialize"
)

func newEditor(t *testing.T, src string) *Editor {
	t.Helper()
	res := materialize.Source(src, materialize.Options{})
	return New(res.Doc)
}

func mustKey(t *testing.T, e *Editor, cat document.CategoryID, name string) document.KeyID {
	t.Helper()
	id, ok := e.Document().FindKey(cat, name)
	if !ok {
		t.Fatalf("key %q not found", name)
	}
	return id
}

func TestAddKeyInfersType(t *testing.T) {
	e := newEditor(t, "")
	id, err := e.AddKey(e.Document().Root(), "port", "8080", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	k, _ := e.Document().Key(id)
	if k.Value.Spec.Base != document.TypeInt || k.Value.Int != 8080 {
		t.Errorf("value = %+v", k.Value)
	}
	if k.Origin != document.OriginProgrammatic {
		t.Error("editor keys are programmatic")
	}
}

func TestAddKeyUnknownTypeIsCallerError(t *testing.T) {
	e := newEditor(t, "")
	if _, err := e.AddKey(e.Document().Root(), "x", "1", "quaternion", nil); !errors.Is(err, document.ErrUnknownType) {
		t.Fatalf("err = %v, want unknown type", err)
	}
	if e.Document().KeyCount() != 0 {
		t.Error("nothing should be created")
	}
}

func TestAddKeyDeclaredMismatchRetained(t *testing.T) {
	e := newEditor(t, "")
	id, err := e.AddKey(e.Document().Root(), "n", "hello", "int", nil)
	if err != nil {
		t.Fatal(err)
	}
	k, _ := e.Document().Key(id)
	if k.LocalValid {
		t.Error("mismatching literal under a declared type is retained invalid")
	}
	if k.Value.Spec.Base != document.TypeString || k.Value.Raw != "hello" {
		t.Errorf("collapsed value = %+v", k.Value)
	}
	if e.Document().Clean() {
		t.Error("the key must register as a contamination source")
	}
}

func TestSetKeyValueRevalidates(t *testing.T) {
	e := newEditor(t, "n:int = hello\n")
	root := e.Document().Root()
	id := mustKey(t, e, root, "n")
	if e.Document().Clean() {
		t.Fatal("precondition: document starts contaminated")
	}

	if err := e.SetKeyValue(id, "42"); err != nil {
		t.Fatal(err)
	}
	k, _ := e.Document().Key(id)
	if !k.LocalValid || k.Value.Int != 42 {
		t.Errorf("key after fix = %+v", k)
	}
	if !k.Edited {
		t.Error("edited flag should be set")
	}
	if !e.Document().Clean() {
		t.Error("fixing the only source cleans the document")
	}

	// Breaking it again re-taints.
	if err := e.SetKeyValue(id, "nope"); err != nil {
		t.Fatal(err)
	}
	if e.Document().Clean() {
		t.Error("a fresh mismatch re-contaminates")
	}
}

func TestSetKeyValueUnderInferenceNeverFails(t *testing.T) {
	e := newEditor(t, "k = 1\n")
	id := mustKey(t, e, e.Document().Root(), "k")
	if err := e.SetKeyValue(id, "anything at all"); err != nil {
		t.Fatal(err)
	}
	k, _ := e.Document().Key(id)
	if !k.LocalValid || k.Value.Spec.Base != document.TypeString {
		t.Errorf("key = %+v", k)
	}
}

func TestSetKeyTypeReascription(t *testing.T) {
	e := newEditor(t, "k = 42\n")
	id := mustKey(t, e, e.Document().Root(), "k")

	if err := e.SetKeyType(id, "string"); err != nil {
		t.Fatal(err)
	}
	k, _ := e.Document().Key(id)
	if k.TypeSource != document.TypeDeclared || k.Value.Spec.Base != document.TypeString {
		t.Errorf("key = %+v", k)
	}

	// Back to inference: the literal's shape wins again.
	if err := e.SetKeyType(id, ""); err != nil {
		t.Fatal(err)
	}
	k, _ = e.Document().Key(id)
	if k.TypeSource != document.TypeInferred || k.Value.Spec.Base != document.TypeInt {
		t.Errorf("key = %+v", k)
	}

	if err := e.SetKeyType(id, "widget"); !errors.Is(err, document.ErrUnknownType) {
		t.Errorf("err = %v, want unknown type", err)
	}
}

func TestArrayElementOps(t *testing.T) {
	e := newEditor(t, "a:int[] = 1|2\n")
	id := mustKey(t, e, e.Document().Root(), "a")

	if err := e.AppendElement(id, "3"); err != nil {
		t.Fatal(err)
	}
	k, _ := e.Document().Key(id)
	if len(k.Value.Elements) != 3 || k.Value.Elements[2].Int != 3 {
		t.Fatalf("elements = %+v", k.Value.Elements)
	}

	// A bad element taints the key but keeps it locally valid.
	if err := e.SetElement(id, 1, "oops"); err != nil {
		t.Fatal(err)
	}
	k, _ = e.Document().Key(id)
	if !k.LocalValid {
		t.Error("element failure keeps the key locally valid")
	}
	if e.Document().Clean() {
		t.Error("invalid element is a contamination source")
	}

	// Deleting the bad slot shrinks the array and lifts the taint.
	if err := e.DeleteElement(id, 1); err != nil {
		t.Fatal(err)
	}
	k, _ = e.Document().Key(id)
	if len(k.Value.Elements) != 2 {
		t.Fatalf("elements = %+v", k.Value.Elements)
	}
	if !e.Document().Clean() {
		t.Error("removing the bad slot cleans the document")
	}

	if err := e.SetElement(id, 5, "x"); !errors.Is(err, document.ErrIndexOutOfRange) {
		t.Errorf("err = %v, want index out of range", err)
	}
}

func TestArrayOpsOnScalarRefused(t *testing.T) {
	e := newEditor(t, "k = 1\n")
	id := mustKey(t, e, e.Document().Root(), "k")
	if err := e.AppendElement(id, "2"); !errors.Is(err, ErrNotArray) {
		t.Errorf("err = %v, want not array", err)
	}
}

func TestBlocks(t *testing.T) {
	e := newEditor(t, "")
	root := e.Document().Root()
	bid, err := e.AddComment(root, "a note", nil)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Document().Block(bid)
	if b.Kind != document.BlockComment || b.Text != "a note" {
		t.Errorf("block = %+v", b)
	}
	if _, err := e.AddParagraph(root, "prose", nil); err != nil {
		t.Fatal(err)
	}
	if err := e.EraseBlock(bid); err != nil {
		t.Fatal(err)
	}
	cat, _ := e.Document().Category(root)
	if len(cat.Items) != 1 {
		t.Errorf("items = %v", cat.Items)
	}
}
