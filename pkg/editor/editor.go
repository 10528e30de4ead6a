// Package editor applies programmatic mutations to a materialized document:
// structural insertion and erasure, value updates, and type re-ascription.
// Every value-affecting operation re-runs the same coercion rules the
// materializer used, updates local validity, and re-propagates contamination
// from the touched node upward. Operation failures are ordinary errors;
// nothing here panics.
package editor

import (
	"errors"
	"strings"

	"github.com/mesh-intelligence/lattice/pkg/document"
)

// ErrNotArray reports an array-element operation on a non-array value.
var ErrNotArray = errors.New("value is not an array")

// Editor mutates one document. Like the document itself it is single-writer;
// callers serialize access externally.
type Editor struct {
	doc *document.Document
	mut *document.Mutator
}

// New returns an editor over the given document.
func New(doc *document.Document) *Editor {
	return &Editor{doc: doc, mut: doc.Mutate()}
}

// Document returns the edited document.
func (e *Editor) Document() *document.Document { return e.doc }

// AddCategory appends a child category under parent.
func (e *Editor) AddCategory(parent document.CategoryID, name string) (document.CategoryID, error) {
	return e.mut.AddCategory(parent, name)
}

// InsertCategory places a child category relative to an existing sibling.
func (e *Editor) InsertCategory(parent document.CategoryID, name string, at document.CategoryAnchor) (document.CategoryID, error) {
	return e.mut.InsertCategory(parent, name, at)
}

// EraseCategory removes an empty category. Refused with ErrNotEmpty while
// children or items remain, and with ErrRootImmutable for the root.
func (e *Editor) EraseCategory(id document.CategoryID) error {
	return e.mut.EraseCategory(id)
}

// AddKey creates a key with an optional declared type. An empty typeToken
// infers the type from the literal's shape. An unrecognized typeToken is a
// caller error (ErrUnknownType); a recognized type the literal fails to
// coerce to retains the key with local validity false, exactly as authored
// input would.
func (e *Editor) AddKey(owner document.CategoryID, name, literal, typeToken string, at *document.Anchor) (document.KeyID, error) {
	k := document.Key{
		Name:       name,
		Origin:     document.OriginProgrammatic,
		LocalValid: true,
	}
	if typeToken == "" {
		k.TypeSource = document.TypeInferred
		k.Value = document.InferScalar(literal)
	} else {
		spec, ok := document.ParseTypeToken(typeToken)
		if !ok {
			return 0, document.ErrUnknownType
		}
		k.TypeSource = document.TypeDeclared
		k.DeclaredToken = typeToken
		k.Value, k.LocalValid = coerceDeclared(literal, spec)
	}
	id, err := e.mut.AddKey(owner, k, at)
	if err != nil {
		return 0, err
	}
	e.refreshKey(id)
	return id, nil
}

// SetKeyValue replaces a key's literal and revalidates it under the key's
// current type: the declared type when one is ascribed, fresh inference
// otherwise.
func (e *Editor) SetKeyValue(id document.KeyID, literal string) error {
	k, ok := e.mut.KeyNode(id)
	if !ok {
		return document.ErrNotFound
	}
	switch k.TypeSource {
	case document.TypeDeclared:
		spec, ok := document.ParseTypeToken(k.DeclaredToken)
		if !ok {
			// The declared token never resolved; the value stays a
			// retained string and the key stays invalid.
			k.Value = document.StringValue(literal)
			k.LocalValid = false
		} else {
			k.Value, k.LocalValid = coerceDeclared(literal, spec)
		}
	default:
		k.Value = document.InferScalar(literal)
		k.LocalValid = true
	}
	k.Edited = true
	e.refreshKey(id)
	return nil
}

// SetKeyType re-ascribes a key's type and revalidates the current literal
// under it. An empty token switches the key back to inference.
func (e *Editor) SetKeyType(id document.KeyID, typeToken string) error {
	k, ok := e.mut.KeyNode(id)
	if !ok {
		return document.ErrNotFound
	}
	raw := k.Value.Raw
	if typeToken == "" {
		k.TypeSource = document.TypeInferred
		k.DeclaredToken = ""
		k.Value = document.InferScalar(raw)
		k.LocalValid = true
	} else {
		spec, ok := document.ParseTypeToken(typeToken)
		if !ok {
			return document.ErrUnknownType
		}
		k.TypeSource = document.TypeDeclared
		k.DeclaredToken = typeToken
		k.Value, k.LocalValid = coerceDeclared(raw, spec)
	}
	k.Edited = true
	e.refreshKey(id)
	return nil
}

// EraseKey removes a key and lifts its contribution to contamination.
func (e *Editor) EraseKey(id document.KeyID) error {
	return e.mut.EraseKey(id)
}

// AppendElement adds one slot to an array-valued key.
func (e *Editor) AppendElement(id document.KeyID, raw string) error {
	return e.editArray(id, func(parts []string) ([]string, error) {
		return append(parts, raw), nil
	})
}

// SetElement replaces one slot of an array-valued key.
func (e *Editor) SetElement(id document.KeyID, index int, raw string) error {
	return e.editArray(id, func(parts []string) ([]string, error) {
		if index < 0 || index >= len(parts) {
			return nil, document.ErrIndexOutOfRange
		}
		parts[index] = raw
		return parts, nil
	})
}

// DeleteElement removes one slot of an array-valued key. Remaining slots
// shift down; an empty slot must be deleted, not merely blanked, to shrink
// the array.
func (e *Editor) DeleteElement(id document.KeyID, index int) error {
	return e.editArray(id, func(parts []string) ([]string, error) {
		if index < 0 || index >= len(parts) {
			return nil, document.ErrIndexOutOfRange
		}
		return append(parts[:index], parts[index+1:]...), nil
	})
}

// editArray rebuilds an array key's literal through edit and revalidates.
func (e *Editor) editArray(id document.KeyID, edit func([]string) ([]string, error)) error {
	k, ok := e.mut.KeyNode(id)
	if !ok {
		return document.ErrNotFound
	}
	if !k.Value.Spec.Array {
		return ErrNotArray
	}
	parts := make([]string, len(k.Value.Elements))
	for i, el := range k.Value.Elements {
		parts[i] = el.Raw
	}
	parts, err := edit(parts)
	if err != nil {
		return err
	}
	k.Value, _ = document.CoerceArray(strings.Join(parts, "|"), k.Value.Spec.Base)
	k.Edited = true
	e.refreshKey(id)
	return nil
}

// AddComment inserts a comment block.
func (e *Editor) AddComment(owner document.CategoryID, text string, at *document.Anchor) (document.BlockID, error) {
	return e.mut.AddBlock(owner, document.BlockComment, text, 0, at)
}

// AddParagraph inserts a paragraph block.
func (e *Editor) AddParagraph(owner document.CategoryID, text string, at *document.Anchor) (document.BlockID, error) {
	return e.mut.AddBlock(owner, document.BlockParagraph, text, 0, at)
}

// EraseBlock removes a comment or paragraph block.
func (e *Editor) EraseBlock(id document.BlockID) error {
	return e.mut.EraseBlock(id)
}

// refreshKey re-derives a key's source-set membership and re-propagates.
func (e *Editor) refreshKey(id document.KeyID) {
	k, ok := e.mut.KeyNode(id)
	if !ok {
		return
	}
	if keyIsSource(k) {
		e.mut.MarkKeySource(id)
	} else {
		e.mut.UnmarkKeySource(id)
	}
	e.mut.Propagate()
}

// keyIsSource reports whether a key belongs in the contamination ground
// truth: locally invalid, or carrying any invalid array element.
func keyIsSource(k *document.Key) bool {
	if !k.LocalValid {
		return true
	}
	for _, el := range k.Value.Elements {
		if !el.Valid {
			return true
		}
	}
	return false
}

// coerceDeclared applies the collapse-to-string policy for a declared type:
// scalar failures collapse and invalidate, array element failures keep the
// key valid (the slots carry their own flags).
func coerceDeclared(literal string, spec document.TypeSpec) (document.Value, bool) {
	if spec.Array {
		v, _ := document.CoerceArray(literal, spec.Base)
		return v, true
	}
	v, ok := document.CoerceScalar(literal, spec.Base)
	if !ok {
		return document.StringValue(literal), false
	}
	return v, true
}
