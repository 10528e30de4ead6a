// Package query resolves dot-paths over a materialized document. It is
// strictly read-only: resolution walks the category tree and never mutates.
//
// A path like "net.http.port" names categories left to right; the final
// segment may name either a key or a subcategory. Table selection inside a
// path (by predicate or ordinal) is a future extension and not addressed.
package query

import (
	"strings"

	"github.com/mesh-intelligence/lattice/pkg/document"
)

// RefKind discriminates what a path resolved to.
type RefKind int

const (
	RefCategory RefKind = iota
	RefKey
)

// Ref is a non-owning reference to the resolved node. It stays valid until
// the referenced node is erased.
type Ref struct {
	Kind     RefKind
	Category document.CategoryID
	Key      document.KeyID
}

// Resolve walks a dot-path from the root. Empty path resolves to the root
// category. Keys win over same-named subcategories on the final segment.
func Resolve(doc *document.Document, path string) (Ref, bool) {
	cur := doc.Root()
	if path == "" {
		return Ref{Kind: RefCategory, Category: cur}, true
	}
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		last := i == len(segments)-1
		if last {
			if kid, ok := doc.FindKey(cur, seg); ok {
				return Ref{Kind: RefKey, Key: kid}, true
			}
		}
		cid, ok := doc.FindChild(cur, seg)
		if !ok {
			return Ref{}, false
		}
		cur = cid
	}
	return Ref{Kind: RefCategory, Category: cur}, true
}

// Value resolves a path to a key's typed value.
func Value(doc *document.Document, path string) (document.Value, bool) {
	ref, ok := Resolve(doc, path)
	if !ok || ref.Kind != RefKey {
		return document.Value{}, false
	}
	k, ok := doc.Key(ref.Key)
	if !ok {
		return document.Value{}, false
	}
	return k.Value, true
}
