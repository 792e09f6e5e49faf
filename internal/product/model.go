// Package product manages product documents: the per-product ordered list of
// image references with moderation flags, persisted as a JSONB column.
package product

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no product exists for the given code.
var ErrNotFound = errors.New("product not found")

// ErrImageNotFound is returned when no image reference in the product matches
// the given identifier.
var ErrImageNotFound = errors.New("image not found in product")

// ErrInvalidOrder is returned when a reorder request does not describe a
// permutation of the product's current image references.
var ErrInvalidOrder = errors.New("invalid image order")

// ImageRef is one element of a product's ordered image list. ObjectID refers
// to the stored blob; legacy entries may lack it and are addressed by Name
// alone. Name is the generated display name and doubles as the fallback
// identifier, so it is unique within a document by construction.
type ImageRef struct {
	ObjectID  string    `json:"objectId,omitempty"`
	Name      string    `json:"name"`
	Approved  bool      `json:"approved"`
	Rejected  bool      `json:"rejected"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identifier returns the canonical identifier callers should use to target
// this reference: the object id when present, otherwise the display name.
func (ref ImageRef) Identifier() string {
	if ref.ObjectID != "" {
		return ref.ObjectID
	}
	return ref.Name
}

// Matches reports whether identifier targets this reference. The object id is
// checked first, then the display name; no further guessing.
func (ref ImageRef) Matches(identifier string) bool {
	if ref.ObjectID != "" && ref.ObjectID == identifier {
		return true
	}
	return ref.Name == identifier
}

// Document is the aggregate record for one product code. The JSON field names
// follow the wire format the admin UI consumes (Portuguese descricao/grupo).
type Document struct {
	ID          string     `json:"-"`
	Code        string     `json:"id"`
	Description string     `json:"descricao"`
	Group       string     `json:"grupo"`
	Images      []ImageRef `json:"imagens"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Filter selects products by case-insensitive substring match on each
// non-empty field.
type Filter struct {
	Code        string
	Description string
	Group       string
}
