package product

import (
	"context"
)

// Store is the persistence surface the service and the upload coordinator
// depend on. *Repository implements it; tests substitute an in-memory fake.
type Store interface {
	Upsert(ctx context.Context, code, description, group string) (*Document, error)
	GetByCode(ctx context.Context, code string) (*Document, error)
	AppendImages(ctx context.Context, code, description, group string, refs []ImageRef) (*Document, error)
	RemoveImage(ctx context.Context, code, identifier string) (*ImageRef, error)
	SetFlags(ctx context.Context, code, identifier string, approved, rejected bool) (*Document, error)
	Moderate(ctx context.Context, code, identifier string, action Action) (*Document, error)
	Reorder(ctx context.Context, code string, order []string) (*Document, error)
	Find(ctx context.Context, f Filter) ([]*Document, error)
}

// Service contains business logic for product documents and moderation.
type Service struct {
	store Store
}

// NewService creates a new product Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates the document for a product code if it does not exist.
// Description and group of an existing document are left untouched.
func (s *Service) Register(ctx context.Context, code, description, group string) (*Document, error) {
	return s.store.Upsert(ctx, code, description, group)
}

// Find lists products matching the filter.
func (s *Service) Find(ctx context.Context, f Filter) ([]*Document, error) {
	return s.store.Find(ctx, f)
}

// Moderate parses and applies a moderation action to one image reference.
func (s *Service) Moderate(ctx context.Context, code, identifier, action string) (*Document, error) {
	a, err := ParseAction(action)
	if err != nil {
		return nil, err
	}
	return s.store.Moderate(ctx, code, identifier, a)
}
