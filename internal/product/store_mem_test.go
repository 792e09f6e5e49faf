package product

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/portifolio/catalog/internal/config"
)

// memStore is an in-memory Store fake with the same locking contract as the
// SQL repository: one mutation at a time per store, validation under the lock.
// orderPolicy defaults to fail-hard, matching the repository's default.
type memStore struct {
	mu          sync.Mutex
	docs        map[string]*Document
	orderPolicy config.UnknownOrderIDPolicy
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]*Document{}, orderPolicy: config.OrderPolicyFail}
}

func cloneDoc(d *Document) *Document {
	c := *d
	c.Images = append([]ImageRef{}, d.Images...)
	return &c
}

func (s *memStore) upsertLocked(code, description, group string) *Document {
	if d, ok := s.docs[code]; ok {
		return d
	}
	d := &Document{
		ID:          fmt.Sprintf("mem-%d", len(s.docs)+1),
		Code:        code,
		Description: description,
		Group:       group,
		Images:      []ImageRef{},
		CreatedAt:   time.Now().UTC(),
	}
	s.docs[code] = d
	return d
}

func (s *memStore) Upsert(_ context.Context, code, description, group string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDoc(s.upsertLocked(code, description, group)), nil
}

func (s *memStore) GetByCode(_ context.Context, code string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[code]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(d), nil
}

func (s *memStore) AppendImages(_ context.Context, code, description, group string, refs []ImageRef) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.upsertLocked(code, description, group)
	d.Images = append(d.Images, refs...)
	return cloneDoc(d), nil
}

func (s *memStore) RemoveImage(_ context.Context, code, identifier string) (*ImageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[code]
	if !ok {
		return nil, ErrNotFound
	}
	idx := findRef(d.Images, identifier)
	if idx < 0 {
		return nil, nil
	}
	ref := d.Images[idx]
	d.Images = append(d.Images[:idx], d.Images[idx+1:]...)
	return &ref, nil
}

func (s *memStore) SetFlags(_ context.Context, code, identifier string, approved, rejected bool) (*Document, error) {
	return s.mutate(code, identifier, func(ref *ImageRef) error {
		ref.Approved = approved
		ref.Rejected = rejected
		return nil
	})
}

func (s *memStore) Moderate(_ context.Context, code, identifier string, action Action) (*Document, error) {
	return s.mutate(code, identifier, func(ref *ImageRef) error {
		approved, rejected, err := action.apply(ref.Approved, ref.Rejected)
		if err != nil {
			return err
		}
		ref.Approved = approved
		ref.Rejected = rejected
		return nil
	})
}

func (s *memStore) mutate(code, identifier string, fn func(*ImageRef) error) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[code]
	if !ok {
		return nil, ErrNotFound
	}
	idx := findRef(d.Images, identifier)
	if idx < 0 {
		return nil, ErrImageNotFound
	}
	if err := fn(&d.Images[idx]); err != nil {
		return nil, err
	}
	if d.Images[idx].Approved && d.Images[idx].Rejected {
		d.Images[idx].Rejected = false
	}
	return cloneDoc(d), nil
}

// Reorder delegates to ApplyOrder under the store's policy, like the SQL
// repository does inside its row lock.
func (s *memStore) Reorder(_ context.Context, code string, order []string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[code]
	if !ok {
		return nil, ErrNotFound
	}
	reordered, err := ApplyOrder(d.Images, order, s.orderPolicy)
	if err != nil {
		return nil, err
	}
	d.Images = reordered
	return cloneDoc(d), nil
}

func (s *memStore) Find(_ context.Context, f Filter) ([]*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match := func(haystack, needle string) bool {
		return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}
	out := []*Document{}
	for _, d := range s.docs {
		if match(d.Code, f.Code) && match(d.Description, f.Description) && match(d.Group, f.Group) {
			out = append(out, cloneDoc(d))
		}
	}
	return out, nil
}
