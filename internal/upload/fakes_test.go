package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portifolio/catalog/internal/config"
	"github.com/portifolio/catalog/internal/directory"
	"github.com/portifolio/catalog/internal/product"
	"github.com/portifolio/catalog/internal/storage"
)

// fakeBlobs is an in-memory BlobStore honoring the same contract as the MinIO
// implementation: generated ids, full persist before return, not-found on
// missing ids, idempotent-in-effect delete.
type fakeBlobs struct {
	mu          sync.Mutex
	objects     map[string][]byte
	writes      int
	failOnWrite int // fail the Nth write (0-based); -1 disables
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, failOnWrite: -1}
}

func (f *fakeBlobs) Write(_ context.Context, r io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.writes
	f.writes++
	if n == f.failOnWrite {
		return "", fmt.Errorf("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	f.objects[id] = data
	return id, nil
}

func (f *fakeBlobs) Read(_ context.Context, objectID string) (io.ReadCloser, storage.BlobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[objectID]
	if !ok {
		return nil, storage.BlobInfo{}, storage.ErrNotFound
	}
	info := storage.BlobInfo{ObjectID: objectID, Size: int64(len(data))}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (f *fakeBlobs) Delete(_ context.Context, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[objectID]; !ok {
		return storage.ErrNotFound
	}
	delete(f.objects, objectID)
	return nil
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// fakeDir is an in-memory Directory; by-name lookups return the most recently
// registered match.
type fakeDir struct {
	mu      sync.Mutex
	entries []*directory.Entry
}

func newFakeDir() *fakeDir {
	return &fakeDir{}
}

func (f *fakeDir) Register(_ context.Context, objectID, originalName, contentType string, size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ObjectID == objectID {
			return directory.ErrDuplicate
		}
	}
	f.entries = append(f.entries, &directory.Entry{
		ObjectID:     objectID,
		OriginalName: originalName,
		ContentType:  contentType,
		Size:         size,
		UploadedAt:   time.Now().UTC(),
	})
	return nil
}

func (f *fakeDir) FindByID(_ context.Context, objectID string) (*directory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ObjectID == objectID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (f *fakeDir) FindByName(_ context.Context, originalName string) (*directory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].OriginalName == originalName {
			clone := *f.entries[i]
			return &clone, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (f *fakeDir) Delete(_ context.Context, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.ObjectID == objectID {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return directory.ErrNotFound
}

func (f *fakeDir) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// fakeDocs is an in-memory Documents store with the repository's contract:
// appends are atomic and contiguous per batch, mutations serialize, and
// reorders run through product.ApplyOrder under the configured policy.
type fakeDocs struct {
	mu          sync.Mutex
	docs        map[string]*product.Document
	appendErr   error
	orderPolicy config.UnknownOrderIDPolicy
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]*product.Document{}, orderPolicy: config.OrderPolicyFail}
}

func cloneDoc(d *product.Document) *product.Document {
	c := *d
	c.Images = append([]product.ImageRef{}, d.Images...)
	return &c
}

func (f *fakeDocs) AppendImages(_ context.Context, code, description, group string, refs []product.ImageRef) (*product.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	d, ok := f.docs[code]
	if !ok {
		d = &product.Document{
			Code:        code,
			Description: description,
			Group:       group,
			Images:      []product.ImageRef{},
			CreatedAt:   time.Now().UTC(),
		}
		f.docs[code] = d
	}
	d.Images = append(d.Images, refs...)
	return cloneDoc(d), nil
}

func (f *fakeDocs) RemoveImage(_ context.Context, code, identifier string) (*product.ImageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[code]
	if !ok {
		return nil, product.ErrNotFound
	}
	for i, ref := range d.Images {
		if ref.Matches(identifier) {
			d.Images = append(d.Images[:i], d.Images[i+1:]...)
			return &ref, nil
		}
	}
	return nil, nil
}

func (f *fakeDocs) Reorder(_ context.Context, code string, order []string) (*product.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[code]
	if !ok {
		return nil, product.ErrNotFound
	}
	reordered, err := product.ApplyOrder(d.Images, order, f.orderPolicy)
	if err != nil {
		return nil, err
	}
	d.Images = reordered
	return cloneDoc(d), nil
}

func (f *fakeDocs) get(code string) *product.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[code]
	if !ok {
		return nil
	}
	return cloneDoc(d)
}

func (f *fakeDocs) seed(code string, refs ...product.ImageRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[code] = &product.Document{
		Code:      code,
		Images:    append([]product.ImageRef{}, refs...),
		CreatedAt: time.Now().UTC(),
	}
}
