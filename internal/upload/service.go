// Package upload coordinates batch image uploads across the blob store, the
// object directory, and the product document store, and reconciles deletes
// and reorders across them.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/portifolio/catalog/internal/directory"
	"github.com/portifolio/catalog/internal/product"
	"github.com/portifolio/catalog/internal/storage"
)

// ErrNoFiles is returned when an upload batch contains no files.
var ErrNoFiles = errors.New("no files provided")

// BatchError reports which file of a batch failed. The batch is all-or-nothing
// at the document level: no references were appended.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upload failed at file %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Directory is the object-directory surface the coordinator depends on.
// *directory.Repository implements it; tests substitute an in-memory fake.
type Directory interface {
	Register(ctx context.Context, objectID, originalName, contentType string, size int64) error
	FindByID(ctx context.Context, objectID string) (*directory.Entry, error)
	FindByName(ctx context.Context, originalName string) (*directory.Entry, error)
	Delete(ctx context.Context, objectID string) error
}

// Documents is the slice of the product document store the coordinator
// writes to. *product.Repository implements it.
type Documents interface {
	AppendImages(ctx context.Context, code, description, group string, refs []product.ImageRef) (*product.Document, error)
	RemoveImage(ctx context.Context, code, identifier string) (*product.ImageRef, error)
	Reorder(ctx context.Context, code string, order []string) (*product.Document, error)
}

// File is one incoming payload of an upload batch.
type File struct {
	Reader       io.Reader
	OriginalName string
	ContentType  string
	Size         int64
}

// UploadedImage identifies one stored image of a successful batch.
type UploadedImage struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
}

// BatchResult is the outcome of a successful batch upload.
type BatchResult struct {
	Uploaded []UploadedImage   `json:"uploaded"`
	Document *product.Document `json:"document"`
}

// DeleteResult reports how far a cross-store image delete got. The reference
// removal is authoritative; a false BlobDeleted means blob cleanup is
// incomplete but non-fatal (stale reference is the preferred failure mode
// over an orphaned-but-referenced blob).
type DeleteResult struct {
	ReferenceRemoved bool `json:"referenceRemoved"`
	BlobDeleted      bool `json:"blobDeleted"`
}

// Coordinator writes uploads across the blob store, directory, and product
// document store. It is the only component (with the reconcile operations
// below) allowed to write to more than one store.
type Coordinator struct {
	blobs storage.BlobStore
	dir   Directory
	docs  Documents
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(blobs storage.BlobStore, dir Directory, docs Documents) *Coordinator {
	return &Coordinator{blobs: blobs, dir: dir, docs: docs}
}

// UploadBatch stores every file of the batch and atomically appends the
// resulting references to the product document, creating it if needed.
//
// A blob write failing mid-batch aborts the batch: nothing is appended and
// already-written blobs are deleted best-effort. If every write succeeds but
// the append itself fails, the blobs are deliberately kept — retrying the
// append is cheaper than re-uploading, and the directory still knows them.
func (c *Coordinator) UploadBatch(ctx context.Context, code, description, group string, files []File) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	var (
		refs     []product.ImageRef
		uploaded []UploadedImage
	)

	for i, f := range files {
		// A disconnected client cancels ctx; abort the rest of the batch
		// and run the same cleanup as a failed write.
		if err := ctx.Err(); err != nil {
			c.cleanup(uploaded)
			return nil, &BatchError{Index: i, Err: err}
		}

		objectID, err := c.blobs.Write(ctx, f.Reader, f.Size, f.ContentType)
		if err != nil {
			c.cleanup(uploaded)
			return nil, &BatchError{Index: i, Err: err}
		}

		if err := c.dir.Register(ctx, objectID, f.OriginalName, f.ContentType, f.Size); err != nil {
			if errors.Is(err, directory.ErrDuplicate) {
				// The blob store hands out unique ids; a duplicate means a bug.
				log.Printf("BUG: duplicate object id %q registered", objectID)
			}
			c.cleanup(append(uploaded, UploadedImage{ObjectID: objectID}))
			return nil, &BatchError{Index: i, Err: err}
		}

		name := displayName(f.OriginalName)
		uploaded = append(uploaded, UploadedImage{ObjectID: objectID, Name: name})
		refs = append(refs, product.ImageRef{
			ObjectID:  objectID,
			Name:      name,
			CreatedAt: time.Now().UTC(),
		})
	}

	doc, err := c.docs.AppendImages(ctx, code, description, group, refs)
	if err != nil {
		return nil, fmt.Errorf("append references: %w", err)
	}

	return &BatchResult{Uploaded: uploaded, Document: doc}, nil
}

// DeleteImage removes one image from a product and its backing storage.
//
// The document reference is removed first, the blob only afterwards: a
// reference pointing at a missing blob is a recoverable dangling link,
// whereas a deleted blob that is still referenced errors on every read.
func (c *Coordinator) DeleteImage(ctx context.Context, code, identifier string) (*DeleteResult, error) {
	ref, err := c.docs.RemoveImage(ctx, code, identifier)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, product.ErrImageNotFound
	}

	res := &DeleteResult{ReferenceRemoved: true}

	objectID := ref.ObjectID
	if objectID == "" {
		// Legacy reference without an object id; resolve through the
		// directory by display name.
		entry, err := c.dir.FindByName(ctx, ref.Name)
		if err != nil {
			log.Printf("delete image: no directory entry for %q: %v", ref.Name, err)
			return res, nil
		}
		objectID = entry.ObjectID
	}

	if err := c.dir.Delete(ctx, objectID); err != nil && !errors.Is(err, directory.ErrNotFound) {
		log.Printf("delete image: remove directory entry %q: %v", objectID, err)
	}

	switch err := c.blobs.Delete(ctx, objectID); {
	case err == nil:
		res.BlobDeleted = true
	case errors.Is(err, storage.ErrNotFound):
		// Already gone; the state is what the caller wanted.
	default:
		log.Printf("delete image: remove blob %q: %v", objectID, err)
	}

	return res, nil
}

// ReorderImages replaces the product's image order. No blob-store interaction.
func (c *Coordinator) ReorderImages(ctx context.Context, code string, order []string) (*product.Document, error) {
	return c.docs.Reorder(ctx, code, order)
}

// ResolveBlob resolves an object id or original filename to its directory
// entry and opens the blob stream. Object id is the canonical form and is
// tried first; a name lookup returns the newest match.
func (c *Coordinator) ResolveBlob(ctx context.Context, identifier string) (*directory.Entry, io.ReadCloser, error) {
	entry, err := c.dir.FindByID(ctx, identifier)
	if errors.Is(err, directory.ErrNotFound) {
		entry, err = c.dir.FindByName(ctx, identifier)
	}
	if err != nil {
		return nil, nil, err
	}

	rc, _, err := c.blobs.Read(ctx, entry.ObjectID)
	if err != nil {
		return nil, nil, err
	}
	return entry, rc, nil
}

// cleanup best-effort deletes blobs and directory entries written for an
// aborted batch. Not-found is benign here: a retried delete and a successful
// one leave the same state.
func (c *Coordinator) cleanup(written []UploadedImage) {
	ctx := context.Background()
	for _, img := range written {
		if err := c.blobs.Delete(ctx, img.ObjectID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("cleanup: delete blob %q: %v", img.ObjectID, err)
		}
		if err := c.dir.Delete(ctx, img.ObjectID); err != nil && !errors.Is(err, directory.ErrNotFound) {
			log.Printf("cleanup: delete directory entry %q: %v", img.ObjectID, err)
		}
	}
}

// displayName builds the stored display name for an upload. The time prefix
// keeps identically-named uploads distinct, which matters because the name is
// the fallback identity for delete and reorder when the object id is absent.
func displayName(originalName string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), originalName)
}
