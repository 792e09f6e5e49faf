// Package directory maps object ids to descriptive metadata about uploaded
// blobs: the original filename, content type, size, and upload time.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry describes one stored blob. Entries are immutable; they are created at
// upload time and removed together with their blob.
type Entry struct {
	ObjectID     string    `json:"objectId"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// ErrNotFound is returned when no entry exists for the given id or name.
var ErrNotFound = errors.New("directory entry not found")

// ErrDuplicate is returned when an object id is registered twice. The blob
// store guarantees unique ids, so a duplicate indicates a coordinator bug.
var ErrDuplicate = errors.New("object id already registered")

// Repository handles all directory database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Register inserts the entry for a freshly written blob.
func (r *Repository) Register(ctx context.Context, objectID, originalName, contentType string, size int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO objects (object_id, original_name, content_type, size)
		 VALUES ($1, $2, $3, $4)`,
		objectID, originalName, contentType, size,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("register object: %w", err)
	}
	return nil
}

// FindByID fetches the entry for an object id.
func (r *Repository) FindByID(ctx context.Context, objectID string) (*Entry, error) {
	e := &Entry{}
	err := r.db.QueryRow(ctx,
		`SELECT object_id, original_name, content_type, size, uploaded_at
		 FROM objects WHERE object_id = $1`,
		objectID,
	).Scan(&e.ObjectID, &e.OriginalName, &e.ContentType, &e.Size, &e.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find object by id: %w", err)
	}
	return e, nil
}

// FindByName fetches the entry for an original filename. Uploaders reuse
// names across time, so the most recently uploaded match wins.
func (r *Repository) FindByName(ctx context.Context, originalName string) (*Entry, error) {
	e := &Entry{}
	err := r.db.QueryRow(ctx,
		`SELECT object_id, original_name, content_type, size, uploaded_at
		 FROM objects WHERE original_name = $1
		 ORDER BY uploaded_at DESC LIMIT 1`,
		originalName,
	).Scan(&e.ObjectID, &e.OriginalName, &e.ContentType, &e.Size, &e.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find object by name: %w", err)
	}
	return e, nil
}

// Delete removes the entry for an object id. Deleting a missing id returns
// ErrNotFound; the resulting state is the same as success.
func (r *Repository) Delete(ctx context.Context, objectID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM objects WHERE object_id = $1`, objectID)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
