package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portifolio/catalog/internal/config"
)

// Repository handles all product document database operations.
//
// Every mutation is either a single SQL statement or a short transaction that
// locks the product row (SELECT ... FOR UPDATE), so concurrent mutations of
// the same product serialize and validation always runs against the row state
// at the moment of the update. Documents are never cached in-process.
type Repository struct {
	db          *pgxpool.Pool
	orderPolicy config.UnknownOrderIDPolicy
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool, orderPolicy config.UnknownOrderIDPolicy) *Repository {
	return &Repository{db: db, orderPolicy: orderPolicy}
}

const documentColumns = `id, code, description, grupo, images, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	d := &Document{}
	if err := row.Scan(&d.ID, &d.Code, &d.Description, &d.Group, &d.Images, &d.CreatedAt); err != nil {
		return nil, err
	}
	if d.Images == nil {
		d.Images = []ImageRef{}
	}
	return d, nil
}

// Upsert creates the document for code with an empty image list if it does
// not exist. An existing document is returned unchanged: description and
// group are only set at creation.
func (r *Repository) Upsert(ctx context.Context, code, description, group string) (*Document, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO products (code, description, grupo)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (code) DO NOTHING`,
		code, description, group,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert product: %w", err)
	}
	return r.GetByCode(ctx, code)
}

// GetByCode fetches one document by its product code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Document, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM products WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product by code: %w", err)
	}
	return doc, nil
}

// AppendImages atomically appends refs to the end of the product's image
// list, creating the document first if needed. The append is a single
// statement, so two concurrent batches both land with each batch's items
// contiguous and in their original order.
func (r *Repository) AppendImages(ctx context.Context, code, description, group string, refs []ImageRef) (*Document, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx,
		`INSERT INTO products (code, description, grupo, images)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (code) DO UPDATE SET images = products.images || EXCLUDED.images
		 RETURNING `+documentColumns,
		code, description, group, refs,
	))
	if err != nil {
		return nil, fmt.Errorf("append images: %w", err)
	}
	return doc, nil
}

// RemoveImage atomically removes the single reference matching identifier and
// returns it. It returns nil without error when the product exists but holds
// no match, so callers can report not-found.
func (r *Repository) RemoveImage(ctx context.Context, code, identifier string) (*ImageRef, error) {
	var removed *ImageRef
	err := r.withDocumentLock(ctx, code, func(tx pgx.Tx, doc *Document) error {
		idx := findRef(doc.Images, identifier)
		if idx < 0 {
			return nil
		}
		ref := doc.Images[idx]
		removed = &ref
		doc.Images = append(doc.Images[:idx], doc.Images[idx+1:]...)
		return r.writeImages(ctx, tx, doc)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// SetFlags atomically overwrites the moderation flags of the matching
// reference. Approved and rejected are mutually exclusive: setting approved
// forces rejected off and vice versa.
func (r *Repository) SetFlags(ctx context.Context, code, identifier string, approved, rejected bool) (*Document, error) {
	return r.mutateFlags(ctx, code, identifier, func(ref *ImageRef) error {
		ref.Approved = approved
		ref.Rejected = rejected
		return nil
	})
}

// Moderate applies a moderation action to the matching reference inside the
// row lock, so the transition is computed from the flags as they are at the
// moment of the update.
func (r *Repository) Moderate(ctx context.Context, code, identifier string, action Action) (*Document, error) {
	return r.mutateFlags(ctx, code, identifier, func(ref *ImageRef) error {
		approved, rejected, err := action.apply(ref.Approved, ref.Rejected)
		if err != nil {
			return err
		}
		ref.Approved = approved
		ref.Rejected = rejected
		return nil
	})
}

func (r *Repository) mutateFlags(ctx context.Context, code, identifier string, mutate func(*ImageRef) error) (*Document, error) {
	var updated *Document
	err := r.withDocumentLock(ctx, code, func(tx pgx.Tx, doc *Document) error {
		idx := findRef(doc.Images, identifier)
		if idx < 0 {
			return ErrImageNotFound
		}
		if err := mutate(&doc.Images[idx]); err != nil {
			return err
		}
		ref := &doc.Images[idx]
		if ref.Approved && ref.Rejected {
			ref.Rejected = false
		}
		updated = doc
		return r.writeImages(ctx, tx, doc)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Reorder atomically replaces the product's image order under the configured
// unknown-identifier policy. The order is validated by ApplyOrder against the
// row state inside the lock, so a fail-policy rejection leaves the stored
// document unchanged.
func (r *Repository) Reorder(ctx context.Context, code string, order []string) (*Document, error) {
	var updated *Document
	err := r.withDocumentLock(ctx, code, func(tx pgx.Tx, doc *Document) error {
		reordered, err := ApplyOrder(doc.Images, order, r.orderPolicy)
		if err != nil {
			return err
		}
		doc.Images = reordered
		updated = doc
		return r.writeImages(ctx, tx, doc)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Find lists products matching the filter, each non-empty field by
// case-insensitive substring. An empty filter lists everything.
func (r *Repository) Find(ctx context.Context, f Filter) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM products`
	var (
		clauses []string
		args    []any
	)
	addClause := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+value+"%")
		clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}
	addClause("code", f.Code)
	addClause("description", f.Description)
	addClause("grupo", f.Group)

	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at, code"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	docs := []*Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return docs, nil
}

// withDocumentLock runs fn inside a transaction holding a row lock on the
// product, then commits. fn receives the current document state.
func (r *Repository) withDocumentLock(ctx context.Context, code string, fn func(pgx.Tx, *Document) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	doc, err := scanDocument(tx.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM products WHERE code = $1 FOR UPDATE`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock product row: %w", err)
	}

	if err := fn(tx, doc); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) writeImages(ctx context.Context, tx pgx.Tx, doc *Document) error {
	if _, err := tx.Exec(ctx,
		`UPDATE products SET images = $2 WHERE id = $1`, doc.ID, doc.Images); err != nil {
		return fmt.Errorf("write images: %w", err)
	}
	return nil
}

func findRef(images []ImageRef, identifier string) int {
	for i, ref := range images {
		if ref.Matches(identifier) {
			return i
		}
	}
	return -1
}
