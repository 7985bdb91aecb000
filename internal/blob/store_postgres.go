package blob

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qdes/aldex/internal/platform/dberr"
	"github.com/qdes/aldex/internal/platform/database/schema"
	"github.com/qdes/aldex/pkg/uuidv7"
)

const servePathPrefix = "/api/v1/covers/"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (store *PostgresStore) Store(ctx context.Context, content []byte, contentType string) (string, error) {
	t := schema.StorageBlob
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)`,
		t.Table, t.ID, t.Content, t.ContentType, t.ByteSize,
	)

	ref := uuidv7.New()
	_, err := store.db.Exec(ctx, query, ref, content, contentType, len(content))
	if err != nil {
		return "", dberr.Wrap(err, "store_blob")
	}
	return ref, nil
}

func (store *PostgresStore) Fetch(ctx context.Context, ref string) (*Blob, error) {
	t := schema.StorageBlob
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		t.ID, t.Content, t.ContentType, t.ByteSize, t.CreatedAt, t.Table, t.ID,
	)

	b := &Blob{}
	err := store.db.QueryRow(ctx, query, ref).Scan(
		&b.ID, &b.Content, &b.ContentType, &b.ByteSize, &b.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_blob")
	}
	return b, nil
}

// URL maps a stored reference to the serving route. A dangling reference
// resolves to the empty string so callers render the entry without a cover.
func (store *PostgresStore) URL(ctx context.Context, ref string) (string, error) {
	t := schema.StorageBlob
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, t.Table, t.ID)

	var exists bool
	if err := store.db.QueryRow(ctx, query, ref).Scan(&exists); err != nil {
		return "", dberr.Wrap(err, "resolve_blob_url")
	}
	if !exists {
		return "", nil
	}
	return servePathPrefix + ref, nil
}
