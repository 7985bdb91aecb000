package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qdes/aldex/internal/platform/database/schema"
	"github.com/qdes/aldex/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// entryColumns is the canonical SELECT list for bare entries.
func entryColumns() string {
	t := schema.LibraryUserAlbum
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		t.ID, t.UserID, t.AlbumID, t.Acquisition, t.Progress, t.IsArchived,
		t.Rating, t.PersonalLink, t.Notes, t.AddedAt, t.CompletedAt,
	)
}

func scanEntry(row pgx.Row) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(
		&e.ID, &e.UserID, &e.AlbumID, &e.Acquisition, &e.Progress, &e.IsArchived,
		&e.Rating, &e.PersonalLink, &e.Notes, &e.AddedAt, &e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// viewColumns is the SELECT list for the entry-with-album join. The two
// tables are aliased ua and al in every view query.
func viewColumns() string {
	ua := schema.LibraryUserAlbum
	al := schema.CatalogAlbum
	return fmt.Sprintf(
		"ua.%s, ua.%s, al.%s, al.%s, al.%s, al.%s, al.%s, al.%s, al.%s, "+
			"ua.%s, ua.%s, ua.%s, ua.%s, ua.%s, ua.%s, ua.%s, ua.%s",
		ua.ID, ua.AlbumID,
		al.Title, al.Artist, al.ReleaseYear, al.MusicBrainzID,
		al.CoverImageRef, al.CoverURL, al.Genres,
		ua.Acquisition, ua.Progress, ua.IsArchived, ua.Rating,
		ua.PersonalLink, ua.Notes, ua.AddedAt, ua.CompletedAt,
	)
}

func scanView(row pgx.Row) (*View, error) {
	v := &View{}
	err := row.Scan(
		&v.ID, &v.AlbumID,
		&v.Title, &v.Artist, &v.ReleaseYear, &v.MusicBrainzID,
		&v.CoverImageRef, &v.CoverURL, &v.Genres,
		&v.Acquisition, &v.Progress, &v.IsArchived, &v.Rating,
		&v.PersonalLink, &v.Notes, &v.AddedAt, &v.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (repository *PostgresRepository) Insert(ctx context.Context, entry *Entry) error {
	t := schema.LibraryUserAlbum
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`,
		t.Table,
		t.ID, t.UserID, t.AlbumID, t.Acquisition, t.Progress, t.IsArchived,
		t.Rating, t.PersonalLink, t.Notes, t.CompletedAt,
		t.AddedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		entry.ID, entry.UserID, entry.AlbumID, entry.Acquisition, entry.Progress,
		entry.IsArchived, entry.Rating, entry.PersonalLink, entry.Notes, entry.CompletedAt,
	).Scan(&entry.AddedAt)

	return dberr.Wrap(err, "insert_library_entry")
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Entry, error) {
	t := schema.LibraryUserAlbum
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, entryColumns(), t.Table, t.ID)

	entry, err := scanEntry(repository.db.QueryRow(ctx, query, id))
	return entry, dberr.Wrap(err, "get_library_entry")
}

func (repository *PostgresRepository) FindByUserAndAlbum(ctx context.Context, userID, albumID string) (*Entry, error) {
	t := schema.LibraryUserAlbum
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		entryColumns(), t.Table, t.UserID, t.AlbumID,
	)

	entry, err := scanEntry(repository.db.QueryRow(ctx, query, userID, albumID))
	return entry, dberr.Wrap(err, "get_library_entry_by_album")
}

func (repository *PostgresRepository) FindViewByID(ctx context.Context, id string) (*View, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s ua
		JOIN %s al ON al.%s = ua.%s
		WHERE ua.%s = $1`,
		viewColumns(),
		schema.LibraryUserAlbum.Table, schema.CatalogAlbum.Table,
		schema.CatalogAlbum.ID, schema.LibraryUserAlbum.AlbumID,
		schema.LibraryUserAlbum.ID,
	)

	view, err := scanView(repository.db.QueryRow(ctx, query, id))
	return view, dberr.Wrap(err, "get_library_view")
}

func (repository *PostgresRepository) ListViews(ctx context.Context, userID string, f Filter, limit, offset int) ([]*View, int, error) {
	ua := schema.LibraryUserAlbum

	conditions := []string{fmt.Sprintf("ua.%s = $1", ua.UserID)}
	args := []any{userID}

	if f.Acquisition != nil {
		args = append(args, *f.Acquisition)
		conditions = append(conditions, fmt.Sprintf("ua.%s = $%d", ua.Acquisition, len(args)))
	}
	if f.Progress != nil {
		args = append(args, *f.Progress)
		conditions = append(conditions, fmt.Sprintf("ua.%s = $%d", ua.Progress, len(args)))
	}
	if !f.IncludeArchived {
		conditions = append(conditions, fmt.Sprintf("ua.%s = FALSE", ua.IsArchived))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s ua WHERE %s`, ua.Table, where)

	var total int
	if err := repository.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_library_entries")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s ua
		JOIN %s al ON al.%s = ua.%s
		WHERE %s
		ORDER BY ua.%s DESC
		LIMIT $%d OFFSET $%d`,
		viewColumns(),
		ua.Table, schema.CatalogAlbum.Table,
		schema.CatalogAlbum.ID, ua.AlbumID,
		where, ua.AddedAt,
		len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_library_entries")
	}
	defer rows.Close()

	var views []*View
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_library_view")
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_library_entries")
	}

	return views, total, nil
}

func (repository *PostgresRepository) Update(ctx context.Context, entry *Entry) error {
	t := schema.LibraryUserAlbum
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8
		WHERE %s = $1`,
		t.Table,
		t.Acquisition, t.Progress, t.IsArchived, t.Rating,
		t.PersonalLink, t.Notes, t.CompletedAt,
		t.ID,
	)

	cmd, err := repository.db.Exec(ctx, query,
		entry.ID, entry.Acquisition, entry.Progress, entry.IsArchived,
		entry.Rating, entry.PersonalLink, entry.Notes, entry.CompletedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "update_library_entry")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) Delete(ctx context.Context, id string) error {
	t := schema.LibraryUserAlbum
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Table, t.ID)

	cmd, err := repository.db.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_library_entry")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) FindByIDs(ctx context.Context, ids []string) ([]*Entry, error) {
	t := schema.LibraryUserAlbum
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`, entryColumns(), t.Table, t.ID)

	rows, err := repository.db.Query(ctx, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "list_library_entries_by_ids")
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_library_entry")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UpdateBatch queues one UPDATE per entry inside a single transaction, so a
// failure on any row rolls the whole batch back.
func (repository *PostgresRepository) UpdateBatch(ctx context.Context, ids []string, patch BatchPatch) error {
	t := schema.LibraryUserAlbum

	setClauses := []string{}
	baseArgs := []any{}
	if patch.Acquisition != nil {
		baseArgs = append(baseArgs, *patch.Acquisition)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", t.Acquisition, len(baseArgs)))
	}
	if patch.Progress != nil {
		baseArgs = append(baseArgs, *patch.Progress)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", t.Progress, len(baseArgs)))
	}
	if patch.IsArchived != nil {
		baseArgs = append(baseArgs, *patch.IsArchived)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", t.IsArchived, len(baseArgs)))
	}
	if len(setClauses) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d`,
		t.Table, strings.Join(setClauses, ", "), t.ID, len(baseArgs)+1,
	)

	transaction, err := repository.db.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_batch_update")
	}
	defer transaction.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, id := range ids {
		args := append(append([]any{}, baseArgs...), id)
		batch.Queue(query, args...)
	}

	response := transaction.SendBatch(ctx, batch)
	if err := response.Close(); err != nil {
		return dberr.Wrap(err, "batch_update_library_entries")
	}

	return dberr.Wrap(transaction.Commit(ctx), "commit_batch_update")
}

// DeleteBatch removes all entries in one transaction.
func (repository *PostgresRepository) DeleteBatch(ctx context.Context, ids []string) error {
	t := schema.LibraryUserAlbum
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Table, t.ID)

	transaction, err := repository.db.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_batch_delete")
	}
	defer transaction.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(query, id)
	}

	response := transaction.SendBatch(ctx, batch)
	if err := response.Close(); err != nil {
		return dberr.Wrap(err, "batch_delete_library_entries")
	}

	return dberr.Wrap(transaction.Commit(ctx), "commit_batch_delete")
}

func (repository *PostgresRepository) AlbumIDForEntry(ctx context.Context, id string) (string, error) {
	t := schema.LibraryUserAlbum
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, t.AlbumID, t.Table, t.ID)

	var albumID string
	err := repository.db.QueryRow(ctx, query, id).Scan(&albumID)
	return albumID, dberr.Wrap(err, "resolve_entry_album")
}
