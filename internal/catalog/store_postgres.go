package catalog

import (
	"context"
	"fmt"

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

// albumColumns is the canonical SELECT list, kept in one place so every
// query scans in the same order.
func albumColumns() string {
	t := schema.CatalogAlbum
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		t.ID, t.Title, t.Artist, t.ReleaseYear, t.MusicBrainzID,
		t.CoverImageRef, t.CoverURL, t.Genres, t.CreatedAt, t.UpdatedAt,
	)
}

func scanAlbum(row pgx.Row) (*Album, error) {
	a := &Album{}
	err := row.Scan(
		&a.ID, &a.Title, &a.Artist, &a.ReleaseYear, &a.MusicBrainzID,
		&a.CoverImageRef, &a.CoverURL, &a.Genres, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Album, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		albumColumns(), schema.CatalogAlbum.Table, schema.CatalogAlbum.ID,
	)

	album, err := scanAlbum(repository.db.QueryRow(ctx, query, id))
	return album, dberr.Wrap(err, "get_album")
}

func (repository *PostgresRepository) FindByMusicBrainzID(ctx context.Context, mbid string) (*Album, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		albumColumns(), schema.CatalogAlbum.Table, schema.CatalogAlbum.MusicBrainzID,
	)

	album, err := scanAlbum(repository.db.QueryRow(ctx, query, mbid))
	return album, dberr.Wrap(err, "get_album_by_mbid")
}

func (repository *PostgresRepository) ListByArtist(ctx context.Context, artist string) ([]*Album, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		albumColumns(), schema.CatalogAlbum.Table, schema.CatalogAlbum.Artist,
	)
	return repository.listBy(ctx, query, artist)
}

func (repository *PostgresRepository) ListByTitle(ctx context.Context, title string) ([]*Album, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		albumColumns(), schema.CatalogAlbum.Table, schema.CatalogAlbum.Title,
	)
	return repository.listBy(ctx, query, title)
}

func (repository *PostgresRepository) listBy(ctx context.Context, query string, arg any) ([]*Album, error) {
	rows, err := repository.db.Query(ctx, query, arg)
	if err != nil {
		return nil, dberr.Wrap(err, "list_albums")
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_album")
		}
		albums = append(albums, album)
	}

	return albums, dberr.Wrap(rows.Err(), "list_albums")
}

func (repository *PostgresRepository) List(ctx context.Context, f Filter, limit, offset int) ([]*Album, int, error) {
	t := schema.CatalogAlbum

	query := fmt.Sprintf(`SELECT %s FROM %s`, albumColumns(), t.Table)
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s`, t.Table)

	args := []any{}
	countArgs := []any{}

	if f.Query != "" {
		searchTerm := "%" + f.Query + "%"
		cond := fmt.Sprintf(` WHERE (%s ILIKE $1 OR %s ILIKE $1)`, t.Title, t.Artist)
		query += cond
		countQuery += cond
		args = append(args, searchTerm)
		countArgs = append(countArgs, searchTerm)
	}

	query += fmt.Sprintf(" ORDER BY %s ASC, %s ASC LIMIT $%d OFFSET $%d",
		t.Artist, t.Title, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var total int
	if err := repository.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_albums")
	}

	rows, err := repository.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_albums")
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_album")
		}
		albums = append(albums, album)
	}

	return albums, total, nil
}

func (repository *PostgresRepository) Insert(ctx context.Context, album *Album) error {
	t := schema.CatalogAlbum
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING %s, %s
	`,
		t.Table, t.ID, t.Title, t.Artist, t.ReleaseYear, t.MusicBrainzID,
		t.CoverImageRef, t.Genres, t.CreatedAt, t.UpdatedAt,
		t.CreatedAt, t.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		album.ID, album.Title, album.Artist, album.ReleaseYear,
		album.MusicBrainzID, album.CoverImageRef, album.Genres,
	).Scan(&album.CreatedAt, &album.UpdatedAt)

	return dberr.Wrap(err, "insert_album")
}

// SetCover is the cover backfill's single mutation point. The WHERE clause
// doubles as the atomic claim: whichever invocation runs first wins, every
// later one sees zero rows affected.
func (repository *PostgresRepository) SetCover(ctx context.Context, albumID, coverImageRef, coverURL string) (bool, error) {
	t := schema.CatalogAlbum
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NOW()
		WHERE %s = $1 AND %s IS NULL AND %s IS NULL
	`,
		t.Table, t.CoverImageRef, t.CoverURL, t.UpdatedAt,
		t.ID, t.CoverImageRef, t.CoverURL,
	)

	cmd, err := repository.db.Exec(ctx, query, albumID, coverImageRef, coverURL)
	if err != nil {
		return false, dberr.Wrap(err, "set_album_cover")
	}

	return cmd.RowsAffected() > 0, nil
}
