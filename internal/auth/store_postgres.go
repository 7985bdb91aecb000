package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qdes/aldex/internal/platform/database/schema"
	"github.com/qdes/aldex/internal/platform/dberr"
)

// # User Store

type PostgresUserRepository struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func userColumns() string {
	t := schema.UsersAccount
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s",
		t.ID, t.Username, t.Email, t.PasswordHash, t.DisplayName, t.Role,
		t.CreatedAt, t.UpdatedAt,
	)
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	t := schema.UsersAccount
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s, %s`,
		t.Table,
		t.ID, t.Username, t.Email, t.PasswordHash, t.DisplayName, t.Role,
		t.CreatedAt, t.UpdatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.DisplayName, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	return dberr.Wrap(err, "create_user")
}

func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	t := schema.UsersAccount
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		userColumns(), t.Table, t.ID, t.DeletedAt,
	)

	user, err := scanUser(repository.db.QueryRow(ctx, query, id))
	return user, dberr.Wrap(err, "get_user")
}

func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	t := schema.UsersAccount
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE LOWER(%s) = LOWER($1) AND %s IS NULL`,
		userColumns(), t.Table, t.Email, t.DeletedAt,
	)

	user, err := scanUser(repository.db.QueryRow(ctx, query, email))
	return user, dberr.Wrap(err, "get_user_by_email")
}

func (repository *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	t := schema.UsersAccount
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE LOWER(%s) = LOWER($1) AND %s IS NULL`,
		userColumns(), t.Table, t.Username, t.DeletedAt,
	)

	user, err := scanUser(repository.db.QueryRow(ctx, query, username))
	return user, dberr.Wrap(err, "get_user_by_username")
}

// # Session Store

type PostgresSessionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSessionRepository(db *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (repository *PostgresSessionRepository) Create(ctx context.Context, session *Session) error {
	t := schema.UsersSession
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`,
		t.Table,
		t.ID, t.UserID, t.TokenHash, t.UserAgent, t.IPAddress, t.ExpiresAt, t.IsRevoked,
		t.CreatedAt,
	)

	err := repository.db.QueryRow(ctx, query,
		session.ID, session.UserID, session.TokenHash, session.UserAgent,
		session.IPAddress, session.ExpiresAt, session.IsRevoked,
	).Scan(&session.CreatedAt)

	return dberr.Wrap(err, "create_session")
}

// FindByTokenHash only ever returns live sessions; expiry and revocation
// are filtered in the query so callers never see a dead session.
func (repository *PostgresSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	t := schema.UsersSession
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = FALSE AND %s > NOW()`,
		t.ID, t.UserID, t.TokenHash, t.UserAgent, t.IPAddress, t.ExpiresAt, t.IsRevoked, t.CreatedAt,
		t.Table,
		t.TokenHash, t.IsRevoked, t.ExpiresAt,
	)

	s := &Session{}
	err := repository.db.QueryRow(ctx, query, tokenHash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.UserAgent, &s.IPAddress,
		&s.ExpiresAt, &s.IsRevoked, &s.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_session")
	}
	return s, nil
}

func (repository *PostgresSessionRepository) Revoke(ctx context.Context, session *Session) error {
	t := schema.UsersSession
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE WHERE %s = $1`, t.Table, t.IsRevoked, t.ID)

	_, err := repository.db.Exec(ctx, query, session.ID)
	return dberr.Wrap(err, "revoke_session")
}
