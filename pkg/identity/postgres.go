package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/waypoint/pkg/db"
)

// PostgresStore reads users and roles from a pgx pool.
// Apply PostgresMigrations first.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindActiveByEmail(ctx context.Context, email string) (Credentials, error) {
	const q = `SELECT id, email, name, role_id, is_active, password FROM users WHERE email = $1 AND is_active`

	var c Credentials
	err := s.pool.QueryRow(ctx, q, email).
		Scan(&c.ID, &c.Email, &c.Name, &c.RoleID, &c.IsActive, &c.PasswordHash)
	if err != nil {
		return Credentials{}, mapPgError(err)
	}
	return c, nil
}

func (s *PostgresStore) FindActiveByID(ctx context.Context, id int64) (Identity, error) {
	const q = `SELECT id, email, name, role_id, is_active FROM users WHERE id = $1 AND is_active`

	var u Identity
	err := s.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Name, &u.RoleID, &u.IsActive)
	if err != nil {
		return Identity{}, mapPgError(err)
	}
	return u, nil
}

func (s *PostgresStore) RoleByID(ctx context.Context, id int64) (Role, error) {
	const q = `SELECT id, name, permissions FROM roles WHERE id = $1`

	var r Role
	if err := s.pool.QueryRow(ctx, q, id).Scan(&r.ID, &r.Name, &r.Permissions); err != nil {
		return Role{}, mapPgError(err)
	}
	return r, nil
}

func (s *PostgresStore) CreateRole(ctx context.Context, role Role) (Role, error) {
	if role.Permissions == "" {
		role.Permissions = EncodePermissions()
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO roles (name, permissions) VALUES ($1, $2) RETURNING id`,
		role.Name, role.Permissions).Scan(&role.ID)
	if err != nil {
		return Role{}, mapPgError(err)
	}
	return role, nil
}

// CreateUser inserts a user. The role row is locked for the duration of the
// insert; a missing role yields ErrNotFound.
func (s *PostgresStore) CreateUser(ctx context.Context, c Credentials) (Identity, error) {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var roleID int64
		if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR SHARE`, c.RoleID).Scan(&roleID); err != nil {
			return mapPgError(err)
		}

		return mapPgError(tx.QueryRow(ctx,
			`INSERT INTO users (email, name, password, role_id, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			strings.TrimSpace(c.Email), c.Name, c.PasswordHash, c.RoleID, c.IsActive).Scan(&c.ID))
	})
	if err != nil {
		return Identity{}, err
	}
	return c.Identity, nil
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Writer = (*PostgresStore)(nil)
)
