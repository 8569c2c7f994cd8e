package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/tahmid/screenroom/internal/apperror"
	"github.com/tahmid/screenroom/internal/model"
	"github.com/tahmid/screenroom/internal/repository"
)

// UserRepo implements repository.UserRepository over the shared connection.
type UserRepo struct {
	db *DB
}

// Users returns the user repository view of this database.
func (db *DB) Users() *UserRepo {
	return &UserRepo{db: db}
}

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// Create inserts a new user, generating the ID and timestamps.
//
// Uniqueness of username and email is checked up front so the caller gets a
// typed duplicate-identity error naming the colliding field, instead of a
// raw constraint failure. The UNIQUE constraints in the schema remain the
// authoritative guard: if two registrations race past the pre-check, the
// second INSERT still fails rather than storing a duplicate.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	var taken int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ?`, user.Username,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("sqlite: checking username %q: %w", user.Username, err)
	}
	if taken > 0 {
		return apperror.DuplicateIdentity("username", user.Username)
	}

	err = r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, user.Email,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("sqlite: checking email %q: %w", user.Email, err)
	}
	if taken > 0 {
		return apperror.DuplicateIdentity("email", user.Email)
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = r.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

// GetByUsername retrieves a user by their unique username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.get(ctx, `WHERE username = ?`, username)
}

func (r *UserRepo) get(ctx context.Context, where, arg string) (*model.User, error) {
	var u model.User

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", arg, err)
	}

	return &u, nil
}
