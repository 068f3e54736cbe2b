package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DaudDevs/conect-voucher-market/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// InsertUser creates the account and its profile row (role customer) in one
// transaction and returns the created user.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	var user User
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		queryUser := `
			INSERT INTO users (email, password_hash, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			RETURNING id, email, created_at
		`
		if err := tx.QueryRowContext(ctx, queryUser, nu.Email, string(hash)).
			Scan(&user.ID, &user.Email, &user.CreatedAt); err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}

		queryProfile := `
			INSERT INTO profiles (id, first_name, last_name, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
		`
		if _, err := tx.ExecContext(ctx, queryProfile, user.ID, nu.FirstName, nu.LastName, auth.RoleCustomer); err != nil {
			return fmt.Errorf("inserting profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies the credentials and returns the user with the role
// from their profile. Wrong email and wrong password both return
// ErrInvalidCredentials so callers cannot tell which failed.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, string, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.created_at, p.role
		FROM users u
		JOIN profiles p ON p.id = u.id
		WHERE u.email = $1
	`
	var user User
	var passwordHash, role string
	err := c.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &passwordHash, &user.CreatedAt, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", fmt.Errorf("querying user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}
	return user, role, nil
}

// GetProfile returns the profile for a user id.
func (c *Conf) GetProfile(ctx context.Context, userID string) (Profile, error) {
	query := `
		SELECT id, COALESCE(first_name, ''), COALESCE(last_name, ''), role
		FROM profiles
		WHERE id = $1
	`
	var p Profile
	err := c.db.QueryRowContext(ctx, query, userID).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.Role)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return fmt.Errorf("failed to execute withTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
