// Package auth manages console administrators and their login sessions.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/database"
)

const minPasswordLen = 8

type Admin struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	AdminID string `json:"adminId"`
	Email   string `json:"email"`
}

type Admins struct {
	db    *sql.DB
	clock quartz.Clock
	cost  int
}

func NewAdmins(db *sql.DB, clock quartz.Clock) *Admins {
	return &Admins{db: db, clock: clock, cost: bcrypt.DefaultCost}
}

// Create adds an administrator with a bcrypt-hashed password.
func (a *Admins) Create(ctx context.Context, email, password string) (Admin, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Admin{}, apperr.Validation("email and password are required")
	}
	if !strings.Contains(email, "@") {
		return Admin{}, apperr.Validation("email is not valid")
	}
	if len(password) < minPasswordLen {
		return Admin{}, apperr.Validation("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return Admin{}, fmt.Errorf("hashing password: %w", err)
	}

	admin := Admin{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: a.clock.Now().UTC().Truncate(time.Millisecond),
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, admin.ID, admin.Email, string(hash), database.FormatTime(admin.CreatedAt))
	if database.IsUniqueViolation(err) {
		return Admin{}, fmt.Errorf("admin %s: %w", email, apperr.ErrConflict)
	}
	if err != nil {
		return Admin{}, fmt.Errorf("inserting admin: %w", err)
	}
	return admin, nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (a *Admins) Authenticate(ctx context.Context, email, password string) (Admin, error) {
	admin, hash, err := a.byEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return Admin{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return Admin{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Admin{}, apperr.ErrUnauthorized
	}
	return admin, nil
}

// VerifyPassword confirms that password belongs to the given admin.
func (a *Admins) VerifyPassword(ctx context.Context, adminID, password string) error {
	var hash string
	err := a.db.QueryRowContext(ctx,
		`SELECT password_hash FROM admins WHERE id = ?`, adminID,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("admin %s: %w", adminID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("incorrect password: %w", apperr.ErrForbidden)
	}
	return nil
}

// SeedIfEmpty creates the first administrator when the table is empty.
// It reports whether an admin was created.
func (a *Admins) SeedIfEmpty(ctx context.Context, email, password string) (bool, error) {
	var count int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return false, fmt.Errorf("counting admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if _, err := a.Create(ctx, email, password); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Admins) Get(ctx context.Context, id string) (Admin, error) {
	var (
		admin     Admin
		createdAt string
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM admins WHERE id = ?`, id,
	).Scan(&admin.ID, &admin.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Admin{}, fmt.Errorf("admin %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return Admin{}, err
	}
	admin.CreatedAt, err = database.ParseTime(createdAt)
	return admin, err
}

func (a *Admins) byEmail(ctx context.Context, email string) (Admin, string, error) {
	var (
		admin     Admin
		hash      string
		createdAt string
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`, email,
	).Scan(&admin.ID, &admin.Email, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Admin{}, "", apperr.ErrNotFound
	}
	if err != nil {
		return Admin{}, "", err
	}
	admin.CreatedAt, err = database.ParseTime(createdAt)
	return admin, hash, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
