package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/database"
)

// SessionStore keeps login sessions keyed by an opaque cookie token.
// Lookup returns apperr.ErrUnauthorized for unknown or expired tokens.
type SessionStore interface {
	Create(ctx context.Context, id Identity) (token string, err error)
	Lookup(ctx context.Context, token string) (Identity, error)
	Delete(ctx context.Context, token string) error
}

// SQLSessions stores login sessions in the admin_sessions table.
type SQLSessions struct {
	db    *sql.DB
	clock quartz.Clock
	ttl   time.Duration
}

func NewSQLSessions(db *sql.DB, clock quartz.Clock, ttl time.Duration) *SQLSessions {
	return &SQLSessions{db: db, clock: clock, ttl: ttl}
}

func (s *SQLSessions) Create(ctx context.Context, id Identity) (string, error) {
	token := uuid.NewString()
	expires := s.clock.Now().Add(s.ttl)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (id, admin_id, expires_at) VALUES (?, ?, ?)`,
		token, id.AdminID, database.FormatTime(expires),
	)
	if err != nil {
		return "", fmt.Errorf("creating admin session: %w", err)
	}
	return token, nil
}

func (s *SQLSessions) Lookup(ctx context.Context, token string) (Identity, error) {
	var (
		id        Identity
		expiresAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email, s.expires_at
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, token).Scan(&id.AdminID, &id.Email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return Identity{}, fmt.Errorf("looking up admin session: %w", err)
	}

	expires, err := database.ParseTime(expiresAt)
	if err != nil {
		return Identity{}, err
	}
	if !s.clock.Now().Before(expires) {
		_ = s.Delete(ctx, token)
		return Identity{}, apperr.ErrUnauthorized
	}
	return id, nil
}

func (s *SQLSessions) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, token)
	return err
}

// RedisSessions stores login sessions as JSON values with a TTL.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

const redisSessionPrefix = "superadmin:admin_session:"

func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func (s *RedisSessions) Create(ctx context.Context, id Identity) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, redisSessionPrefix+token, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("creating admin session: %w", err)
	}
	return token, nil
}

func (s *RedisSessions) Lookup(ctx context.Context, token string) (Identity, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return Identity{}, fmt.Errorf("looking up admin session: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("decoding admin session: %w", err)
	}
	return id, nil
}

func (s *RedisSessions) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisSessionPrefix+token).Err()
}

var (
	_ SessionStore = (*SQLSessions)(nil)
	_ SessionStore = (*RedisSessions)(nil)
)
