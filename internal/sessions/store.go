// Package sessions persists the metadata shadow of sessions hosted by
// remote game servers.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/database"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectSession = `
	SELECT s.id, s.game_ref, s.name, s.status, s.admin_name, s.admin_pin,
		s.player_link, s.admin_link, s.game_session_id, s.total_players, s.total_teams,
		s.created_at, s.updated_at, s.completed_on,
		g.id, g.game_id, g.name
	FROM sessions s
	JOIN games g ON g.id = s.game_ref`

// Create inserts sess. An empty ID is filled in.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.Status == "" {
		sess.Status = StatusLive
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, game_ref, name, status, admin_name, admin_pin,
			player_link, admin_link, game_session_id, total_players, total_teams,
			created_at, updated_at, completed_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.GameRef, sess.Name, string(sess.Status), sess.AdminName, sess.AdminPin,
		sess.PlayerLink, sess.AdminLink, nullString(sess.GameSessionID), sess.TotalPlayers, sess.TotalTeams,
		database.FormatTime(sess.CreatedAt), database.FormatTime(sess.UpdatedAt), database.NullTime(sess.CompletedOn),
	)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("game session %q: %w", sess.GameSessionID, apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, selectSession+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	return sess, err
}

// FindByGameSessionID looks a session up by the identifier the remote
// server assigned. gameRef narrows the match to one game when non-empty;
// without it a remote id shared by two games is a conflict.
func (s *Store) FindByGameSessionID(ctx context.Context, gameSessionID, gameRef string) (Session, error) {
	query := selectSession + ` WHERE s.game_session_id = ?`
	args := []any{gameSessionID}
	if gameRef != "" {
		query += ` AND s.game_ref = ?`
		args = append(args, gameRef)
	}
	query += ` LIMIT 2`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Session{}, fmt.Errorf("finding game session: %w", err)
	}
	defer rows.Close()

	var found []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return Session{}, err
		}
		found = append(found, sess)
	}
	if err := rows.Err(); err != nil {
		return Session{}, err
	}

	switch len(found) {
	case 0:
		return Session{}, fmt.Errorf("game session %s: %w", gameSessionID, apperr.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return Session{}, fmt.Errorf("game session %s matches more than one game: %w", gameSessionID, apperr.ErrConflict)
	}
}

// Update loads the session, applies fn and writes the result back in one
// transaction. Nothing is written when fn returns an error.
func (s *Store) Update(ctx context.Context, id string, fn func(*Session) error) (Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	sess, err := scanSession(tx.QueryRowContext(ctx, selectSession+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return Session{}, err
	}

	if err := fn(&sess); err != nil {
		return Session{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET name = ?, status = ?, admin_name = ?, admin_pin = ?,
			total_players = ?, total_teams = ?, updated_at = ?, completed_on = ?
		WHERE id = ?
	`, sess.Name, string(sess.Status), sess.AdminName, sess.AdminPin,
		sess.TotalPlayers, sess.TotalTeams, database.FormatTime(sess.UpdatedAt), database.NullTime(sess.CompletedOn),
		sess.ID,
	)
	if err != nil {
		return Session{}, fmt.Errorf("updating session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("committing session update: %w", err)
	}
	return sess, nil
}

// List returns sessions matching f, newest first, and the total match count
// before pagination.
func (s *Store) List(ctx context.Context, f Filter) ([]Session, int, error) {
	where := ` WHERE s.status = ?`
	args := []any{string(f.Status)}
	if q := strings.TrimSpace(f.Query); q != "" {
		where += ` AND (lower(s.name) LIKE ? ESCAPE '\' OR lower(s.admin_name) LIKE ? ESCAPE '\' OR lower(g.name) LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions s JOIN games g ON g.id = s.game_ref`+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting sessions: %w", err)
	}

	query := selectSession + where + ` ORDER BY s.created_at DESC, s.rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	list := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, sess)
	}
	return list, total, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'LIVE' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'ENDED' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'LIVE' THEN total_players ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'LIVE' THEN total_teams ELSE 0 END), 0)
		FROM sessions
	`).Scan(&st.Live, &st.Ended, &st.ActivePlayers, &st.ActiveTeams)
	if err != nil {
		return Stats{}, fmt.Errorf("reading session stats: %w", err)
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var (
		sess                 Session
		status               string
		gameSessionID        sql.NullString
		createdAt, updatedAt string
		completedOn          sql.NullString
		game                 GameInfo
	)
	err := sc.Scan(&sess.ID, &sess.GameRef, &sess.Name, &status, &sess.AdminName, &sess.AdminPin,
		&sess.PlayerLink, &sess.AdminLink, &gameSessionID, &sess.TotalPlayers, &sess.TotalTeams,
		&createdAt, &updatedAt, &completedOn,
		&game.ID, &game.GameID, &game.Name,
	)
	if err != nil {
		return Session{}, err
	}

	sess.Status = Status(status)
	sess.GameSessionID = gameSessionID.String
	sess.Game = &game
	if sess.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return Session{}, err
	}
	if sess.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return Session{}, err
	}
	if sess.CompletedOn, err = database.ParseNullTime(completedOn); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
