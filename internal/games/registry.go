// Package games is the registry of remote game servers the console can
// create sessions on.
package games

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/database"
)

type Registry struct {
	db    *sql.DB
	clock quartz.Clock
}

func NewRegistry(db *sql.DB, clock quartz.Clock) *Registry {
	return &Registry{db: db, clock: clock}
}

// Register stores a new game. Games are immutable once registered.
func (r *Registry) Register(ctx context.Context, p RegisterParams) (Game, error) {
	endpoints, err := p.validate()
	if err != nil {
		return Game{}, err
	}

	g := Game{
		ID:        uuid.NewString(),
		GameID:    p.GameID,
		Name:      p.Name,
		ServerURL: p.ServerURL,
		Endpoints: endpoints,
		CreatedAt: r.clock.Now().UTC().Truncate(time.Millisecond),
	}
	data, err := json.Marshal(g.Endpoints)
	if err != nil {
		return Game{}, fmt.Errorf("encoding endpoints: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO games (id, game_id, name, server_url, endpoints, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.ID, g.GameID, g.Name, g.ServerURL, string(data), database.FormatTime(g.CreatedAt))
	if database.IsUniqueViolation(err) {
		return Game{}, fmt.Errorf("game %q: %w", g.GameID, apperr.ErrConflict)
	}
	if err != nil {
		return Game{}, fmt.Errorf("inserting game: %w", err)
	}
	return g, nil
}

func (r *Registry) FindByGameID(ctx context.Context, gameID string) (Game, error) {
	return r.findOne(ctx, `WHERE game_id = ?`, gameID)
}

func (r *Registry) FindByID(ctx context.Context, id string) (Game, error) {
	return r.findOne(ctx, `WHERE id = ?`, id)
}

// List returns every registered game ordered by name.
func (r *Registry) List(ctx context.Context) ([]Game, error) {
	rows, err := r.db.QueryContext(ctx, selectGame+` ORDER BY name, game_id`)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	games := []Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

const selectGame = `SELECT id, game_id, name, server_url, endpoints, created_at FROM games`

func (r *Registry) findOne(ctx context.Context, where string, arg any) (Game, error) {
	row := r.db.QueryRowContext(ctx, selectGame+" "+where, arg)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, fmt.Errorf("game %v: %w", arg, apperr.ErrNotFound)
	}
	return g, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (Game, error) {
	var (
		g         Game
		endpoints string
		createdAt string
	)
	if err := s.Scan(&g.ID, &g.GameID, &g.Name, &g.ServerURL, &endpoints, &createdAt); err != nil {
		return Game{}, err
	}
	if err := json.Unmarshal([]byte(endpoints), &g.Endpoints); err != nil {
		return Game{}, fmt.Errorf("decoding endpoints for %s: %w", g.GameID, err)
	}
	t, err := database.ParseTime(createdAt)
	if err != nil {
		return Game{}, err
	}
	g.CreatedAt = t
	return g, nil
}
