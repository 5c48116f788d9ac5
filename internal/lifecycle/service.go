// Package lifecycle drives game sessions through create, edit, end and
// remote updates. Each action resolves the owning game, calls its server
// when needed, and only then writes the local record.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/coder/quartz"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/events"
	"github.com/playperu/superadmin/internal/games"
	"github.com/playperu/superadmin/internal/gateway"
	"github.com/playperu/superadmin/internal/metrics"
	"github.com/playperu/superadmin/internal/sessions"
)

const (
	maxPageSize = 100
	// maxPage keeps the row offset from overflowing.
	maxPage = math.MaxInt / maxPageSize
)

// Publisher receives session change notifications.
type Publisher interface {
	Publish(events.Event)
}

// PasswordVerifier checks an administrator's password before a session
// is ended.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, adminID, password string) error
}

type Deps struct {
	Games     *games.Registry
	Sessions  *sessions.Store
	Gateway   *gateway.Client
	Passwords PasswordVerifier
	Events    Publisher
	Clock     quartz.Clock
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Service struct {
	games     *games.Registry
	sessions  *sessions.Store
	gateway   *gateway.Client
	passwords PasswordVerifier
	events    Publisher
	clock     quartz.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(d Deps) *Service {
	return &Service{
		games:     d.Games,
		sessions:  d.Sessions,
		gateway:   d.Gateway,
		passwords: d.Passwords,
		events:    d.Events,
		clock:     d.Clock,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
}

type CreateParams struct {
	Name       string          `json:"name"`
	GameID     string          `json:"gameId"`
	AdminName  string          `json:"adminName"`
	AdminPin   string          `json:"adminPin"`
	GameConfig json.RawMessage `json:"gameConfig"`
}

func (p CreateParams) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", p.Name},
		{"gameId", p.GameID},
		{"adminName", p.AdminName},
		{"adminPin", p.AdminPin},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if raw := strings.TrimSpace(string(p.GameConfig)); raw == "" || raw == "null" {
		missing = append(missing, "gameConfig")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Create asks the game server for a new session and records it as LIVE.
// Nothing is stored unless the remote call succeeds.
func (s *Service) Create(ctx context.Context, p CreateParams) (sessions.Session, error) {
	if err := p.validate(); err != nil {
		return sessions.Session{}, err
	}

	game, err := s.games.FindByGameID(ctx, p.GameID)
	if err != nil {
		return sessions.Session{}, err
	}
	if !game.Supports(games.OpCreateSession) {
		return sessions.Session{}, fmt.Errorf("%s: %s: %w", game.GameID, games.OpCreateSession, games.ErrUnsupportedOperation)
	}

	remote, err := s.gateway.CreateSession(ctx, game, map[string]any{
		"name":       p.Name,
		"gameId":     p.GameID,
		"adminName":  p.AdminName,
		"adminPin":   p.AdminPin,
		"gameConfig": p.GameConfig,
	})
	if err != nil {
		return sessions.Session{}, err
	}

	now := s.now()
	sess := sessions.Session{
		GameRef:       game.ID,
		Name:          p.Name,
		Status:        sessions.StatusLive,
		AdminName:     p.AdminName,
		AdminPin:      p.AdminPin,
		PlayerLink:    remote.PlayerLink,
		AdminLink:     remote.AdminLink,
		GameSessionID: remote.SessionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessions.Create(ctx, &sess); err != nil {
		s.logger.Error("remote session created but not recorded",
			"game", game.GameID,
			"game_session_id", remote.SessionID,
			"admin_link", remote.AdminLink,
			"player_link", remote.PlayerLink,
			"error", err,
		)
		return sessions.Session{}, err
	}
	sess.Game = &sessions.GameInfo{ID: game.ID, GameID: game.GameID, Name: game.Name}

	s.metrics.SessionCreated(game.GameID)
	s.logger.Info("session created", "session_id", sess.ID, "game", game.GameID)
	s.publish(events.SessionCreated, sess)
	return sess, nil
}

type EditParams struct {
	SessionID   string `json:"sessionId"`
	SessionName string `json:"sessionName"`
	AdminName   string `json:"adminName"`
	AdminPin    string `json:"adminPin"`
}

// Edit renames a session or changes its admin credentials. Games that
// declare updateSession are told first; if they refuse, nothing changes
// locally.
func (s *Service) Edit(ctx context.Context, p EditParams) (sessions.Session, error) {
	if strings.TrimSpace(p.SessionID) == "" {
		return sessions.Session{}, apperr.Validation("sessionId is required")
	}
	p.SessionName = strings.TrimSpace(p.SessionName)
	p.AdminName = strings.TrimSpace(p.AdminName)
	p.AdminPin = strings.TrimSpace(p.AdminPin)
	if p.SessionName == "" && p.AdminName == "" && p.AdminPin == "" {
		return sessions.Session{}, apperr.Validation("nothing to update")
	}

	current, err := s.sessions.Get(ctx, p.SessionID)
	if err != nil {
		return sessions.Session{}, err
	}
	if current.Status == sessions.StatusEnded {
		return sessions.Session{}, apperr.Validation("session has already ended")
	}

	game, err := s.games.FindByID(ctx, current.GameRef)
	if err != nil {
		return sessions.Session{}, err
	}

	next := current
	applyEdit(&next, p)

	if game.Supports(games.OpUpdateSession) {
		if current.GameSessionID == "" {
			s.logger.Warn("session has no remote id, skipping remote update",
				"session_id", current.ID, "game", game.GameID)
		} else {
			_, err := s.gateway.Call(ctx, game, games.OpUpdateSession, http.MethodPost, map[string]any{
				"sessionId": current.GameSessionID,
				"name":      next.Name,
				"adminName": next.AdminName,
				"adminPin":  next.AdminPin,
			})
			if err != nil {
				return sessions.Session{}, err
			}
		}
	}

	updated, err := s.sessions.Update(ctx, p.SessionID, func(sess *sessions.Session) error {
		if sess.Status == sessions.StatusEnded {
			return apperr.Validation("session has already ended")
		}
		applyEdit(sess, p)
		sess.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return sessions.Session{}, err
	}

	s.publish(events.SessionUpdated, updated)
	return updated, nil
}

func applyEdit(sess *sessions.Session, p EditParams) {
	if p.SessionName != "" {
		sess.Name = p.SessionName
	}
	if p.AdminName != "" {
		sess.AdminName = p.AdminName
	}
	if p.AdminPin != "" {
		sess.AdminPin = p.AdminPin
	}
}

type EndParams struct {
	SessionID string
	AdminID   string
	Password  string
}

// End closes a session after confirming the caller's password. Ending a
// session twice returns the stored record unchanged.
func (s *Service) End(ctx context.Context, p EndParams) (sessions.Session, error) {
	if strings.TrimSpace(p.SessionID) == "" || p.Password == "" {
		return sessions.Session{}, apperr.Validation("sessionId and password are required")
	}
	if err := s.passwords.VerifyPassword(ctx, p.AdminID, p.Password); err != nil {
		return sessions.Session{}, err
	}

	var current sessions.Session
	updated, err := s.sessions.Update(ctx, p.SessionID, func(sess *sessions.Session) error {
		current = *sess
		now := s.now()
		if !endSession(sess, now) {
			return errUnchanged
		}
		sess.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return current, nil
	}
	if err != nil {
		return sessions.Session{}, err
	}

	s.metrics.SessionEnded(updated.Game.GameID, "admin")
	s.logger.Info("session ended", "session_id", updated.ID, "game", updated.Game.GameID, "source", "admin")
	s.publish(events.SessionEnded, updated)
	return updated, nil
}

// UpdateParams is a partial update pushed by a game server. Nil fields are
// left as stored.
type UpdateParams struct {
	GameSessionID string     `json:"gameSessionId"`
	GameID        string     `json:"gameId,omitempty"`
	TotalPlayers  *int       `json:"totalPlayers,omitempty"`
	TotalTeams    *int       `json:"totalTeams,omitempty"`
	CompletedOn   *time.Time `json:"completedOn,omitempty"`
	Status        string     `json:"status,omitempty"`
}

// InboundUpdate applies counters and completion pushed by a game server.
// Values are absolute, so replaying an update is harmless.
func (s *Service) InboundUpdate(ctx context.Context, p UpdateParams) (sessions.Session, error) {
	if strings.TrimSpace(p.GameSessionID) == "" {
		return sessions.Session{}, apperr.Validation("gameSessionId is required")
	}
	var status sessions.Status
	if p.Status != "" {
		st, ok := sessions.ParseStatus(p.Status)
		if !ok {
			return sessions.Session{}, apperr.Validation("unknown status %q", p.Status)
		}
		status = st
	}
	if status == sessions.StatusLive && p.CompletedOn != nil {
		return sessions.Session{}, apperr.Validation("completedOn cannot be set on a live session")
	}
	if (p.TotalPlayers != nil && *p.TotalPlayers < 0) || (p.TotalTeams != nil && *p.TotalTeams < 0) {
		return sessions.Session{}, apperr.Validation("totalPlayers and totalTeams must not be negative")
	}

	var gameRef string
	if p.GameID != "" {
		game, err := s.games.FindByGameID(ctx, p.GameID)
		if err != nil {
			return sessions.Session{}, err
		}
		gameRef = game.ID
	}

	found, err := s.sessions.FindByGameSessionID(ctx, p.GameSessionID, gameRef)
	if err != nil {
		return sessions.Session{}, err
	}
	s.metrics.InboundUpdate()

	var (
		current sessions.Session
		ended   bool
	)
	updated, err := s.sessions.Update(ctx, found.ID, func(sess *sessions.Session) error {
		current = *sess
		now := s.now()
		changed := false

		if p.TotalPlayers != nil && *p.TotalPlayers != sess.TotalPlayers {
			sess.TotalPlayers = *p.TotalPlayers
			changed = true
		}
		if p.TotalTeams != nil && *p.TotalTeams != sess.TotalTeams {
			sess.TotalTeams = *p.TotalTeams
			changed = true
		}

		switch {
		case status == sessions.StatusLive:
			if sess.Status == sessions.StatusEnded {
				return fmt.Errorf("session %s cannot return to LIVE: %w", sess.ID, apperr.ErrInvalidTransition)
			}
		case status == sessions.StatusEnded || p.CompletedOn != nil:
			at := now
			if p.CompletedOn != nil {
				at = *p.CompletedOn
			}
			if endSession(sess, at) {
				ended = true
				changed = true
			}
		}

		if !changed {
			return errUnchanged
		}
		sess.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return current, nil
	}
	if err != nil {
		return sessions.Session{}, err
	}

	if ended {
		s.metrics.SessionEnded(updated.Game.GameID, "remote")
		s.logger.Info("session ended", "session_id", updated.ID, "game", updated.Game.GameID, "source", "remote")
		s.publish(events.SessionEnded, updated)
	} else {
		s.publish(events.SessionUpdated, updated)
	}
	return updated, nil
}

type ForwardParams struct {
	GameID   string          `json:"gameId"`
	Endpoint string          `json:"endpoint"`
	Method   string          `json:"method"`
	Data     json.RawMessage `json:"data,omitempty"`
}

var forwardMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Forward relays a game-specific request to the game's server and returns
// its reply untouched. Endpoint is either an operation name the game
// declares or a path relative to its server URL. An operation name the game
// does not declare is sent as a plain path.
func (s *Service) Forward(ctx context.Context, p ForwardParams) (gateway.Response, error) {
	if p.GameID == "" || strings.TrimSpace(p.Endpoint) == "" || p.Method == "" {
		return gateway.Response{}, apperr.Validation("gameId, endpoint and method are required")
	}
	method := strings.ToUpper(p.Method)
	if !forwardMethods[method] {
		return gateway.Response{}, apperr.Validation("method %q is not allowed", p.Method)
	}
	if strings.Contains(p.Endpoint, "://") {
		return gateway.Response{}, apperr.Validation("endpoint must be a path on the game server")
	}

	game, err := s.games.FindByGameID(ctx, p.GameID)
	if err != nil {
		return gateway.Response{}, err
	}

	var payload any
	if len(p.Data) > 0 {
		payload = p.Data
	}
	if op, ok := games.ParseOperation(p.Endpoint); ok && game.Supports(op) {
		return s.gateway.Call(ctx, game, op, method, payload)
	}
	return s.gateway.Invoke(ctx, game, p.Endpoint, method, payload)
}

type ListParams struct {
	Status string
	Query  string
	Page   int
	Limit  int
}

type ListResult struct {
	Sessions []sessions.Session `json:"sessions"`
	Total    int                `json:"total"`
	Page     int                `json:"page,omitempty"`
	Limit    int                `json:"limit,omitempty"`
}

// List returns sessions in one status, newest first. Without a page or
// limit every match is returned.
func (s *Service) List(ctx context.Context, p ListParams) (ListResult, error) {
	status, ok := sessions.ParseStatus(p.Status)
	if !ok {
		return ListResult{}, apperr.Validation("status must be live or ended")
	}
	if p.Page < 0 || p.Limit < 0 {
		return ListResult{}, apperr.Validation("page and limit must not be negative")
	}
	if p.Limit > maxPageSize {
		return ListResult{}, apperr.Validation("limit must be at most %d", maxPageSize)
	}
	if p.Page > maxPage {
		return ListResult{}, apperr.Validation("page must be at most %d", maxPage)
	}

	f := sessions.Filter{Status: status, Query: p.Query}
	if p.Page > 0 || p.Limit > 0 {
		if p.Page == 0 {
			p.Page = 1
		}
		if p.Limit == 0 {
			p.Limit = 20
		}
		f.Limit = p.Limit
		f.Offset = (p.Page - 1) * p.Limit
	}

	list, total, err := s.sessions.List(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Sessions: list, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func (s *Service) Get(ctx context.Context, id string) (sessions.Session, error) {
	return s.sessions.Get(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (sessions.Stats, error) {
	return s.sessions.Stats(ctx)
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

func (s *Service) publish(typ string, sess sessions.Session) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{Type: typ, Session: &sess})
}
