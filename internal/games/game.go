package games

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/playperu/superadmin/internal/apperr"
)

// Operation names a session operation a remote game server may expose.
type Operation string

const (
	OpCreateSession Operation = "createSession"
	OpGetSession    Operation = "getSession"
	OpUpdateSession Operation = "updateSession"
	OpDeleteSession Operation = "deleteSession"
	OpEndSession    Operation = "endSession"
)

var operations = []Operation{
	OpCreateSession,
	OpGetSession,
	OpUpdateSession,
	OpDeleteSession,
	OpEndSession,
}

// Operations lists every known operation in display order.
func Operations() []Operation {
	return append([]Operation(nil), operations...)
}

// ParseOperation maps a wire name to a known operation.
func ParseOperation(s string) (Operation, bool) {
	for _, op := range operations {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// ErrUnsupportedOperation is returned when a game has no path registered for
// the requested operation.
var ErrUnsupportedOperation = errors.New("operation not supported by game")

type Game struct {
	ID        string               `json:"id"`
	GameID    string               `json:"gameId"`
	Name      string               `json:"name"`
	ServerURL string               `json:"serverUrl"`
	Endpoints map[Operation]string `json:"endpoints"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Endpoint returns the path registered for op.
func (g Game) Endpoint(op Operation) (string, bool) {
	p, ok := g.Endpoints[op]
	if !ok || strings.TrimSpace(p) == "" {
		return "", false
	}
	return p, true
}

// Supports reports whether the game declares op.
func (g Game) Supports(op Operation) bool {
	_, ok := g.Endpoint(op)
	return ok
}

// URL joins path onto the game's server URL with exactly one slash between.
func (g Game) URL(path string) string {
	return strings.TrimRight(g.ServerURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// OperationURL resolves op to an absolute URL on the game's server.
func (g Game) OperationURL(op Operation) (string, error) {
	p, ok := g.Endpoint(op)
	if !ok {
		return "", fmt.Errorf("%s: %s: %w", g.GameID, op, ErrUnsupportedOperation)
	}
	return g.URL(p), nil
}

// RegisterParams is the input for Registry.Register.
type RegisterParams struct {
	GameID    string
	Name      string
	ServerURL string
	Endpoints map[string]string
}

func (p *RegisterParams) validate() (map[Operation]string, error) {
	p.GameID = strings.TrimSpace(p.GameID)
	p.Name = strings.TrimSpace(p.Name)
	p.ServerURL = strings.TrimSpace(p.ServerURL)

	if p.GameID == "" || p.Name == "" || p.ServerURL == "" {
		return nil, apperr.Validation("gameId, name and serverUrl are required")
	}
	u, err := url.Parse(p.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.Validation("serverUrl must be an absolute http or https URL")
	}

	endpoints := make(map[Operation]string, len(p.Endpoints))
	for name, path := range p.Endpoints {
		op, ok := ParseOperation(name)
		if !ok {
			return nil, apperr.Validation("unknown endpoint %q", name)
		}
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		endpoints[op] = path
	}
	return endpoints, nil
}
