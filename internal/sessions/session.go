package sessions

import (
	"strings"
	"time"
)

type Status string

const (
	StatusLive  Status = "LIVE"
	StatusEnded Status = "ENDED"
)

// ParseStatus accepts the wire forms "live"/"ended" in any case.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusLive:
		return StatusLive, true
	case StatusEnded:
		return StatusEnded, true
	}
	return "", false
}

// Session is the local record of one session running on a remote game server.
type Session struct {
	ID            string     `json:"id"`
	GameRef       string     `json:"gameRef"`
	Name          string     `json:"name"`
	Status        Status     `json:"status"`
	AdminName     string     `json:"adminName"`
	AdminPin      string     `json:"adminPin"`
	PlayerLink    string     `json:"playerLink"`
	AdminLink     string     `json:"adminLink"`
	GameSessionID string     `json:"gameSessionId,omitempty"`
	TotalPlayers  int        `json:"totalPlayers"`
	TotalTeams    int        `json:"totalTeams"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CompletedOn   *time.Time `json:"completedOn,omitempty"`

	// Game is filled in on reads for display.
	Game *GameInfo `json:"game,omitempty"`
}

type GameInfo struct {
	ID     string `json:"id"`
	GameID string `json:"gameId"`
	Name   string `json:"name"`
}

// Filter selects sessions for List. A zero Limit returns every match.
type Filter struct {
	Status Status
	Query  string
	Limit  int
	Offset int
}

type Stats struct {
	Live          int `json:"live"`
	Ended         int `json:"ended"`
	ActivePlayers int `json:"activePlayers"`
	ActiveTeams   int `json:"activeTeams"`
}
