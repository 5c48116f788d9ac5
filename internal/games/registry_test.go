package games

import (
	"context"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/database"
	"github.com/playperu/superadmin/internal/migrations"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return NewRegistry(db, quartz.NewMock(t))
}

func TestRegisterAndFind(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	g, err := reg.Register(ctx, RegisterParams{
		GameID:    "quiz",
		Name:      "Quiz Night",
		ServerURL: "http://g",
		Endpoints: map[string]string{"createSession": "start"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)

	byGameID, err := reg.FindByGameID(ctx, "quiz")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byGameID.ID)
	assert.Equal(t, "start", byGameID.Endpoints[OpCreateSession])
	assert.True(t, byGameID.CreatedAt.Equal(g.CreatedAt))

	byID, err := reg.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "quiz", byID.GameID)
}

func TestRegisterDuplicateGameID(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	p := RegisterParams{GameID: "quiz", Name: "Quiz", ServerURL: "http://g"}
	_, err := reg.Register(ctx, p)
	require.NoError(t, err)

	_, err = reg.Register(ctx, p)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		p    RegisterParams
	}{
		{"missing gameId", RegisterParams{Name: "Quiz", ServerURL: "http://g"}},
		{"missing name", RegisterParams{GameID: "quiz", ServerURL: "http://g"}},
		{"missing serverUrl", RegisterParams{GameID: "quiz", Name: "Quiz"}},
		{"relative serverUrl", RegisterParams{GameID: "quiz", Name: "Quiz", ServerURL: "/games/quiz"}},
		{"unknown endpoint", RegisterParams{
			GameID: "quiz", Name: "Quiz", ServerURL: "http://g",
			Endpoints: map[string]string{"launchRocket": "boom"},
		}},
	}

	reg := newTestRegistry(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Register(context.Background(), tt.p)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestFindUnknownGame(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.FindByGameID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = reg.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListOrderedByName(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	for _, p := range []RegisterParams{
		{GameID: "tf", Name: "Team Formation", ServerURL: "http://tf"},
		{GameID: "tuc", Name: "The Ultimate Challenge", ServerURL: "http://tuc"},
		{GameID: "gsk", Name: "Get Set Know", ServerURL: "http://gsk"},
	} {
		_, err := reg.Register(ctx, p)
		require.NoError(t, err)
	}

	list, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "gsk", list[0].GameID)
	assert.Equal(t, "tf", list[1].GameID)
	assert.Equal(t, "tuc", list[2].GameID)
}

func TestOperationURL(t *testing.T) {
	g := Game{
		GameID:    "quiz",
		ServerURL: "http://g/",
		Endpoints: map[Operation]string{OpCreateSession: "/api/v1/start"},
	}

	u, err := g.OperationURL(OpCreateSession)
	require.NoError(t, err)
	assert.Equal(t, "http://g/api/v1/start", u)

	_, err = g.OperationURL(OpUpdateSession)
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	assert.False(t, g.Supports(OpUpdateSession))
}
