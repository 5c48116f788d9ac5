package sessions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/superadmin/internal/apperr"
	"github.com/playperu/superadmin/internal/database"
	"github.com/playperu/superadmin/internal/games"
	"github.com/playperu/superadmin/internal/migrations"
)

type fixture struct {
	store  *Store
	quiz   games.Game
	trivia games.Game
	base   time.Time
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))

	reg := games.NewRegistry(db, quartz.NewMock(t))
	quiz, err := reg.Register(ctx, games.RegisterParams{GameID: "quiz", Name: "Quiz Night", ServerURL: "http://g"})
	require.NoError(t, err)
	trivia, err := reg.Register(ctx, games.RegisterParams{GameID: "trivia", Name: "Trivia", ServerURL: "http://t"})
	require.NoError(t, err)

	return fixture{
		store:  NewStore(db),
		quiz:   quiz,
		trivia: trivia,
		base:   time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (f fixture) create(t *testing.T, game games.Game, name, remoteID string, offset time.Duration) Session {
	t.Helper()
	sess := Session{
		GameRef:       game.ID,
		Name:          name,
		AdminName:     "Bob",
		AdminPin:      "1234",
		PlayerLink:    "p/" + name,
		AdminLink:     "a/" + name,
		GameSessionID: remoteID,
		CreatedAt:     f.base.Add(offset),
	}
	require.NoError(t, f.store.Create(context.Background(), &sess))
	return sess
}

func TestCreateAndGet(t *testing.T) {
	f := setup(t)
	created := f.create(t, f.quiz, "S1", "rs1", 0)

	got, err := f.store.Get(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusLive, got.Status)
	assert.Equal(t, "a/S1", got.AdminLink)
	assert.Equal(t, "p/S1", got.PlayerLink)
	assert.Equal(t, "rs1", got.GameSessionID)
	assert.Zero(t, got.TotalPlayers)
	assert.Nil(t, got.CompletedOn)
	require.NotNil(t, got.Game)
	assert.Equal(t, "quiz", got.Game.GameID)
	assert.Equal(t, "Quiz Night", got.Game.Name)
}

func TestGetUnknown(t *testing.T) {
	f := setup(t)
	_, err := f.store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGameSessionIDUniquePerGame(t *testing.T) {
	f := setup(t)
	f.create(t, f.quiz, "S1", "rs1", 0)

	dup := Session{GameRef: f.quiz.ID, Name: "S2", AdminName: "Bob", AdminPin: "1", PlayerLink: "p", AdminLink: "a",
		GameSessionID: "rs1", CreatedAt: f.base}
	err := f.store.Create(context.Background(), &dup)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// Same remote id on another game is allowed.
	f.create(t, f.trivia, "S3", "rs1", time.Minute)

	// Sessions without a remote id never collide.
	f.create(t, f.quiz, "S4", "", 2*time.Minute)
	f.create(t, f.quiz, "S5", "", 3*time.Minute)
}

func TestFindByGameSessionID(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	s1 := f.create(t, f.quiz, "S1", "rs1", 0)
	f.create(t, f.trivia, "S2", "shared", time.Minute)
	s3 := f.create(t, f.quiz, "S3", "shared", 2*time.Minute)

	got, err := f.store.FindByGameSessionID(ctx, "rs1", "")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, got.ID)

	_, err = f.store.FindByGameSessionID(ctx, "shared", "")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err = f.store.FindByGameSessionID(ctx, "shared", f.quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, s3.ID, got.ID)

	_, err = f.store.FindByGameSessionID(ctx, "nope", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateAppliesAndRollsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	s := f.create(t, f.quiz, "S1", "rs1", 0)

	updated, err := f.store.Update(ctx, s.ID, func(sess *Session) error {
		sess.TotalPlayers = 12
		sess.UpdatedAt = f.base.Add(time.Hour)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.TotalPlayers)

	boom := errors.New("boom")
	_, err = f.store.Update(ctx, s.ID, func(sess *Session) error {
		sess.TotalPlayers = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := f.store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.TotalPlayers)
	assert.True(t, got.UpdatedAt.Equal(f.base.Add(time.Hour)))

	_, err = f.store.Update(ctx, "missing", func(*Session) error { return nil })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListFiltersByStatusNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	older := f.create(t, f.quiz, "Older", "", 0)
	newer := f.create(t, f.trivia, "Newer", "", time.Minute)
	ended := f.create(t, f.quiz, "Ended", "", 2*time.Minute)

	_, err := f.store.Update(ctx, ended.ID, func(s *Session) error {
		now := f.base.Add(time.Hour)
		s.Status = StatusEnded
		s.CompletedOn = &now
		return nil
	})
	require.NoError(t, err)

	live, total, err := f.store.List(ctx, Filter{Status: StatusLive})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, live, 2)
	assert.Equal(t, newer.ID, live[0].ID)
	assert.Equal(t, older.ID, live[1].ID)
	for _, s := range live {
		assert.Equal(t, StatusLive, s.Status)
	}

	endedList, total, err := f.store.List(ctx, Filter{Status: StatusEnded})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, endedList, 1)
	assert.Equal(t, ended.ID, endedList[0].ID)
	require.NotNil(t, endedList[0].CompletedOn)
}

func TestListSearchAndPaginate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	for i := range 5 {
		f.create(t, f.quiz, fmt.Sprintf("Friday %d", i), "", time.Duration(i)*time.Minute)
	}
	f.create(t, f.trivia, "Offsite", "", 10*time.Minute)
	f.create(t, f.quiz, "100%_done", "", 11*time.Minute)

	page, total, err := f.store.List(ctx, Filter{Status: StatusLive, Query: "friday", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Friday 2", page[0].Name)
	assert.Equal(t, "Friday 1", page[1].Name)

	byGame, total, err := f.store.List(ctx, Filter{Status: StatusLive, Query: "TRIVIA"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Offsite", byGame[0].Name)

	literal, total, err := f.store.List(ctx, Filter{Status: StatusLive, Query: "%_"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "100%_done", literal[0].Name)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	st, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)

	a := f.create(t, f.quiz, "A", "", 0)
	b := f.create(t, f.quiz, "B", "", time.Minute)
	for id, players := range map[string]int{a.ID: 7, b.ID: 5} {
		_, err := f.store.Update(ctx, id, func(s *Session) error {
			s.TotalPlayers = players
			s.TotalTeams = 2
			return nil
		})
		require.NoError(t, err)
	}
	_, err = f.store.Update(ctx, b.ID, func(s *Session) error {
		s.Status = StatusEnded
		return nil
	})
	require.NoError(t, err)

	st, err = f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Live: 1, Ended: 1, ActivePlayers: 7, ActiveTeams: 2}, st)
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{"live": StatusLive, "ENDED": StatusEnded, " Live ": StatusLive} {
		got, ok := ParseStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseStatus("paused")
	assert.False(t, ok)
}
