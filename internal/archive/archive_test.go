package archive

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prsnt95/coup/internal/game"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func finishedSnapshot(t *testing.T, room string) game.Snapshot {
	t.Helper()
	g, err := game.New(room)
	require.NoError(t, err)
	_, err = g.Join("ada")
	require.NoError(t, err)
	_, err = g.Join("bob")
	require.NoError(t, err)
	require.NoError(t, g.Start())
	require.NoError(t, g.Leave(1))
	require.True(t, g.IsFinished())
	return g.PublicState(game.NoSeat)
}

func TestSaveAndRecent(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "archive.db"))
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	require.NoError(t, s.SaveFinished(context.Background(), finishedSnapshot(t, "AAAAAA")))
	clock = clock.Add(time.Minute)
	require.NoError(t, s.SaveFinished(context.Background(), finishedSnapshot(t, "BBBBBB")))

	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BBBBBB", got[0].Room)
	assert.Equal(t, "AAAAAA", got[1].Room)
	assert.Equal(t, "ada", got[0].WinnerName)
	assert.Equal(t, 0, got[0].WinnerSeat)
	assert.Equal(t, 2, got[0].Players)
	assert.Equal(t, clock, got[0].FinishedAt)

	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(got[0].Snapshot, &snap))
	assert.Equal(t, game.PhaseFinished, snap.Phase)

	one, err := s.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestSaveRejectsUnfinished(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "archive.db"))
	g, err := game.New("CCCCCC")
	require.NoError(t, err)
	assert.Error(t, s.SaveFinished(context.Background(), g.PublicState(game.NoSeat)))
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	s, err := Open(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.SaveFinished(context.Background(), finishedSnapshot(t, "DDDDDD")))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	got, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ", zerolog.Nop())
	assert.Error(t, err)
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nA\n", upSection("-- +migrate Up\nA\n-- +migrate Down\nB"))
	assert.Equal(t, "plain", upSection("plain"))
}
