// Package archive keeps finished-game snapshots in SQLite for diagnostics.
// Nothing is ever read back into a running game.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Prsnt95/coup/internal/archive/migrations"
	"github.com/Prsnt95/coup/internal/game"
)

// Record is one archived game.
type Record struct {
	ID         int64           `json:"id"`
	Room       string          `json:"room"`
	WinnerSeat int             `json:"winnerSeat"`
	WinnerName string          `json:"winnerName"`
	Players    int             `json:"players"`
	FinishedAt time.Time       `json:"finishedAt"`
	Snapshot   json.RawMessage `json:"snapshot"`
}

// Store persists finished games.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens or creates the SQLite file at path and applies embedded migrations.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveFinished archives the public snapshot of a finished game.
func (s *Store) SaveFinished(ctx context.Context, snap game.Snapshot) error {
	if snap.Phase != game.PhaseFinished || snap.Winner == nil {
		return fmt.Errorf("room %s: game is not finished", snap.Room)
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	at := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO finished_games (room, winner_seat, winner_name, players, snapshot, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Room, snap.Winner.Seat, snap.Winner.Name, len(snap.Players), string(body), at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert finished game: %w", err)
	}
	s.logger.Info().Str("room", snap.Room).Str("winner", snap.Winner.Name).Msg("game archived")
	return nil
}

// Recent returns up to limit archived games, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room, winner_seat, winner_name, players, snapshot, finished_at
		 FROM finished_games ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query finished games: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r        Record
			snapshot string
			at       int64
		)
		if err := rows.Scan(&r.ID, &r.Room, &r.WinnerSeat, &r.WinnerName, &r.Players, &snapshot, &at); err != nil {
			return nil, fmt.Errorf("scan finished game: %w", err)
		}
		r.Snapshot = json.RawMessage(snapshot)
		r.FinishedAt = time.UnixMilli(at).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate finished games: %w", err)
	}
	return out, nil
}
