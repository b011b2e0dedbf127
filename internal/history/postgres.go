package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bridgetable/internal/bridge"
)

const (
	defaultHandsTable  = "session_hands"
	defaultTricksTable = "session_hand_tricks"
)

// PostgresHandRepository persists hand records over database/sql.
type PostgresHandRepository struct {
	db          *sql.DB
	handsTable  string
	tricksTable string
}

// PostgresOption overrides repository defaults.
type PostgresOption func(*PostgresHandRepository)

// WithHandsTable overrides the hands table name.
func WithHandsTable(name string) PostgresOption {
	return func(r *PostgresHandRepository) { r.handsTable = name }
}

// WithTricksTable overrides the tricks table name.
func WithTricksTable(name string) PostgresOption {
	return func(r *PostgresHandRepository) { r.tricksTable = name }
}

// NewPostgresHandRepository constructs a repository.
func NewPostgresHandRepository(db *sql.DB, opts ...PostgresOption) *PostgresHandRepository {
	r := &PostgresHandRepository{
		db:          db,
		handsTable:  defaultHandsTable,
		tricksTable: defaultTricksTable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureSchema creates the tables when they do not exist yet, so a
// fresh club install needs no separate migration step.
func (r *PostgresHandRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("hand repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	trump TEXT NOT NULL,
	level INT NOT NULL,
	declarer TEXT NOT NULL,
	north_south INT NOT NULL,
	east_west INT NOT NULL,
	winning_team TEXT NOT NULL
)`, r.handsTable))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	hand_id BIGINT NOT NULL REFERENCES %s(id),
	trick_number INT NOT NULL,
	plays TEXT NOT NULL,
	winner TEXT NOT NULL,
	PRIMARY KEY (hand_id, trick_number)
)`, r.tricksTable, r.handsTable))
	return err
}

// SaveHand inserts a completed hand and its tricks in one transaction.
func (r *PostgresHandRepository) SaveHand(ctx context.Context, rec HandRecord) error {
	if r == nil || r.db == nil {
		return errors.New("hand repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var handID int64
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
INSERT INTO %s (
	started_at, finished_at, trump, level, declarer,
	north_south, east_west, winning_team
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id`, r.handsTable),
		rec.StartedAt, rec.FinishedAt, rec.Trump.String(), rec.Level, rec.Declarer.String(),
		rec.NorthSouth, rec.EastWest, rec.WinningTeam.String(),
	).Scan(&handID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, trick := range rec.Tricks {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (hand_id, trick_number, plays, winner)
VALUES ($1,$2,$3,$4)`, r.tricksTable),
			handID, trick.Number, formatPlays(trick.Plays), trick.Winner.String())
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// formatPlays renders one trick's plays as "N:QH E:AH ...".
func formatPlays(plays []bridge.Play) string {
	parts := make([]string, len(plays))
	for i, play := range plays {
		parts[i] = fmt.Sprintf("%s:%s", play.Seat.String()[:1], play.Card)
	}
	return strings.Join(parts, " ")
}
