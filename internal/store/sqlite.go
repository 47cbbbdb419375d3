package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lienwise/bidengine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS decisions (
	id             TEXT PRIMARY KEY,
	parcel_id      TEXT NOT NULL,
	analyzed_at    DATETIME NOT NULL,
	recommendation TEXT NOT NULL,
	composite      REAL NOT NULL,
	max_bid_cents  INTEGER NOT NULL,
	ratio          REAL NOT NULL,
	needs_approval INTEGER NOT NULL DEFAULT 0,
	record         TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (parcel_id, analyzed_at)
);

CREATE INDEX IF NOT EXISTS idx_decisions_parcel ON decisions(parcel_id, analyzed_at DESC);
CREATE INDEX IF NOT EXISTS idx_decisions_recommendation ON decisions(recommendation);
CREATE INDEX IF NOT EXISTS idx_decisions_needs_approval ON decisions(needs_approval);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveDecision inserts a new record. Insert-only: the unique key on
// (parcel_id, analyzed_at) makes accidental re-writes an error rather than
// a silent history edit.
func (s *SQLiteStore) SaveDecision(ctx context.Context, d *model.DecisionRecord) (string, error) {
	id := uuid.NewString()
	rec := *d
	rec.ID = id
	payload, err := json.Marshal(&rec)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal decision")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, parcel_id, analyzed_at, recommendation, composite, max_bid_cents, ratio, needs_approval, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, d.ParcelID, d.AnalyzedAt.UTC().Format(time.RFC3339Nano),
		string(d.Recommendation), d.Composite, d.MaxBid.Cents(),
		d.BidJudgmentRatio, boolToInt(d.NeedsApproval), string(payload),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: save decision")
	}
	return id, nil
}

func (s *SQLiteStore) GetDecision(ctx context.Context, id string) (*model.DecisionRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM decisions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("sqlite: decision %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get decision")
	}
	return decodeRecord(payload)
}

func (s *SQLiteStore) LatestDecision(ctx context.Context, parcelID string) (*model.DecisionRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM decisions WHERE parcel_id = ? ORDER BY analyzed_at DESC LIMIT 1`,
		parcelID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest decision")
	}
	return decodeRecord(payload)
}

func (s *SQLiteStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]model.DecisionRecord, error) {
	query := `SELECT record FROM decisions`
	var conds []string
	var args []any

	if filter.ParcelID != "" {
		conds = append(conds, "parcel_id = ?")
		args = append(args, filter.ParcelID)
	}
	if filter.Recommendation != "" {
		conds = append(conds, "recommendation = ?")
		args = append(args, string(filter.Recommendation))
	}
	if filter.NeedsApproval != nil {
		conds = append(conds, "needs_approval = ?")
		args = append(args, boolToInt(*filter.NeedsApproval))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY analyzed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list decisions")
	}
	defer rows.Close()

	var out []model.DecisionRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan decision")
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list decisions")
}

func decodeRecord(payload string) (*model.DecisionRecord, error) {
	var rec model.DecisionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, eris.Wrap(err, "store: decode decision record")
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
