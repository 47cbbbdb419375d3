package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lienwise/bidengine/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS decisions (
	id             TEXT PRIMARY KEY,
	parcel_id      TEXT NOT NULL,
	analyzed_at    TIMESTAMPTZ NOT NULL,
	recommendation TEXT NOT NULL,
	composite      DOUBLE PRECISION NOT NULL,
	max_bid_cents  BIGINT NOT NULL,
	ratio          DOUBLE PRECISION NOT NULL,
	needs_approval BOOLEAN NOT NULL DEFAULT FALSE,
	record         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (parcel_id, analyzed_at)
);

CREATE INDEX IF NOT EXISTS idx_decisions_parcel ON decisions(parcel_id, analyzed_at DESC);
CREATE INDEX IF NOT EXISTS idx_decisions_recommendation ON decisions(recommendation);
CREATE INDEX IF NOT EXISTS idx_decisions_needs_approval ON decisions(needs_approval);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveDecision inserts a new record; the unique (parcel_id, analyzed_at)
// key keeps history append-only.
func (s *PostgresStore) SaveDecision(ctx context.Context, d *model.DecisionRecord) (string, error) {
	id := uuid.NewString()
	rec := *d
	rec.ID = id
	payload, err := json.Marshal(&rec)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal decision")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO decisions (id, parcel_id, analyzed_at, recommendation, composite, max_bid_cents, ratio, needs_approval, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, d.ParcelID, d.AnalyzedAt.UTC(), string(d.Recommendation),
		d.Composite, d.MaxBid.Cents(), d.BidJudgmentRatio, d.NeedsApproval,
		payload,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: save decision")
	}
	return id, nil
}

func (s *PostgresStore) GetDecision(ctx context.Context, id string) (*model.DecisionRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM decisions WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: decision %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get decision")
	}
	return decodeRecord(string(payload))
}

func (s *PostgresStore) LatestDecision(ctx context.Context, parcelID string) (*model.DecisionRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM decisions WHERE parcel_id = $1 ORDER BY analyzed_at DESC LIMIT 1`,
		parcelID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest decision")
	}
	return decodeRecord(string(payload))
}

func (s *PostgresStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]model.DecisionRecord, error) {
	query := `SELECT record FROM decisions`
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.ParcelID != "" {
		conds = append(conds, "parcel_id = "+arg(filter.ParcelID))
	}
	if filter.Recommendation != "" {
		conds = append(conds, "recommendation = "+arg(string(filter.Recommendation)))
	}
	if filter.NeedsApproval != nil {
		conds = append(conds, "needs_approval = "+arg(*filter.NeedsApproval))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY analyzed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list decisions")
	}
	defer rows.Close()

	var out []model.DecisionRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan decision")
		}
		rec, err := decodeRecord(string(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list decisions")
}
