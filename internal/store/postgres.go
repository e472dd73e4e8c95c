package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS structured_acts (
	id          UUID PRIMARY KEY,
	act_type    TEXT NOT NULL,
	act_number  TEXT NOT NULL,
	act_year    INT NOT NULL,
	run_id      TEXT NOT NULL,
	status      TEXT NOT NULL,
	ementa      TEXT,
	approved    BOOLEAN NOT NULL DEFAULT FALSE,
	score       INT NOT NULL DEFAULT 0,
	source_url  TEXT,
	document    JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (act_type, act_number, act_year)
);

CREATE TABLE IF NOT EXISTS act_records (
	id            UUID PRIMARY KEY,
	act_type      TEXT NOT NULL,
	act_number    TEXT NOT NULL,
	act_year      INT NOT NULL,
	abstract      TEXT,
	gazette_date  DATE,
	act_date      DATE,
	source_url    TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (act_type, act_number, act_year)
);`

// the stored ementa survives a run that found none
const upsertAct = `
	INSERT INTO structured_acts (
		id, act_type, act_number, act_year, run_id, status, ementa,
		approved, score, source_url, document, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (act_type, act_number, act_year) DO UPDATE SET
		run_id = EXCLUDED.run_id,
		status = EXCLUDED.status,
		ementa = COALESCE(NULLIF(EXCLUDED.ementa, ''), structured_acts.ementa),
		approved = EXCLUDED.approved,
		score = EXCLUDED.score,
		source_url = EXCLUDED.source_url,
		document = EXCLUDED.document,
		updated_at = EXCLUDED.updated_at`

const selectAct = `
	SELECT document, COALESCE(ementa, '')
	FROM structured_acts
	WHERE act_type = $1 AND act_number = $2 AND act_year = $3`

const upsertRecord = `
	INSERT INTO act_records (
		id, act_type, act_number, act_year, abstract,
		gazette_date, act_date, source_url, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (act_type, act_number, act_year) DO UPDATE SET
		abstract = COALESCE(NULLIF(EXCLUDED.abstract, ''), act_records.abstract),
		gazette_date = COALESCE(EXCLUDED.gazette_date, act_records.gazette_date),
		act_date = COALESCE(EXCLUDED.act_date, act_records.act_date),
		source_url = EXCLUDED.source_url,
		updated_at = EXCLUDED.updated_at`

// querier is the subset of *pgxpool.Pool the store uses
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore upserts acts and records into Postgres
type PostgresStore struct {
	db    querier
	close func()
	now   func() time.Time
}

// NewPostgresStore connects and ensures the schema exists
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &PostgresStore{db: pool, close: pool.Close, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) FetchAct(ctx context.Context, key model.ActKey) (*model.StructuredAct, error) {
	var document []byte
	var ementa string
	err := s.db.QueryRow(ctx, selectAct, string(key.Type), key.Number, key.Year).Scan(&document, &ementa)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch act %s: %w", key, err)
	}

	var act model.StructuredAct
	if err := json.Unmarshal(document, &act); err != nil {
		return nil, fmt.Errorf("failed to decode act %s: %w", key, err)
	}
	if act.Ementa == "" {
		act.Ementa = ementa
	}
	return &act, nil
}

func (s *PostgresStore) SaveAct(ctx context.Context, act *model.StructuredAct) error {
	if err := validKey(act.Key); err != nil {
		return err
	}

	document, err := json.Marshal(act)
	if err != nil {
		return fmt.Errorf("failed to marshal act: %w", err)
	}

	_, err = s.db.Exec(ctx, upsertAct,
		uuid.New(),
		string(act.Key.Type),
		act.Key.Number,
		act.Key.Year,
		act.RunID,
		string(act.Status),
		act.Ementa,
		act.Score.Approved,
		act.Score.Index,
		act.SourceURL,
		document, // JSONB field
		s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert act %s: %w", act.Key, err)
	}
	return nil
}

func (s *PostgresStore) SaveRecords(ctx context.Context, records []model.ActRecord) (int, error) {
	batch := &pgx.Batch{}
	now := s.now().UTC()
	for _, r := range records {
		if validKey(r.Key()) != nil {
			continue
		}
		batch.Queue(upsertRecord,
			uuid.New(),
			string(r.ActType),
			r.ActNumber,
			r.Year,
			r.Abstract,
			r.OfficialGazetteDate,
			r.ActDate,
			r.SourceURL,
			now,
		)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	results := s.db.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	n := 0
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return n, fmt.Errorf("failed to upsert record: %w", err)
		}
		n++
	}
	log.Debug().Int("records", n).Msg("act records upserted")
	return n, nil
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
