package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	clockport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/clock"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/idempotency"
)

var errNilPool = errors.New("nil postgres pool")

// Store persists replayable responses in the idempotency_keys table.
type Store struct {
	pool *pgxpool.Pool

	clk       clockport.Clock
	retention time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithRetention hides records older than d from Get and lets Prune remove them.
func WithRetention(clk clockport.Clock, d time.Duration) Option {
	return func(s *Store) {
		if clk != nil && d > 0 {
			s.clk = clk
			s.retention = d
		}
	}
}

func NewStore(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool}
	for _, o := range opts {
		o(s)
	}
	return s
}

const selectRecord = `
	SELECT status_code, content_type, body, created_at
	FROM idempotency_keys
	WHERE (idempotency_key, subject, method, route, body_hash) = ($1, $2, $3, $4, $5)
	  AND ($6::timestamptz IS NULL OR created_at >= $6)`

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errNilPool
	}

	var rec idempotency.Record
	err := s.pool.QueryRow(ctx, selectRecord,
		string(fp.Key), string(fp.Subject), fp.Method, fp.Route, fp.BodyHash, s.cutoff(),
	).Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return idempotency.Record{}, false, nil
	case err != nil:
		return idempotency.Record{}, false, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

const upsertRecord = `
	INSERT INTO idempotency_keys
		(idempotency_key, subject, method, route, body_hash, status_code, content_type, body, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (idempotency_key, subject, method, route, body_hash) DO UPDATE
	SET status_code  = EXCLUDED.status_code,
	    content_type = EXCLUDED.content_type,
	    body         = EXCLUDED.body,
	    created_at   = EXCLUDED.created_at`

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errNilPool
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	// body is NOT NULL; fingerprint-only records carry no payload.
	if rec.Body == nil {
		rec.Body = []byte{}
	}
	_, err := s.pool.Exec(ctx, upsertRecord,
		string(fp.Key), string(fp.Subject), fp.Method, fp.Route, fp.BodyHash,
		rec.StatusCode, rec.ContentType, rec.Body, rec.CreatedAt.UTC(),
	)
	return err
}

// Prune deletes records outside the retention window and reports how many went.
// Without a retention window it is a no-op.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, errNilPool
	}
	cutoff := s.cutoff()
	if cutoff == nil {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, *cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) now() time.Time {
	if s.clk != nil {
		return s.clk.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) cutoff() *time.Time {
	if s.clk == nil {
		return nil
	}
	c := s.clk.Now().Add(-s.retention).UTC()
	return &c
}
