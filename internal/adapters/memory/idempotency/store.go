package idempotency

import (
	"context"
	"sync"
	"time"

	clockport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/clock"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/idempotency"
)

// Store keeps replayable responses in process memory, optionally bounded by a
// retention window. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	records map[idempotency.Fingerprint]idempotency.Record

	clk       clockport.Clock
	retention time.Duration
}

// NewStore returns a store that keeps records for the life of the process.
func NewStore() *Store {
	return &Store{records: make(map[idempotency.Fingerprint]idempotency.Record)}
}

// NewStoreWithRetention returns a store that forgets records whose CreatedAt is
// older than retention, measured against clk.
func NewStoreWithRetention(clk clockport.Clock, retention time.Duration) *Store {
	s := NewStore()
	if clk != nil && retention > 0 {
		s.clk = clk
		s.retention = retention
	}
	return s
}

func (s *Store) Get(_ context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[fp]
	if !ok {
		return idempotency.Record{}, false, nil
	}
	if s.expired(rec) {
		delete(s.records, fp)
		return idempotency.Record{}, false, nil
	}
	rec.Body = append([]byte(nil), rec.Body...)
	return rec, true, nil
}

func (s *Store) Put(_ context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() && s.clk != nil {
		rec.CreatedAt = s.clk.Now()
	}
	rec.Body = append([]byte(nil), rec.Body...)
	s.records[fp] = rec
	s.pruneLocked()
	return nil
}

// Len reports how many records are held, including expired ones not yet pruned.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) expired(rec idempotency.Record) bool {
	if s.clk == nil || rec.CreatedAt.IsZero() {
		return false
	}
	return s.clk.Now().Sub(rec.CreatedAt) > s.retention
}

func (s *Store) pruneLocked() {
	if s.clk == nil {
		return
	}
	for fp, rec := range s.records {
		if s.expired(rec) {
			delete(s.records, fp)
		}
	}
}
