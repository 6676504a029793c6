package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/gridmet-summary/internal/summary"
)

var (
	// ErrNotFound is returned when no export record matches a lookup.
	ErrNotFound = errors.New("no export record found")
)

// RecordHistory holds the time-ordered export records for one variable.
type RecordHistory struct {
	Records []summary.Record
}

// MemoryStore is a concurrency-safe in-memory store of export records.
type MemoryStore struct {
	mu sync.RWMutex

	// key: variable, value: history
	data map[string]*RecordHistory
	byID map[string]summary.Record

	// retention configuration
	maxHistory int           // max number of records per variable
	maxAge     time.Duration // optional max age for records
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string]*RecordHistory),
		byID:       make(map[string]summary.Record),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// Save appends a record for its variable and enforces retention.
func (s *MemoryStore) Save(rec summary.Record) {
	key := rec.Variable()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &RecordHistory{}
		s.data[key] = history
	}

	history.Records = append(history.Records, rec)
	s.byID[rec.ID] = rec

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Records) > s.maxHistory {
		over := len(history.Records) - s.maxHistory
		s.forget(history.Records[:over])
		history.Records = history.Records[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Records); i++ {
			if !history.Records[i].CreatedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.forget(history.Records[:i])
			history.Records = history.Records[i:]
		}
	}
}

func (s *MemoryStore) forget(recs []summary.Record) {
	for _, r := range recs {
		delete(s.byID, r.ID)
	}
}

// Get returns the record with the given id.
func (s *MemoryStore) Get(id string) (summary.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return summary.Record{}, ErrNotFound
	}
	return rec, nil
}

// Latest returns the most recent record for a variable.
func (s *MemoryStore) Latest(variable string) (summary.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[variable]
	if !ok || len(history.Records) == 0 {
		return summary.Record{}, ErrNotFound
	}
	return history.Records[len(history.Records)-1], nil
}

// Range returns the records for a variable created between from and to (inclusive).
func (s *MemoryStore) Range(variable string, from, to time.Time) ([]summary.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[variable]
	if !ok || len(history.Records) == 0 {
		return nil, ErrNotFound
	}

	var result []summary.Record
	for _, rec := range history.Records {
		if !rec.CreatedAt.Before(from) && !rec.CreatedAt.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
