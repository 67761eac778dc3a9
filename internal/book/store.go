package book

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// State is the load state of a book in a Store.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load-failed"
	default:
		return "unknown"
	}
}

// Store loads books on first use and keeps them for the life of the process.
// Entries are keyed by (id, path) and never evicted. Concurrent first loads of
// the same book share a single fetch.
//
// A failed load is remembered and returned to later callers without touching
// the source again, until Retry clears it. A fetch is shared by every caller
// waiting on it, so it runs detached from their contexts and is bounded by
// FetchTimeout instead. A caller whose context ends stops waiting; the fetch
// carries on for the others and its result is still cached.
type Store struct {
	source Source
	log    zerolog.Logger
	group  singleflight.Group

	mu      sync.RWMutex
	books   map[string]*Book
	failed  map[string]error
	loading map[string]bool

	hits    atomic.Uint64
	fetches atomic.Uint64
}

// NewStore creates a store reading from source.
func NewStore(source Source, log zerolog.Logger) *Store {
	return &Store{
		source:  source,
		log:     log,
		books:   make(map[string]*Book),
		failed:  make(map[string]error),
		loading: make(map[string]bool),
	}
}

// FetchTimeout bounds a single fetch from the source. Timeouts are not
// remembered as failures.
const FetchTimeout = 2 * time.Minute

func cacheKey(id, path string) string {
	return id + ":" + path
}

// Load returns the book for (id, path), fetching it on first use.
func (s *Store) Load(ctx context.Context, id, path string) (*Book, error) {
	key := cacheKey(id, path)

	if b, ok, err := s.cached(key); ok {
		s.hits.Add(1)
		return b, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		// A flight that finished between our cache check and DoChan already
		// stored its result.
		if b, ok, err := s.cached(key); ok {
			return b, err
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		return s.fetch(fctx, key, id, path)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Book), nil
	}
}

func (s *Store) cached(key string) (*Book, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.books[key]; ok {
		return b, true, nil
	}
	if err, ok := s.failed[key]; ok {
		return nil, true, err
	}
	return nil, false, nil
}

func (s *Store) fetch(ctx context.Context, key, id, path string) (*Book, error) {
	s.mu.Lock()
	s.loading[key] = true
	s.mu.Unlock()

	s.fetches.Add(1)
	data, err := s.source.Fetch(ctx, path)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loading, key)

	if err != nil {
		err = fmt.Errorf("load book %s (%s): %w", id, path, err)
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.failed[key] = err
		}
		s.log.Warn().Err(err).Str("book", id).Msg("book load failed")
		return nil, err
	}

	b := NewBook(id, path, data)
	if len(data)%EntrySize != 0 {
		s.log.Debug().Str("book", id).Int("bytes", len(data)).Msg("ignoring trailing partial record")
	}
	s.books[key] = b
	s.log.Debug().Str("book", id).Str("path", path).Int("entries", b.Len()).Msg("book loaded")
	return b, nil
}

// State reports the load state of (id, path).
func (s *Store) State(id, path string) State {
	key := cacheKey(id, path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.books[key] != nil:
		return StateLoaded
	case s.failed[key] != nil:
		return StateLoadFailed
	case s.loading[key]:
		return StateLoading
	default:
		return StateUnloaded
	}
}

// Retry forgets a failed load so the next Load fetches again. It reports
// whether there was a failure to forget.
func (s *Store) Retry(id, path string) bool {
	key := cacheKey(id, path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.failed[key]; !ok {
		return false
	}
	delete(s.failed, key)
	return true
}

// StoreStats summarizes the cache.
type StoreStats struct {
	Loaded  int
	Failed  int
	Hits    uint64
	Fetches uint64
}

// Stats returns cache counters.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStats{
		Loaded:  len(s.books),
		Failed:  len(s.failed),
		Hits:    s.hits.Load(),
		Fetches: s.fetches.Load(),
	}
}
