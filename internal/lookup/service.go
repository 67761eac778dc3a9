// Package lookup runs a position against every registered opening book and
// ranks the moves they propose.
package lookup

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/theorybook/internal/board"
	"github.com/hailam/theorybook/internal/book"
	"github.com/hailam/theorybook/internal/registry"
)

// DefaultConcurrency bounds how many books are loaded and probed at once.
const DefaultConcurrency = 8

// Catalog lists the books to search, in tie-break order.
type Catalog interface {
	Books() []registry.Entry
}

// Loader returns the parsed book for an entry, loading it if needed.
type Loader interface {
	Load(ctx context.Context, id, path string) (*book.Book, error)
}

// Hit is a book that has at least one move for the position.
type Hit struct {
	OpeningID  string
	Path       string
	Candidates []book.Candidate
	Best       book.Candidate
}

// Service answers multi-book lookups. It holds no per-call state and is safe
// for concurrent use.
type Service struct {
	catalog     Catalog
	loader      Loader
	log         zerolog.Logger
	concurrency int
	legalOnly   bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithConcurrency bounds the number of books searched in parallel.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLegalOnly drops book moves that are not legal in the position.
func WithLegalOnly(on bool) Option {
	return func(s *Service) { s.legalOnly = on }
}

// NewService creates a lookup service over the books in catalog.
func NewService(catalog Catalog, loader Loader, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		loader:      loader,
		log:         zerolog.Nop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LookupAllBooksByFEN probes every book for the position and returns the books
// that know it, ordered by the weight of their best move. Books with equal
// best weights keep catalog order. An unparsable FEN yields no hits, and a
// book that fails to load is left out.
func (s *Service) LookupAllBooksByFEN(ctx context.Context, fen string) []Hit {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		s.log.Debug().Err(err).Str("fen", fen).Msg("lookup skipped")
		return []Hit{}
	}
	return s.lookup(ctx, pos, fen)
}

// LookupPosition is LookupAllBooksByFEN for an already parsed position.
func (s *Service) LookupPosition(ctx context.Context, pos *board.Position) []Hit {
	return s.lookup(ctx, pos, pos.FEN())
}

func (s *Service) lookup(ctx context.Context, pos *board.Position, fen string) []Hit {
	key := pos.PolyglotKey()
	entries := s.catalog.Books()

	var legal map[string]bool
	if s.legalOnly {
		legal = legalMoves(pos)
	}

	found := make([]*Hit, len(entries))
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			b, err := s.loader.Load(ctx, e.ID, e.Path)
			if err != nil {
				ev := s.log.Warn()
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					ev = s.log.Debug()
				}
				ev.Err(err).Str("book", e.ID).Str("path", e.Path).Msg("book unavailable")
				return nil
			}

			cands := b.Lookup(key)
			if legal != nil {
				cands = filterLegal(cands, legal)
			}
			best, ok := book.Best(cands)
			if !ok {
				return nil
			}
			found[i] = &Hit{
				OpeningID:  e.ID,
				Path:       e.Path,
				Candidates: cands,
				Best:       best,
			}
			return nil
		})
	}
	g.Wait()

	hits := make([]Hit, 0, len(found))
	for _, h := range found {
		if h != nil {
			hits = append(hits, *h)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Best.Weight > hits[j].Best.Weight
	})

	s.log.Debug().
		Str("fen", fen).
		Str("key", board.FormatKey(key)).
		Int("books", len(entries)).
		Int("hits", len(hits)).
		Msg("lookup")
	return hits
}
