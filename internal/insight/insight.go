// Package insight turns a board snapshot into the book advice shown to a
// player: which books know the position, which moves they suggest, and why
// nothing is suggested when that is the case.
package insight

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/theorybook/internal/board"
	"github.com/hailam/theorybook/internal/lookup"
)

// Status says how an insight was reached.
type Status string

const (
	StatusPositionNotDetected Status = "position-not-detected"
	StatusFENMissing          Status = "fen-missing"
	StatusNotPlayerTurn       Status = "not-player-turn"
	StatusDepthLimit          Status = "depth-limit"
	StatusMoveNotFound        Status = "move-not-found"
	StatusMoveFound           Status = "move-found"
	StatusBookLoadError       Status = "book-load-error"
)

// Snapshot is the board state reported by the caller.
type Snapshot struct {
	FEN         string
	Moves       []string // SAN, as played so far
	PlayerColor string   // "w", "b" or empty when unknown
}

// Settings are the player preferences that shape an insight.
type Settings struct {
	RatingRange    RatingRange
	LimitsDisabled bool
	HintsEnabled   bool
}

// DefaultSettings returns the settings used before the player changes any.
func DefaultSettings() Settings {
	return Settings{RatingRange: DefaultRatingRange}
}

// Move is an aggregated book move with its SAN.
type Move struct {
	lookup.AggregatedMove
	SAN string
}

// Insight is the result of analysing one snapshot.
type Insight struct {
	Status           Status
	FEN              string
	Key              uint64
	OpeningID        string
	OpeningName      string
	BookPath         string
	BookMove         string
	FavoriteBookMove string
	Moves            []Move
	MatchedBooks     int
	HintsEnabled     bool
	Error            string
	UpdatedAt        time.Time
}

// Lookuper finds the books that know a position.
type Lookuper interface {
	LookupPosition(ctx context.Context, pos *board.Position) []lookup.Hit
}

// FavoriteSource lists the opening ids the player marked as favorites.
type FavoriteSource interface {
	Favorites() ([]string, error)
}

// Analyzer computes insights.
type Analyzer struct {
	lookup         Lookuper
	favorites      FavoriteSource
	ratings        map[string]RatingRange
	classification *Classification
	log            zerolog.Logger
	now            func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithFavorites sets where favorite books are read from.
func WithFavorites(f FavoriteSource) Option {
	return func(a *Analyzer) { a.favorites = f }
}

// WithClassification sets book names and rating bands. Only the books listed
// in ratings are subject to the rating filter.
func WithClassification(c *Classification, ratings map[string]RatingRange) Option {
	return func(a *Analyzer) {
		a.classification = c
		a.ratings = ratings
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

// NewAnalyzer creates an analyzer backed by l.
func NewAnalyzer(l Lookuper, opts ...Option) *Analyzer {
	a := &Analyzer{
		lookup: l,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute analyses a snapshot. A nil snapshot means no board was found.
func (a *Analyzer) Compute(ctx context.Context, snap *Snapshot, settings Settings) Insight {
	in := Insight{
		HintsEnabled: settings.HintsEnabled,
		UpdatedAt:    a.now(),
	}
	if snap == nil {
		in.Status = StatusPositionNotDetected
		return in
	}
	if !settings.RatingRange.Valid() {
		settings.RatingRange = DefaultRatingRange
	}

	fen := strings.TrimSpace(snap.FEN)
	if fen == "" && len(snap.Moves) > 0 {
		derived, err := FENFromMoves(snap.Moves)
		if err != nil {
			a.log.Debug().Err(err).Msg("cannot replay moves")
			in.Error = err.Error()
		}
		fen = derived
	}
	in.FEN = fen
	if fen == "" {
		in.Status = StatusFENMissing
		return in
	}

	if turn := activeColor(fen); snap.PlayerColor != "" && turn != "" && snap.PlayerColor != turn {
		in.Status = StatusNotPlayerTurn
		return in
	}

	played := (len(snap.Moves) + 1) / 2
	if !settings.LimitsDisabled && played > settings.RatingRange.DepthLimit() {
		in.Status = StatusDepthLimit
		return in
	}

	pos, err := board.ParseFEN(fen)
	if err != nil {
		a.log.Debug().Err(err).Str("fen", fen).Msg("lookup skipped")
		in.Status = StatusMoveNotFound
		in.Error = err.Error()
		return in
	}
	in.Key = pos.PolyglotKey()

	favorites := a.loadFavorites()

	hits := a.lookup.LookupPosition(ctx, pos)
	if err := ctx.Err(); err != nil {
		in.Status = StatusBookLoadError
		in.Error = err.Error()
		return in
	}
	if !settings.LimitsDisabled {
		hits = a.filterByRating(hits, settings.RatingRange)
	}
	if len(hits) == 0 {
		in.Status = StatusMoveNotFound
		return in
	}
	in.MatchedBooks = len(hits)

	aggregated := lookup.Aggregate(hits, favorites)
	if !settings.LimitsDisabled {
		aggregated = limitLines(aggregated, favorites, settings.RatingRange.LineLimit())
	}
	if len(aggregated) == 0 {
		in.Status = StatusMoveNotFound
		return in
	}

	san := sanTable(pos)
	in.Moves = make([]Move, len(aggregated))
	for i, m := range aggregated {
		in.Moves[i] = Move{AggregatedMove: m, SAN: san[m.Move]}
	}

	primary, _ := lookup.SelectPrimary(hits)
	in.OpeningID = primary.OpeningID
	in.BookPath = primary.Path
	in.OpeningName = a.classification.BookName(primary.Path)
	in.BookMove = aggregated[0].Move
	for _, m := range aggregated {
		if m.IsFavorite(favorites) {
			in.FavoriteBookMove = m.Move
			break
		}
	}
	in.Status = StatusMoveFound
	return in
}

func (a *Analyzer) loadFavorites() map[string]bool {
	if a.favorites == nil {
		return nil
	}
	ids, err := a.favorites.Favorites()
	if err != nil {
		a.log.Warn().Err(err).Msg("cannot read favorites")
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (a *Analyzer) filterByRating(hits []lookup.Hit, player RatingRange) []lookup.Hit {
	if len(a.ratings) == 0 {
		return hits
	}
	out := hits[:0:0]
	for _, h := range hits {
		if opening, ok := a.ratings[h.OpeningID]; !ok || player.allows(opening) {
			out = append(out, h)
		}
	}
	return out
}

// limitLines keeps the top n moves, preferring moves from favorite books when
// there are any.
func limitLines(moves []lookup.AggregatedMove, favorites map[string]bool, n int) []lookup.AggregatedMove {
	if fav := lookup.Favorites(moves, favorites); len(fav) > 0 {
		moves = fav
	}
	if len(moves) > n {
		moves = moves[:n]
	}
	return moves
}

func activeColor(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return ""
	}
	if fields[1] == "w" || fields[1] == "b" {
		return fields[1]
	}
	return ""
}
