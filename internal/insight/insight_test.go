package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/theorybook/internal/board"
	"github.com/hailam/theorybook/internal/book"
	"github.com/hailam/theorybook/internal/lookup"
	"github.com/hailam/theorybook/internal/registry"
)

type fakeLookup struct {
	hits  []lookup.Hit
	fens  []string
	calls int
}

func (f *fakeLookup) LookupPosition(ctx context.Context, pos *board.Position) []lookup.Hit {
	f.calls++
	f.fens = append(f.fens, pos.FEN())
	return f.hits
}

type staticFavorites struct {
	ids []string
	err error
}

func (s staticFavorites) Favorites() ([]string, error) { return s.ids, s.err }

func hit(id string, cands ...book.Candidate) lookup.Hit {
	best, _ := book.Best(cands)
	return lookup.Hit{OpeningID: id, Path: "books/general/" + id + ".bin", Candidates: cands, Best: best}
}

func cand(move string, weight uint16) book.Candidate {
	return book.Candidate{Move: move, Weight: weight}
}

func startHits() []lookup.Hit {
	return []lookup.Hit{
		hit("italian_game", cand("e2e4", 20), cand("g1f3", 2)),
		hit("queens_gambit", cand("d2d4", 15), cand("c2c4", 4)),
		hit("english_opening", cand("c2c4", 9)),
		hit("reti_opening", cand("g1f3", 3)),
		hit("birds_opening", cand("f2f4", 1)),
	}
}

func TestComputeStatuses(t *testing.T) {
	ctx := context.Background()
	l := &fakeLookup{hits: startHits()}
	a := NewAnalyzer(l)
	settings := DefaultSettings()

	in := a.Compute(ctx, nil, settings)
	assert.Equal(t, StatusPositionNotDetected, in.Status)

	in = a.Compute(ctx, &Snapshot{}, settings)
	assert.Equal(t, StatusFENMissing, in.Status)

	in = a.Compute(ctx, &Snapshot{FEN: board.StartFEN, PlayerColor: "b"}, settings)
	assert.Equal(t, StatusNotPlayerTurn, in.Status)

	long := strings.Fields("e4 e5 Nf3 Nc6 Bc4 Bc5 c3 Nf6 d3 d6 O-O O-O")
	in = a.Compute(ctx, &Snapshot{FEN: board.StartFEN, Moves: long}, settings)
	assert.Equal(t, StatusDepthLimit, in.Status)

	assert.Zero(t, l.calls, "no lookup before the early exits pass")

	settings.LimitsDisabled = true
	in = a.Compute(ctx, &Snapshot{FEN: board.StartFEN, Moves: long}, settings)
	assert.Equal(t, StatusMoveFound, in.Status)
}

func TestComputeMoveFound(t *testing.T) {
	l := &fakeLookup{hits: startHits()}
	a := NewAnalyzer(l)

	in := a.Compute(context.Background(), &Snapshot{FEN: board.StartFEN, PlayerColor: "w"}, DefaultSettings())
	require.Equal(t, StatusMoveFound, in.Status)

	assert.Equal(t, 5, in.MatchedBooks)
	assert.Equal(t, "italian_game", in.OpeningID)
	assert.Equal(t, "italian game", in.OpeningName)
	assert.Equal(t, "books/general/italian_game.bin", in.BookPath)
	assert.Equal(t, "e2e4", in.BookMove)
	assert.Equal(t, board.StartKey, in.Key)
	assert.Empty(t, in.FavoriteBookMove)

	// 1000-1300 shows four lines.
	require.Len(t, in.Moves, 4)
	assert.Equal(t, "e2e4", in.Moves[0].Move)
	assert.Equal(t, "e4", in.Moves[0].SAN)
	assert.Equal(t, "d2d4", in.Moves[1].Move)
	assert.Equal(t, "c2c4", in.Moves[2].Move)
	assert.Equal(t, uint32(13), in.Moves[2].TotalWeight)
	assert.Equal(t, "c4", in.Moves[2].SAN)
	assert.Equal(t, "g1f3", in.Moves[3].Move)
	assert.Equal(t, "Nf3", in.Moves[3].SAN)
}

func TestComputeFavoritesFirst(t *testing.T) {
	l := &fakeLookup{hits: startHits()}
	a := NewAnalyzer(l, WithFavorites(staticFavorites{ids: []string{"reti_opening", "birds_opening"}}))

	in := a.Compute(context.Background(), &Snapshot{FEN: board.StartFEN}, DefaultSettings())
	require.Equal(t, StatusMoveFound, in.Status)
	require.Len(t, in.Moves, 2)
	assert.Equal(t, "g1f3", in.Moves[0].Move)
	assert.Equal(t, "f2f4", in.Moves[1].Move)
	assert.Equal(t, "g1f3", in.BookMove)
	assert.Equal(t, "g1f3", in.FavoriteBookMove)
	// The primary book still follows weight, not favorites.
	assert.Equal(t, "italian_game", in.OpeningID)
}

func TestComputeFavoritesError(t *testing.T) {
	l := &fakeLookup{hits: startHits()}
	a := NewAnalyzer(l, WithFavorites(staticFavorites{err: errors.New("disk gone")}))

	in := a.Compute(context.Background(), &Snapshot{FEN: board.StartFEN}, DefaultSettings())
	assert.Equal(t, StatusMoveFound, in.Status)
	assert.Equal(t, "e2e4", in.BookMove)
}

func TestComputeRatingFilter(t *testing.T) {
	l := &fakeLookup{hits: startHits()}
	ratings := map[string]RatingRange{
		"italian_game":  Rating0To700,
		"queens_gambit": Rating2000Plus,
	}
	a := NewAnalyzer(l, WithClassification(nil, ratings))

	settings := Settings{RatingRange: Rating700To1000}
	in := a.Compute(context.Background(), &Snapshot{FEN: board.StartFEN}, settings)
	require.Equal(t, StatusMoveFound, in.Status)
	assert.Equal(t, 4, in.MatchedBooks)
	for _, m := range in.Moves {
		assert.NotEqual(t, "d2d4", m.Move)
	}
	assert.Len(t, in.Moves, 3)

	settings.LimitsDisabled = true
	in = a.Compute(context.Background(), &Snapshot{FEN: board.StartFEN}, settings)
	assert.Equal(t, 5, in.MatchedBooks)
	assert.Len(t, in.Moves, 5)
}

func TestComputeMoveNotFound(t *testing.T) {
	a := NewAnalyzer(&fakeLookup{})
	in := a.Compute(context.Background(), &Snapshot{FEN: board.StartFEN}, DefaultSettings())
	assert.Equal(t, StatusMoveNotFound, in.Status)
	assert.Zero(t, in.MatchedBooks)
}

func TestComputeInvalidFEN(t *testing.T) {
	l := &fakeLookup{hits: startHits()}
	in := NewAnalyzer(l).Compute(context.Background(), &Snapshot{FEN: "not a fen"}, DefaultSettings())
	assert.Equal(t, StatusMoveNotFound, in.Status)
	assert.NotEmpty(t, in.Error)
	assert.Zero(t, l.calls)
}

func TestComputeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewAnalyzer(&fakeLookup{hits: startHits()})
	in := a.Compute(ctx, &Snapshot{FEN: board.StartFEN}, DefaultSettings())
	assert.Equal(t, StatusBookLoadError, in.Status)
	assert.NotEmpty(t, in.Error)
}

func TestComputeDerivesFENFromMoves(t *testing.T) {
	l := &fakeLookup{hits: []lookup.Hit{hit("open_game", cand("g1f3", 7))}}
	a := NewAnalyzer(l)

	in := a.Compute(context.Background(), &Snapshot{Moves: []string{"1.e4", "e5"}}, DefaultSettings())
	require.Equal(t, StatusMoveFound, in.Status)
	require.Len(t, l.fens, 1)

	pos, err := board.ParseFEN(l.fens[0])
	require.NoError(t, err)
	assert.Equal(t, board.White, pos.SideToMove)
	assert.Equal(t, board.WhitePawn, pos.PieceAt(board.E4))
	assert.Equal(t, board.BlackPawn, pos.PieceAt(board.E5))
	assert.Equal(t, "Nf3", in.Moves[0].SAN)

	in = a.Compute(context.Background(), &Snapshot{Moves: []string{"e4", "Ke3"}}, DefaultSettings())
	assert.Equal(t, StatusFENMissing, in.Status)
	assert.NotEmpty(t, in.Error)
}

func TestNormalizeMoveList(t *testing.T) {
	in := []string{" 1.e4 ", "1...e5", "Nf3+", "Nc6!?", "0-0", "0-0-0#", "..Bb4", "", "1-0", "*", "1/2-1/2"}
	want := []string{"e4", "e5", "Nf3", "Nc6", "O-O", "O-O-O", "Bb4"}
	assert.Equal(t, want, NormalizeMoveList(in))
	assert.Empty(t, NormalizeMoveList(nil))
}

func TestRatingRange(t *testing.T) {
	r, ok := ParseRatingRange("1000 – 1300")
	require.True(t, ok)
	assert.Equal(t, Rating1000To1300, r)

	_, ok = ParseRatingRange("3000+")
	assert.False(t, ok)

	assert.Equal(t, 3, Rating0To700.DepthLimit())
	assert.Equal(t, 10, Rating2000Plus.DepthLimit())
	assert.Equal(t, 7, Rating1600To2000.LineLimit())
	assert.Equal(t, 4, RatingRange("bogus").LineLimit())

	assert.True(t, Rating1300To1600.allows(Rating700To1000))
	assert.True(t, Rating1300To1600.allows(Rating1300To1600))
	assert.False(t, Rating1300To1600.allows(Rating2000Plus))
	assert.True(t, Rating1300To1600.allows("unknown"))
}

const classificationTable = `# file                  name                 rating       style        eco
italian_game.bin        Italian Game         0–700        open         C50
queens_gambit.bin       Queen's Gambit       2000+        closed       D06   notes
broken line
`

func TestClassification(t *testing.T) {
	c, err := LoadClassification(strings.NewReader(classificationTable))
	require.NoError(t, err)

	assert.Equal(t, "Italian Game", c.BookName("books/general/italian_game.bin"))
	assert.Equal(t, "birds opening", c.BookName("books/general/birds_opening.bin"))

	ratings := c.Ratings([]registry.Entry{
		{ID: "italian-game", Path: "books/general/italian_game.bin"},
		{ID: "queens-gambit", Path: "books/general/queens_gambit.bin"},
		{ID: "birds-opening", Path: "books/general/birds_opening.bin"},
	})
	assert.Equal(t, map[string]RatingRange{
		"italian-game":  Rating0To700,
		"queens-gambit": Rating2000Plus,
	}, ratings)

	var none *Classification
	assert.Equal(t, "x y", none.BookName("x_y.bin"))
	assert.Empty(t, none.Ratings(nil))
}
