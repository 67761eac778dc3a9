package lookup

import (
	"slices"
	"sort"
)

// AggregatedMove is one move merged across every book that proposes it.
type AggregatedMove struct {
	Move              string
	TotalWeight       uint32
	BookCount         int
	FavoriteBookCount int
	OpeningIDs        []string // in the order the books were visited
}

// IsFavorite reports whether any contributing book is in favorites.
func (m AggregatedMove) IsFavorite(favorites map[string]bool) bool {
	for _, id := range m.OpeningIDs {
		if favorites[id] {
			return true
		}
	}
	return false
}

// Aggregate merges the candidates of all hits by move. Weights are summed and
// the result is ordered by total weight, with equal totals keeping the order
// in which the moves were first seen. favorites may be nil.
func Aggregate(hits []Hit, favorites map[string]bool) []AggregatedMove {
	var moves []AggregatedMove
	index := make(map[string]int)

	for _, h := range hits {
		fav := favorites[h.OpeningID]
		for _, c := range h.Candidates {
			i, ok := index[c.Move]
			if !ok {
				i = len(moves)
				index[c.Move] = i
				moves = append(moves, AggregatedMove{Move: c.Move})
			}
			m := &moves[i]
			m.TotalWeight += uint32(c.Weight)
			if !slices.Contains(m.OpeningIDs, h.OpeningID) {
				m.OpeningIDs = append(m.OpeningIDs, h.OpeningID)
				m.BookCount++
				if fav {
					m.FavoriteBookCount++
				}
			}
		}
	}

	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].TotalWeight > moves[j].TotalWeight
	})
	return moves
}

// SelectPrimary returns the hit whose best move carries the most weight. The
// earliest hit wins ties.
func SelectPrimary(hits []Hit) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	best := 0
	for i := 1; i < len(hits); i++ {
		if hits[i].Best.Weight > hits[best].Best.Weight {
			best = i
		}
	}
	return hits[best], true
}

// Favorites returns the moves backed by at least one favorite book, keeping
// their order.
func Favorites(moves []AggregatedMove, favorites map[string]bool) []AggregatedMove {
	var out []AggregatedMove
	for _, m := range moves {
		if m.IsFavorite(favorites) {
			out = append(out, m)
		}
	}
	return out
}
