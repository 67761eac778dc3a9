package lookup

import (
	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/theorybook/internal/board"
	"github.com/hailam/theorybook/internal/book"
)

// legalMoves returns the UCI strings of every legal move in the position, or
// nil if the move generator cannot handle it.
func legalMoves(pos *board.Position) (moves map[string]bool) {
	defer func() {
		// dragontoothmg panics on positions it cannot represent, such as a
		// side with no king.
		if recover() != nil {
			moves = nil
		}
	}()

	b := dragontoothmg.ParseFen(pos.FEN())
	legal := b.GenerateLegalMoves()
	moves = make(map[string]bool, len(legal))
	for i := range legal {
		moves[legal[i].String()] = true
	}
	return moves
}

// filterLegal keeps the candidates found in legal, preserving order.
func filterLegal(cands []book.Candidate, legal map[string]bool) []book.Candidate {
	out := cands[:0:0]
	for _, c := range cands {
		if legal[c.Move] {
			out = append(out, c)
		}
	}
	return out
}
