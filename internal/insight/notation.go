package insight

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/notnil/chess"

	"github.com/hailam/theorybook/internal/board"
)

var (
	moveNumber  = regexp.MustCompile(`^\d+\.(\.\.)?`)
	leadingDots = regexp.MustCompile(`^\.+`)
	annotation  = regexp.MustCompile(`[!?+#]+$`)

	resultTokens = map[string]bool{"1-0": true, "0-1": true, "1/2-1/2": true, "*": true}
	zeroCastles  = strings.NewReplacer("0-0-0", "O-O-O", "0-0", "O-O")
)

// NormalizeMoveList cleans a scraped SAN move list: move numbers, check and
// annotation marks and result tokens are dropped, and castling written with
// zeros is rewritten with letters.
func NormalizeMoveList(moves []string) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		m = strings.TrimSpace(m)
		m = moveNumber.ReplaceAllString(m, "")
		m = leadingDots.ReplaceAllString(m, "")
		m = annotation.ReplaceAllString(m, "")
		m = zeroCastles.Replace(m)
		if m == "" || resultTokens[m] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FENFromMoves replays SAN moves from the starting position and returns the
// resulting FEN.
func FENFromMoves(moves []string) (string, error) {
	game := chess.NewGame()
	notation := chess.AlgebraicNotation{}
	for i, san := range NormalizeMoveList(moves) {
		m, err := notation.Decode(game.Position(), san)
		if err != nil {
			return "", fmt.Errorf("move %d %q: %w", i+1, san, err)
		}
		if err := game.Move(m); err != nil {
			return "", fmt.Errorf("move %d %q: %w", i+1, san, err)
		}
	}
	return game.Position().String(), nil
}

// sanTable maps the UCI string of every legal move in a position to its SAN.
// It is empty when the position cannot be loaded.
func sanTable(pos *board.Position) map[string]string {
	table := make(map[string]string)
	opt, err := chess.FEN(pos.FEN())
	if err != nil {
		return table
	}
	cp := chess.NewGame(opt).Position()
	for _, m := range cp.ValidMoves() {
		table[m.String()] = chess.AlgebraicNotation{}.Encode(cp, m)
	}
	return table
}
