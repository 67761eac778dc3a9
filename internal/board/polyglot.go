package board

import "fmt"

const (
	polyglotCastlingOffset  = 768
	polyglotEnPassantOffset = 772
	polyglotTurnOffset      = 780

	// StartKey is the published Polyglot key of the starting position.
	StartKey uint64 = 0x463b96181691fc9c
)

func init() {
	if got := NewPosition().PolyglotKey(); got != StartKey {
		panic(fmt.Sprintf("board: polyglot table is corrupt: start key %016x, want %016x", got, StartKey))
	}
}

// FormatKey renders a key the way book tools print it: 16 lowercase hex digits.
func FormatKey(key uint64) string {
	return fmt.Sprintf("%016x", key)
}

// PolyglotKey computes the Polyglot hash key used to index opening books.
func PolyglotKey(p *Position) uint64 {
	return p.PolyglotKey()
}

// PolyglotKey computes the Polyglot hash key for compatibility with opening books.
func (p *Position) PolyglotKey() uint64 {
	var key uint64

	for sq, piece := range p.Board {
		if piece == NoPiece {
			continue
		}
		key ^= random64[64*piece.polyglotKind()+sq]
	}

	// Castling keys, K Q k q
	if p.CastlingRights&WhiteKingSideCastle != 0 {
		key ^= random64[polyglotCastlingOffset]
	}
	if p.CastlingRights&WhiteQueenSideCastle != 0 {
		key ^= random64[polyglotCastlingOffset+1]
	}
	if p.CastlingRights&BlackKingSideCastle != 0 {
		key ^= random64[polyglotCastlingOffset+2]
	}
	if p.CastlingRights&BlackQueenSideCastle != 0 {
		key ^= random64[polyglotCastlingOffset+3]
	}

	if p.EnPassantCapturable() {
		key ^= random64[polyglotEnPassantOffset+p.EnPassant.File()]
	}

	if p.SideToMove == White {
		key ^= random64[polyglotTurnOffset]
	}

	return key
}

// EnPassantCapturable reports whether a pawn of the side to move stands next
// to the pawn that just made the double push. Polyglot only hashes the en
// passant file in that case; pins and checks are ignored.
func (p *Position) EnPassantCapturable() bool {
	if !p.EnPassant.IsValid() {
		return false
	}

	file := p.EnPassant.File()
	rank := 3 // black pawns capture from rank 4
	if p.SideToMove == White {
		rank = 4 // white pawns capture from rank 5
	}
	pawn := NewPiece(Pawn, p.SideToMove)

	if file > 0 && p.Board[NewSquare(file-1, rank)] == pawn {
		return true
	}
	if file < 7 && p.Board[NewSquare(file+1, rank)] == pawn {
		return true
	}
	return false
}
