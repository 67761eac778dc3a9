package book

import "github.com/hailam/theorybook/internal/board"

// Move is a decoded Polyglot move.
type Move struct {
	From      board.Square
	To        board.Square
	Promotion board.PieceType // NoPieceType if none
}

// String returns the move in UCI coordinate notation (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	switch m.Promotion {
	case board.Knight, board.Bishop, board.Rook, board.Queen:
		s += string(m.Promotion.Char())
	}
	return s
}

// promoTypes maps the 3-bit Polyglot promotion field to a piece type.
var promoTypes = [8]board.PieceType{
	board.NoPieceType, board.Knight, board.Bishop, board.Rook, board.Queen,
	board.NoPieceType, board.NoPieceType, board.NoPieceType,
}

// castleTargets rewrites Polyglot's king-captures-rook castling encoding to
// the square the king actually lands on.
var castleTargets = map[[2]board.Square]board.Square{
	{board.E1, board.H1}: board.G1, // White kingside
	{board.E1, board.A1}: board.C1, // White queenside
	{board.E8, board.H8}: board.G8, // Black kingside
	{board.E8, board.A8}: board.C8, // Black queenside
}

// DecodeMove converts a Polyglot move encoding to a Move.
// Polyglot move format (bits):
// 0-2: to file
// 3-5: to rank
// 6-8: from file
// 9-11: from rank
// 12-14: promotion piece (0=none, 1=knight, 2=bishop, 3=rook, 4=queen)
//
// Any 16-bit value decodes; whether the move is legal is up to the caller.
func DecodeMove(data uint16) Move {
	toFile := int(data & 7)
	toRank := int((data >> 3) & 7)
	fromFile := int((data >> 6) & 7)
	fromRank := int((data >> 9) & 7)
	promo := (data >> 12) & 7

	m := Move{
		From:      board.NewSquare(fromFile, fromRank),
		To:        board.NewSquare(toFile, toRank),
		Promotion: promoTypes[promo],
	}
	if to, ok := castleTargets[[2]board.Square{m.From, m.To}]; ok {
		m.To = to
	}
	return m
}

// EncodeMove packs a move into the Polyglot encoding. Castling must already be
// in king-captures-rook form (e1h1, not e1g1).
func EncodeMove(m Move) uint16 {
	var promo uint16
	for i, pt := range promoTypes[:5] {
		if i > 0 && pt == m.Promotion {
			promo = uint16(i)
		}
	}
	return uint16(m.To.File()) |
		uint16(m.To.Rank())<<3 |
		uint16(m.From.File())<<6 |
		uint16(m.From.Rank())<<9 |
		promo<<12
}
