package board

import (
	"errors"
	"testing"
)

func TestParseFENStartPosition(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}

	checks := []struct {
		sq    Square
		piece Piece
	}{
		{A1, WhiteRook},
		{E1, WhiteKing},
		{D1, WhiteQueen},
		{E2, WhitePawn},
		{E8, BlackKing},
		{G8, BlackKnight},
		{H7, BlackPawn},
		{E4, NoPiece},
	}
	for _, c := range checks {
		if got := pos.PieceAt(c.sq); got != c.piece {
			t.Errorf("PieceAt(%s) = %q, want %q", c.sq, got, c.piece)
		}
	}

	if pos.SideToMove != White {
		t.Errorf("Expected white to move")
	}
	if pos.CastlingRights != AllCastling {
		t.Errorf("Expected all castling rights, got %s", pos.CastlingRights)
	}
	if pos.EnPassant != NoSquare {
		t.Errorf("Expected no en passant square, got %s", pos.EnPassant)
	}
	if pos.FEN() != StartFEN {
		t.Errorf("FEN round trip: got %q", pos.FEN())
	}
}

func TestParseFENOptionalClocks(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3")
	if err != nil {
		t.Fatalf("ParseFEN without clocks failed: %v", err)
	}
	if pos.EnPassant != E3 {
		t.Errorf("Expected en passant e3, got %s", pos.EnPassant)
	}
	if pos.HalfMoveClock != 0 || pos.FullMoveNumber != 1 {
		t.Errorf("Expected default clocks, got %d %d", pos.HalfMoveClock, pos.FullMoveNumber)
	}
}

func TestParseFENErrors(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want error
	}{
		{"empty", "", ErrTooFewFields},
		{"three fields", "8/8/8/8/8/8/8/8 w -", ErrTooFewFields},
		{"seven ranks", "8/8/8/8/8/8/8 w - -", ErrMalformedPlacement},
		{"nine ranks", "8/8/8/8/8/8/8/8/8 w - -", ErrMalformedPlacement},
		{"short rank", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -", ErrMalformedPlacement},
		{"long rank", "rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -", ErrMalformedPlacement},
		{"overflow", "rnbqkbnr/pppppppp/71p/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -", ErrMalformedPlacement},
		{"bad piece", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBXKBNR w KQkq -", ErrMalformedPlacement},
		{"bad color", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq -", ErrInvalidActiveColor},
		{"upper color", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR W KQkq -", ErrInvalidActiveColor},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkx -", ErrInvalidCastling},
		{"shredder castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w HAha -", ErrInvalidCastling},
		{"ep rank 4", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e4", ErrInvalidEnPassant},
		{"ep file", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq i3", ErrInvalidEnPassant},
		{"ep rank 3 white to move", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e3", ErrInvalidEnPassant},
		{"ep rank 6 black to move", "rnbqkbnr/ppp1pppp/8/3p4/8/8/PPPPPPPP/RNBQKBNR b KQkq d6", ErrInvalidEnPassant},
		{"ep garbage", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e33", ErrInvalidEnPassant},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFEN(tc.fen)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ParseFEN(%q) error = %v, want %v", tc.fen, err, tc.want)
			}
			var fenErr *FENError
			if !errors.As(err, &fenErr) {
				t.Fatalf("expected *FENError, got %T", err)
			}
			if IsValidFEN(tc.fen) {
				t.Errorf("IsValidFEN(%q) = true", tc.fen)
			}
		})
	}
}

func TestCastlingRightsString(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w qK - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	if got := pos.CastlingRights.String(); got != "Kq" {
		t.Errorf("Expected Kq, got %s", got)
	}
}
