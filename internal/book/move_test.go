package book

import (
	"testing"

	"github.com/hailam/theorybook/internal/board"
)

func pack(from, to board.Square, promo uint16) uint16 {
	return uint16(to.File()) | uint16(to.Rank())<<3 |
		uint16(from.File())<<6 | uint16(from.Rank())<<9 | promo<<12
}

func TestDecodeMove(t *testing.T) {
	// e2e4 = 4 | (3 << 3) | (4 << 6) | (1 << 9) = 796
	if got := DecodeMove(796); got.From != board.E2 || got.To != board.E4 {
		t.Errorf("Expected e2e4, got %s", got)
	}

	tests := []struct {
		packed uint16
		want   string
	}{
		{pack(board.E2, board.E4, 0), "e2e4"},
		{pack(board.D7, board.D5, 0), "d7d5"},
		{pack(board.G1, board.F3, 0), "g1f3"},
		{pack(board.E7, board.E8, 1), "e7e8n"},
		{pack(board.E7, board.E8, 2), "e7e8b"},
		{pack(board.A2, board.A1, 3), "a2a1r"},
		{pack(board.B7, board.A8, 4), "b7a8q"},
	}
	for _, tc := range tests {
		if got := DecodeMove(tc.packed).String(); got != tc.want {
			t.Errorf("DecodeMove(%#04x) = %s, want %s", tc.packed, got, tc.want)
		}
	}
}

func TestDecodeMoveCastling(t *testing.T) {
	tests := []struct {
		from, to board.Square
		want     string
	}{
		{board.E1, board.H1, "e1g1"},
		{board.E1, board.A1, "e1c1"},
		{board.E8, board.H8, "e8g8"},
		{board.E8, board.A8, "e8c8"},
	}
	for _, tc := range tests {
		if got := DecodeMove(pack(tc.from, tc.to, 0)).String(); got != tc.want {
			t.Errorf("castle %s%s decoded as %s, want %s", tc.from, tc.to, got, tc.want)
		}
	}

	// An ordinary king step is left alone.
	if got := DecodeMove(pack(board.E1, board.F1, 0)).String(); got != "e1f1" {
		t.Errorf("Expected e1f1, got %s", got)
	}
}

func TestDecodeMoveAnyInput(t *testing.T) {
	for v := 0; v <= 0xffff; v++ {
		s := DecodeMove(uint16(v)).String()
		if len(s) != 4 && len(s) != 5 {
			t.Fatalf("DecodeMove(%#04x) = %q, want 4 or 5 characters", v, s)
		}
		for i := 0; i < 4; i += 2 {
			if s[i] < 'a' || s[i] > 'h' || s[i+1] < '1' || s[i+1] > '8' {
				t.Fatalf("DecodeMove(%#04x) = %q is not coordinate notation", v, s)
			}
		}
	}
}

func TestEncodeMove(t *testing.T) {
	for _, v := range []uint16{796, pack(board.E7, board.E8, 4), pack(board.H2, board.G1, 1)} {
		if got := EncodeMove(DecodeMove(v)); got != v {
			t.Errorf("EncodeMove(DecodeMove(%#04x)) = %#04x", v, got)
		}
	}
}
