package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// FEN parse failures. A *FENError always wraps one of these.
var (
	ErrTooFewFields       = errors.New("too few fields")
	ErrMalformedPlacement = errors.New("malformed piece placement")
	ErrInvalidActiveColor = errors.New("invalid active color")
	ErrInvalidCastling    = errors.New("invalid castling rights")
	ErrInvalidEnPassant   = errors.New("invalid en passant square")
)

// FENError reports which field of a FEN string could not be parsed.
type FENError struct {
	Field string
	Value string
	Err   error
}

func (e *FENError) Error() string {
	return fmt.Sprintf("invalid FEN %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FENError) Unwrap() error { return e.Err }

// ParseFEN parses a FEN string and returns a Position.
// Only the first four fields are required. The move clocks are optional and
// fall back to 0 and 1 when absent or unparsable.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, &FENError{Field: "fields", Value: fen, Err: ErrTooFewFields}
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	for i := range pos.Board {
		pos.Board[i] = NoPiece
	}

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, &FENError{Field: "placement", Value: parts[0], Err: err}
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, &FENError{Field: "active color", Value: parts[1], Err: ErrInvalidActiveColor}
	}

	// Parse castling rights (field 2)
	cr, err := parseCastlingRights(parts[2])
	if err != nil {
		return nil, &FENError{Field: "castling", Value: parts[2], Err: err}
	}
	pos.CastlingRights = cr

	// Parse en passant square (field 3)
	ep, err := parseEnPassant(parts[3], pos.SideToMove)
	if err != nil {
		return nil, &FENError{Field: "en passant", Value: parts[3], Err: err}
	}
	pos.EnPassant = ep

	if len(parts) > 4 {
		if hmc, err := strconv.Atoi(parts[4]); err == nil && hmc >= 0 {
			pos.HalfMoveClock = hmc
		}
	}
	if len(parts) > 5 {
		if fmn, err := strconv.Atoi(parts[5]); err == nil && fmn > 0 {
			pos.FullMoveNumber = fmn
		}
	}

	return pos, nil
}

// IsValidFEN reports whether fen parses.
func IsValidFEN(fen string) bool {
	_, err := ParseFEN(fen)
	return err == nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrMalformedPlacement, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if file > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrMalformedPlacement, rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}

			piece := PieceFromChar(c)
			if piece == NoPiece {
				return fmt.Errorf("%w: invalid piece character %q", ErrMalformedPlacement, c)
			}
			pos.Board[NewSquare(file, rank)] = piece
			file++
		}

		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrMalformedPlacement, rank+1, file)
		}
	}

	return nil
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(castling string) (CastlingRights, error) {
	if castling == "-" {
		return NoCastling, nil
	}

	cr := NoCastling
	for _, c := range castling {
		switch c {
		case 'K':
			cr |= WhiteKingSideCastle
		case 'Q':
			cr |= WhiteQueenSideCastle
		case 'k':
			cr |= BlackKingSideCastle
		case 'q':
			cr |= BlackQueenSideCastle
		default:
			return NoCastling, fmt.Errorf("%w: unexpected %q", ErrInvalidCastling, c)
		}
	}

	return cr, nil
}

// parseEnPassant accepts "-" or the square behind a pawn that just made a
// double push: rank 6 with White to move, rank 3 with Black to move.
func parseEnPassant(s string, stm Color) (Square, error) {
	if s == "-" {
		return NoSquare, nil
	}
	sq, err := ParseSquare(s)
	if err != nil {
		return NoSquare, ErrInvalidEnPassant
	}
	want := 5
	if stm == Black {
		want = 2
	}
	if sq.Rank() != want {
		return NoSquare, fmt.Errorf("%w: %s with %s to move", ErrInvalidEnPassant, s, stm)
	}
	return sq, nil
}

// FEN returns the FEN representation of the position.
func (p *Position) FEN() string {
	var sb strings.Builder

	// Piece placement
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}
