// Package uci serves opening book moves over the Universal Chess Interface, so
// that any UCI GUI can use the book collection as a book-only engine.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"

	"github.com/hailam/theorybook/internal/board"
	"github.com/hailam/theorybook/internal/lookup"
)

// NullMove is sent as bestmove when no book knows the position.
const NullMove = "0000"

// Books finds the books that know a position.
type Books interface {
	LookupAllBooksByFEN(ctx context.Context, fen string) []lookup.Hit
}

// UCI implements the Universal Chess Interface protocol on top of books.
type UCI struct {
	books     Books
	log       zerolog.Logger
	timeout   time.Duration
	favorites map[string]bool

	// Current position and the moves that led to it from the last
	// "position" command.
	position dragontoothmg.Board
	fen      string
	moves    []string

	out io.Writer
}

// Option configures a UCI handler.
type Option func(*UCI)

// WithLogger sets the logger for diagnostics that are not protocol output.
func WithLogger(log zerolog.Logger) Option {
	return func(u *UCI) { u.log = log }
}

// WithTimeout bounds each book lookup.
func WithTimeout(d time.Duration) Option {
	return func(u *UCI) { u.timeout = d }
}

// WithFavorites sets the opening ids counted as favorites when ranking.
func WithFavorites(ids []string) Option {
	return func(u *UCI) { u.setFavorites(ids) }
}

// New creates a new UCI protocol handler.
func New(books Books, opts ...Option) *UCI {
	u := &UCI{
		books:   books,
		log:     zerolog.Nop(),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.reset()
	return u
}

func (u *UCI) reset() {
	u.position = dragontoothmg.ParseFen(board.StartFEN)
	u.fen = board.StartFEN
	u.moves = nil
}

func (u *UCI) setFavorites(ids []string) {
	u.favorites = make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			u.favorites[id] = true
		}
	}
}

// Run reads commands from in until "quit" or end of input, writing responses
// to out.
func (u *UCI) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	u.out = out
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.reset()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(ctx)
		case "book":
			u.handleBook(ctx)
		case "setoption":
			u.handleSetOption(args)
		case "stop":
			// Lookups answer synchronously; nothing to stop.
		case "quit":
			return nil
		case "d":
			u.handleDisplay()
		default:
			u.printf("info string Unknown command: %s\n", cmd)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (u *UCI) println(s string) {
	fmt.Fprintln(u.out, s)
}

func (u *UCI) printf(format string, args ...any) {
	fmt.Fprintf(u.out, format, args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name theorybook")
	u.println("id author theorybook")
	u.println("")
	u.println("option name Favorites type string default <empty>")
	u.println("uciok")
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// An invalid FEN or move leaves the previous position in place.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var fen string
	switch args[0] {
	case "startpos":
		fen = board.StartFEN
	case "fen":
		fen = strings.Join(args[1:movesAt], " ")
		pos, err := board.ParseFEN(fen)
		if err != nil {
			u.printf("info string Invalid FEN: %v\n", err)
			return
		}
		fen = pos.FEN()
	default:
		u.printf("info string Invalid position subcommand: %s\n", args[0])
		return
	}

	b, err := parseBoard(fen)
	if err != nil {
		u.printf("info string Invalid FEN: %v\n", err)
		return
	}

	var played []string
	if movesAt < len(args) {
		for _, moveStr := range args[movesAt+1:] {
			if !applyMove(&b, moveStr) {
				u.printf("info string Invalid move: %s\n", moveStr)
				return
			}
			played = append(played, moveStr)
		}
	}

	u.position = b
	u.fen = b.ToFen()
	u.moves = played
}

// parseBoard loads a FEN the move generator can handle.
func parseBoard(fen string) (b dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unsupported position: %v", r)
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}

// applyMove plays a UCI move if it is legal in b.
func applyMove(b *dragontoothmg.Board, moveStr string) bool {
	legal := b.GenerateLegalMoves()
	for i := range legal {
		if legal[i].String() == moveStr {
			b.Apply(legal[i])
			return true
		}
	}
	return false
}

// rankedMoves looks up the current position and returns the book moves that
// are legal in it, best first.
func (u *UCI) rankedMoves(ctx context.Context) []lookup.AggregatedMove {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	hits := u.books.LookupAllBooksByFEN(ctx, u.fen)
	moves := lookup.Aggregate(hits, u.favorites)
	if fav := lookup.Favorites(moves, u.favorites); len(fav) > 0 {
		moves = fav
	}

	legal := make(map[string]bool)
	for _, m := range u.position.GenerateLegalMoves() {
		legal[m.String()] = true
	}
	out := moves[:0:0]
	for _, m := range moves {
		if legal[m.Move] {
			out = append(out, m)
		}
	}

	u.log.Debug().Str("fen", u.fen).Int("books", len(hits)).Int("moves", len(out)).Msg("book probe")
	return out
}

// handleGo answers with the top book move, or the null move when the
// position is out of book.
func (u *UCI) handleGo(ctx context.Context) {
	moves := u.rankedMoves(ctx)
	if len(moves) == 0 {
		u.println("info string out of book")
		u.printf("bestmove %s\n", NullMove)
		return
	}
	best := moves[0]
	u.printf("info string book %s weight %d books %d\n", best.Move, best.TotalWeight, best.BookCount)
	if len(moves) > 1 {
		u.printf("bestmove %s ponder %s\n", best.Move, moves[1].Move)
		return
	}
	u.printf("bestmove %s\n", best.Move)
}

// handleBook lists every book move for the position.
func (u *UCI) handleBook(ctx context.Context) {
	moves := u.rankedMoves(ctx)
	for i, m := range moves {
		u.printf("info string #%d %s weight=%d books=%d favorites=%d %s\n",
			i+1, m.Move, m.TotalWeight, m.BookCount, m.FavoriteBookCount, strings.Join(m.OpeningIDs, ","))
	}
	u.printf("info string %d book moves\n", len(moves))
}

// handleSetOption handles "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	var target *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}

	switch strings.ToLower(strings.Join(name, " ")) {
	case "favorites":
		v := strings.Join(value, " ")
		if v == "<empty>" {
			v = ""
		}
		u.setFavorites(strings.Split(v, ","))
	default:
		u.printf("info string Unknown option: %s\n", strings.Join(name, " "))
	}
}

// handleDisplay prints the current position.
func (u *UCI) handleDisplay() {
	pos, err := board.ParseFEN(u.fen)
	if err != nil {
		u.printf("info string %v\n", err)
		return
	}
	u.printf("%s", pos.String())
	u.printf("Fen: %s\n", u.fen)
	if len(u.moves) > 0 {
		u.printf("Moves: %s\n", strings.Join(u.moves, " "))
	}
}
