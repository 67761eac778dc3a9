package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/hailam/theorybook/internal/board"
	"github.com/hailam/theorybook/internal/history"
	"github.com/hailam/theorybook/internal/insight"
	"github.com/hailam/theorybook/internal/lookup"
)

type Lookup struct {
	base

	moves   string
	player  string
	rating  string
	noLimit bool
	raw     bool
	asJSON  bool
	logIt   bool
}

func (*Lookup) Name() string     { return "lookup" }
func (*Lookup) Synopsis() string { return "Find book moves for a position" }
func (*Lookup) Usage() string {
	return `lookup [flags] [FEN]

Looks the position up in every registered book. Without a FEN, the position
is built by replaying -moves from the start.
`
}

func (c *Lookup) SetFlags(flags *flag.FlagSet) {
	c.setFlags(flags)
	flags.StringVar(&c.moves, "moves", "", "SAN moves from the start position, e.g. \"1.e4 e5 2.Nf3\"")
	flags.StringVar(&c.player, "player", "", "the color you play (w or b)")
	flags.StringVar(&c.rating, "rating", "", "rating band, overriding the saved setting")
	flags.BoolVar(&c.noLimit, "all", false, "ignore depth and line limits")
	flags.BoolVar(&c.raw, "raw", false, "print the hits of each book instead of ranked moves")
	flags.BoolVar(&c.asJSON, "json", false, "print JSON")
	flags.BoolVar(&c.logIt, "log", false, "record the result in the lookup history")
}

func (c *Lookup) Execute(ctx context.Context, flag *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := c.logger()

	reg, svc, err := c.books(log)
	if err != nil {
		log.Error().Err(err).Msg("lookup")
		return subcommands.ExitFailure
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	fen := strings.Join(flag.Args(), " ")
	if fen == "" && c.moves == "" {
		fen = board.StartFEN
	}

	if c.raw {
		hits := svc.LookupAllBooksByFEN(ctx, fen)
		if c.asJSON {
			return writeJSON(os.Stdout, hits)
		}
		printHits(os.Stdout, hits)
		return subcommands.ExitSuccess
	}

	st, err := c.openStorage()
	if err != nil {
		log.Warn().Err(err).Msg("settings unavailable, using defaults")
	} else {
		defer st.Close()
	}

	settings := insight.DefaultSettings()
	if st != nil {
		if s, err := st.LoadSettings(); err == nil {
			settings = s
		}
	}
	if c.rating != "" {
		r, ok := insight.ParseRatingRange(c.rating)
		if !ok {
			log.Error().Str("rating", c.rating).Msg("unknown rating band")
			return subcommands.ExitUsageError
		}
		settings.RatingRange = r
	}
	if c.noLimit {
		settings.LimitsDisabled = true
	}

	an, err := c.analyzer(svc, reg, st, log)
	if err != nil {
		log.Error().Err(err).Msg("lookup")
		return subcommands.ExitFailure
	}

	snap := &insight.Snapshot{FEN: fen, PlayerColor: c.player}
	if c.moves != "" {
		snap.Moves = insight.NormalizeMoveList(strings.Fields(c.moves))
	}
	in := an.Compute(ctx, snap, settings)

	if c.logIt {
		if err := c.record(in); err != nil {
			log.Warn().Err(err).Msg("cannot record lookup")
		}
	}

	if c.asJSON {
		return writeJSON(os.Stdout, in)
	}
	printInsight(os.Stdout, in)
	if in.Status == insight.StatusBookLoadError {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *Lookup) record(in insight.Insight) error {
	repo, err := c.openHistory()
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.Insert(history.FromInsight(in))
}

func writeJSON(w io.Writer, v any) subcommands.ExitStatus {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printHits(w io.Writer, hits []lookup.Hit) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOK\tBEST\tWEIGHT\tMOVES")
	for _, h := range hits {
		moves := make([]string, len(h.Candidates))
		for i, c := range h.Candidates {
			moves[i] = fmt.Sprintf("%s(%d)", c.Move, c.Weight)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", h.OpeningID, h.Best.Move, h.Best.Weight, strings.Join(moves, " "))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d books\n", len(hits))
}

func printInsight(w io.Writer, in insight.Insight) {
	fmt.Fprintf(w, "status:  %s\n", in.Status)
	if in.FEN != "" {
		fmt.Fprintf(w, "fen:     %s\n", in.FEN)
	}
	if in.Key != 0 {
		fmt.Fprintf(w, "key:     %s\n", board.FormatKey(in.Key))
	}
	if in.Error != "" {
		fmt.Fprintf(w, "error:   %s\n", in.Error)
	}
	if in.Status != insight.StatusMoveFound {
		return
	}
	fmt.Fprintf(w, "opening: %s (%s)\n", in.OpeningName, in.OpeningID)
	fmt.Fprintf(w, "books:   %d\n", in.MatchedBooks)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MOVE\tSAN\tWEIGHT\tBOOKS\tFAV\tOPENINGS")
	for _, m := range in.Moves {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			m.Move, m.SAN, m.TotalWeight, m.BookCount, m.FavoriteBookCount, strings.Join(m.OpeningIDs, ","))
	}
	tw.Flush()
}
