package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/hailam/theorybook/internal/board"
	"github.com/hailam/theorybook/internal/history"
	"github.com/hailam/theorybook/internal/insight"
	"github.com/hailam/theorybook/internal/registry"
)

type Favorites struct {
	base
}

func (*Favorites) Name() string     { return "favorites" }
func (*Favorites) Synopsis() string { return "List, add or remove favorite openings" }
func (*Favorites) Usage() string {
	return `favorites [flags] [list | add OPENING | remove OPENING]

OPENING is an opening id or name; names are matched against the registry.
`
}

func (c *Favorites) SetFlags(flags *flag.FlagSet) {
	c.setFlags(flags)
}

func (c *Favorites) Execute(ctx context.Context, flag *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := c.logger()
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"list"}
	}

	st, err := c.openStorage()
	if err != nil {
		log.Error().Err(err).Msg("open storage")
		return subcommands.ExitFailure
	}
	defer st.Close()

	switch args[0] {
	case "list":
		ids, err := st.Favorites()
		if err != nil {
			log.Error().Err(err).Msg("favorites")
			return subcommands.ExitFailure
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return subcommands.ExitSuccess

	case "add", "remove":
		if len(args) < 2 {
			fmt.Fprint(os.Stderr, c.Usage())
			return subcommands.ExitUsageError
		}
		id := c.resolve(strings.Join(args[1:], " "))
		if args[0] == "add" {
			err = st.AddFavorite(id)
		} else {
			err = st.RemoveFavorite(id)
		}
		if err != nil {
			log.Error().Err(err).Msg("favorites")
			return subcommands.ExitFailure
		}
		log.Info().Str("opening", id).Msg(args[0])
		return subcommands.ExitSuccess
	}

	fmt.Fprint(os.Stderr, c.Usage())
	return subcommands.ExitUsageError
}

// resolve maps a name to a registry id when the registry can be read, and
// falls back to the normalized name.
func (c *Favorites) resolve(name string) string {
	reg, err := registry.Open(c.cfg.Registry)
	if err == nil {
		if e, ok := reg.Resolve(name); ok {
			return e.ID
		}
	}
	return registry.NormalizeID(name)
}

type Settings struct {
	base

	rating string
	limits string
	hints  string
}

func (*Settings) Name() string     { return "settings" }
func (*Settings) Synopsis() string { return "Show or change player settings" }
func (*Settings) Usage() string {
	return `settings [flags]

Without flags, prints the saved settings.
`
}

func (c *Settings) SetFlags(flags *flag.FlagSet) {
	c.setFlags(flags)
	flags.StringVar(&c.rating, "rating", "", "rating band: "+ratingBands())
	flags.StringVar(&c.limits, "limits", "", "on or off: apply depth and line limits")
	flags.StringVar(&c.hints, "hints", "", "on or off: show hints")
}

func ratingBands() string {
	bands := make([]string, len(insight.RatingRanges))
	for i, r := range insight.RatingRanges {
		bands[i] = string(r)
	}
	return strings.Join(bands, ", ")
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	}
	return false, false
}

func (c *Settings) Execute(ctx context.Context, flag *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := c.logger()

	st, err := c.openStorage()
	if err != nil {
		log.Error().Err(err).Msg("open storage")
		return subcommands.ExitFailure
	}
	defer st.Close()

	s, err := st.LoadSettings()
	if err != nil {
		log.Error().Err(err).Msg("settings")
		return subcommands.ExitFailure
	}

	changed := false
	if c.rating != "" {
		r, ok := insight.ParseRatingRange(c.rating)
		if !ok {
			log.Error().Str("rating", c.rating).Msg("unknown rating band")
			return subcommands.ExitUsageError
		}
		s.RatingRange = r
		changed = true
	}
	if c.limits != "" {
		on, ok := parseSwitch(c.limits)
		if !ok {
			return subcommands.ExitUsageError
		}
		s.LimitsDisabled = !on
		changed = true
	}
	if c.hints != "" {
		on, ok := parseSwitch(c.hints)
		if !ok {
			return subcommands.ExitUsageError
		}
		s.HintsEnabled = on
		changed = true
	}
	if changed {
		if err := st.SaveSettings(s); err != nil {
			log.Error().Err(err).Msg("settings")
			return subcommands.ExitFailure
		}
	}

	fmt.Printf("rating:  %s (depth %d, lines %d)\n", s.RatingRange, s.RatingRange.DepthLimit(), s.RatingRange.LineLimit())
	fmt.Printf("limits:  %v\n", !s.LimitsDisabled)
	fmt.Printf("hints:   %v\n", s.HintsEnabled)
	return subcommands.ExitSuccess
}

type History struct {
	base

	n   int
	fen string
}

func (*History) Name() string     { return "history" }
func (*History) Synopsis() string { return "Show recorded lookups" }
func (*History) Usage() string {
	return `history [flags]
`
}

func (c *History) SetFlags(flags *flag.FlagSet) {
	c.setFlags(flags)
	flags.IntVar(&c.n, "n", 20, "number of lookups to show")
	flags.StringVar(&c.fen, "fen", "", "only show lookups of this position")
}

func (c *History) Execute(ctx context.Context, flag *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := c.logger()

	repo, err := c.openHistory()
	if err != nil {
		log.Error().Err(err).Msg("open history")
		return subcommands.ExitFailure
	}
	defer repo.Close()

	var rows []history.Lookup
	if c.fen != "" {
		pos, err := board.ParseFEN(c.fen)
		if err != nil {
			log.Error().Err(err).Msg("history")
			return subcommands.ExitUsageError
		}
		rows, err = repo.ByKey(pos.PolyglotKey())
		if err != nil {
			log.Error().Err(err).Msg("history")
			return subcommands.ExitFailure
		}
	} else {
		rows, err = repo.Recent(c.n)
		if err != nil {
			log.Error().Err(err).Msg("history")
			return subcommands.ExitFailure
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tMOVE\tBOOKS\tOPENING\tFEN")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Time.Local().Format("2006-01-02 15:04"), r.Status, r.BestMove, r.MatchedBooks, r.OpeningID, r.FEN)
	}
	tw.Flush()
	return subcommands.ExitSuccess
}
