package commands

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/hailam/theorybook/internal/uci"
)

type UCI struct {
	base
}

func (*UCI) Name() string     { return "uci" }
func (*UCI) Synopsis() string { return "Serve book moves as a UCI engine on stdin/stdout" }
func (*UCI) Usage() string {
	return `uci [flags]

Speaks UCI on stdin and stdout. "go" answers with the top book move, or
"bestmove 0000" once the game leaves the books. Logs go to stderr.
`
}

func (c *UCI) SetFlags(flags *flag.FlagSet) {
	c.setFlags(flags)
}

func (c *UCI) Execute(ctx context.Context, flag *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := c.logger()

	_, svc, err := c.books(log)
	if err != nil {
		log.Error().Err(err).Msg("uci")
		return subcommands.ExitFailure
	}

	opts := []uci.Option{uci.WithLogger(log), uci.WithTimeout(c.cfg.Timeout)}
	if st, err := c.openStorage(); err == nil {
		if ids, err := st.Favorites(); err == nil {
			opts = append(opts, uci.WithFavorites(ids))
		}
		st.Close()
	} else {
		log.Debug().Err(err).Msg("favorites unavailable")
	}

	if err := uci.New(svc, opts...).Run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("uci")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
