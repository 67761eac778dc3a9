package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"

	"github.com/hailam/theorybook/cmd/internal/commands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&commands.Lookup{}, "books")
	subcommands.Register(&commands.UCI{}, "books")
	subcommands.Register(&commands.Validate{}, "import")
	subcommands.Register(&commands.Index{}, "import")
	subcommands.Register(&commands.Fetch{}, "import")
	subcommands.Register(&commands.Favorites{}, "user")
	subcommands.Register(&commands.Settings{}, "user")
	subcommands.Register(&commands.History{}, "user")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}
