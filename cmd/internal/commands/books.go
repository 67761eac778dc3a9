package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/hailam/theorybook/internal/book"
	"github.com/hailam/theorybook/internal/registry"
)

type Validate struct {
	base
}

func (*Validate) Name() string     { return "validate" }
func (*Validate) Synopsis() string { return "Check Polyglot book files" }
func (*Validate) Usage() string {
	return `validate [flags] BOOK.bin...

Checks that each file is a non-empty run of 16-byte records sorted by key.
`
}

func (c *Validate) SetFlags(flags *flag.FlagSet) {
	flags.BoolVar(&c.verbose, "v", false, "log debug output")
}

func (c *Validate) Execute(ctx context.Context, flag *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	log := c.logger()

	status := subcommands.ExitSuccess
	for _, name := range flag.Args() {
		data, err := os.ReadFile(name)
		if err != nil {
			log.Error().Err(err).Msg("validate")
			status = subcommands.ExitFailure
			continue
		}
		st, err := book.Validate(data)
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("invalid book")
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%s: %d entries, %d positions, %d bytes\n", name, st.Entries, st.Positions, st.Bytes)
	}
	return status
}

type Index struct {
	base

	prefix string
	output string
}

func (*Index) Name() string     { return "index" }
func (*Index) Synopsis() string { return "Build a book index from a directory of .bin files" }
func (*Index) Usage() string {
	return `index [flags] DIR

Validates every .bin file in DIR and writes the opening index, one entry per
file, with ids taken from the file names.
`
}

func (c *Index) SetFlags(flags *flag.FlagSet) {
	flags.BoolVar(&c.verbose, "v", false, "log debug output")
	flags.StringVar(&c.prefix, "prefix", registry.DefaultPrefix, "path prefix for book files in the index")
	flags.StringVar(&c.output, "o", "", "write the index here instead of stdout")
}

func (c *Index) Execute(ctx context.Context, flag *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if flag.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	log := c.logger()

	reg, reports, err := registry.Build(flag.Arg(0), c.prefix)
	if err != nil {
		log.Error().Err(err).Msg("index")
		return subcommands.ExitFailure
	}
	for _, r := range reports {
		log.Info().
			Str("file", r.File).
			Str("id", r.ID).
			Int("entries", r.Stats.Entries).
			Int("positions", r.Stats.Positions).
			Msg("book")
	}

	if c.output == "" {
		if err := reg.WriteJSON(os.Stdout); err != nil {
			log.Error().Err(err).Msg("index")
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	if err := os.MkdirAll(filepath.Dir(c.output), 0755); err != nil {
		log.Error().Err(err).Msg("index")
		return subcommands.ExitFailure
	}
	f, err := os.Create(c.output)
	if err != nil {
		log.Error().Err(err).Msg("index")
		return subcommands.ExitFailure
	}
	if err := reg.WriteJSON(f); err != nil {
		f.Close()
		log.Error().Err(err).Msg("index")
		return subcommands.ExitFailure
	}
	if err := f.Close(); err != nil {
		log.Error().Err(err).Msg("index")
		return subcommands.ExitFailure
	}
	log.Info().Int("books", reg.Len()).Str("output", c.output).Msg("index written")
	return subcommands.ExitSuccess
}

type Fetch struct {
	base

	dir   string
	force bool
}

func (*Fetch) Name() string     { return "fetch" }
func (*Fetch) Synopsis() string { return "Download the registered books into a local directory" }
func (*Fetch) Usage() string {
	return `fetch [flags]

Downloads every book in the registry from -books-url and stores it under
-dir, keeping the registry paths. Books already present are skipped.
`
}

func (c *Fetch) SetFlags(flags *flag.FlagSet) {
	c.setFlags(flags)
	flags.StringVar(&c.dir, "dir", "", "destination directory (default: -books)")
	flags.BoolVar(&c.force, "force", false, "download books that are already present")
}

func (c *Fetch) Execute(ctx context.Context, flag *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := c.logger()
	if c.envErr != nil {
		log.Error().Err(c.envErr).Msg("fetch")
		return subcommands.ExitFailure
	}
	if c.cfg.BooksURL == "" {
		log.Error().Msg("fetch needs -books-url")
		return subcommands.ExitUsageError
	}
	dir := c.dir
	if dir == "" {
		dir = c.cfg.BooksRoot
	}

	reg, err := registry.Open(c.cfg.Registry)
	if err != nil {
		log.Error().Err(err).Msg("open registry")
		return subcommands.ExitFailure
	}
	var paths []string
	for _, e := range reg.Books() {
		paths = append(paths, e.Path)
	}

	m := &book.Mirror{Source: c.cfg.Source(), Dir: dir, Force: c.force}
	progress := make(chan book.Progress)
	done := make(chan struct{})
	var total int64
	go func() {
		defer close(done)
		for p := range progress {
			switch {
			case p.Err != nil:
				log.Warn().Err(p.Err).Str("path", p.Path).Msg("fetch failed")
			case p.Skipped:
				log.Debug().Str("path", p.Path).Msg("present")
			default:
				total += int64(p.Bytes)
				log.Info().Str("path", p.Path).Str("size", book.FormatBytes(int64(p.Bytes))).Msg("fetched")
			}
		}
	}()

	failed, err := m.FetchAll(ctx, paths, progress)
	close(progress)
	<-done
	if err != nil {
		log.Error().Err(err).Msg("fetch")
		return subcommands.ExitFailure
	}
	log.Info().
		Int("books", len(paths)).
		Int("failed", failed).
		Str("downloaded", book.FormatBytes(total)).
		Str("dir", dir).
		Msg("fetch done")
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
