// Package commands implements the theorybook subcommands.
package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/theorybook/internal/book"
	"github.com/hailam/theorybook/internal/config"
	"github.com/hailam/theorybook/internal/history"
	"github.com/hailam/theorybook/internal/insight"
	"github.com/hailam/theorybook/internal/lookup"
	"github.com/hailam/theorybook/internal/registry"
	"github.com/hailam/theorybook/internal/storage"
)

// base carries the configuration flags every command shares.
type base struct {
	cfg     config.Config
	envErr  error
	verbose bool
}

func (b *base) setFlags(flags *flag.FlagSet) {
	b.cfg, b.envErr = config.Load()
	b.cfg.RegisterFlags(flags)
	flags.BoolVar(&b.verbose, "v", false, "log debug output")
}

func (b *base) logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if b.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// books opens the registry and a lookup service over it.
func (b *base) books(log zerolog.Logger) (*registry.Registry, *lookup.Service, error) {
	if b.envErr != nil {
		return nil, nil, b.envErr
	}
	reg, err := registry.Open(b.cfg.Registry)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}
	store := book.NewStore(b.cfg.Source(), log)
	svc := lookup.NewService(reg, store,
		lookup.WithLogger(log),
		lookup.WithConcurrency(b.cfg.Concurrency),
		lookup.WithLegalOnly(b.cfg.LegalOnly),
	)
	log.Debug().Int("books", reg.Len()).Str("registry", b.cfg.Registry).Msg("books ready")
	return reg, svc, nil
}

func (b *base) openStorage() (*storage.Storage, error) {
	if b.envErr != nil {
		return nil, b.envErr
	}
	if b.cfg.DataDir == "" {
		return storage.NewStorage()
	}
	return storage.Open(filepath.Join(b.cfg.DataDir, "db"))
}

func (b *base) openHistory() (*history.Repository, error) {
	if b.envErr != nil {
		return nil, b.envErr
	}
	if b.cfg.DataDir == "" {
		path, err := storage.GetHistoryPath()
		if err != nil {
			return nil, err
		}
		return history.Open(path)
	}
	if err := os.MkdirAll(b.cfg.DataDir, 0755); err != nil {
		return nil, err
	}
	return history.Open(filepath.Join(b.cfg.DataDir, "history.db"))
}

// analyzer builds an insight analyzer with favorites from st and the
// classification table, if one is configured.
func (b *base) analyzer(svc *lookup.Service, reg *registry.Registry, st *storage.Storage, log zerolog.Logger) (*insight.Analyzer, error) {
	opts := []insight.Option{insight.WithLogger(log)}
	if st != nil {
		opts = append(opts, insight.WithFavorites(st))
	}
	if b.cfg.Classification != "" {
		c, err := insight.OpenClassification(b.cfg.Classification)
		if err != nil {
			return nil, fmt.Errorf("open classification: %w", err)
		}
		opts = append(opts, insight.WithClassification(c, c.Ratings(reg.Books())))
	}
	return insight.NewAnalyzer(svc, opts...), nil
}
