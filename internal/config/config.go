// Package config holds the settings shared by every theorybook command.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hailam/theorybook/internal/book"
	"github.com/hailam/theorybook/internal/lookup"
)

// Environment variables that override the defaults. Flags override both.
const (
	EnvRegistry       = "THEORYBOOK_REGISTRY"
	EnvBooksRoot      = "THEORYBOOK_BOOKS_ROOT"
	EnvBooksURL       = "THEORYBOOK_BOOKS_URL"
	EnvDataDir        = "THEORYBOOK_DATA_DIR"
	EnvClassification = "THEORYBOOK_CLASSIFICATION"
	EnvConcurrency    = "THEORYBOOK_CONCURRENCY"
	EnvLegalOnly      = "THEORYBOOK_LEGAL_ONLY"
	EnvTimeout        = "THEORYBOOK_TIMEOUT"
)

// Config locates the books and the user data.
type Config struct {
	// Registry is the JSON index mapping opening ids to book paths.
	Registry string
	// BooksRoot is the directory book paths are resolved against.
	BooksRoot string
	// BooksURL, when set, serves books over HTTP instead of BooksRoot.
	BooksURL string
	// DataDir holds favorites, settings and history. Empty means the
	// per-user default.
	DataDir string
	// Classification is an optional table of book names and rating bands.
	Classification string

	Concurrency int
	LegalOnly   bool
	Timeout     time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Registry:    "books.index.json",
		BooksRoot:   ".",
		Concurrency: lookup.DefaultConcurrency,
		Timeout:     10 * time.Second,
	}
}

// Load returns the defaults with environment overrides applied.
func Load() (Config, error) {
	c := Default()
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvRegistry:       &c.Registry,
		EnvBooksRoot:      &c.BooksRoot,
		EnvBooksURL:       &c.BooksURL,
		EnvDataDir:        &c.DataDir,
		EnvClassification: &c.Classification,
	}
	for env, dst := range strs {
		if v, ok := lookupEnv(env); ok {
			*dst = v
		}
	}

	if v, ok := lookupEnv(EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: want a positive integer, got %q", EnvConcurrency, v)
		}
		c.Concurrency = n
	}
	if v, ok := lookupEnv(EnvLegalOnly); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLegalOnly, err)
		}
		c.LegalOnly = b
	}
	if v, ok := lookupEnv(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// RegisterFlags binds the configuration to flags, using the current values as
// defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Registry, "registry", c.Registry, "book index JSON file")
	fs.StringVar(&c.BooksRoot, "books", c.BooksRoot, "directory that book paths are relative to")
	fs.StringVar(&c.BooksURL, "books-url", c.BooksURL, "base URL to fetch books from instead of -books")
	fs.StringVar(&c.DataDir, "data", c.DataDir, "directory for favorites, settings and history")
	fs.StringVar(&c.Classification, "classification", c.Classification, "optional book classification table")
	fs.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "books searched in parallel")
	fs.BoolVar(&c.LegalOnly, "legal", c.LegalOnly, "drop book moves that are illegal in the position")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "time limit for one lookup")
}

// Source returns where books are fetched from.
func (c Config) Source() book.Source {
	if c.BooksURL != "" {
		return book.NewHTTPSource(c.BooksURL)
	}
	return book.FileSource{Root: c.BooksRoot}
}
