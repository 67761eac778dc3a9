// Package history keeps a log of computed insights in sqlite.
package history

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // repository assumes sqlite

	"github.com/hailam/theorybook/internal/board"
	"github.com/hailam/theorybook/internal/insight"
)

// Lookup is one logged insight.
type Lookup struct {
	ID           int64     `db:"id"`
	Time         time.Time `db:"time"`
	FEN          string    `db:"fen"`
	Key          string    `db:"poly_key"` // 16 hex digits
	Status       string    `db:"status"`
	BestMove     string    `db:"best_move"`
	OpeningID    string    `db:"opening_id"`
	MatchedBooks int       `db:"matched_books"`
}

// FromInsight builds the log row for an insight.
func FromInsight(in insight.Insight) *Lookup {
	l := &Lookup{
		Time:         in.UpdatedAt,
		FEN:          in.FEN,
		Status:       string(in.Status),
		BestMove:     in.BookMove,
		OpeningID:    in.OpeningID,
		MatchedBooks: in.MatchedBooks,
	}
	if in.Key != 0 {
		l.Key = board.FormatKey(in.Key)
	}
	if l.Time.IsZero() {
		l.Time = time.Now()
	}
	return l
}

type Repository struct {
	db *sqlx.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Repository, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createLookupTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create lookups table: %w", err)
	}
	return &Repository{db: db}, nil
}

// Insert logs one lookup and sets its ID.
func (r *Repository) Insert(l *Lookup) error {
	res, err := r.db.NamedExec(insertLookup, l)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// InsertAll logs several lookups in one transaction.
func (r *Repository) InsertAll(ls []*Lookup) error {
	txn, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer txn.Rollback()
	for _, l := range ls {
		if _, err := txn.NamedExec(insertLookup, l); err != nil {
			return err
		}
	}
	return txn.Commit()
}

// Recent returns the n most recent lookups, newest first.
func (r *Repository) Recent(n int) ([]Lookup, error) {
	var out []Lookup
	if err := r.db.Select(&out, selectRecent, n); err != nil {
		return nil, err
	}
	return out, nil
}

// ByKey returns every lookup of the position with the given key, newest
// first.
func (r *Repository) ByKey(key uint64) ([]Lookup, error) {
	var out []Lookup
	if err := r.db.Select(&out, selectByKey, board.FormatKey(key)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
