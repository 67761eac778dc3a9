package storage

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/theorybook/internal/insight"
)

// Storage keys
const (
	keySettings  = "settings"
	keyFavorites = "favorites"
)

// settingsRecord is the stored form of insight.Settings.
type settingsRecord struct {
	RatingRange    string    `json:"rating_range"`
	LimitsDisabled bool      `json:"limits_disabled"`
	HintsEnabled   bool      `json:"hints_enabled"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the per-user data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens the database in dir. An empty dir keeps everything in memory.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// getJSON decodes the value under key into v. A missing key leaves v as is.
func (s *Storage) getJSON(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

func (s *Storage) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// SaveSettings saves the player settings.
func (s *Storage) SaveSettings(settings insight.Settings) error {
	return s.setJSON(keySettings, settingsRecord{
		RatingRange:    string(settings.RatingRange),
		LimitsDisabled: settings.LimitsDisabled,
		HintsEnabled:   settings.HintsEnabled,
		UpdatedAt:      time.Now(),
	})
}

// LoadSettings loads the player settings, returns defaults if not found. A
// stored rating band that is no longer known falls back to the default band.
func (s *Storage) LoadSettings() (insight.Settings, error) {
	def := insight.DefaultSettings()
	rec := settingsRecord{RatingRange: string(def.RatingRange)}

	if err := s.getJSON(keySettings, &rec); err != nil {
		return def, err
	}

	rating, ok := insight.ParseRatingRange(rec.RatingRange)
	if !ok {
		rating = def.RatingRange
	}
	return insight.Settings{
		RatingRange:    rating,
		LimitsDisabled: rec.LimitsDisabled,
		HintsEnabled:   rec.HintsEnabled,
	}, nil
}

// Favorites returns the favorite opening ids in the order they were added.
func (s *Storage) Favorites() ([]string, error) {
	var ids []string
	if err := s.getJSON(keyFavorites, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddFavorite marks an opening as favorite. Adding it twice is a no-op.
func (s *Storage) AddFavorite(id string) error {
	return s.updateFavorites(func(ids []string) []string {
		if slices.Contains(ids, id) {
			return ids
		}
		return append(ids, id)
	})
}

// RemoveFavorite unmarks an opening.
func (s *Storage) RemoveFavorite(id string) error {
	return s.updateFavorites(func(ids []string) []string {
		return slices.DeleteFunc(ids, func(s string) bool { return s == id })
	})
}

// updateFavorites applies fn to the stored list in one transaction.
func (s *Storage) updateFavorites(fn func([]string) []string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var ids []string
		item, err := txn.Get([]byte(keyFavorites))
		switch {
		case err == badger.ErrKeyNotFound:
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &ids)
			}); err != nil {
				return err
			}
		}

		data, err := json.Marshal(fn(ids))
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyFavorites), data)
	})
}
