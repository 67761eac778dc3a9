package storage

import (
	"path/filepath"
	"testing"

	"github.com/hailam/theorybook/internal/insight"
)

func openMemory(t *testing.T) *Storage {
	t.Helper()
	s, err := Open("")
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettings(t *testing.T) {
	s := openMemory(t)

	t.Run("Defaults", func(t *testing.T) {
		settings, err := s.LoadSettings()
		if err != nil {
			t.Fatal(err)
		}
		if settings != insight.DefaultSettings() {
			t.Errorf("Expected default settings, got %+v", settings)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		want := insight.Settings{
			RatingRange:    insight.Rating1600To2000,
			LimitsDisabled: true,
			HintsEnabled:   true,
		}
		if err := s.SaveSettings(want); err != nil {
			t.Fatal(err)
		}
		got, err := s.LoadSettings()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	})

	t.Run("UnknownRating", func(t *testing.T) {
		if err := s.SaveSettings(insight.Settings{RatingRange: "9000+"}); err != nil {
			t.Fatal(err)
		}
		got, err := s.LoadSettings()
		if err != nil {
			t.Fatal(err)
		}
		if got.RatingRange != insight.DefaultRatingRange {
			t.Errorf("Expected default rating, got %s", got.RatingRange)
		}
	})
}

func TestFavorites(t *testing.T) {
	s := openMemory(t)

	ids, err := s.Favorites()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected no favorites, got %v", ids)
	}

	for _, id := range []string{"sicilian-defense", "french-defense", "sicilian-defense", "caro-kann-defense"} {
		if err := s.AddFavorite(id); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.RemoveFavorite("french-defense"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveFavorite("not-there"); err != nil {
		t.Fatal(err)
	}

	ids, err = s.Favorites()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"sicilian-defense", "caro-kann-defense"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, ids)
		}
	}
}

func TestPersistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddFavorite("london-system"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ids, err := s.Favorites()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "london-system" {
		t.Errorf("Expected [london-system], got %v", ids)
	}
}

func TestGetDataDirOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv(DataDirEnv, dir)

	got, err := GetDataDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("Expected %s, got %s", dir, got)
	}

	hist, err := GetHistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	if hist != filepath.Join(dir, "history.db") {
		t.Errorf("Unexpected history path %s", hist)
	}
}
