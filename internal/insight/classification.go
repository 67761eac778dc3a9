package insight

import (
	"bufio"
	"io"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/hailam/theorybook/internal/registry"
)

// Classification holds display names and rating bands per book file.
//
// The file format is one book per line, columns separated by two or more
// spaces: file name, display name, rating band, then free-form columns that
// are ignored. Blank lines and lines starting with '#' are skipped.
type Classification struct {
	names   map[string]string
	ratings map[string]RatingRange
}

var classificationLine = regexp.MustCompile(`^(\S+)\s{2,}(.+?)\s{2,}(.+?)\s{2,}(.+?)\s{2,}(.+?)(?:\s{2,}(.+))?$`)

// LoadClassification parses a classification table. Malformed lines are
// skipped.
func LoadClassification(r io.Reader) (*Classification, error) {
	c := &Classification{
		names:   make(map[string]string),
		ratings: make(map[string]RatingRange),
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := classificationLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		c.names[m[1]] = m[2]
		if rating, ok := ParseRatingRange(m[3]); ok {
			c.ratings[m[1]] = rating
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// OpenClassification loads a classification table from a file.
func OpenClassification(name string) (*Classification, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadClassification(f)
}

// Ratings maps each registry entry to its band through the entry's file name.
// Entries without a band are left out.
func (c *Classification) Ratings(entries []registry.Entry) map[string]RatingRange {
	out := make(map[string]RatingRange)
	if c == nil {
		return out
	}
	for _, e := range entries {
		if r, ok := c.ratings[path.Base(e.Path)]; ok {
			out[e.ID] = r
		}
	}
	return out
}

// BookName returns the display name for a book path: the classified name if
// there is one, else the file name without extension and with underscores
// turned into spaces.
func (c *Classification) BookName(bookPath string) string {
	file := path.Base(bookPath)
	if c != nil {
		if name, ok := c.names[file]; ok {
			return name
		}
	}
	if strings.HasSuffix(strings.ToLower(file), ".bin") {
		file = file[:len(file)-len(".bin")]
	}
	return strings.TrimSpace(strings.ReplaceAll(file, "_", " "))
}
