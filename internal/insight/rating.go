package insight

import "strings"

// RatingRange is a player strength band. It bounds how deep into the game
// book moves are offered and how many lines are shown.
type RatingRange string

const (
	Rating0To700     RatingRange = "0-700"
	Rating700To1000  RatingRange = "700-1000"
	Rating1000To1300 RatingRange = "1000-1300"
	Rating1300To1600 RatingRange = "1300-1600"
	Rating1600To2000 RatingRange = "1600-2000"
	Rating2000Plus   RatingRange = "2000+"

	DefaultRatingRange = Rating1000To1300
)

// RatingRanges lists every band from weakest to strongest.
var RatingRanges = []RatingRange{
	Rating0To700,
	Rating700To1000,
	Rating1000To1300,
	Rating1300To1600,
	Rating1600To2000,
	Rating2000Plus,
}

var depthLimits = map[RatingRange]int{
	Rating0To700:     3,
	Rating700To1000:  4,
	Rating1000To1300: 5,
	Rating1300To1600: 6,
	Rating1600To2000: 8,
	Rating2000Plus:   10,
}

var lineLimits = map[RatingRange]int{
	Rating0To700:     2,
	Rating700To1000:  3,
	Rating1000To1300: 4,
	Rating1300To1600: 5,
	Rating1600To2000: 7,
	Rating2000Plus:   10,
}

var dashes = strings.NewReplacer("–", "-", "—", "-", "â€“", "-")

// ParseRatingRange accepts a band written with any dash and spacing, such as
// "1000 – 1300".
func ParseRatingRange(s string) (RatingRange, bool) {
	s = strings.Join(strings.Fields(dashes.Replace(s)), "")
	for _, r := range RatingRanges {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is a known band.
func (r RatingRange) Valid() bool {
	return r.rank() >= 0
}

// DepthLimit is the number of full moves after which book moves stop being
// offered.
func (r RatingRange) DepthLimit() int {
	if d, ok := depthLimits[r]; ok {
		return d
	}
	return depthLimits[DefaultRatingRange]
}

// LineLimit is the number of candidate moves shown.
func (r RatingRange) LineLimit() int {
	if n, ok := lineLimits[r]; ok {
		return n
	}
	return lineLimits[DefaultRatingRange]
}

func (r RatingRange) rank() int {
	for i, rr := range RatingRanges {
		if rr == r {
			return i
		}
	}
	return -1
}

// allows reports whether an opening rated at opening suits a player in r.
// Unknown bands on either side allow everything.
func (r RatingRange) allows(opening RatingRange) bool {
	or, pr := opening.rank(), r.rank()
	if or < 0 || pr < 0 {
		return true
	}
	return or <= pr
}
