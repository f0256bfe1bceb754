package progress

import (
	"strconv"
	"strings"
)

// AgeBand is one of four fixed learner age ranges.
type AgeBand string

const (
	BandEarly  AgeBand = "4-6"
	BandMiddle AgeBand = "7-9"
	BandTween  AgeBand = "10-13"
	BandTeen   AgeBand = "14-18"
)

// DefaultBand is used for ages outside every band.
const DefaultBand = BandTween

// AllBands returns the bands from youngest to oldest.
func AllBands() []AgeBand {
	return []AgeBand{BandEarly, BandMiddle, BandTween, BandTeen}
}

// BandFor returns the band containing age.
func BandFor(age int) AgeBand {
	switch {
	case age >= 4 && age <= 6:
		return BandEarly
	case age >= 7 && age <= 9:
		return BandMiddle
	case age >= 10 && age <= 13:
		return BandTween
	case age >= 14 && age <= 18:
		return BandTeen
	default:
		return DefaultBand
	}
}

// ParseAge parses a free-form age. Unparsable input yields 0, which maps
// to DefaultBand.
func ParseAge(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Young reports whether the band gets the simplified, picture-first style.
func (b AgeBand) Young() bool {
	return b == BandEarly || b == BandMiddle
}
