package progress

import (
	"sort"
	"strings"
)

// CatalogStore lists the curated level names per subject and age band.
type CatalogStore interface {
	// Subjects returns the subject keys offered to a band.
	Subjects(band AgeBand) []string

	// Levels returns the ordered level names of a subject for a band, or
	// nil if the subject is not offered.
	Levels(subject string, band AgeBand) []string
}

// StaticCatalog is an in-memory CatalogStore.
type StaticCatalog struct {
	levels map[string]map[AgeBand][]string
}

// NewStaticCatalog returns a catalog over levels, keyed by subject then band.
func NewStaticCatalog(levels map[string]map[AgeBand][]string) *StaticCatalog {
	return &StaticCatalog{levels: levels}
}

func (c *StaticCatalog) Subjects(band AgeBand) []string {
	var out []string
	for subject, bands := range c.levels {
		if len(bands[band]) > 0 {
			out = append(out, subject)
		}
	}
	sort.Strings(out)
	return out
}

func (c *StaticCatalog) Levels(subject string, band AgeBand) []string {
	bands, ok := c.levels[strings.ToLower(subject)]
	if !ok {
		return nil
	}
	return bands[band]
}

// DefaultCatalog returns the built-in subjects and level names.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(map[string]map[AgeBand][]string{
		"math": {
			BandEarly:  {"Counting to 10", "Counting to 20", "Adding small numbers", "Taking away", "Shapes and patterns"},
			BandMiddle: {"Addition facts", "Subtraction facts", "Place value", "Times tables", "Simple fractions"},
			BandTween:  {"Fractions", "Decimals", "Ratios", "Negative numbers", "Intro to equations"},
			BandTeen:   {"Linear equations", "Quadratics", "Functions", "Trigonometry", "Probability"},
		},
		"reading": {
			BandEarly:  {"Letter names", "Letter sounds", "Blending sounds", "Sight words", "Short sentences"},
			BandMiddle: {"Phonics patterns", "Reading fluency", "Main idea", "Story order", "Vocabulary in context"},
			BandTween:  {"Inference", "Theme", "Point of view", "Text structure", "Comparing texts"},
			BandTeen:   {"Close reading", "Rhetoric", "Literary devices", "Argument analysis", "Synthesis"},
		},
		"spelling": {
			BandEarly:  {"Three-letter words", "Short vowels", "Rhyming words", "Four-letter words", "Family words"},
			BandMiddle: {"Long vowels", "Blends and digraphs", "Silent e", "Plurals", "Tricky words"},
			BandTween:  {"Prefixes", "Suffixes", "Homophones", "Word roots", "Commonly confused words"},
		},
		"science": {
			BandEarly:  {"Animals", "Plants", "Weather", "My body", "Day and night"},
			BandMiddle: {"Habitats", "States of matter", "Forces", "Life cycles", "The solar system"},
			BandTween:  {"Cells", "Energy", "Ecosystems", "Earth's layers", "Simple machines"},
			BandTeen:   {"Chemistry basics", "Genetics", "Physics of motion", "Evolution", "Electricity"},
		},
	})
}
