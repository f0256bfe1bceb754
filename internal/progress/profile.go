// Package progress tracks per-subject mastery for a learner: points,
// accuracy, streaks and levels.
package progress

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FormatVersion is the version written into every stored profile.
const FormatVersion = "v1.1.0"

// PointsPerCorrect is awarded for every correct answer.
const PointsPerCorrect = 10

// StreakToLevelUp is the streak that advances a level.
const StreakToLevelUp = 3

// SubjectProgress is a learner's standing in one subject.
type SubjectProgress struct {
	Level               int       `json:"level"`
	MaxLevel            int       `json:"maxLevel"`
	Points              int       `json:"points"`
	ActivitiesCompleted int       `json:"activitiesCompleted"`
	CorrectAnswers      int       `json:"correctAnswers"`
	TotalAttempts       int       `json:"totalAttempts"`
	CurrentStreak       int       `json:"currentStreak"`
	LastActivity        time.Time `json:"lastActivity,omitzero"`
}

// Accuracy returns correct answers over attempts, or 0 with no attempts.
func (s SubjectProgress) Accuracy() float64 {
	if s.TotalAttempts == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalAttempts)
}

// LearnerProfile is everything persisted about a learner.
type LearnerProfile struct {
	Version         string                     `json:"version"`
	Name            string                     `json:"name"`
	Age             int                        `json:"age"`
	AgeGroup        AgeBand                    `json:"ageGroup"`
	TotalPoints     int                        `json:"totalPoints"`
	TotalActivities int                        `json:"totalActivities"`
	Subjects        map[string]SubjectProgress `json:"subjects"`
	LevelNames      map[string][]string        `json:"levelNames,omitempty"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
}

// NewProfile creates a fresh profile with every subject the catalog offers
// for the learner's band. Each subject's MaxLevel is fixed here.
func NewProfile(name string, age int, catalog CatalogStore, now time.Time) LearnerProfile {
	band := BandFor(age)
	p := LearnerProfile{
		Version:    FormatVersion,
		Name:       strings.TrimSpace(name),
		Age:        age,
		AgeGroup:   band,
		Subjects:   make(map[string]SubjectProgress),
		LevelNames: make(map[string][]string),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	for _, subject := range catalog.Subjects(band) {
		levels := catalog.Levels(subject, band)
		p.Subjects[subject] = SubjectProgress{MaxLevel: max(len(levels)-1, 0)}
		p.LevelNames[subject] = append([]string(nil), levels...)
	}
	return p
}

// Key identifies a learner in storage: "<name>:<age>" with the name
// lowercased.
func Key(name string, age int) string {
	return strings.ToLower(strings.TrimSpace(name)) + ":" + strconv.Itoa(age)
}

// Key returns the storage key of the profile.
func (p LearnerProfile) Key() string {
	return Key(p.Name, p.Age)
}

// LevelName returns the curated name of the learner's current level in a
// subject, or "Level N" when none is known.
func (p LearnerProfile) LevelName(subject string) string {
	sp := p.Subjects[subject]
	names := p.LevelNames[subject]
	if sp.Level >= 0 && sp.Level < len(names) {
		return names[sp.Level]
	}
	return fmt.Sprintf("Level %d", sp.Level+1)
}

// SubjectKeys returns the profile's subjects in stable order.
func (p LearnerProfile) SubjectKeys() []string {
	keys := make([]string, 0, len(p.Subjects))
	for k := range p.Subjects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p LearnerProfile) clone() LearnerProfile {
	out := p
	out.Subjects = make(map[string]SubjectProgress, len(p.Subjects))
	for k, v := range p.Subjects {
		out.Subjects[k] = v
	}
	if p.LevelNames != nil {
		out.LevelNames = make(map[string][]string, len(p.LevelNames))
		for k, v := range p.LevelNames {
			out.LevelNames[k] = append([]string(nil), v...)
		}
	}
	return out
}
