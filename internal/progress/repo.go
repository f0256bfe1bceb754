package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/abhisek/sunny/internal/store"
)

// ErrIncompatibleProfile is returned when a stored profile was written by
// an incompatible format version.
var ErrIncompatibleProfile = errors.New("incompatible profile format")

// ProfileSummary is a short listing entry for a stored learner.
type ProfileSummary struct {
	Name        string
	Age         int
	TotalPoints int
	UpdatedAt   time.Time
}

// ProfileDirectory lists recently active learners.
type ProfileDirectory interface {
	ListRecent(ctx context.Context, limit int) ([]ProfileSummary, error)
}

var _ ProfileDirectory = (*Repo)(nil)

// Repo loads and saves learner profiles through a key-value store.
type Repo struct {
	kv      store.KeyValueStore
	catalog CatalogStore
	now     func() time.Time
}

// NewRepo returns a Repo over kv. Fresh profiles draw their subjects from
// catalog.
func NewRepo(kv store.KeyValueStore, catalog CatalogStore) *Repo {
	return &Repo{kv: kv, catalog: catalog, now: time.Now}
}

// Load returns the stored profile for (name, age), or store.ErrNotFound.
func (r *Repo) Load(ctx context.Context, name string, age int) (LearnerProfile, error) {
	raw, err := r.kv.Get(ctx, Key(name, age))
	if err != nil {
		return LearnerProfile{}, err
	}
	return decodeProfile(raw)
}

// Save writes the profile. Concurrent writers to the same key overwrite
// each other; the last write wins.
func (r *Repo) Save(ctx context.Context, p LearnerProfile) error {
	if p.Version == "" {
		p.Version = FormatVersion
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := r.kv.Set(ctx, p.Key(), string(data)); err != nil {
		return fmt.Errorf("save profile %s: %w", p.Key(), err)
	}
	return nil
}

// LoadOrCreate loads the learner's profile or creates a fresh one. The
// bool reports whether the profile was created. A fresh profile is saved
// best-effort; a failed save is returned alongside the usable profile.
func (r *Repo) LoadOrCreate(ctx context.Context, name string, age int) (LearnerProfile, bool, error) {
	p, err := r.Load(ctx, name, age)
	if err == nil {
		return p, false, nil
	}
	if errors.Is(err, ErrIncompatibleProfile) {
		return LearnerProfile{}, false, err
	}
	if !errors.Is(err, store.ErrNotFound) {
		// Storage is down: continue with an unsaved profile.
		return NewProfile(name, age, r.catalog, r.now()), true, err
	}

	p = NewProfile(name, age, r.catalog, r.now())
	return p, true, r.Save(ctx, p)
}

// ListRecent returns the most recently updated learners. It requires a
// store that implements store.Lister.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]ProfileSummary, error) {
	l, ok := r.kv.(store.Lister)
	if !ok {
		return nil, errors.New("profile store cannot list keys")
	}
	entries, err := l.List(ctx, "", limit)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]ProfileSummary, 0, len(entries))
	for _, e := range entries {
		p, err := decodeProfile(e.Value)
		if err != nil {
			continue
		}
		if p.Name == "" {
			p.Name, p.Age, _ = ParseKey(e.Key)
		}
		out = append(out, ProfileSummary{
			Name:        p.Name,
			Age:         p.Age,
			TotalPoints: p.TotalPoints,
			UpdatedAt:   e.UpdatedAt,
		})
	}
	return out, nil
}

func decodeProfile(raw string) (LearnerProfile, error) {
	var p LearnerProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return LearnerProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := checkVersion(p.Version); err != nil {
		return LearnerProfile{}, err
	}
	if p.Subjects == nil {
		p.Subjects = make(map[string]SubjectProgress)
	}
	if p.AgeGroup == "" {
		p.AgeGroup = BandFor(p.Age)
	}
	return p, nil
}

// checkVersion accepts unversioned profiles and any version sharing the
// current major.
func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: invalid version %q", ErrIncompatibleProfile, v)
	}
	if semver.Major(v) != semver.Major(FormatVersion) {
		return fmt.Errorf("%w: version %s, want %s.x", ErrIncompatibleProfile, v, semver.Major(FormatVersion))
	}
	return nil
}

// ParseKey splits a storage key back into name and age.
func ParseKey(key string) (string, int, bool) {
	i := strings.LastIndex(key, ":")
	if i <= 0 {
		return "", 0, false
	}
	age, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, false
	}
	return key[:i], age, true
}
