package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sunny/internal/store"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func profileWith(sp SubjectProgress) LearnerProfile {
	return LearnerProfile{
		Name:     "Maya",
		Age:      7,
		Subjects: map[string]SubjectProgress{"math": sp},
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		age  int
		want AgeBand
	}{
		{4, BandEarly}, {6, BandEarly}, {7, BandMiddle}, {9, BandMiddle},
		{10, BandTween}, {13, BandTween}, {14, BandTeen}, {18, BandTeen},
		{3, DefaultBand}, {19, DefaultBand}, {0, DefaultBand},
	}
	for _, tt := range tests {
		if got := BandFor(tt.age); got != tt.want {
			t.Errorf("BandFor(%d) = %s, want %s", tt.age, got, tt.want)
		}
	}
	assert.Equal(t, 0, ParseAge("seven"))
	assert.Equal(t, 8, ParseAge(" 8 "))
}

func TestThreeCorrectLevelsUp(t *testing.T) {
	p := profileWith(SubjectProgress{MaxLevel: 4})

	for i := 0; i < 3; i++ {
		p = UpdateProgress(p, "math", true, t0)
	}
	sp := p.Subjects["math"]
	assert.Equal(t, 1, sp.Level)
	assert.Equal(t, 0, sp.CurrentStreak)
	assert.Equal(t, 30, sp.Points)
	assert.Equal(t, 30, p.TotalPoints)

	p = UpdateProgress(p, "math", false, t0)
	sp = p.Subjects["math"]
	assert.Equal(t, 1, sp.Level)
	assert.Equal(t, 0, sp.CurrentStreak)
	assert.Equal(t, 4, sp.TotalAttempts)
	assert.Equal(t, 3, sp.CorrectAnswers)
	assert.Equal(t, 4, p.TotalActivities)
}

func TestIncorrectResetsStreak(t *testing.T) {
	p := profileWith(SubjectProgress{MaxLevel: 4})
	p = UpdateProgress(p, "math", true, t0)
	p = UpdateProgress(p, "math", true, t0)
	p = UpdateProgress(p, "math", false, t0)
	p = UpdateProgress(p, "math", true, t0)

	sp := p.Subjects["math"]
	assert.Equal(t, 0, sp.Level)
	assert.Equal(t, 1, sp.CurrentStreak)
	assert.Equal(t, 30, sp.Points)
}

func TestLevelCappedAtMax(t *testing.T) {
	p := profileWith(SubjectProgress{Level: 2, MaxLevel: 2})
	for i := 0; i < 5; i++ {
		p = UpdateProgress(p, "math", true, t0)
	}
	sp := p.Subjects["math"]
	assert.Equal(t, 2, sp.Level)
	assert.Equal(t, 5, sp.CurrentStreak)
}

func TestUpdateProgressIsPure(t *testing.T) {
	p := profileWith(SubjectProgress{MaxLevel: 4})
	_ = UpdateProgress(p, "math", true, t0)

	assert.Equal(t, 0, p.Subjects["math"].Points)
	assert.Equal(t, 0, p.TotalPoints)
}

func TestUpdateProgressInvariants(t *testing.T) {
	p := profileWith(SubjectProgress{MaxLevel: 3})
	pattern := []bool{true, false, true, true, true, false, true, true, true, true, true, true, true}
	for _, ok := range pattern {
		p = UpdateProgress(p, "math", ok, t0)
		sp := p.Subjects["math"]
		if sp.CorrectAnswers > sp.TotalAttempts {
			t.Fatalf("correct %d > attempts %d", sp.CorrectAnswers, sp.TotalAttempts)
		}
		if sp.Level > sp.MaxLevel {
			t.Fatalf("level %d > max %d", sp.Level, sp.MaxLevel)
		}
	}
}

func TestNewProfileFromCatalog(t *testing.T) {
	p := NewProfile(" Maya ", 5, DefaultCatalog(), t0)

	assert.Equal(t, "Maya", p.Name)
	assert.Equal(t, BandEarly, p.AgeGroup)
	assert.Equal(t, FormatVersion, p.Version)
	require.Contains(t, p.Subjects, "math")
	assert.Equal(t, 4, p.Subjects["math"].MaxLevel)
	assert.Equal(t, "Counting to 10", p.LevelName("math"))
	assert.Equal(t, []string{"math", "reading", "science", "spelling"}, p.SubjectKeys())

	teen := NewProfile("Sam", 15, DefaultCatalog(), t0)
	assert.NotContains(t, teen.Subjects, "spelling")
}

func TestInferCorrect(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"That's correct! 🎉", true},
		{"Great job, Maya!", true},
		{"Excellent counting!", true},
		{"That's incorrect, let's try again", false},
		{"Not quite. Count again.", false},
		{"Let's count together.", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferCorrect(tt.text), tt.text)
	}
}

func TestOutcome(t *testing.T) {
	assert.True(t, Outcome("advance", "hmm"))
	assert.False(t, Outcome("teach", "Great job!"))
	assert.True(t, Outcome("", "Great job!"))
	assert.False(t, Outcome("  ", "Try again"))
}

func TestRepo_LoadOrCreateAndSave(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	repo := NewRepo(kv, DefaultCatalog())
	repo.now = func() time.Time { return t0 }

	p, created, err := repo.LoadOrCreate(ctx, "Maya", 7)
	require.NoError(t, err)
	assert.True(t, created)

	p = UpdateProgress(p, "math", true, t0)
	require.NoError(t, repo.Save(ctx, p))

	again, created, err := repo.LoadOrCreate(ctx, "maya", 7)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 10, again.TotalPoints)
	assert.Equal(t, 1, again.Subjects["math"].CurrentStreak)

	_, err = repo.Load(ctx, "Maya", 8)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

type downKV struct{}

func (downKV) Get(context.Context, string) (string, error) { return "", errors.New("offline") }
func (downKV) Set(context.Context, string, string) error   { return errors.New("offline") }

func TestRepo_StorageDownStillYieldsProfile(t *testing.T) {
	repo := NewRepo(downKV{}, DefaultCatalog())
	p, created, err := repo.LoadOrCreate(context.Background(), "Maya", 7)
	assert.Error(t, err)
	assert.True(t, created)
	assert.Equal(t, "Maya", p.Name)
	assert.NotEmpty(t, p.Subjects)
}

func TestRepo_IncompatibleVersion(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, Key("Maya", 7), `{"version":"v2.0.0","name":"Maya","age":7}`))

	_, _, err := NewRepo(kv, DefaultCatalog()).LoadOrCreate(ctx, "Maya", 7)
	assert.ErrorIs(t, err, ErrIncompatibleProfile)

	require.NoError(t, kv.Set(ctx, Key("Leo", 9), `{"version":"1.0.0","name":"Leo","age":9}`))
	p, err := NewRepo(kv, DefaultCatalog()).Load(ctx, "Leo", 9)
	require.NoError(t, err)
	assert.Equal(t, BandMiddle, p.AgeGroup)
}

func TestRepo_ListRecent(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	repo := NewRepo(kv, DefaultCatalog())

	require.NoError(t, repo.Save(ctx, NewProfile("Maya", 7, DefaultCatalog(), t0)))
	require.NoError(t, repo.Save(ctx, NewProfile("Leo", 12, DefaultCatalog(), t0)))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(t, []string{"Maya", "Leo"}, names)
}

func TestParseKey(t *testing.T) {
	name, age, ok := ParseKey("maya:7")
	require.True(t, ok)
	assert.Equal(t, "maya", name)
	assert.Equal(t, 7, age)

	_, _, ok = ParseKey("nokey")
	assert.False(t, ok)
}

func TestKeyFoldsNameCase(t *testing.T) {
	assert.Equal(t, "mia:6", Key("  Mia ", 6))
	assert.Equal(t, Key("MIA", 6), Key("mia", 6))
	assert.NotEqual(t, Key("Mia", 6), Key("Mia", 7))

	ctx := context.Background()
	repo := NewRepo(store.NewMemoryKV(), DefaultCatalog())
	_, created, err := repo.LoadOrCreate(ctx, "Mia", 6)
	require.NoError(t, err)
	require.True(t, created)

	p, created, err := repo.LoadOrCreate(ctx, "MIA", 6)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Mia", p.Name, "display name keeps the first spelling")
}
