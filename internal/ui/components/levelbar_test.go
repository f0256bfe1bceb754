package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/sunny/internal/progress"
)

func TestLevelBarFraction(t *testing.T) {
	tests := []struct {
		name  string
		level int
		max   int
		want  float64
	}{
		{"first level", 0, 4, 0.2},
		{"top level", 4, 4, 1},
		{"single level", 0, 0, 1},
		{"over max", 7, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := LevelBar{Level: tt.level, Max: tt.max}
			assert.InDelta(t, tt.want, b.Fraction(), 1e-9)
		})
	}
}

func TestLevelBarView(t *testing.T) {
	b := NewLevelBar("math", progress.SubjectProgress{Level: 1, MaxLevel: 4}, 40)
	v := b.View()
	assert.True(t, strings.Contains(v, "math"))
	assert.True(t, strings.Contains(v, "2/5"))
}
