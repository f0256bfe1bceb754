package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_CountingDefaults(t *testing.T) {
	b := Synthesize("Count the frogs", "math")
	assert.Equal(t, Emoji{Count: 5, Glyph: "🐸"}, b.Visual)

	for i := 0; i < 5; i++ {
		assert.Equal(t, b, Synthesize("Count the frogs", "math"))
	}
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		subject string
		want    Visual
	}{
		{"letter named", "Find the letter b in the box!", "science", Letter{Char: "B"}},
		{"spell word", "Can you spell dog?", "spelling", Word{Text: "DOG"}},
		{"spell the word", "Let's spell the word 'sun' together", "science", Word{Text: "SUN"}},
		{"spell default", "Time to spell!", "spelling", Word{Text: "CAT"}},
		{"spell stopword", "Can you spell it?", "spelling", Word{Text: "CAT"}},
		{"addition", "What is 3 + 4?", "math", AdditionEmoji{Count1: 3, Count2: 4, Glyph: "🍎"}},
		{"subtraction pattern", "What is 7 - 2?", "math", SubtractionEmoji{Count1: 7, Count2: 2, Glyph: "🍎"}},
		{"subtraction cue", "If you take away some apples, how many are left?", "math", SubtractionEmoji{Count1: 5, Count2: 2, Glyph: "🍎"}},
		{"count with number", "How many stars? There are 7", "math", Emoji{Count: 7, Glyph: "⭐"}},
		{"count capped", "Count 25 balls", "math", Emoji{Count: 10, Glyph: "⚽"}},
		{"count zero", "Count 0 hearts", "math", Emoji{Count: 5, Glyph: "❤️"}},
		{"count default glyph", "How many are there?", "math", Emoji{Count: 5, Glyph: "🔵"}},
		{"math without cue", "Great thinking!", "math", Text{Body: "Great thinking!"}},
		{"other subject", "Plants need sunlight.", "science", Text{Body: "Plants need sunlight."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Synthesize(tt.text, tt.subject)
			assert.Equal(t, tt.want, b.Visual)
			assert.Equal(t, ColorDefault, b.Color)
		})
	}
}

func TestSynthesize_ReadingPicksStableLetter(t *testing.T) {
	a := Synthesize("Which sound does this make?", "reading")
	b := Synthesize("Which sound does this make?", "reading")

	l, ok := a.Visual.(Letter)
	require.True(t, ok)
	require.Len(t, l.Char, 1)
	assert.True(t, l.Char >= "A" && l.Char <= "Z")
	assert.Equal(t, a, b)
}

func TestSynthesize_TextTruncated(t *testing.T) {
	long := strings.Repeat("é", 150)
	b := Synthesize(long, "history")
	txt, ok := b.Visual.(Text)
	require.True(t, ok)
	assert.Equal(t, 100, len([]rune(txt.Body)))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      Visual
		wantColor string
	}{
		{"letter", `{"visual":"A","visualType":"letter","visualColor":"red"}`, Letter{Char: "A"}, "red"},
		{"circles number", `{"visual":5,"visualType":"circles"}`, Circles{Count: 5}, "blue"},
		{"circles string", `{"visual":"4","visualType":"circles"}`, Circles{Count: 4}, "blue"},
		{"emoji object", `{"visual":{"count":3,"glyph":"🐶"},"visualType":"emoji"}`, Emoji{Count: 3, Glyph: "🐶"}, "blue"},
		{"emoji alias", `{"visual":{"count":2,"emoji":"🐸"},"visualType":"emoji"}`, Emoji{Count: 2, Glyph: "🐸"}, "blue"},
		{"emoji bare count", `{"visual":6,"visualType":"emoji"}`, Emoji{Count: 6, Glyph: "🔵"}, "blue"},
		{"addition emoji", `{"visual":{"count1":2,"count2":3},"visualType":"addition-emoji"}`, AdditionEmoji{Count1: 2, Count2: 3, Glyph: "🍎"}, "blue"},
		{"number line", `{"visual":7,"visualType":"number-line"}`, NumberLine{Value: 7}, "blue"},
		{"choice", `{"visual":["Apple","Banana",3],"visualType":"choice"}`, Choice{Options: []string{"Apple", "Banana", "3"}}, "blue"},
		{"none type", `{"visual":"x","visualType":"none","visualColor":"gray"}`, None{}, "gray"},
		{"empty visual", `{"visual":"","visualType":"letter"}`, None{}, "blue"},
		{"unknown type", `{"visual":"hello","visualType":"hologram"}`, Text{Body: "hello"}, "blue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Visual)
			assert.Equal(t, tt.wantColor, b.Color)
		})
	}
}

func TestDecode_BadNumber(t *testing.T) {
	_, err := Decode([]byte(`{"visual":"many","visualType":"circles"}`))
	assert.Error(t, err)
}

func TestBoard_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(New(Emoji{Count: 5, Glyph: "🐸"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"visual":{"count":5,"glyph":"🐸"},"visualType":"emoji","visualColor":"blue"}`, string(data))

	data, err = json.Marshal(Placeholder())
	require.NoError(t, err)
	assert.JSONEq(t, `{"visual":"","visualType":"none","visualColor":"gray"}`, string(data))
}

func TestTerminalRenderer_AllKinds(t *testing.T) {
	boards := map[Kind]Board{
		KindLetter:           New(Letter{Char: "a"}),
		KindWord:             New(Word{Text: "cat"}),
		KindCircles:          New(Circles{Count: 3}),
		KindEmoji:            New(Emoji{Count: 2, Glyph: "🐸"}),
		KindAddition:         New(Addition{Expression: "3 + 2"}),
		KindAdditionEmoji:    New(AdditionEmoji{Count1: 1, Count2: 2, Glyph: "🍎"}),
		KindSubtractionEmoji: New(SubtractionEmoji{Count1: 4, Count2: 1, Glyph: "🍎"}),
		KindNumberLine:       New(NumberLine{Value: 7}),
		KindChoice:           New(Choice{Options: []string{"Apple", "Banana"}}),
		KindTrace:            New(Trace{Shape: "B"}),
		KindText:             New(Text{Body: "hello"}),
		KindNone:             Placeholder(),
	}
	require.Len(t, boards, len(AllKinds()))

	r := NewTerminalRenderer()
	for kind, b := range boards {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, b), kind)
		if kind == KindNone {
			assert.Empty(t, buf.String())
		} else {
			assert.NotEmpty(t, buf.String(), kind)
		}
	}
}

func TestTerminalRenderer_Interact(t *testing.T) {
	r := NewTerminalRenderer()
	b := New(Choice{Options: []string{"Apple", "Banana"}})

	var picked string
	onSelect := func(opt string) error {
		picked = opt
		return nil
	}

	ok, err := r.Interact(b, "2", onSelect)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Banana", picked)

	ok, err = r.Interact(b, "apple", onSelect)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Apple", picked)

	ok, _ = r.Interact(b, "cherry", onSelect)
	assert.False(t, ok)

	ok, _ = r.Interact(New(Letter{Char: "A"}), "1", onSelect)
	assert.False(t, ok)

	boom := errors.New("boom")
	_, err = r.Interact(b, "1", func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}
