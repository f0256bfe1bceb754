package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turnSchema() *Schema {
	return &Schema{
		Name:        "test-turn",
		Description: "A tutoring turn",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"coach_say":  map[string]any{"type": "string", "maxLength": 140},
				"difficulty": map[string]any{"type": "integer", "minimum": 0},
				"expect": map[string]any{
					"type": "string",
					"enum": []any{"digits", "letter", "word"},
				},
				"study_board": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"visualType": map[string]any{"type": "string"},
						"visual":     map[string]any{},
					},
					"required": []any{"visualType"},
				},
			},
			"required": []any{"coach_say", "difficulty"},
		},
	}
}

func TestConform_Accepts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"complete", `{"coach_say":"What is 2+3?","difficulty":1,"expect":"digits"}`, `{"coach_say":"What is 2+3?","difficulty":1,"expect":"digits"}`},
		{"without optional", `{"coach_say":"Great job!","difficulty":0}`, `{"coach_say":"Great job!","difficulty":0}`},
		{"untyped visual", `{"coach_say":"Pick one","difficulty":1,"study_board":{"visualType":"choice","visual":["Apple","Pear"]}}`, `{"coach_say":"Pick one","difficulty":1,"study_board":{"visualType":"choice","visual":["Apple","Pear"]}}`},
		{"json fence", "```json\n{\"coach_say\":\"Hi\",\"difficulty\":1}\n```", `{"coach_say":"Hi","difficulty":1}`},
		{"bare fence", "```\n{\"coach_say\":\"Hi\",\"difficulty\":1}```", `{"coach_say":"Hi","difficulty":1}`},
		{"padded", "  \n{\"coach_say\":\"Hi\",\"difficulty\":1}\n", `{"coach_say":"Hi","difficulty":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conform(turnSchema(), json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestConform_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"coach_say":"Hi"}`},
		{"wrong type", `{"coach_say":"Hi","difficulty":"easy"}`},
		{"invalid enum", `{"coach_say":"Hi","difficulty":1,"expect":"essay"}`},
		{"too long", `{"coach_say":"` + strings.Repeat("a", 141) + `","difficulty":1}`},
		{"board without type", `{"coach_say":"Hi","difficulty":1,"study_board":{"visual":3}}`},
		{"prose", `Sure! Let's count frogs.`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conform(turnSchema(), json.RawMessage(tt.raw))
			var invErr *ErrInvalidResponse
			require.ErrorAs(t, err, &invErr)
			assert.Equal(t, tt.raw, string(invErr.Content))
		})
	}
}

func TestFinish(t *testing.T) {
	usage := Usage{InputTokens: 10, OutputTokens: 5}

	t.Run("plain text passes through", func(t *testing.T) {
		resp, err := finish(Request{}, "Let's count frogs! 🐸", usage, "m", "end")
		require.NoError(t, err)
		assert.Equal(t, "Let's count frogs! 🐸", resp.Text())
		assert.Equal(t, 15, resp.Usage.TotalTokens)
		assert.Equal(t, "m", resp.Model)
	})

	t.Run("truncated plain text is kept", func(t *testing.T) {
		resp, err := finish(Request{}, "Let's cou", usage, "m", "max_tokens")
		require.NoError(t, err)
		assert.Equal(t, "max_tokens", resp.StopReason)
	})

	t.Run("truncated structured reply fails", func(t *testing.T) {
		_, err := finish(Request{Schema: turnSchema()}, `{"coach_say":"Hi`, usage, "m", "max_tokens")
		var maxTok *ErrMaxTokensExceeded
		assert.ErrorAs(t, err, &maxTok)
	})

	t.Run("structured reply is unfenced", func(t *testing.T) {
		resp, err := finish(Request{Schema: turnSchema()}, "```json\n{\"coach_say\":\"Hi\",\"difficulty\":2}\n```", usage, "m", "end")
		require.NoError(t, err)
		assert.JSONEq(t, `{"coach_say":"Hi","difficulty":2}`, string(resp.Content))
	})
}

func TestUnfence(t *testing.T) {
	assert.Equal(t, `{}`, string(unfence([]byte("```json\n{}\n```"))))
	assert.Equal(t, `{"a":1}`, string(unfence([]byte(` {"a":1} `))))
}
