package coach

import (
	"github.com/abhisek/sunny/internal/grading"
	"github.com/abhisek/sunny/internal/llm"
)

// ResponseSchema describes a tutoring reply for providers that support
// structured output.
var ResponseSchema = &llm.Schema{
	Name:        "tutor-turn",
	Description: "One tutoring turn: a short coaching line plus a study board visual",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"coach_say": map[string]any{
				"type":        "string",
				"description": "Short motivating message spoken to the learner, at most 140 characters",
			},
			"study_board": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"visual": map[string]any{
						"description": "Payload for the visual type: a string, a number, a list of options, or an object with count/count1/count2/glyph",
					},
					"visualType": map[string]any{
						"type": "string",
						"enum": anyStrings(Kinds()),
					},
					"visualColor": map[string]any{
						"type": "string",
					},
				},
				"required": []any{"visual", "visualType"},
			},
			"expect": map[string]any{
				"type": "string",
				"enum": anyStrings(expectNames()),
			},
			"correctAnswer": map[string]any{
				"description": "Expected answer; a list of keywords for freeform",
			},
			"state": map[string]any{
				"type": "string",
				"enum": []any{"ask", "teach", "retry", "advance"},
			},
			"difficulty": map[string]any{
				"type":    "integer",
				"minimum": 0,
			},
			"subject": map[string]any{
				"type": "string",
			},
		},
		"required": []any{"coach_say", "study_board"},
	},
}

func expectNames() []string {
	types := grading.AllExpectTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func anyStrings(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
