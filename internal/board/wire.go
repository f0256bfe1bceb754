package board

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	defaultEmojiGlyph = "🔵"
	defaultSumGlyph   = "🍎"
)

// wireBoard is the JSON shape exchanged with the model and the browser.
type wireBoard struct {
	Visual      json.RawMessage `json:"visual"`
	VisualType  string          `json:"visualType"`
	VisualColor string          `json:"visualColor,omitempty"`
}

type wireGroup struct {
	Count  *json.Number `json:"count,omitempty"`
	Count1 *json.Number `json:"count1,omitempty"`
	Count2 *json.Number `json:"count2,omitempty"`
	Glyph  string       `json:"glyph,omitempty"`
	Emoji  string       `json:"emoji,omitempty"`
}

// MarshalJSON encodes the board in its wire shape.
func (b Board) MarshalJSON() ([]byte, error) {
	var payload any
	switch v := b.Visual.(type) {
	case Letter:
		payload = v.Char
	case Word:
		payload = v.Text
	case Circles:
		payload = v.Count
	case Emoji:
		payload = map[string]any{"count": v.Count, "glyph": v.Glyph}
	case Addition:
		payload = v.Expression
	case AdditionEmoji:
		payload = map[string]any{"count1": v.Count1, "count2": v.Count2, "glyph": v.Glyph}
	case SubtractionEmoji:
		payload = map[string]any{"count1": v.Count1, "count2": v.Count2, "glyph": v.Glyph}
	case NumberLine:
		payload = v.Value
	case Choice:
		payload = v.Options
	case Trace:
		payload = v.Shape
	case Text:
		payload = v.Body
	case None, nil:
		payload = ""
	default:
		return nil, fmt.Errorf("unsupported visual %T", b.Visual)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	color := b.Color
	if color == "" {
		color = ColorDefault
	}
	return json.Marshal(wireBoard{Visual: raw, VisualType: string(b.Kind()), VisualColor: color})
}

// UnmarshalJSON decodes the wire shape leniently. See Decode.
func (b *Board) UnmarshalJSON(data []byte) error {
	var w wireBoard
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := decodeWire(w)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

// Decode parses a wire board. Payloads are accepted in the loose forms the
// model tends to emit: numbers as strings, a bare count for emoji boards,
// and "emoji" as an alias of "glyph". An empty payload decodes as None and
// an unknown type decodes as Text.
func Decode(data []byte) (Board, error) {
	var b Board
	if err := b.UnmarshalJSON(data); err != nil {
		return Board{}, fmt.Errorf("decode study board: %w", err)
	}
	return b, nil
}

func decodeWire(w wireBoard) (Board, error) {
	color := strings.ToLower(strings.TrimSpace(w.VisualColor))
	if color == "" {
		color = ColorDefault
	}
	kind := Kind(strings.ToLower(strings.TrimSpace(w.VisualType)))
	if kind == "" || kind == KindNone || emptyPayload(w.Visual) {
		return Board{Visual: None{}, Color: color}, nil
	}

	v, err := decodeVisual(kind, w.Visual)
	if err != nil {
		return Board{}, fmt.Errorf("visual %q: %w", kind, err)
	}
	return Board{Visual: v, Color: color}, nil
}

func decodeVisual(kind Kind, raw json.RawMessage) (Visual, error) {
	switch kind {
	case KindLetter:
		return Letter{Char: scalarString(raw)}, nil
	case KindWord:
		return Word{Text: scalarString(raw)}, nil
	case KindAddition:
		return Addition{Expression: scalarString(raw)}, nil
	case KindTrace:
		return Trace{Shape: scalarString(raw)}, nil
	case KindText:
		return Text{Body: scalarString(raw)}, nil
	case KindCircles:
		n, err := scalarInt(raw)
		if err != nil {
			return nil, err
		}
		return Circles{Count: n}, nil
	case KindNumberLine:
		n, err := scalarInt(raw)
		if err != nil {
			return nil, err
		}
		return NumberLine{Value: n}, nil
	case KindEmoji:
		if n, err := scalarInt(raw); err == nil {
			return Emoji{Count: n, Glyph: defaultEmojiGlyph}, nil
		}
		g, err := decodeGroup(raw)
		if err != nil {
			return nil, err
		}
		return Emoji{Count: numberOr(g.Count, 0), Glyph: g.glyph(defaultEmojiGlyph)}, nil
	case KindAdditionEmoji:
		g, err := decodeGroup(raw)
		if err != nil {
			return nil, err
		}
		return AdditionEmoji{Count1: numberOr(g.Count1, 0), Count2: numberOr(g.Count2, 0), Glyph: g.glyph(defaultSumGlyph)}, nil
	case KindSubtractionEmoji:
		g, err := decodeGroup(raw)
		if err != nil {
			return nil, err
		}
		return SubtractionEmoji{Count1: numberOr(g.Count1, 0), Count2: numberOr(g.Count2, 0), Glyph: g.glyph(defaultSumGlyph)}, nil
	case KindChoice:
		var items []any
		if err := json.Unmarshal(raw, &items); err != nil {
			return Choice{Options: []string{scalarString(raw)}}, nil
		}
		opts := make([]string, 0, len(items))
		for _, it := range items {
			if it == nil {
				continue
			}
			opts = append(opts, fmt.Sprint(it))
		}
		return Choice{Options: opts}, nil
	default:
		return Text{Body: scalarString(raw)}, nil
	}
}

func (g wireGroup) glyph(def string) string {
	if g.Glyph != "" {
		return g.Glyph
	}
	if g.Emoji != "" {
		return g.Emoji
	}
	return def
}

func decodeGroup(raw json.RawMessage) (wireGroup, error) {
	var g wireGroup
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&g); err != nil {
		return wireGroup{}, err
	}
	return g, nil
}

func numberOr(n *json.Number, def int) int {
	if n == nil {
		return def
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(math.Round(f))
	}
	return def
}

func emptyPayload(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == `""` || s == "0" || s == "false"
}

// scalarString renders any JSON scalar as text. Composite values are
// returned in their JSON form.
func scalarString(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return string(raw)
	}
}

func scalarInt(raw json.RawMessage) (int, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case float64:
		return int(math.Round(t)), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}
}
