package proxy

import (
	"encoding/json"
	"errors"
)

// ChatRequest is the body accepted by POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	System   string        `json:"system"`
}

type ChatMessage struct {
	Role    string  `json:"role" validate:"required,oneof=user assistant"`
	Content Content `json:"content"`
}

// Content is either plain text or a list of content blocks.
type Content struct {
	Text   string
	Blocks []ContentBlock `validate:"omitempty,dive"`
}

// ContentBlock is a text block or a base64 image block.
type ContentBlock struct {
	Type   string       `json:"type" validate:"required,oneof=text image"`
	Text   string       `json:"text,omitempty" validate:"required_if=Type text"`
	Source *ImageSource `json:"source,omitempty" validate:"required_if=Type image"`
}

type ImageSource struct {
	Type      string `json:"type" validate:"required,eq=base64"`
	MediaType string `json:"media_type" validate:"required"`
	Data      string `json:"data" validate:"required,base64"`
}

// Empty reports whether the content carries nothing to send.
func (c Content) Empty() bool {
	return c.Text == "" && len(c.Blocks) == 0
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Blocks != nil {
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = Content{Text: text}
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return errors.New("content must be a string or a list of content blocks")
	}
	*c = Content{Blocks: blocks}
	return nil
}
