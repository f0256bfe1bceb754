package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Defaults used by the Anthropic forwarder.
const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 800
)

// ErrNoAPIKey is returned when the forwarder has no provider credentials.
var ErrNoAPIKey = errors.New("provider API key is not configured")

// UpstreamError is a non-2xx reply from the model provider.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %v", e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Forwarder sends a chat request to the model provider and returns the
// provider's JSON reply untouched.
type Forwarder interface {
	Forward(ctx context.Context, req ChatRequest) (json.RawMessage, error)
}

// ForwarderConfig configures an AnthropicForwarder.
type ForwarderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// AnthropicForwarder relays requests to the Anthropic Messages API with a
// fixed model and token cap. It never retries.
type AnthropicForwarder struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropicForwarder(cfg ForwarderConfig) *AnthropicForwarder {
	f := &AnthropicForwarder{model: cfg.Model, maxTokens: cfg.MaxTokens}
	if f.model == "" {
		f.model = DefaultModel
	}
	if f.maxTokens <= 0 {
		f.maxTokens = DefaultMaxTokens
	}
	if cfg.APIKey == "" {
		return f
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	f.client = &client
	return f
}

func (f *AnthropicForwarder) Forward(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	if f.client == nil {
		return nil, ErrNoAPIKey
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(f.model),
		MaxTokens: int64(f.maxTokens),
		Messages:  buildMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := f.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{Status: apiErr.StatusCode, Err: err}
		}
		return nil, err
	}
	return json.RawMessage(msg.RawJSON()), nil
}

func buildMessages(msgs []ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, len(msgs))
	for i, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if m.Role == "assistant" {
			role = anthropic.MessageParamRoleAssistant
		}
		out[i] = anthropic.MessageParam{Role: role, Content: buildBlocks(m.Content)}
	}
	return out
}

func buildBlocks(c Content) []anthropic.ContentBlockParamUnion {
	if c.Blocks == nil {
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(c.Text)}
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		switch b.Type {
		case "image":
			if b.Source != nil {
				blocks = append(blocks, anthropic.NewImageBlockBase64(b.Source.MediaType, b.Source.Data))
			}
		default:
			blocks = append(blocks, anthropic.NewTextBlock(b.Text))
		}
	}
	return blocks
}
