package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/sunny/internal/llm"
	"github.com/abhisek/sunny/internal/store"
)

// RecordingForwarder records every relayed call in the LLM event log with
// purpose "proxy".
type RecordingForwarder struct {
	inner Forwarder
	model string
	repo  store.EventRepo
	log   logrus.FieldLogger
}

// WithEventLog wraps fwd so each call is recorded in repo. A failed write
// is logged and never fails the request.
func WithEventLog(fwd Forwarder, model string, repo store.EventRepo, log logrus.FieldLogger) *RecordingForwarder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RecordingForwarder{inner: fwd, model: model, repo: repo, log: log}
}

func (r *RecordingForwarder) Forward(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	start := time.Now()
	raw, err := r.inner.Forward(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    "anthropic",
		Model:       r.model,
		Purpose:     llm.PurposeProxy,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: summarize(req),
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	} else {
		data.ResponseBody = string(raw)
		var meta messageMeta
		if json.Unmarshal(raw, &meta) == nil {
			if meta.Model != "" {
				data.Model = meta.Model
			}
			data.InputTokens = meta.Usage.InputTokens
			data.OutputTokens = meta.Usage.OutputTokens
		}
	}

	if logErr := r.repo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
		r.log.WithError(logErr).Warn("failed to record proxy request event")
	}
	return raw, err
}

// messageMeta is the part of an Anthropic message the event log keeps.
type messageMeta struct {
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// summarize renders the request the way llm events do. Image payloads are
// summarized, not copied.
func summarize(req ChatRequest) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		if m.Content.Blocks == nil {
			b.WriteString(m.Content.Text)
		}
		for _, blk := range m.Content.Blocks {
			switch {
			case blk.Type == "image" && blk.Source != nil:
				fmt.Fprintf(&b, "<image %s, %d base64 bytes>\n", blk.Source.MediaType, len(blk.Source.Data))
			default:
				b.WriteString(blk.Text)
			}
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
