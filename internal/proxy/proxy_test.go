package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForwarder struct {
	reply json.RawMessage
	err   error
	got   *ChatRequest
}

func (f *fakeForwarder) Forward(_ context.Context, req ChatRequest) (json.RawMessage, error) {
	f.got = &req
	return f.reply, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func post(t *testing.T, fwd Forwarder, body string) (*http.Response, string) {
	t.Helper()
	app := New(Config{}, fwd, quietLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

const imageBody = `{
  "system": "You are Sunny.",
  "messages": [
    {"role": "user", "content": [
      {"type": "image", "source": {"type": "base64", "media_type": "image/png", "data": "aGVsbG8="}},
      {"type": "text", "text": "Help me with this homework?"}
    ]},
    {"role": "assistant", "content": "Sure! What do you see?"}
  ]
}`

func TestChat_RelaysProviderReply(t *testing.T) {
	reply := json.RawMessage(`{"id":"msg_1","content":[{"type":"text","text":"hi"}]}`)
	fwd := &fakeForwarder{reply: reply}

	resp, body := post(t, fwd, imageBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, string(reply), body)

	require.NotNil(t, fwd.got)
	assert.Equal(t, "You are Sunny.", fwd.got.System)
	require.Len(t, fwd.got.Messages, 2)
	blocks := fwd.got.Messages[0].Content.Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, "image/png", blocks[0].Source.MediaType)
	assert.Equal(t, "Sure! What do you see?", fwd.got.Messages[1].Content.Text)
}

func TestChat_MethodNotAllowed(t *testing.T) {
	app := New(Config{}, &fakeForwarder{}, quietLogger())
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp, err := app.Test(httptest.NewRequest(method, "/api/chat", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, method)
		data, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, string(data))
	}
}

func TestChat_UpstreamFailureKeepsStatus(t *testing.T) {
	fwd := &fakeForwarder{err: &UpstreamError{Status: http.StatusTooManyRequests, Err: errors.New("rate limited")}}
	resp, body := post(t, fwd, `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"error":"API call failed"}`, body)
}

func TestChat_LocalFailureIs500(t *testing.T) {
	for _, err := range []error{ErrNoAPIKey, errors.New("dial tcp: connection refused")} {
		resp, body := post(t, &fakeForwarder{err: err}, `{"messages":[{"role":"user","content":"hi"}]}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Internal server error"}`, body)
	}
}

func TestChat_InvalidBodies(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"no messages", `{"messages":[]}`, "messages"},
		{"bad role", `{"messages":[{"role":"system","content":"hi"}]}`, "messages[0].role"},
		{"unknown block", `{"messages":[{"role":"user","content":[{"type":"video"}]}]}`, "type"},
		{"image without source", `{"messages":[{"role":"user","content":[{"type":"image"}]}]}`, "source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd := &fakeForwarder{}
			resp, body := post(t, fwd, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, tt.field)
			assert.Nil(t, fwd.got, "invalid requests are not forwarded")
		})
	}

	resp, body := post(t, &fakeForwarder{}, `{"messages":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "not valid")

	resp, _ = post(t, &fakeForwarder{}, `{"messages":[{"role":"user","content":42}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	app := New(Config{}, &fakeForwarder{}, quietLogger())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(data))
}

func TestAnthropicForwarder(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",`+
			`"content":[{"type":"text","text":"Let's count!"}],"stop_reason":"end_turn",`+
			`"usage":{"input_tokens":10,"output_tokens":3}}`)
	}))
	t.Cleanup(server.Close)

	fwd := NewAnthropicForwarder(ForwarderConfig{APIKey: "test", BaseURL: server.URL})
	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(imageBody), &req))

	raw, err := fwd.Forward(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Let's count!")

	assert.Equal(t, DefaultModel, got["model"])
	assert.EqualValues(t, DefaultMaxTokens, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)["content"].([]any)
	assert.Equal(t, "image", first[0].(map[string]any)["type"])
	assert.Equal(t, "text", first[1].(map[string]any)["type"])
}

func TestAnthropicForwarder_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	t.Cleanup(server.Close)

	fwd := NewAnthropicForwarder(ForwarderConfig{APIKey: "test", BaseURL: server.URL})
	_, err := fwd.Forward(context.Background(), ChatRequest{Messages: []ChatMessage{{Role: "user", Content: Content{Text: "hi"}}}})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
}

func TestAnthropicForwarder_NoKey(t *testing.T) {
	fwd := NewAnthropicForwarder(ForwarderConfig{})
	_, err := fwd.Forward(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
