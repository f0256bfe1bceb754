package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/sunny/internal/store"
)

var homeworkPhoto = Image{
	MediaType: "image/png",
	Data:      base64.StdEncoding.EncodeToString([]byte("not really a png")),
}

func TestBuildGeminiContents_InlineImage(t *testing.T) {
	contents, err := buildGeminiContents([]Message{
		{Role: RoleUser, Content: "Look", Images: []Image{homeworkPhoto}},
		{Role: RoleAssistant, Content: "I see it."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	first := contents[0]
	if len(first.Parts) != 2 || first.Parts[0].InlineData == nil {
		t.Fatalf("expected inline image then text, got %+v", first.Parts)
	}
	if string(first.Parts[0].InlineData.Data) != "not really a png" {
		t.Fatalf("image bytes not decoded: %q", first.Parts[0].InlineData.Data)
	}
	if contents[1].Role != "model" {
		t.Fatalf("assistant role should map to model, got %q", contents[1].Role)
	}

	_, err = buildGeminiContents([]Message{{Role: RoleUser, Images: []Image{{MediaType: "image/png", Data: "%%%"}}}})
	if err == nil {
		t.Fatal("expected error for bad base64")
	}
}

func TestImage_DataURL(t *testing.T) {
	img := Image{MediaType: "image/jpeg", Data: "AAAA"}
	if got := img.DataURL(); got != "data:image/jpeg;base64,AAAA" {
		t.Fatalf("unexpected data url: %q", got)
	}
}

func TestResponse_Text(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{`"quoted \"text\""`, `quoted "text"`},
		{`plain words`, `plain words`},
		{`{"coach_say":"hi"}`, `{"coach_say":"hi"}`},
		{``, ``},
	}
	for _, tt := range tests {
		r := &Response{Content: json.RawMessage(tt.content)}
		if got := r.Text(); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}

	var nilResp *Response
	if nilResp.Text() != "" {
		t.Fatal("nil response should have empty text")
	}
}

type recordingRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func (r *recordingRepo) QueryLLMEvents(context.Context, store.QueryOpts) ([]store.LLMRequestEvent, error) {
	return nil, nil
}

func (r *recordingRepo) GetLLMEvent(context.Context, int) (*store.LLMRequestEvent, error) {
	return nil, nil
}

func (r *recordingRepo) LLMUsageByPurpose(context.Context) ([]store.LLMUsage, error) {
	return nil, nil
}

func (r *recordingRepo) LLMUsageByModel(context.Context) ([]store.LLMUsage, error) {
	return nil, nil
}

func TestLoggingProvider_RecordsEvent(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"coach_say":"Nice!"}`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 30},
	})
	repo := &recordingRepo{}
	p := WithLogging(mock, "anthropic", repo, nil)

	ctx := WithPurpose(context.Background(), PurposeTurn)
	_, err := p.Generate(ctx, Request{
		System:   "be kind",
		Messages: []Message{{Role: RoleUser, Content: "hello", Images: []Image{homeworkPhoto}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Provider != "anthropic" || ev.Model != "mock" || ev.Purpose != PurposeTurn {
		t.Fatalf("unexpected event metadata: %+v", ev)
	}
	if !ev.Success || ev.InputTokens != 120 || ev.OutputTokens != 30 {
		t.Fatalf("unexpected event usage: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "<image image/png") {
		t.Fatalf("image should be summarized in request body: %q", ev.RequestBody)
	}
	if strings.Contains(ev.RequestBody, homeworkPhoto.Data) {
		t.Fatal("image payload should not be copied into the request body")
	}
	if ev.ResponseBody != `{"coach_say":"Nice!"}` {
		t.Fatalf("unexpected response body: %q", ev.ResponseBody)
	}
}

func TestLoggingProvider_FailuresAndRepoErrors(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	repo := &recordingRepo{err: errors.New("disk full")}
	p := WithLogging(mock, "openai", repo, nil)

	_, err := p.Generate(context.Background(), Request{})
	var unavailable *ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].Success || repo.events[0].ErrorMessage == "" {
		t.Fatalf("expected failed event, got %+v", repo.events)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"max tokens", &ErrMaxTokensExceeded{}, false},
		{"rate limit", &ErrRateLimit{Err: errors.New("429")}, true},
		{"unavailable", &ErrProviderUnavailable{Err: errors.New("503")}, true},
		{"unknown", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Fatalf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetry_ZeroAttemptsStillCalls(t *testing.T) {
	mock := NewMockProvider(TextResponse("hi"))
	p := WithRetry(mock, RetryConfig{})

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "hi" || mock.CallCount() != 1 {
		t.Fatalf("expected one call returning hi, got %q after %d calls", resp.Text(), mock.CallCount())
	}
}

func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestDiscoverConfig(t *testing.T) {
	clearKeys(t)
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("OPENAI_API_KEY", "sk-openai")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-openai" {
		t.Fatalf("expected openai config, got %+v", cfg)
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	cfg, ok = DiscoverConfig()
	if !ok || cfg.Provider != "anthropic" {
		t.Fatalf("anthropic should win over openai, got %q", cfg.Provider)
	}
	if !cfg.HasKey() {
		t.Fatal("discovered config should have a key")
	}
}

func TestConfig_HasKey(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HasKey() {
		t.Fatal("default config has no key")
	}
	cfg.Provider = "mock"
	if !cfg.HasKey() {
		t.Fatal("mock needs no key")
	}
	cfg.Provider = "nope"
	if cfg.HasKey() {
		t.Fatal("unknown provider has no key")
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	if !ok {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if cost < 0.749 || cost > 0.751 {
		t.Fatalf("unexpected cost %f", cost)
	}
	if _, ok := EstimateCost("mock", 10, 10); ok {
		t.Fatal("mock model has no pricing")
	}
}
