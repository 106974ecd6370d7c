package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"mockprep/internal/llm"
	"mockprep/internal/models"
	"mockprep/internal/prompts"
)

type stubProvider struct {
	content string
	err     error
	calls   int
	prompts []string
}

func (s *stubProvider) GenerateContent(_ context.Context, prompt, requestID string) (*llm.GenerationResponse, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.GenerationResponse{Content: s.content, RequestID: requestID}, nil
}

func (s *stubProvider) GetProviderName() string { return "stub" }

func newRequester(t *testing.T, p llm.Provider) *Requester {
	t.Helper()
	pm, err := prompts.NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager returned error: %v", err)
	}
	return NewRequester(p, pm, zap.NewNop())
}

func TestRequestFeedbackSuccess(t *testing.T) {
	p := &stubProvider{content: "```json\n{\"feedback\": \"Solid answer.\", \"rating\": 4}\n```"}
	res := newRequester(t, p).RequestFeedback(context.Background(), "What is Go?", "a compiled language")

	if res.Kind != Success || res.Failure() != nil {
		t.Fatalf("expected success, got %v (%v)", res.Kind, res.Err)
	}
	if res.Feedback.Text != "Solid answer." || res.Feedback.Rating != 4 {
		t.Fatalf("unexpected feedback %+v", res.Feedback)
	}
	if p.calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", p.calls)
	}
	if !strings.Contains(p.prompts[0], "What is Go?") || !strings.Contains(p.prompts[0], "a compiled language") {
		t.Fatalf("prompt does not embed question and transcript:\n%s", p.prompts[0])
	}
}

func TestRequestFeedbackNotJSON(t *testing.T) {
	p := &stubProvider{content: "not json"}
	res := newRequester(t, p).RequestFeedback(context.Background(), "q", "two words")

	if res.Kind != InvalidResponse {
		t.Fatalf("expected InvalidResponse, got %v", res.Kind)
	}
	if !errors.Is(res.Err, models.ErrInvalidAIResponse) {
		t.Fatalf("expected ErrInvalidAIResponse, got %v", res.Err)
	}
	if !res.IsRetryable() {
		t.Fatal("expected invalid response to be retryable")
	}
	if p.calls != 1 {
		t.Fatalf("requester must not retry internally, got %d calls", p.calls)
	}
}

func TestRequestFeedbackProviderFailure(t *testing.T) {
	p := &stubProvider{err: &llm.ProviderError{Provider: "stub", Code: llm.ErrCodeServiceDown, Message: "down"}}
	res := newRequester(t, p).RequestFeedback(context.Background(), "q", "two words")

	if res.Kind != Transient || !errors.Is(res.Err, models.ErrTransient) {
		t.Fatalf("expected transient failure, got %v (%v)", res.Kind, res.Err)
	}
	if p.calls != 1 {
		t.Fatalf("requester must not retry internally, got %d calls", p.calls)
	}
}

func TestParseFeedback(t *testing.T) {
	valid := map[string]Feedback{
		`{"feedback":"ok","rating":5}`:          {Text: "ok", Rating: 5},
		`{"feedback":" spaced ","rating":"3"}`:  {Text: "spaced", Rating: 3},
		`{"feedback":"round","rating":4.4}`:     {Text: "round", Rating: 4},
		"```json\n{\"feedback\":\"f\",\"rating\":1}\n```": {Text: "f", Rating: 1},
	}
	for in, want := range valid {
		got, err := ParseFeedback(in)
		if err != nil {
			t.Fatalf("ParseFeedback(%s) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFeedback(%s) = %+v, want %+v", in, got, want)
		}
	}

	invalidInputs := []string{
		"not json",
		`[]`,
		`{"feedback":"","rating":3}`,
		`{"rating":3}`,
		`{"feedback":"x"}`,
		`{"feedback":"x","rating":null}`,
		`{"feedback":"x","rating":"high"}`,
		`{"feedback":"x","rating":0}`,
		`{"feedback":"x","rating":6}`,
		`{"feedback":"x","rating":5.4}`,
		`{"feedback":"x","rating":"5.49"}`,
		`{"feedback":"x","rating":0.6}`,
		`{"feedback":"x","rating":true}`,
		`{"feedback":"x","rating":3} {"feedback":"y","rating":2}`,
	}
	for _, in := range invalidInputs {
		if _, err := ParseFeedback(in); !errors.Is(err, models.ErrInvalidAIResponse) {
			t.Fatalf("ParseFeedback(%s): expected ErrInvalidAIResponse, got %v", in, err)
		}
	}
}

func TestGenerateQuestions(t *testing.T) {
	pm, _ := prompts.NewPromptManager()
	p := &stubProvider{content: `[{"question":"Q1","answer":"A1"},{"question":" Q2 ","answer":"A2"}]`}
	gen := NewQuestionGenerator(p, pm, zap.NewNop())

	qs, err := gen.GenerateQuestions(context.Background(), "Backend Engineer", "Go services", "3")
	if err != nil {
		t.Fatalf("GenerateQuestions returned error: %v", err)
	}
	if len(qs) != 2 || qs[1].Question != "Q2" {
		t.Fatalf("unexpected questions %+v", qs)
	}
	if !strings.Contains(p.prompts[0], "Role: Backend Engineer") || !strings.Contains(p.prompts[0], "Generate 5 JSON objects") {
		t.Fatalf("unexpected prompt:\n%s", p.prompts[0])
	}
}

func TestGenerateQuestionsFailures(t *testing.T) {
	pm, _ := prompts.NewPromptManager()

	bad := NewQuestionGenerator(&stubProvider{content: `{"question":"x"}`}, pm, zap.NewNop())
	if _, err := bad.GenerateQuestions(context.Background(), "r", "d", "1"); !errors.Is(err, models.ErrInvalidAIResponse) {
		t.Fatalf("expected invalid response, got %v", err)
	}

	empty := NewQuestionGenerator(&stubProvider{content: `[]`}, pm, zap.NewNop())
	if _, err := empty.GenerateQuestions(context.Background(), "r", "d", "1"); !errors.Is(err, models.ErrInvalidAIResponse) {
		t.Fatalf("expected invalid response for empty list, got %v", err)
	}

	down := NewQuestionGenerator(&stubProvider{err: errors.New("boom")}, pm, zap.NewNop())
	if _, err := down.GenerateQuestions(context.Background(), "r", "d", "1"); !errors.Is(err, models.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
