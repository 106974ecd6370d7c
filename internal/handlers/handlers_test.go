package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mockprep/internal/answers"
	"mockprep/internal/feedback"
	"mockprep/internal/interview"
	"mockprep/internal/llm"
	"mockprep/internal/media"
	"mockprep/internal/middleware"
	"mockprep/internal/models"
	"mockprep/internal/prompts"
	"mockprep/internal/quota"
	"mockprep/internal/report"
	sqlstore "mockprep/internal/repositories/sql"
	"mockprep/internal/testhelpers"
)

const questionsJSON = `[{"question":"Tell me about an outage you handled","answer":"Timeline and follow-ups"},{"question":"Why Go?","answer":"Simplicity"}]`

type mockProvider struct {
	mu      sync.Mutex
	content string
	err     error
}

func (m *mockProvider) GenerateContent(context.Context, string, string) (*llm.GenerationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerationResponse{Content: m.content}, nil
}

func (m *mockProvider) GetProviderName() string { return "mock" }

func (m *mockProvider) reply(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content, m.err = content, nil
}

type mockBlobs struct {
	mu   sync.Mutex
	puts int
}

func (m *mockBlobs) Put(_ context.Context, _ string, body io.Reader, _ string) error {
	_, _ = io.Copy(io.Discard, body)
	m.mu.Lock()
	m.puts++
	m.mu.Unlock()
	return nil
}

func (m *mockBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *mockBlobs) Delete(context.Context, string) error { return nil }

func (m *mockBlobs) URL(path string) string { return "https://blobs.test/" + path }

type fixture struct {
	db       *gorm.DB
	router   *chi.Mux
	provider *mockProvider
	blobs    *mockBlobs
	subs     *sqlstore.SubscriptionRepository
	webhook  *SubscriptionHandler
}

// withOwner stands in for bearer authentication; the owner comes from X-Test-Owner.
func withOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithOwner(r.Context(), r.Header.Get("X-Test-Owner"))))
	})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	logger := zap.NewNop()
	pm, err := prompts.NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager returned error: %v", err)
	}

	f := &fixture{
		db:       db,
		provider: &mockProvider{content: questionsJSON},
		blobs:    &mockBlobs{},
		subs:     &sqlstore.SubscriptionRepository{DB: db},
	}
	sessions := &sqlstore.SessionRepository{DB: db}
	answerRepo := &sqlstore.AnswerRepository{DB: db}
	pending := interview.NewPendingStore(time.Hour)
	t.Cleanup(pending.Close)

	agg := report.NewAggregator(sessions, answerRepo, nil, logger)
	gate := quota.NewGate(f.subs, models.DefaultFreeSessionLimit, logger)
	service := interview.NewService(sessions, gate, feedback.NewQuestionGenerator(f.provider, pm, logger), agg, logger)
	pipeline := interview.NewPipeline(sessions, feedback.NewRequester(f.provider, pm, logger),
		media.NewUploader(f.blobs, logger), answers.NewPersister(answerRepo, logger), agg, pending, logger)

	interviews := NewInterviewHandler(service, agg, logger)
	answerHandler := NewAnswerHandler(pipeline, logger)
	captureHandler := NewCaptureHandler(service, pipeline, []string{"*"}, logger)
	f.webhook = NewSubscriptionHandler(gate, f.subs, "whsec_test", logger)

	r := chi.NewRouter()
	r.Post("/api/v1/webhooks/payment", f.webhook.WebhookHandler)
	r.Group(func(r chi.Router) {
		r.Use(withOwner)
		r.Get("/api/v1/subscription", f.webhook.GetHandler)
		r.With(middleware.ValidateRequest[*models.CreateInterviewRequest]()).Post("/api/v1/interviews", interviews.CreateHandler)
		r.Get("/api/v1/interviews", interviews.ListHandler)
		r.Get("/api/v1/interviews/{id}", interviews.GetHandler)
		r.Delete("/api/v1/interviews/{id}", interviews.DeleteHandler)
		r.Get("/api/v1/interviews/{id}/report", interviews.ReportHandler)
		r.Post("/api/v1/interviews/{id}/answers", answerHandler.SubmitHandler)
		r.Post("/api/v1/interviews/{id}/answers/{index}/retry", answerHandler.RetryHandler)
		r.Get("/api/v1/interviews/{id}/questions/{index}/capture", captureHandler.CaptureAnswerHandler)
	})
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path, owner string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if owner != "" {
		req.Header.Set("X-Test-Owner", owner)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createInterview(t *testing.T, owner string) models.CreateInterviewResponse {
	t.Helper()
	f.provider.reply(questionsJSON)
	rec := f.do(t, http.MethodPost, "/api/v1/interviews", owner,
		bytes.NewBufferString(`{"jobPosition":"SRE","jobDescription":"On-call, Go","experienceYears":"3"}`), "application/json")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.CreateInterviewResponse
	decode(t, rec, &resp)
	return resp
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func answerForm(t *testing.T, index, transcript string, clip []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("questionIndex", index)
	_ = mw.WriteField("transcript", transcript)
	if clip != nil {
		part, err := mw.CreateFormFile("clip", "answer.webm")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(clip)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}
