package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mockprep/internal/llm"
	"mockprep/internal/models"
	"mockprep/internal/prompts"
	"mockprep/internal/utils"
)

// Kind tags the outcome of a feedback request.
type Kind int

const (
	Success Kind = iota
	Transient
	InvalidResponse
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Transient:
		return "transient"
	case InvalidResponse:
		return "invalid_response"
	}
	return "unknown"
}

// Feedback is the normalized coach output for one answer.
type Feedback struct {
	Text   string `json:"feedback"`
	Rating int    `json:"rating"`
}

// Result is a tagged outcome; callers branch on Kind. Err is set unless Kind is Success.
type Result struct {
	Kind     Kind
	Feedback Feedback
	Err      error
}

// Requester submits transcripts to the AI collaborator. It never retries.
type Requester struct {
	provider llm.Provider
	prompts  prompts.PromptProvider
	logger   *zap.Logger
}

func NewRequester(provider llm.Provider, promptManager prompts.PromptProvider, logger *zap.Logger) *Requester {
	return &Requester{provider: provider, prompts: promptManager, logger: logger}
}

// RequestFeedback asks the provider to rate transcript as an answer to question.
func (r *Requester) RequestFeedback(ctx context.Context, question, transcript string) Result {
	prompt, err := r.prompts.BuildPrompt(prompts.ModeFeedback, prompts.VariantDefault, map[string]string{
		"Question":   question,
		"Transcript": transcript,
	})
	if err != nil {
		// a missing template is a deployment fault, not a model fault
		return Result{Kind: Transient, Err: fmt.Errorf("%w: %w", models.ErrTransient, err)}
	}

	requestID := uuid.New().String()
	resp, err := r.provider.GenerateContent(ctx, prompt, requestID)
	if err != nil {
		r.logger.Warn("feedback generation failed", zap.String("request_id", requestID), zap.Error(err))
		return Result{Kind: Transient, Err: fmt.Errorf("%w: %w", models.ErrTransient, err)}
	}

	fb, err := ParseFeedback(resp.Content)
	if err != nil {
		r.logger.Warn("feedback response rejected", zap.String("request_id", requestID), zap.Error(err))
		return Result{Kind: InvalidResponse, Err: err}
	}

	r.logger.Info("feedback generated",
		zap.String("request_id", requestID),
		zap.String("provider", r.provider.GetProviderName()),
		zap.Int("rating", fb.Rating),
		zap.Int64("latency_ms", resp.Latency))
	return Result{Kind: Success, Feedback: fb}
}

// ParseFeedback decodes a model response strictly. The rating may be a JSON number or a
// numeric string. It must lie within 1..5 as given; in-range fractions are then rounded.
func ParseFeedback(raw string) (Feedback, error) {
	var payload struct {
		Feedback *string         `json:"feedback"`
		Rating   json.RawMessage `json:"rating"`
	}
	dec := json.NewDecoder(strings.NewReader(utils.StripFences(raw)))
	if err := dec.Decode(&payload); err != nil {
		return Feedback{}, invalid("response is not a JSON object: %v", err)
	}
	if dec.More() {
		return Feedback{}, invalid("trailing data after JSON object")
	}

	if payload.Feedback == nil || strings.TrimSpace(*payload.Feedback) == "" {
		return Feedback{}, invalid("feedback is empty")
	}
	if len(payload.Rating) == 0 || string(payload.Rating) == "null" {
		return Feedback{}, invalid("rating is missing")
	}

	value, err := parseRating(payload.Rating)
	if err != nil {
		return Feedback{}, err
	}
	if value < models.MinRating || value > models.MaxRating {
		return Feedback{}, invalid("rating %v outside %d-%d", value, models.MinRating, models.MaxRating)
	}
	rating := int(math.Round(value))

	return Feedback{Text: strings.TrimSpace(*payload.Feedback), Rating: rating}, nil
}

func parseRating(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, invalid("rating is not numeric")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, invalid("rating %q is not numeric", s)
	}
	return n, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidAIResponse, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether the caller may try the same transcript again.
func (r Result) IsRetryable() bool {
	return r.Kind == Transient || r.Kind == InvalidResponse
}

// Failure returns the failure, or nil on success.
func (r Result) Failure() error {
	if r.Kind == Success {
		return nil
	}
	if r.Err == nil {
		return errors.New("feedback: " + r.Kind.String())
	}
	return r.Err
}
