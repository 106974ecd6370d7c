package models

import (
	"errors"
	"testing"
)

func validAnswer() *AnswerRecord {
	return &AnswerRecord{
		SessionID:      "s-1",
		QuestionIndex:  0,
		QuestionText:   "Tell me about yourself",
		UserTranscript: "I build backend services",
		FeedbackText:   "Clear and concise.",
		Rating:         4,
		OwnerIdentity:  "a@x.com",
	}
}

func expectField(t *testing.T, err error, field string) {
	t.Helper()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != field {
		t.Fatalf("expected field %s, got %s (%s)", field, ve.Field, ve.Reason)
	}
}

func TestValidateAnswerRecord(t *testing.T) {
	if err := ValidateStruct(validAnswer()); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(a *AnswerRecord)
		field  string
	}{
		{"missing session", func(a *AnswerRecord) { a.SessionID = "" }, "sessionId"},
		{"missing question", func(a *AnswerRecord) { a.QuestionText = "" }, "questionText"},
		{"empty transcript", func(a *AnswerRecord) { a.UserTranscript = "" }, "userTranscript"},
		{"one word transcript", func(a *AnswerRecord) { a.UserTranscript = "yes" }, "userTranscript"},
		{"missing feedback", func(a *AnswerRecord) { a.FeedbackText = "" }, "feedbackText"},
		{"rating zero", func(a *AnswerRecord) { a.Rating = 0 }, "rating"},
		{"rating too high", func(a *AnswerRecord) { a.Rating = 6 }, "rating"},
		{"rating negative", func(a *AnswerRecord) { a.Rating = -2 }, "rating"},
		{"missing owner", func(a *AnswerRecord) { a.OwnerIdentity = "" }, "ownerIdentity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAnswer()
			tc.mutate(a)
			expectField(t, ValidateStruct(a), tc.field)
		})
	}
}

func TestCreateInterviewRequestValidate(t *testing.T) {
	req := &CreateInterviewRequest{JobPosition: "  Backend Engineer ", JobDescription: "Go, Postgres", ExperienceYears: "3"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if req.JobPosition != "Backend Engineer" {
		t.Fatalf("expected trimmed position, got %q", req.JobPosition)
	}

	missing := &CreateInterviewRequest{JobPosition: "x", ExperienceYears: "1"}
	expectField(t, missing.Validate(), "jobDescription")
}

func TestCountTokens(t *testing.T) {
	cases := map[string]int{
		"":                 0,
		"yes":              1,
		"  yes   indeed ":  2,
		"one\ttwo\nthree":  3,
	}
	for in, want := range cases {
		if got := CountTokens(in); got != want {
			t.Fatalf("CountTokens(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestPaymentSessionTier(t *testing.T) {
	s := PaymentSession{Metadata: map[string]string{"subscriptionType": "Yearly"}}
	if s.Tier() != TierYearly {
		t.Fatalf("expected metadata tier, got %s", s.Tier())
	}
	if (PaymentSession{AmountTotal: 999}).Tier() != TierMonthly {
		t.Fatal("expected monthly for 999")
	}
	if (PaymentSession{AmountTotal: 9999}).Tier() != TierYearly {
		t.Fatal("expected yearly fallback")
	}
}

func TestPaymentSessionEmail(t *testing.T) {
	s := PaymentSession{CustomerDetailsEmail: "b@x.com"}
	if s.Email() != "b@x.com" {
		t.Fatalf("expected details email, got %q", s.Email())
	}
	s.CustomerEmail = "a@x.com"
	if s.Email() != "a@x.com" {
		t.Fatalf("expected customer_email to win, got %q", s.Email())
	}
}

func TestSessionQuestion(t *testing.T) {
	s := &InterviewSession{QuestionSet: []QuestionPair{{Question: "q0"}, {Question: "q1"}}}
	if q, ok := s.Question(1); !ok || q.Question != "q1" {
		t.Fatalf("unexpected question lookup: %+v %v", q, ok)
	}
	if _, ok := s.Question(2); ok {
		t.Fatal("expected out of range lookup to fail")
	}
}
