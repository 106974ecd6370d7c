package models

// uniform error payload
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// a single field error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type InterviewsResponse struct {
	Total int                `json:"total"`
	Items []InterviewSession `json:"items"`
}

type CreateInterviewResponse struct {
	ID          string         `json:"id"`
	QuestionSet []QuestionPair `json:"questionSet"`
}

// AnswerResult is returned after an answer has been processed.
type AnswerResult struct {
	Answer      AnswerRecord `json:"answer"`
	MediaStored bool         `json:"mediaStored"`
	Replaced    bool         `json:"replaced"`
}
