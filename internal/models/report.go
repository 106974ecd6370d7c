package models

const (
	RatingAvailable   = "available"
	RatingUnavailable = "unavailable"
)

// Report is the aggregated view of one session's answers.
type Report struct {
	SessionID     string         `json:"sessionId"`
	Answers       []AnswerRecord `json:"answers"`
	OverallRating *float64       `json:"overallRating"`
	RatingStatus  string         `json:"ratingStatus"`
}
