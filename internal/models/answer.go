package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// AnswerRecord is the persisted result of one question.
type AnswerRecord struct {
	ID              string    `json:"id" bson:"_id,omitempty" gorm:"primaryKey;column:id"`
	SessionID       string    `json:"sessionId" bson:"mockIdRef" gorm:"not null;uniqueIndex:idx_answer_session_question;index:idx_answer_session_created,priority:1" validate:"required"`
	QuestionIndex   int       `json:"questionIndex" bson:"questionIndex" gorm:"not null;uniqueIndex:idx_answer_session_question" validate:"gte=0"`
	QuestionText    string    `json:"questionText" bson:"question" gorm:"type:text;not null" validate:"required"`
	ReferenceAnswer string    `json:"referenceAnswer" bson:"correctAns" gorm:"type:text"`
	UserTranscript  string    `json:"userTranscript" bson:"userAns" gorm:"type:text;not null" validate:"required,mintokens=2"`
	FeedbackText    string    `json:"feedbackText" bson:"feedback" gorm:"type:text;not null" validate:"required"`
	Rating          int       `json:"rating" bson:"rating" gorm:"not null" validate:"required,min=1,max=5"`
	OwnerIdentity   string    `json:"ownerIdentity" bson:"userEmail" gorm:"not null;index" validate:"required"`
	MediaRef        *string   `json:"mediaRef" bson:"videoUrl"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt" gorm:"not null;index:idx_answer_session_created,priority:2"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}
