package models

import "time"

// QuestionPair is one generated interview question with its reference answer.
type QuestionPair struct {
	Question string `json:"question" bson:"question"`
	Answer   string `json:"answer" bson:"answer"`
}

// InterviewSession is one interview attempt. QuestionSet is fixed at creation.
type InterviewSession struct {
	ID              string         `json:"id" bson:"mockId" gorm:"primaryKey;column:id"`
	JobPosition     string         `json:"jobPosition" bson:"jobPosition" gorm:"not null"`
	JobDescription  string         `json:"jobDescription" bson:"jobDesc" gorm:"type:text;not null"`
	ExperienceYears string         `json:"experienceYears" bson:"jobExperience" gorm:"not null"`
	QuestionSet     []QuestionPair `json:"questionSet" bson:"questionSet" gorm:"serializer:json;type:text"`
	OwnerIdentity   string         `json:"ownerIdentity" bson:"createdBy" gorm:"not null;index"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt" gorm:"not null;index"`
}

// Question returns the question at index, or false when the index is out of range.
func (s *InterviewSession) Question(index int) (QuestionPair, bool) {
	if index < 0 || index >= len(s.QuestionSet) {
		return QuestionPair{}, false
	}
	return s.QuestionSet[index], true
}
