package models

import "strings"

type CreateInterviewRequest struct {
	ID              string `json:"id" validate:"omitempty,max=64"`
	JobPosition     string `json:"jobPosition" validate:"required,max=200"`
	JobDescription  string `json:"jobDescription" validate:"required,max=4000"`
	ExperienceYears string `json:"experienceYears" validate:"required,max=32"`
}

// implements the Validator interface
func (r *CreateInterviewRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.JobPosition = strings.TrimSpace(r.JobPosition)
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	r.ExperienceYears = strings.TrimSpace(r.ExperienceYears)
	return ValidateStruct(r)
}

// PaymentSession is the subset of a completed checkout the service reads.
type PaymentSession struct {
	Customer             string
	CustomerEmail        string
	CustomerDetailsEmail string
	AmountTotal          int64
	Metadata             map[string]string
}

// Email returns the purchaser email from whichever field carries it.
func (s PaymentSession) Email() string {
	if s.CustomerEmail != "" {
		return s.CustomerEmail
	}
	return s.CustomerDetailsEmail
}

// monthly plan price in cents
const monthlyAmount = 999

// Tier derives the purchased plan from metadata, falling back to the amount charged.
func (s PaymentSession) Tier() SubscriptionTier {
	if t := SubscriptionTier(strings.ToLower(s.Metadata["subscriptionType"])); t == TierMonthly || t == TierYearly {
		return t
	}
	if s.AmountTotal == monthlyAmount {
		return TierMonthly
	}
	return TierYearly
}
