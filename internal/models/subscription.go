package models

import "time"

// DefaultFreeSessionLimit is the number of sessions a non-subscribed identity may create.
const DefaultFreeSessionLimit = 5

type SubscriptionTier string

const (
	TierNone    SubscriptionTier = "none"
	TierMonthly SubscriptionTier = "monthly"
	TierYearly  SubscriptionTier = "yearly"
)

// Valid reports whether t is one of the known tiers.
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierNone, TierMonthly, TierYearly:
		return true
	}
	return false
}

// SubscriptionState is the per-identity quota and plan record.
// SessionCount only counts free-tier sessions.
type SubscriptionState struct {
	OwnerIdentity    string           `json:"ownerIdentity" bson:"email" gorm:"primaryKey;column:owner_identity"`
	IsSubscribed     bool             `json:"isSubscribed" bson:"isSubscribed" gorm:"not null;default:false"`
	SubscriptionTier SubscriptionTier `json:"subscriptionTier" bson:"subscriptionType" gorm:"not null"`
	CustomerID       string           `json:"-" bson:"stripeCustomerId,omitempty"`
	SessionCount     int              `json:"sessionCount" bson:"projectCount" gorm:"not null;default:0"`
	CreatedAt        time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// NewSubscriptionState returns the lazily created default record for an identity.
func NewSubscriptionState(owner string, now time.Time) *SubscriptionState {
	return &SubscriptionState{
		OwnerIdentity:    owner,
		SubscriptionTier: TierNone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
