package mongo

import (
	"context"
	"fmt"

	"mockprep/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewStore builds the three repositories and makes sure their indexes exist.
func NewStore(ctx context.Context, c *Client) (*repositories.Store, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	sessions := &SessionRepo{col: db.Collection(sessionsCollection)}
	answers := &AnswerRepo{col: db.Collection(answersCollection)}
	subs := &SubscriptionRepo{col: db.Collection(subscriptionsCollection)}

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		sessions.col: {
			{Keys: bson.D{{Key: "mockId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		answers.col: {
			{Keys: bson.D{{Key: "mockIdRef", Value: 1}, {Key: "questionIndex", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "mockIdRef", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		subs.col: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for col, idx := range indexes {
		if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
			return nil, fmt.Errorf("create indexes on %s: %w", col.Name(), err)
		}
	}

	return &repositories.Store{
		Sessions:      sessions,
		Answers:       answers,
		Subscriptions: subs,
		Ping:          c.Ping,
		Close:         c.Disconnect,
	}, nil
}
