package mongo

import (
	"context"
	"errors"
	"time"

	"mockprep/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepo wraps the interview sessions collection.
type SessionRepo struct{ col *mongo.Collection }

func (r *SessionRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicate
		}
		return models.StoreError("create session", err)
	}
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	if err := r.col.FindOne(ctx, bson.M{"mockId": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, models.StoreError("get session", err)
	}
	return &s, nil
}

func (r *SessionRepo) ListByOwner(ctx context.Context, owner string) ([]models.InterviewSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"createdBy": owner}, opts)
	if err != nil {
		return nil, models.StoreError("list sessions", err)
	}
	defer cur.Close(ctx)

	out := []models.InterviewSession{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.StoreError("list sessions", err)
	}
	return out, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"mockId": id})
	if err != nil {
		return models.StoreError("delete session", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *SessionRepo) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"mockId": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, models.StoreError("count sessions", err)
	}
	return n > 0, nil
}
