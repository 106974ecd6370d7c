package mongo

import (
	"context"
	"errors"
	"time"

	"mockprep/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AnswerRepo wraps the answers collection. (mockIdRef, questionIndex) is unique.
type AnswerRepo struct{ col *mongo.Collection }

func (r *AnswerRepo) Insert(ctx context.Context, rec *models.AnswerRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicate
		}
		return models.StoreError("insert answer", err)
	}
	return nil
}

func (r *AnswerRepo) Replace(ctx context.Context, rec *models.AnswerRecord) error {
	filter := bson.M{"mockIdRef": rec.SessionID, "questionIndex": rec.QuestionIndex}
	update := bson.M{"$set": bson.M{
		"question":   rec.QuestionText,
		"correctAns": rec.ReferenceAnswer,
		"userAns":    rec.UserTranscript,
		"feedback":   rec.FeedbackText,
		"rating":     rec.Rating,
		"userEmail":  rec.OwnerIdentity,
		"videoUrl":   rec.MediaRef,
		"updatedAt":  time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.AnswerRecord
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ErrNotFound
		}
		return models.StoreError("replace answer", err)
	}
	*rec = updated
	return nil
}

func (r *AnswerRepo) ListBySession(ctx context.Context, sessionID string) ([]models.AnswerRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "questionIndex", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"mockIdRef": sessionID}, opts)
	if err != nil {
		return nil, models.StoreError("list answers", err)
	}
	defer cur.Close(ctx)

	out := []models.AnswerRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.StoreError("list answers", err)
	}
	return out, nil
}

func (r *AnswerRepo) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"mockIdRef": sessionID})
	if err != nil {
		return 0, models.StoreError("delete answers", err)
	}
	return res.DeletedCount, nil
}

func (r *AnswerRepo) SessionIDs(ctx context.Context) ([]string, error) {
	raw, err := r.col.Distinct(ctx, "mockIdRef", bson.M{})
	if err != nil {
		return nil, models.StoreError("list answer sessions", err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
