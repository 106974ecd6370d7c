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

// SubscriptionRepo wraps the subscriptions collection, keyed by email.
type SubscriptionRepo struct{ col *mongo.Collection }

func (r *SubscriptionRepo) Get(ctx context.Context, owner string) (*models.SubscriptionState, error) {
	if err := r.ensure(ctx, owner); err != nil {
		return nil, err
	}
	return r.load(ctx, owner)
}

// ReserveSlot increments projectCount in one FindOneAndUpdate guarded by the limit.
// When the guard does not match, the current record decides between subscribed and denied.
func (r *SubscriptionRepo) ReserveSlot(ctx context.Context, owner string, limit int) (bool, *models.SubscriptionState, error) {
	if err := r.ensure(ctx, owner); err != nil {
		return false, nil, err
	}

	filter := bson.M{
		"email":        owner,
		"isSubscribed": false,
		"projectCount": bson.M{"$lt": limit},
	}
	update := bson.M{
		"$inc": bson.M{"projectCount": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var state models.SubscriptionState
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&state)
	if err == nil {
		return true, &state, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil, models.StoreError("reserve slot", err)
	}

	current, err := r.load(ctx, owner)
	if err != nil {
		return false, nil, err
	}
	return current.IsSubscribed, current, nil
}

func (r *SubscriptionRepo) ReleaseSlot(ctx context.Context, owner string) error {
	filter := bson.M{
		"email":        owner,
		"isSubscribed": false,
		"projectCount": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"projectCount": -1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	if _, err := r.col.UpdateOne(ctx, filter, update); err != nil {
		return models.StoreError("release slot", err)
	}
	return nil
}

func (r *SubscriptionRepo) MarkSubscribed(ctx context.Context, owner string, tier models.SubscriptionTier, customerID string) (*models.SubscriptionState, error) {
	now := time.Now().UTC()
	set := bson.M{
		"isSubscribed":     true,
		"subscriptionType": tier,
		"updatedAt":        now,
	}
	if customerID != "" {
		set["stripeCustomerId"] = customerID
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"projectCount": 0, "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var state models.SubscriptionState
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"email": owner}, update, opts).Decode(&state); err != nil {
		return nil, models.StoreError("mark subscribed", err)
	}
	return &state, nil
}

// ensure upserts the default record; a concurrent duplicate-key on the upsert means it already exists.
func (r *SubscriptionRepo) ensure(ctx context.Context, owner string) error {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"isSubscribed":     false,
		"subscriptionType": models.TierNone,
		"projectCount":     0,
		"createdAt":        now,
		"updatedAt":        now,
	}}
	_, err := r.col.UpdateOne(ctx, bson.M{"email": owner}, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return models.StoreError("create subscription", err)
	}
	return nil
}

func (r *SubscriptionRepo) load(ctx context.Context, owner string) (*models.SubscriptionState, error) {
	var state models.SubscriptionState
	if err := r.col.FindOne(ctx, bson.M{"email": owner}).Decode(&state); err != nil {
		return nil, models.StoreError("get subscription", err)
	}
	return &state, nil
}
