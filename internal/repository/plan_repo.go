package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"chatform/internal/model"
)

// PlanRepo reads owner subscriptions and the plans they point at
type PlanRepo interface {
	// GetSubscription returns nil, nil for owners without a subscription
	GetSubscription(ctx context.Context, ownerID string) (*model.Subscription, error)
	// GetPlan returns nil, nil for unknown plan ids
	GetPlan(ctx context.Context, id string) (*model.Plan, error)
}

type planRepo struct {
	subscriptions *mongo.Collection
	plans         *mongo.Collection
}

// NewPlanRepo creates a new plan repository
func NewPlanRepo(db *mongo.Database) PlanRepo {
	return &planRepo{
		subscriptions: db.Collection("subscriptions"),
		plans:         db.Collection("plans"),
	}
}

func (r *planRepo) GetSubscription(ctx context.Context, ownerID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.subscriptions.FindOne(ctx, bson.M{"user_id": ownerID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *planRepo) GetPlan(ctx context.Context, id string) (*model.Plan, error) {
	var plan model.Plan
	err := r.plans.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
