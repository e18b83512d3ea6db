package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatform/internal/model"
)

// ErrDuplicateSlug is returned when a survey slug is already taken
var ErrDuplicateSlug = errors.New("survey slug already exists")

// SurveyRepo handles MongoDB operations for surveys
type SurveyRepo interface {
	Create(ctx context.Context, survey *model.Survey) (string, error)
	GetBySlug(ctx context.Context, slug string) (*model.Survey, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Survey, error)
	IncrementResponses(ctx context.Context, id string, conversational bool) error
	EnsureIndexes(ctx context.Context) error
}

type surveyRepo struct {
	collection *mongo.Collection
}

// NewSurveyRepo creates a new survey repository
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	return &surveyRepo{
		collection: db.Collection("surveys"),
	}
}

func (r *surveyRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	return err
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) (string, error) {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	survey.CreatedAt = now
	survey.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, survey); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateSlug
		}
		return "", err
	}
	return survey.ID, nil
}

// GetBySlug returns nil, nil when no survey has the slug
func (r *surveyRepo) GetBySlug(ctx context.Context, slug string) (*model.Survey, error) {
	var survey model.Survey
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&survey)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *surveyRepo) GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Survey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	surveys := []*model.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

// IncrementResponses bumps total_responses, and total_responses_ai as well
// for conversational submissions
func (r *surveyRepo) IncrementResponses(ctx context.Context, id string, conversational bool) error {
	inc := bson.M{"total_responses": 1}
	if conversational {
		inc["total_responses_ai"] = 1
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}
