package main

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatform/internal/config"
	"chatform/internal/model"
	"chatform/internal/observability"
	"chatform/internal/repository"
)

func int64Ptr(n int64) *int64 { return &n }

func sampleSurveys(ownerID string) []*model.Survey {
	return []*model.Survey{
		{
			Slug:        "product-feedback",
			OwnerID:     ownerID,
			Title:       "Product Feedback",
			Description: "Tell us how the new release is working for you.",
			Settings: model.SurveySettings{
				Defaults: model.SurveyDefaults{CollectEmailByDefault: true},
			},
			Questions: []model.Question{
				{Number: 1, Title: "Which plan are you on?", Type: "radio",
					Options: []model.Option{{Label: "Free"}, {Label: "Pro"}, {Label: "Team"}}},
				{Number: 2, Title: "How likely are you to recommend us?", Type: "linear-scale",
					Scale: &model.Scale{Min: 1, Max: 10}},
				{Number: 3, Title: "Which features do you use?", Type: "checkboxes",
					Options: []model.Option{{Label: "Forms"}, {Label: "Chat mode"}, {Label: "Exports"}, {Label: "Webhooks"}},
					Required: model.Bool(false)},
				{Number: 4, Title: "When did you start using the product?", Type: "date"},
				{Number: 5, Title: "What should we improve next?", Type: "long-text"},
			},
		},
		{
			Slug:        "team-pulse",
			OwnerID:     ownerID,
			Title:       "Team Pulse",
			Description: "A two minute weekly check-in.",
			Settings: model.SurveySettings{
				Defaults: model.SurveyDefaults{ConversationalAI: true},
			},
			Questions: []model.Question{
				{Number: 1, Title: "How was your week?", Type: "radio",
					Options: []model.Option{{Label: "Great"}, {Label: "Fine"}, {Label: "Rough"}}},
				{Number: 2, Title: "Energy level", Type: "linear-scale", Scale: &model.Scale{Min: 1, Max: 5}},
				{Number: 3, Title: "Anything blocking you?", Type: "text", Required: model.Bool(false)},
			},
		},
	}
}

func samplePlans() []model.Plan {
	return []model.Plan{
		{ID: model.FreePlanID, Features: model.PlanFeatures{MaxResponses: int64Ptr(model.DefaultMaxResponses), MaxChatResponses: int64Ptr(model.DefaultMaxChatResponses)}},
		{ID: "price_pro_monthly", Features: model.PlanFeatures{MaxResponses: int64Ptr(1000), MaxChatResponses: int64Ptr(250)}},
	}
}

func main() {
	log := observability.Setup("info", "console", os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("connect to MongoDB")
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Mongo.Database)
	surveyRepo := repository.NewSurveyRepo(db)
	if err := surveyRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	for _, plan := range samplePlans() {
		_, err := db.Collection("plans").ReplaceOne(ctx, bson.M{"_id": plan.ID}, plan, options.Replace().SetUpsert(true))
		if err != nil {
			log.Fatal().Err(err).Str("plan", plan.ID).Msg("upsert plan")
		}
		log.Info().Str("plan", plan.ID).Msg("plan seeded")
	}

	for _, survey := range sampleSurveys(cfg.Auth.OwnerID) {
		id, err := surveyRepo.Create(ctx, survey)
		if errors.Is(err, repository.ErrDuplicateSlug) {
			log.Info().Str("slug", survey.Slug).Msg("survey already exists, skipping")
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Str("slug", survey.Slug).Msg("create survey")
		}
		log.Info().Str("slug", survey.Slug).Str("id", id).Int("questions", len(survey.Questions)).Msg("survey seeded")
	}
}
