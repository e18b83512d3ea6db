package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chatform/internal/model"
)

// SurveyCache keeps survey definitions by slug in front of MongoDB
type SurveyCache interface {
	Set(ctx context.Context, survey *model.Survey) error
	Get(ctx context.Context, slug string) (*model.Survey, error)
	Invalidate(ctx context.Context, slug string) error
}

type surveyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSurveyCache creates a new survey cache; ttl <= 0 means five minutes
func NewSurveyCache(client *redis.Client, ttl time.Duration) SurveyCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &surveyCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *surveyCache) key(slug string) string {
	return fmt.Sprintf("survey:%s", slug)
}

func (c *surveyCache) Set(ctx context.Context, survey *model.Survey) error {
	data, err := json.Marshal(survey)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(survey.Slug), data, c.ttl).Err()
}

// Get returns nil, nil on a miss
func (c *surveyCache) Get(ctx context.Context, slug string) (*model.Survey, error) {
	data, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var survey model.Survey
	if err := json.Unmarshal(data, &survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (c *surveyCache) Invalidate(ctx context.Context, slug string) error {
	return c.client.Del(ctx, c.key(slug)).Err()
}
