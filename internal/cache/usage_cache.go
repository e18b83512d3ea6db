package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	fieldTotal = "total"
	fieldAI    = "ai"
)

// Usage counts the responses a survey has received
type Usage struct {
	Total int64 `json:"total"`
	AI    int64 `json:"ai"`
}

// UsageCache keeps per-survey response counters in a Redis hash and a
// global ranking of surveys by responses
type UsageCache interface {
	// Seed stores counters only if none exist yet
	Seed(ctx context.Context, surveyID string, u Usage) error
	Get(ctx context.Context, surveyID string) (*Usage, error)
	Incr(ctx context.Context, surveyID string, conversational bool) (Usage, error)
	Top(ctx context.Context, limit int) ([]RankedSurvey, error)
}

// RankedSurvey is one entry of the response ranking
type RankedSurvey struct {
	SurveyID  string `json:"surveyId"`
	Responses int64  `json:"responses"`
	Rank      int    `json:"rank"`
}

type usageCache struct {
	client *redis.Client
}

// NewUsageCache creates a new usage cache
func NewUsageCache(client *redis.Client) UsageCache {
	return &usageCache{client: client}
}

func (c *usageCache) key(surveyID string) string {
	return fmt.Sprintf("survey:%s:usage", surveyID)
}

func (c *usageCache) rankingKey() string {
	return "surveys:responses"
}

func (c *usageCache) Seed(ctx context.Context, surveyID string, u Usage) error {
	pipe := c.client.TxPipeline()
	pipe.HSetNX(ctx, c.key(surveyID), fieldTotal, u.Total)
	pipe.HSetNX(ctx, c.key(surveyID), fieldAI, u.AI)
	pipe.ZAddNX(ctx, c.rankingKey(), redis.Z{Score: float64(u.Total), Member: surveyID})
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns nil, nil when the survey has no counters yet
func (c *usageCache) Get(ctx context.Context, surveyID string) (*Usage, error) {
	vals, err := c.client.HGetAll(ctx, c.key(surveyID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	var u Usage
	if u.Total, err = parseCount(vals[fieldTotal]); err != nil {
		return nil, err
	}
	if u.AI, err = parseCount(vals[fieldAI]); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *usageCache) Incr(ctx context.Context, surveyID string, conversational bool) (Usage, error) {
	pipe := c.client.TxPipeline()
	total := pipe.HIncrBy(ctx, c.key(surveyID), fieldTotal, 1)
	var ai *redis.IntCmd
	if conversational {
		ai = pipe.HIncrBy(ctx, c.key(surveyID), fieldAI, 1)
	} else {
		ai = pipe.HIncrBy(ctx, c.key(surveyID), fieldAI, 0)
	}
	pipe.ZIncrBy(ctx, c.rankingKey(), 1, surveyID)
	if _, err := pipe.Exec(ctx); err != nil {
		return Usage{}, err
	}
	return Usage{Total: total.Val(), AI: ai.Val()}, nil
}

func (c *usageCache) Top(ctx context.Context, limit int) ([]RankedSurvey, error) {
	if limit <= 0 {
		return []RankedSurvey{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.rankingKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]RankedSurvey, len(results))
	for i, z := range results {
		id, _ := z.Member.(string)
		entries[i] = RankedSurvey{
			SurveyID:  id,
			Responses: int64(z.Score),
			Rank:      i + 1,
		}
	}
	return entries, nil
}

func parseCount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
