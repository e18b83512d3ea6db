package model

import "time"

// SurveyDefaults holds the respondent-facing toggles of a survey
type SurveyDefaults struct {
	CollectEmailByDefault bool `json:"collectEmailByDefault" bson:"collectEmailByDefault"`
	ConversationalAI      bool `json:"conversationalAI" bson:"conversationalAI"`
}

// SurveyBranding controls presentation chrome
type SurveyBranding struct {
	HideBranding bool   `json:"hideBranding" bson:"hideBranding"`
	LogoURL      string `json:"logoUrl,omitempty" bson:"logoUrl,omitempty"`
	AccentColor  string `json:"accentColor,omitempty" bson:"accentColor,omitempty"`
}

// SurveySettings configures survey behavior. Every field is optional.
type SurveySettings struct {
	Defaults SurveyDefaults `json:"defaults" bson:"defaults"`
	Branding SurveyBranding `json:"branding" bson:"branding"`
}

// Survey is a survey definition identified by its slug
type Survey struct {
	ID               string         `json:"id" bson:"_id,omitempty"`
	Slug             string         `json:"slug" bson:"slug"`
	OwnerID          string         `json:"ownerId" bson:"user_id"`
	Title            string         `json:"title" bson:"title"`
	Description      string         `json:"description" bson:"description"`
	Settings         SurveySettings `json:"settings" bson:"settings"`
	Questions        []Question     `json:"survey_questions" bson:"survey_questions"`
	TotalResponses   int64          `json:"total_responses" bson:"total_responses"`
	TotalResponsesAI int64          `json:"total_responses_ai" bson:"total_responses_ai"`
	CreatedAt        time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" bson:"updated_at"`
}

// Limits is the usage picture of a survey against its owner's plan
type Limits struct {
	TotalResponses         int64 `json:"totalResponses"`
	TotalResponsesAI       int64 `json:"totalResponsesAI"`
	SurveyMaxResponses     int64 `json:"surveyMaxResponses"`
	SurveyMaxChatResponses int64 `json:"surveyMaxChatResponses"`
}

// Quota messages shown on the splash screen
const (
	QuotaResponsesMessage     = "This survey has reached its maximum number of responses."
	QuotaChatResponsesMessage = "This survey has reached its maximum number of conversational responses."
)

// Exceeded returns the blocking quota message for the given mode, or ""
func (l *Limits) Exceeded(conversational bool) string {
	if conversational {
		if l.SurveyMaxChatResponses > 0 && l.TotalResponsesAI >= l.SurveyMaxChatResponses {
			return QuotaChatResponsesMessage
		}
		return ""
	}
	if l.SurveyMaxResponses > 0 && l.TotalResponses >= l.SurveyMaxResponses {
		return QuotaResponsesMessage
	}
	return ""
}

// SurveyPayload is the body of GET /v1/surveys/{slug}
type SurveyPayload struct {
	Survey *Survey `json:"survey"`
	Limits *Limits `json:"limits,omitempty"`
}

// PlanFeatures are the response quotas of a subscription plan
type PlanFeatures struct {
	MaxResponses     *int64 `json:"max_responses,omitempty" bson:"max_responses,omitempty"`
	MaxChatResponses *int64 `json:"max_chat_responses,omitempty" bson:"max_chat_responses,omitempty"`
}

// Plan is a subscription price with its features
type Plan struct {
	ID       string       `json:"id" bson:"_id"`
	Features PlanFeatures `json:"features" bson:"features"`
}

// Subscription links a survey owner to a plan
type Subscription struct {
	UserID  string `json:"userId" bson:"user_id"`
	PriceID string `json:"priceId" bson:"price_id"`
}

// FreePlanID is used when an owner has no subscription
const FreePlanID = "free"

// Default quotas when a plan defines no features
const (
	DefaultMaxResponses     int64 = 10
	DefaultMaxChatResponses int64 = 10
)

// CreateSurveyRequest is the body of POST /v1/surveys
type CreateSurveyRequest struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Settings    SurveySettings `json:"settings"`
	Questions   []Question     `json:"survey_questions"`
}

// SurveySummary is an owner-facing survey row
type SurveySummary struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Questions        int       `json:"questions"`
	TotalResponses   int64     `json:"total_responses"`
	TotalResponsesAI int64     `json:"total_responses_ai"`
	CreatedAt        time.Time `json:"created_at"`
}
