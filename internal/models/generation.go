package models

import "time"

// GenerationType is the kind of artifact a generation chain produced.
type GenerationType string

const (
	GenerationBlogPost GenerationType = "BLOG_POST"
	GenerationRecipe   GenerationType = "RECIPE"
	GenerationImage    GenerationType = "IMAGE"
)

// GenerationLog is the append-only outcome record of one generation chain.
// Fallback is true when the secondary provider produced the result.
type GenerationLog struct {
	ID           string         `json:"id"`
	Type         GenerationType `json:"type"`
	PostID       *string        `json:"postId"`
	RecipeID     *string        `json:"recipeId"`
	Prompt       string         `json:"prompt"`
	Model        string         `json:"model"`
	TokensUsed   int            `json:"tokensUsed"`
	Success      bool           `json:"success"`
	Fallback     bool           `json:"fallback"`
	ErrorMessage *string        `json:"errorMessage"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// GenerationLogQuery filters the generation log listing.
type GenerationLogQuery struct {
	Type    GenerationType
	Success *bool
	Limit   int
	Offset  int
}

// GenerationStats aggregates generation outcomes.
type GenerationStats struct {
	Total        int                    `json:"total"`
	Successful   int                    `json:"successful"`
	Failed       int                    `json:"failed"`
	Fallbacks    int                    `json:"fallbacks"`
	TotalTokens  int64                  `json:"totalTokens"`
	SuccessRate  float64                `json:"successRate"`
	ByType       map[GenerationType]int `json:"byType"`
	LastFailures []GenerationLog        `json:"lastFailures"`
}

// InferenceLog records a single provider API call, including calls that
// were later superseded by a fallback.
type InferenceLog struct {
	ID           int       `json:"id"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Operation    string    `json:"operation"`
	TokensUsed   int       `json:"tokensUsed"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	CostUSD      float64   `json:"costUsd"`
	LatencyMs    int       `json:"latencyMs"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"errorMessage"`
	CreatedAt    time.Time `json:"createdAt"`
}
