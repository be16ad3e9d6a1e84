package models

import (
	"fmt"
	"time"
)

// ContentStatus is the publication state shared by posts, recipes and videos.
type ContentStatus string

const (
	StatusDraft     ContentStatus = "DRAFT"
	StatusPublished ContentStatus = "PUBLISHED"
	StatusScheduled ContentStatus = "SCHEDULED"
	StatusArchived  ContentStatus = "ARCHIVED"
)

// ParseContentStatus validates a status string.
func ParseContentStatus(s string) (ContentStatus, error) {
	switch st := ContentStatus(s); st {
	case StatusDraft, StatusPublished, StatusScheduled, StatusArchived:
		return st, nil
	default:
		return "", fmt.Errorf("invalid status %q", s)
	}
}

// CategoryRef is the category summary embedded in content responses.
type CategoryRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

// Post is a blog article.
type Post struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Excerpt          *string       `json:"excerpt"`
	Content          string        `json:"content"`
	FeaturedImage    *string       `json:"featuredImage"`
	FeaturedImageAlt *string       `json:"featuredImageAlt"`
	Status           ContentStatus `json:"status"`
	PublishedAt      *time.Time    `json:"publishedAt"`
	ScheduledAt      *time.Time    `json:"scheduledAt"`
	MetaTitle        *string       `json:"metaTitle"`
	MetaDescription  *string       `json:"metaDescription"`
	Keywords         []string      `json:"keywords"`
	ReadingTime      *int          `json:"readingTime"`
	ViewCount        int           `json:"viewCount"`
	IsAIGenerated    bool          `json:"isAiGenerated"`
	AIModel          *string       `json:"aiModel"`
	AIPrompt         *string       `json:"aiPrompt"`
	CategoryID       *string       `json:"categoryId"`
	Category         *CategoryRef  `json:"category,omitempty"`
	AuthorID         *string       `json:"authorId"`
	// DailySlot marks the one scheduled daily post for a calendar date.
	DailySlot *time.Time `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PostQuery filters and pages post listings.
type PostQuery struct {
	Page       int
	Limit      int
	Status     ContentStatus
	CategoryID string
	Search     string
	SortBy     string
	SortOrder  string
}

// Offset returns the row offset for the requested page.
func (q PostQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// ListQuery pages recipe and video listings.
type ListQuery struct {
	Page       int
	Limit      int
	Status     ContentStatus
	CategoryID string
	Search     string
}

// Offset returns the row offset for the requested page.
func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Pagination describes a paged listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Difficulty grades recipe effort.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Recipe is a structured recipe article.
type Recipe struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Excerpt          *string       `json:"excerpt"`
	Content          string        `json:"content"`
	FeaturedImage    *string       `json:"featuredImage"`
	FeaturedImageAlt *string       `json:"featuredImageAlt"`
	PrepTime         *int          `json:"prepTime"`
	CookTime         *int          `json:"cookTime"`
	TotalTime        *int          `json:"totalTime"`
	Servings         *int          `json:"servings"`
	Difficulty       Difficulty    `json:"difficulty"`
	Ingredients      []string      `json:"ingredients"`
	Instructions     []string      `json:"instructions"`
	Calories         *int          `json:"calories"`
	Protein          *float64      `json:"protein"`
	Carbs            *float64      `json:"carbs"`
	Fat              *float64      `json:"fat"`
	Fiber            *float64      `json:"fiber"`
	IsKeto           bool          `json:"isKeto"`
	IsVegan          bool          `json:"isVegan"`
	IsVegetarian     bool          `json:"isVegetarian"`
	IsGlutenFree     bool          `json:"isGlutenFree"`
	IsDairyFree      bool          `json:"isDairyFree"`
	Status           ContentStatus `json:"status"`
	PublishedAt      *time.Time    `json:"publishedAt"`
	MetaTitle        *string       `json:"metaTitle"`
	MetaDescription  *string       `json:"metaDescription"`
	Keywords         []string      `json:"keywords"`
	ViewCount        int           `json:"viewCount"`
	IsAIGenerated    bool          `json:"isAiGenerated"`
	AIModel          *string       `json:"aiModel"`
	CategoryID       *string       `json:"categoryId"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Video is an embedded YouTube video page.
type Video struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Description     *string       `json:"description"`
	YoutubeID       string        `json:"youtubeId"`
	YoutubeURL      string        `json:"youtubeUrl"`
	Thumbnail       *string       `json:"thumbnail"`
	Duration        *string       `json:"duration"`
	Status          ContentStatus `json:"status"`
	PublishedAt     *time.Time    `json:"publishedAt"`
	MetaTitle       *string       `json:"metaTitle"`
	MetaDescription *string       `json:"metaDescription"`
	Keywords        []string      `json:"keywords"`
	ViewCount       int           `json:"viewCount"`
	CategoryID      *string       `json:"categoryId"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Category groups content.
type Category struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     *string   `json:"description"`
	Color           string    `json:"color"`
	Icon            *string   `json:"icon"`
	Order           int       `json:"order"`
	MetaTitle       *string   `json:"metaTitle"`
	MetaDescription *string   `json:"metaDescription"`
	PostCount       int       `json:"postCount"`
	RecipeCount     int       `json:"recipeCount"`
	VideoCount      int       `json:"videoCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
