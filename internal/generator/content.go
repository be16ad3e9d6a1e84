// Package generator turns a topic into persisted AI-written content: prompt
// templates per content kind, the provider fallback orchestrator, the
// best-effort image stage, and the pipelines that tie them to storage.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lmojica26/womenhealthytips.com/internal/llm"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
	"github.com/lmojica26/womenhealthytips.com/internal/readtime"
)

var (
	// ErrGenerationFailed wraps every backend, empty-response and parse
	// failure of a content generator.
	ErrGenerationFailed = errors.New("content generation failed")
	// ErrEmptyTopic is returned before any backend call when no topic is given.
	ErrEmptyTopic = errors.New("topic is required")
	// ErrIncomplete is returned when a response parses but lacks a required field.
	ErrIncomplete = errors.New("incomplete response")
)

// BlogPost is a generated article.
type BlogPost struct {
	Title       string
	Excerpt     string
	Content     string
	Keywords    []string
	ReadingTime int
}

// RecipeContent is a generated recipe.
type RecipeContent struct {
	Title        string
	Excerpt      string
	PrepTime     int
	CookTime     int
	TotalTime    int
	Servings     int
	Difficulty   models.Difficulty
	Ingredients  []string
	Instructions []string
	Calories     int
	Protein      *float64
	Carbs        *float64
	Fat          *float64
	Fiber        *float64
	Tips         string
	Keywords     []string
}

type blogPostJSON struct {
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content"`
	Keywords    []string `json:"keywords"`
	ReadingTime *float64 `json:"readingTime"`
}

type recipeJSON struct {
	Title        string   `json:"title"`
	Excerpt      string   `json:"excerpt"`
	PrepTime     *float64 `json:"prepTime"`
	CookTime     *float64 `json:"cookTime"`
	TotalTime    *float64 `json:"totalTime"`
	Servings     *float64 `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Calories     *float64 `json:"calories"`
	Protein      *float64 `json:"protein"`
	Carbs        *float64 `json:"carbs"`
	Fat          *float64 `json:"fat"`
	Fiber        *float64 `json:"fiber"`
	Tips         string   `json:"tips"`
	Keywords     []string `json:"keywords"`
}

// GenerateBlogPost asks p for an article about topic. The result is either
// fully populated or an error wrapping ErrGenerationFailed.
func GenerateBlogPost(ctx context.Context, p llm.Provider, topic, category string) (BlogPost, llm.Completion, error) {
	if strings.TrimSpace(topic) == "" {
		return BlogPost{}, llm.Completion{}, ErrEmptyTopic
	}
	if category == "" {
		category = DefaultCategory
	}

	c, err := p.Complete(ctx, llm.Request{
		Operation:   "blog_post",
		System:      blogSystemPrompt,
		User:        blogUserPrompt(topic, category),
		Temperature: blogTemperature,
		MaxTokens:   blogMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return BlogPost{}, c, failed(p, err)
	}

	var raw blogPostJSON
	if err := decode(p, c.Text, &raw); err != nil {
		return BlogPost{}, c, failed(p, err)
	}

	post := BlogPost{
		Title:    strings.TrimSpace(raw.Title),
		Excerpt:  strings.TrimSpace(raw.Excerpt),
		Content:  strings.TrimSpace(raw.Content),
		Keywords: cleanList(raw.Keywords),
	}
	switch {
	case post.Title == "":
		return BlogPost{}, c, failed(p, missing("title"))
	case post.Excerpt == "":
		return BlogPost{}, c, failed(p, missing("excerpt"))
	case post.Content == "":
		return BlogPost{}, c, failed(p, missing("content"))
	case raw.Keywords == nil:
		return BlogPost{}, c, failed(p, missing("keywords"))
	}

	if n, ok := positiveInt(raw.ReadingTime); ok {
		post.ReadingTime = n
	} else {
		post.ReadingTime = max(readtime.Minutes(post.Content), 1)
	}
	return post, c, nil
}

// GenerateRecipe asks p for a recipe about topic in the given diet style.
func GenerateRecipe(ctx context.Context, p llm.Provider, topic, dietName string) (RecipeContent, llm.Completion, error) {
	if strings.TrimSpace(topic) == "" {
		return RecipeContent{}, llm.Completion{}, ErrEmptyTopic
	}
	if dietName == "" {
		dietName = DietHealthy.Name()
	}

	c, err := p.Complete(ctx, llm.Request{
		Operation:   "recipe",
		System:      recipeSystemPrompt,
		User:        recipeUserPrompt(topic, dietName),
		Temperature: blogTemperature,
		MaxTokens:   recipeMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return RecipeContent{}, c, failed(p, err)
	}

	var raw recipeJSON
	if err := decode(p, c.Text, &raw); err != nil {
		return RecipeContent{}, c, failed(p, err)
	}

	rc := RecipeContent{
		Title:        strings.TrimSpace(raw.Title),
		Excerpt:      strings.TrimSpace(raw.Excerpt),
		Difficulty:   normalizeDifficulty(raw.Difficulty),
		Ingredients:  cleanList(raw.Ingredients),
		Instructions: cleanList(raw.Instructions),
		Protein:      raw.Protein,
		Carbs:        raw.Carbs,
		Fat:          raw.Fat,
		Fiber:        raw.Fiber,
		Tips:         strings.TrimSpace(raw.Tips),
		Keywords:     cleanList(raw.Keywords),
	}

	required := []struct {
		name string
		in   *float64
		out  *int
	}{
		{"prepTime", raw.PrepTime, &rc.PrepTime},
		{"cookTime", raw.CookTime, &rc.CookTime},
		{"servings", raw.Servings, &rc.Servings},
		{"calories", raw.Calories, &rc.Calories},
	}
	for _, f := range required {
		if f.in == nil || *f.in < 0 {
			return RecipeContent{}, c, failed(p, missing(f.name))
		}
		*f.out = int(math.Round(*f.in))
	}

	switch {
	case rc.Title == "":
		return RecipeContent{}, c, failed(p, missing("title"))
	case rc.Excerpt == "":
		return RecipeContent{}, c, failed(p, missing("excerpt"))
	case len(rc.Ingredients) == 0:
		return RecipeContent{}, c, failed(p, missing("ingredients"))
	case len(rc.Instructions) == 0:
		return RecipeContent{}, c, failed(p, missing("instructions"))
	}

	if n, ok := positiveInt(raw.TotalTime); ok {
		rc.TotalTime = n
	} else {
		rc.TotalTime = rc.PrepTime + rc.CookTime
	}
	return rc, c, nil
}

// decode parses text into v, first isolating the JSON object when the
// provider does not constrain its output.
func decode(p llm.Provider, text string, v any) error {
	if !p.ConstrainsJSON() {
		extracted, err := llm.ExtractJSON(text)
		if err != nil {
			return err
		}
		text = extracted
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func failed(p llm.Provider, err error) error {
	return fmt.Errorf("%w (%s): %w", ErrGenerationFailed, p.Name(), err)
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrIncomplete, field)
}

func positiveInt(f *float64) (int, bool) {
	if f == nil || *f <= 0 {
		return 0, false
	}
	return int(math.Round(*f)), true
}

func normalizeDifficulty(s string) models.Difficulty {
	switch d := models.Difficulty(strings.ToUpper(strings.TrimSpace(s))); d {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return d
	default:
		return models.DifficultyMedium
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
