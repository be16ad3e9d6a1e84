package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/llm"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
	"github.com/lmojica26/womenhealthytips.com/internal/slug"
)

const (
	slugRetries = 3

	// logWriteTimeout bounds a generation log write made after the run ended.
	logWriteTimeout = 5 * time.Second
)

// PostStore persists generated posts.
type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	UpdateFeaturedImage(ctx context.Context, id, url, alt string) error
}

// RecipeStore persists generated recipes.
type RecipeStore interface {
	Create(ctx context.Context, r *models.Recipe) error
}

// CategoryLookup resolves a category by id.
type CategoryLookup interface {
	GetByID(ctx context.Context, id string) (*models.Category, error)
}

// LogStore appends generation log entries.
type LogStore interface {
	Create(ctx context.Context, l *models.GenerationLog) error
}

// Observer receives one call per terminal generation outcome.
type Observer interface {
	ObserveGeneration(kind, provider string, success, fallback bool)
}

type nopObserver struct{}

func (nopObserver) ObserveGeneration(string, string, bool, bool) {}

// Stores groups the persistence dependencies of a Pipeline.
type Stores struct {
	Posts      PostStore
	Recipes    RecipeStore
	Categories CategoryLookup
	Logs       LogStore
}

// Pipeline runs generation chains end to end: content with fallback, a
// best-effort image, persistence, and exactly one generation log entry.
type Pipeline struct {
	orch     *Orchestrator
	images   *ImageStage
	stores   Stores
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithObserver reports outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline. images may be nil when no image backend is
// configured.
func NewPipeline(orch *Orchestrator, images *ImageStage, stores Stores, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		orch:     orch,
		images:   images,
		stores:   stores,
		observer: nopObserver{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PostRequest describes one blog post generation.
type PostRequest struct {
	Topic string
	// Category is used as is when set; otherwise CategoryID is looked up.
	Category   *models.Category
	CategoryID string
	Provider   string
	UseImage   bool
	// Daily publishes immediately and claims today's daily slot.
	Daily bool
}

// PostResult is a persisted generated post.
type PostResult struct {
	Post     *models.Post
	Model    string
	Fallback bool
	Tokens   int
}

// GeneratePost runs the blog post chain.
func (p *Pipeline) GeneratePost(ctx context.Context, req PostRequest) (*PostResult, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	plan, err := p.orch.Plan(req.Provider)
	if err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			return nil, err
		}
		p.logFailure(ctx, models.GenerationBlogPost, topic, "unknown", false, err)
		return nil, err
	}

	category := req.Category
	if category == nil && req.CategoryID != "" {
		category = p.lookupCategory(ctx, req.CategoryID)
	}
	categoryName := DefaultCategory
	if category != nil {
		categoryName = category.Name
	}

	res, err := Run(ctx, plan, p.logger, func(ctx context.Context, provider llm.Provider) (BlogPost, llm.Completion, error) {
		return GenerateBlogPost(ctx, provider, topic, categoryName)
	})
	if err != nil {
		p.observer.ObserveGeneration(string(models.GenerationBlogPost), res.Provider, false, res.Fallback)
		p.logFailure(ctx, models.GenerationBlogPost, topic, res.Model, res.Fallback, err)
		return nil, err
	}
	content := res.Value

	var image string
	if req.UseImage && p.images != nil {
		image = p.images.Featured(ctx, content.Title, categoryName)
	}

	now := p.now()
	post := &models.Post{
		Title:           content.Title,
		Excerpt:         &content.Excerpt,
		Content:         content.Content,
		Status:          models.StatusDraft,
		MetaTitle:       &content.Title,
		MetaDescription: &content.Excerpt,
		Keywords:        content.Keywords,
		ReadingTime:     &content.ReadingTime,
		IsAIGenerated:   true,
		AIModel:         &res.Model,
		AIPrompt:        &topic,
	}
	if image != "" {
		post.FeaturedImage = &image
		post.FeaturedImageAlt = &content.Title
	}
	if category != nil {
		post.CategoryID = &category.ID
	}
	if req.Daily {
		slot := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		post.Status = models.StatusPublished
		post.PublishedAt = &now
		post.DailySlot = &slot
	}

	err = p.insertWithUniqueSlug(ctx, content.Title, now, &post.Slug, func() error {
		return p.stores.Posts.Create(ctx, post)
	})
	if errors.Is(err, database.ErrDailySlotTaken) {
		// Another run already owns today's post; the gate reports a skip.
		p.logger.Info("daily slot already taken, discarding generated post", "topic", topic)
		return nil, err
	}
	if err != nil {
		p.observer.ObserveGeneration(string(models.GenerationBlogPost), res.Provider, false, res.Fallback)
		p.logFailure(ctx, models.GenerationBlogPost, topic, res.Model, res.Fallback, err)
		return nil, err
	}

	p.observer.ObserveGeneration(string(models.GenerationBlogPost), res.Provider, true, res.Fallback)
	p.writeLog(ctx, &models.GenerationLog{
		Type:       models.GenerationBlogPost,
		PostID:     &post.ID,
		Prompt:     topic,
		Model:      res.Model,
		TokensUsed: res.Tokens,
		Success:    true,
		Fallback:   res.Fallback,
	})
	p.logger.Info("generated blog post",
		"post_id", post.ID,
		"slug", post.Slug,
		"model", res.Model,
		"attempts", res.Attempts,
		"has_image", image != "",
	)

	return &PostResult{Post: post, Model: res.Model, Fallback: res.Fallback, Tokens: res.Tokens}, nil
}

// RecipeRequest describes one recipe generation.
type RecipeRequest struct {
	Topic      string
	DietType   DietType
	CategoryID string
	Provider   string
	UseImage   bool
}

// RecipeResult is a persisted generated recipe.
type RecipeResult struct {
	Recipe   *models.Recipe
	Model    string
	Fallback bool
	Tokens   int
}

// GenerateRecipe runs the recipe chain.
func (p *Pipeline) GenerateRecipe(ctx context.Context, req RecipeRequest) (*RecipeResult, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if req.DietType == "" {
		req.DietType = DietHealthy
	}
	dietName := req.DietType.Name()
	prompt := dietName + " recipe: " + topic

	plan, err := p.orch.Plan(req.Provider)
	if err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			return nil, err
		}
		p.logFailure(ctx, models.GenerationRecipe, prompt, "unknown", false, err)
		return nil, err
	}

	res, err := Run(ctx, plan, p.logger, func(ctx context.Context, provider llm.Provider) (RecipeContent, llm.Completion, error) {
		return GenerateRecipe(ctx, provider, topic, dietName)
	})
	if err != nil {
		p.observer.ObserveGeneration(string(models.GenerationRecipe), res.Provider, false, res.Fallback)
		p.logFailure(ctx, models.GenerationRecipe, prompt, res.Model, res.Fallback, err)
		return nil, err
	}
	content := res.Value

	var image string
	if req.UseImage && p.images != nil {
		image = p.images.Featured(ctx, content.Title, RecipeImageCategory)
	}

	recipe := &models.Recipe{
		Title:           content.Title,
		Excerpt:         &content.Excerpt,
		Content:         content.Tips,
		PrepTime:        &content.PrepTime,
		CookTime:        &content.CookTime,
		TotalTime:       &content.TotalTime,
		Servings:        &content.Servings,
		Difficulty:      content.Difficulty,
		Ingredients:     content.Ingredients,
		Instructions:    content.Instructions,
		Calories:        &content.Calories,
		Protein:         content.Protein,
		Carbs:           content.Carbs,
		Fat:             content.Fat,
		Fiber:           content.Fiber,
		Status:          models.StatusDraft,
		MetaTitle:       &content.Title,
		MetaDescription: &content.Excerpt,
		Keywords:        content.Keywords,
		IsAIGenerated:   true,
		AIModel:         &res.Model,
	}
	req.DietType.applyFlags(recipe)
	if image != "" {
		recipe.FeaturedImage = &image
		recipe.FeaturedImageAlt = &content.Title
	}
	if req.CategoryID != "" {
		if c := p.lookupCategory(ctx, req.CategoryID); c != nil {
			recipe.CategoryID = &c.ID
		}
	}

	err = p.insertWithUniqueSlug(ctx, content.Title, p.now(), &recipe.Slug, func() error {
		return p.stores.Recipes.Create(ctx, recipe)
	})
	if err != nil {
		p.observer.ObserveGeneration(string(models.GenerationRecipe), res.Provider, false, res.Fallback)
		p.logFailure(ctx, models.GenerationRecipe, prompt, res.Model, res.Fallback, err)
		return nil, err
	}

	p.observer.ObserveGeneration(string(models.GenerationRecipe), res.Provider, true, res.Fallback)
	p.writeLog(ctx, &models.GenerationLog{
		Type:       models.GenerationRecipe,
		RecipeID:   &recipe.ID,
		Prompt:     prompt,
		Model:      res.Model,
		TokensUsed: res.Tokens,
		Success:    true,
		Fallback:   res.Fallback,
	})
	p.logger.Info("generated recipe", "recipe_id", recipe.ID, "slug", recipe.Slug, "model", res.Model)

	return &RecipeResult{Recipe: recipe, Model: res.Model, Fallback: res.Fallback, Tokens: res.Tokens}, nil
}

// ImageRequest describes a standalone image generation. Prompt wins over
// Title; one of them is required.
type ImageRequest struct {
	Prompt   string
	Title    string
	Category string
	PostID   string
}

// ImageResult is a generated image.
type ImageResult struct {
	URL    string
	Prompt string
}

// ErrImageInput is returned when neither a prompt nor a title is given.
var ErrImageInput = errors.New("either prompt or title is required")

// GenerateImage renders one image and optionally attaches it to a post.
// Unlike the featured image inside the content chains, failures here are
// returned to the caller.
func (p *Pipeline) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	title := strings.TrimSpace(req.Title)
	if prompt == "" && title == "" {
		return nil, ErrImageInput
	}
	if p.images == nil {
		return nil, ErrImagesUnavailable
	}
	model := p.images.Model()

	var postID *string
	if req.PostID != "" {
		postID = &req.PostID
	}

	fail := func(logPrompt string, err error) (*ImageResult, error) {
		p.observer.ObserveGeneration(string(models.GenerationImage), llm.ProviderOpenAI, false, false)
		p.logFailure(ctx, models.GenerationImage, logPrompt, model, false, err)
		return nil, err
	}

	if prompt == "" {
		var err error
		if prompt, err = p.images.Prompt(ctx, title, req.Category); err != nil {
			return fail(title, err)
		}
	}

	url, err := p.images.Render(ctx, prompt)
	if err != nil {
		return fail(prompt, err)
	}

	if postID != nil {
		alt := title
		if alt == "" {
			alt = "AI Generated Image"
		}
		if err := p.stores.Posts.UpdateFeaturedImage(ctx, *postID, url, alt); err != nil {
			return fail(prompt, fmt.Errorf("failed to attach image to post: %w", err))
		}
	}

	p.observer.ObserveGeneration(string(models.GenerationImage), llm.ProviderOpenAI, true, false)
	p.writeLog(ctx, &models.GenerationLog{
		Type:    models.GenerationImage,
		PostID:  postID,
		Prompt:  prompt,
		Model:   model,
		Success: true,
	})
	return &ImageResult{URL: url, Prompt: prompt}, nil
}

// insertWithUniqueSlug derives a slug from title and calls insert, retrying
// with a fresh timestamp suffix while the store reports ErrSlugTaken.
func (p *Pipeline) insertWithUniqueSlug(ctx context.Context, title string, now time.Time, dst *string, insert func() error) error {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	return slug.Insert(ctx, base, now, slugRetries, isSlugTaken, func(s string) error {
		*dst = s
		return insert()
	})
}

func isSlugTaken(err error) bool {
	return errors.Is(err, database.ErrSlugTaken)
}

func (p *Pipeline) lookupCategory(ctx context.Context, id string) *models.Category {
	c, err := p.stores.Categories.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			p.logger.Warn("failed to look up category", "category_id", id, "error", err)
		}
		return nil
	}
	return c
}

func (p *Pipeline) logFailure(ctx context.Context, t models.GenerationType, prompt, model string, fallback bool, cause error) {
	msg := cause.Error()
	p.writeLog(ctx, &models.GenerationLog{
		Type:         t,
		Prompt:       prompt,
		Model:        model,
		Success:      false,
		Fallback:     fallback,
		ErrorMessage: &msg,
	})
}

// writeLog never fails the chain; a lost log entry is only reported. The
// write outlives a cancelled or expired run context so that chains ending
// on a timeout are still recorded.
func (p *Pipeline) writeLog(ctx context.Context, entry *models.GenerationLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()
	if err := p.stores.Logs.Create(ctx, entry); err != nil {
		p.logger.Error("failed to write generation log",
			"type", entry.Type,
			"success", entry.Success,
			"error", err,
		)
	}
}

// LogFailure records a failed chain that ended before generation started,
// such as a daily run whose existing-post check failed.
func (p *Pipeline) LogFailure(ctx context.Context, t models.GenerationType, prompt, model string, cause error) {
	p.logFailure(ctx, t, prompt, model, false, cause)
}
