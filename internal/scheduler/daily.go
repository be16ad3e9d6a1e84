// Package scheduler publishes one AI-generated post per day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/generator"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

// Daily run results reported to the observer.
const (
	ResultCreated = "created"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// PostCounter counts AI-generated posts.
type PostCounter interface {
	CountAIGeneratedSince(ctx context.Context, since time.Time) (int, error)
}

// CategoryFinder resolves a topic category label.
type CategoryFinder interface {
	FindByName(ctx context.Context, name string) (*models.Category, error)
}

// PostGenerator runs the blog post chain.
type PostGenerator interface {
	GeneratePost(ctx context.Context, req generator.PostRequest) (*generator.PostResult, error)
	LogFailure(ctx context.Context, t models.GenerationType, prompt, model string, cause error)
}

// RunObserver receives one result per gate invocation.
type RunObserver interface {
	ObserveDailyRun(result string)
}

type nopRunObserver struct{}

func (nopRunObserver) ObserveDailyRun(string) {}

// Outcome reports what a daily run did.
type Outcome struct {
	Skipped bool
	Topic   Topic
	Post    *models.Post
}

// DailyGate decides whether today's post exists and creates it if not.
type DailyGate struct {
	posts      PostCounter
	categories CategoryFinder
	generator  PostGenerator
	topics     Topics
	useImages  bool
	observer   RunObserver
	logger     *slog.Logger
	now        func() time.Time
}

// GateOption configures a DailyGate.
type GateOption func(*DailyGate)

// WithImages requests a featured image for daily posts.
func WithImages(enabled bool) GateOption {
	return func(g *DailyGate) { g.useImages = enabled }
}

// WithRunObserver reports run results.
func WithRunObserver(o RunObserver) GateOption {
	return func(g *DailyGate) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) GateOption {
	return func(g *DailyGate) { g.now = now }
}

// NewDailyGate creates a gate over the given rotation.
func NewDailyGate(posts PostCounter, categories CategoryFinder, gen PostGenerator, topics Topics, logger *slog.Logger, opts ...GateOption) *DailyGate {
	g := &DailyGate{
		posts:      posts,
		categories: categories,
		generator:  gen,
		topics:     topics,
		observer:   nopRunObserver{},
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run performs one gate invocation. A day that already has an AI-generated
// post is skipped without writes.
func (g *DailyGate) Run(ctx context.Context) (*Outcome, error) {
	now := g.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := g.posts.CountAIGeneratedSince(ctx, midnight)
	if err != nil {
		err = fmt.Errorf("failed to check today's posts: %w", err)
		g.generator.LogFailure(ctx, models.GenerationBlogPost, "daily-cron", "unknown", err)
		g.observer.ObserveDailyRun(ResultFailed)
		return nil, err
	}
	if count > 0 {
		g.logger.Info("daily post already exists, skipping", "count", count)
		g.observer.ObserveDailyRun(ResultSkipped)
		return &Outcome{Skipped: true}, nil
	}

	topic := g.topics.For(now)
	category := g.resolveCategory(ctx, topic.Category)

	res, err := g.generator.GeneratePost(ctx, generator.PostRequest{
		Topic:    topic.Topic,
		Category: category,
		UseImage: g.useImages,
		Daily:    true,
	})
	if errors.Is(err, database.ErrDailySlotTaken) {
		g.logger.Info("daily slot claimed by a concurrent run, skipping", "topic", topic.Topic)
		g.observer.ObserveDailyRun(ResultSkipped)
		return &Outcome{Skipped: true, Topic: topic}, nil
	}
	if err != nil {
		g.observer.ObserveDailyRun(ResultFailed)
		return nil, fmt.Errorf("failed to create daily post: %w", err)
	}

	g.observer.ObserveDailyRun(ResultCreated)
	g.logger.Info("created daily post",
		"post_id", res.Post.ID,
		"slug", res.Post.Slug,
		"topic", topic.Topic,
		"model", res.Model,
	)
	return &Outcome{Topic: topic, Post: res.Post}, nil
}

func (g *DailyGate) resolveCategory(ctx context.Context, name string) *models.Category {
	if name == "" {
		return nil
	}
	c, err := g.categories.FindByName(ctx, name)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			g.logger.Warn("failed to resolve topic category", "category", name, "error", err)
		}
		return nil
	}
	return c
}
