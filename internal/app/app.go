// Package app assembles the content service from configuration: storage,
// providers, the generation pipeline, the daily gate and the HTTP surface.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lmojica26/womenhealthytips.com/internal/api"
	"github.com/lmojica26/womenhealthytips.com/internal/auth"
	"github.com/lmojica26/womenhealthytips.com/internal/config"
	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/generator"
	"github.com/lmojica26/womenhealthytips.com/internal/imagestore"
	"github.com/lmojica26/womenhealthytips.com/internal/inference"
	"github.com/lmojica26/womenhealthytips.com/internal/llm"
	"github.com/lmojica26/womenhealthytips.com/internal/metrics"
	"github.com/lmojica26/womenhealthytips.com/internal/scheduler"
)

// App holds the wired service.
type App struct {
	DB       *sql.DB
	Pipeline *generator.Pipeline
	Daily    *scheduler.DailyGate
	Metrics  *metrics.Collector

	cfg       config.Config
	logger    *slog.Logger
	recorder  *inference.Logger
	genLogs   *database.GenerationLogRepository
	inference *database.InferenceLogRepository
	posts     *database.PostRepository
	cats      *database.CategoryRepository
	recipes   *database.RecipeRepository
	videos    *database.VideoRepository
	affils    *database.AffiliateRepository
	subs      *database.SubscriberRepository
}

// New connects to the database and wires every component. Missing provider
// keys are tolerated so the read-only surface still runs.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	dbCfg, err := database.ConfigFrom(cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("connecting to database", "dsn", database.Redact(dbCfg.URL))
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, err
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	a := &App{
		DB:        db,
		Metrics:   collector,
		cfg:       cfg,
		logger:    logger,
		genLogs:   database.NewGenerationLogRepository(db),
		inference: database.NewInferenceLogRepository(db),
		posts:     database.NewPostRepository(db),
		cats:      database.NewCategoryRepository(db),
		recipes:   database.NewRecipeRepository(db),
		videos:    database.NewVideoRepository(db),
		affils:    database.NewAffiliateRepository(db),
		subs:      database.NewSubscriberRepository(db),
	}
	a.recorder = inference.NewLogger(a.inference, logger)

	primary, secondary, images := a.providers()
	var stage *generator.ImageStage
	if images != nil {
		var text llm.Provider = secondary
		if primary != nil {
			text = primary
		}
		stage = generator.NewImageStage(text, images, a.mirror(ctx), logger)
	}

	a.Pipeline = generator.NewPipeline(
		generator.NewOrchestrator(primary, secondary, logger),
		stage,
		generator.Stores{Posts: a.posts, Recipes: a.recipes, Categories: a.cats, Logs: a.genLogs},
		logger,
		generator.WithObserver(collector),
	)

	topics, err := loadTopics(cfg.Cron.TopicsFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Daily = scheduler.NewDailyGate(a.posts, a.cats, a.Pipeline, topics, logger,
		scheduler.WithImages(stage != nil),
		scheduler.WithRunObserver(collector),
	)

	return a, nil
}

// providers builds the text and image backends that have keys configured.
// Nil interface values mark a backend as absent.
func (a *App) providers() (primary, secondary llm.Provider, images llm.ImageProvider) {
	if a.cfg.OpenAI.APIKey != "" {
		o, err := llm.NewOpenAI(llm.OpenAIOptions{
			APIKey:     a.cfg.OpenAI.APIKey,
			Model:      a.cfg.OpenAI.Model,
			ImageModel: a.cfg.OpenAI.ImageModel,
			Timeout:    a.cfg.Generation.Timeout,
			Recorder:   a.recorder,
		})
		if err != nil {
			a.logger.Warn("openai provider disabled", "error", err)
		} else {
			primary, images = o, o
		}
	} else {
		a.logger.Warn("OPENAI_API_KEY not set, primary provider and images disabled")
	}

	if a.cfg.Anthropic.APIKey != "" {
		c, err := llm.NewAnthropic(llm.AnthropicOptions{
			APIKey:   a.cfg.Anthropic.APIKey,
			Model:    a.cfg.Anthropic.Model,
			Timeout:  a.cfg.Generation.Timeout,
			Recorder: a.recorder,
		})
		if err != nil {
			a.logger.Warn("anthropic provider disabled", "error", err)
		} else {
			secondary = c
		}
	} else {
		a.logger.Warn("ANTHROPIC_API_KEY not set, fallback provider disabled")
	}
	return primary, secondary, images
}

// mirror returns the object store for generated images, or nil when storage
// is not configured or unreachable.
func (a *App) mirror(ctx context.Context) generator.ImageMirror {
	if !a.cfg.Storage.Enabled() {
		return nil
	}
	store, err := imagestore.New(a.cfg.Storage, a.logger)
	if err != nil {
		a.logger.Warn("image mirroring disabled", "error", err)
		return nil
	}
	if err := store.EnsureBucket(ctx); err != nil {
		a.logger.Warn("image mirroring disabled", "bucket", a.cfg.Storage.Bucket, "error", err)
		return nil
	}
	return store
}

func loadTopics(path string) (scheduler.Topics, error) {
	if path == "" {
		return scheduler.DefaultTopics(), nil
	}
	return scheduler.LoadTopics(path)
}

// Handler returns the HTTP surface.
func (a *App) Handler() http.Handler {
	return api.SetupRoutes(api.Dependencies{
		Posts:       a.posts,
		Categories:  a.cats,
		Recipes:     a.recipes,
		Videos:      a.videos,
		Affiliates:  a.affils,
		Subscribers: a.subs,
		GenLogs:     a.genLogs,
		Inferences:  a.inference,
		Generator:   a.Pipeline,
		Daily:       a.Daily,
		Auth:        auth.NewConfig(a.cfg.Auth, a.cfg.Cron),
		RateLimit:   a.cfg.RateLimit,
		CORS:        a.cfg.CORS,
		Metrics:     a.Metrics,
		Health: func(ctx context.Context) error {
			return database.HealthCheck(ctx, a.DB)
		},
	}, a.logger)
}

// Runner returns the in-process daily trigger, or nil when no schedule is
// configured.
func (a *App) Runner() (*scheduler.Runner, error) {
	if a.cfg.Cron.Schedule == "" {
		return nil, nil
	}
	return scheduler.NewRunner(a.Daily, a.cfg.Cron.Schedule, a.cfg.Generation.Timeout*3, a.logger)
}

// Close flushes pending call records and closes the database.
func (a *App) Close() {
	a.recorder.Wait()
	if err := a.DB.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
