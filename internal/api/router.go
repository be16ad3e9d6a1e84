package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"

	"github.com/lmojica26/womenhealthytips.com/internal/auth"
	"github.com/lmojica26/womenhealthytips.com/internal/config"
	"github.com/lmojica26/womenhealthytips.com/internal/metrics"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Posts       PostStore
	Categories  CategoryStore
	Recipes     RecipeReader
	Videos      VideoStore
	Affiliates  AffiliateStore
	Subscribers SubscriberStore
	GenLogs     GenerationLogStore
	Inferences  InferenceLogStore
	Generator   Generator
	Daily       DailyRunner

	Auth      auth.Config
	RateLimit config.RateLimitConfig
	CORS      config.CORSConfig
	Metrics   *metrics.Collector
	// Health reports whether backing services are reachable.
	Health func(ctx context.Context) error
}

// SetupRoutes configures all API routes and returns the wrapped handler.
func SetupRoutes(deps Dependencies, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	posts := NewPostHandler(deps.Posts, logger)
	categories := NewCategoryHandler(deps.Categories, logger)
	content := NewContentHandler(deps.Recipes, deps.Videos, logger)
	var clicks ClickObserver
	if deps.Metrics != nil {
		clicks = deps.Metrics
	}
	affiliates := NewAffiliateHandler(deps.Affiliates, NewRateLimiter(deps.RateLimit.ClickRPM), clicks, logger)
	newsletter := NewNewsletterHandler(deps.Subscribers, logger)
	generation := NewGenerationHandler(deps.Generator, deps.Daily, deps.GenLogs, deps.Inferences, logger)
	authHandler := NewAuthHandler(deps.Auth, logger)

	requireAdmin := auth.AuthMiddleware(deps.Auth)
	admin := func(h http.HandlerFunc) http.Handler { return requireAdmin(h) }

	// Authentication
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.Handle("/api/auth/validate", admin(authHandler.ValidateToken))

	// Content. Reads are public and writes check the attached identity.
	mux.HandleFunc("/api/posts", posts.HandlePosts)
	mux.HandleFunc("/api/posts/{id}", posts.HandlePost)
	mux.HandleFunc("/api/blog/{slug}", posts.GetPostBySlug)
	mux.HandleFunc("/api/categories", categories.HandleCategories)
	mux.HandleFunc("/api/recipes", content.ListRecipes)
	mux.HandleFunc("/api/recipes/{slug}", content.GetRecipe)
	mux.HandleFunc("/api/videos", content.HandleVideos)
	mux.HandleFunc("/api/videos/{slug}", content.GetVideo)
	mux.HandleFunc("/api/affiliates", affiliates.HandleAffiliates)
	mux.HandleFunc("/api/affiliates/{key}", affiliates.HandleAffiliate)

	// Newsletter
	subscribe := NewRateLimiter(deps.RateLimit.NewsletterRPM).Middleware(http.HandlerFunc(newsletter.HandleNewsletter))
	mux.Handle("/api/newsletter", subscribe)
	mux.Handle("/api/newsletter/subscribe", subscribe)

	// AI generation (admin)
	mux.Handle("/api/ai/generate-post", admin(generation.GeneratePost))
	mux.Handle("/api/ai/generate-recipe", admin(generation.GenerateRecipe))
	mux.Handle("/api/ai/generate-image", admin(generation.GenerateImage))
	mux.Handle("/api/admin/generation-logs", admin(generation.ListGenerationLogs))
	mux.Handle("/api/admin/generation-logs/stats", admin(generation.GenerationStats))
	mux.Handle("/api/admin/inference-logs", admin(generation.ListInferenceLogs))

	// Scheduler trigger
	mux.Handle("/api/cron/daily-post", auth.CronMiddleware(deps.Auth)(http.HandlerFunc(generation.DailyPost)))

	mux.HandleFunc("/healthz", healthHandler(deps.Health, logger))
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = deps.Metrics.InstrumentHandler(handler)
	}
	handler = auth.OptionalAuth(deps.Auth)(handler)

	return cors.Handler(cors.Options{
		AllowedOrigins: deps.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})(handler)
}

func healthHandler(check func(context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logger.Warn("health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"}, logger)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
