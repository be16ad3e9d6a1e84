package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lmojica26/womenhealthytips.com/internal/auth"
	"github.com/lmojica26/womenhealthytips.com/internal/config"
	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/generator"
	"github.com/lmojica26/womenhealthytips.com/internal/logging"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
	"github.com/lmojica26/womenhealthytips.com/internal/scheduler"
)

const (
	testJWTSecret  = "test-secret"
	testCronSecret = "cron-secret"
)

var testAuth = auth.Config{
	JWTSecret:     testJWTSecret,
	AdminPassword: "hunter2",
	TokenDuration: time.Hour,
	CronSecret:    testCronSecret,
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken(auth.AdminUserID, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func asAdmin(t *testing.T, r *http.Request) *http.Request {
	r.Header.Set("Authorization", "Bearer "+adminToken(t))
	return r
}

// withAuth applies the identity middleware the router installs.
func withAuth(h http.HandlerFunc) http.Handler {
	return auth.OptionalAuth(testAuth)(h)
}

type fakePosts struct {
	mu      sync.Mutex
	posts   map[string]*models.Post
	taken   map[string]bool
	queries []models.PostQuery
	views   int
	created []string
}

func newFakePosts(posts ...*models.Post) *fakePosts {
	f := &fakePosts{posts: map[string]*models.Post{}, taken: map[string]bool{}}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakePosts) Create(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p.Slug)
	if f.taken[p.Slug] {
		return database.ErrSlugTaken
	}
	p.ID = "new-post"
	f.posts[p.ID] = p
	return nil
}

func (f *fakePosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	if p, ok := f.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakePosts) GetBySlug(_ context.Context, s string) (*models.Post, error) {
	for _, p := range f.posts {
		if p.Slug == s {
			cp := *p
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakePosts) List(_ context.Context, q models.PostQuery) ([]models.Post, int, error) {
	f.queries = append(f.queries, q)
	var out []models.Post
	for _, p := range f.posts {
		if q.Status == "" || p.Status == q.Status {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (f *fakePosts) Update(_ context.Context, p *models.Post) error {
	if _, ok := f.posts[p.ID]; !ok {
		return database.ErrNotFound
	}
	f.posts[p.ID] = p
	return nil
}

func (f *fakePosts) Delete(_ context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePosts) IncrementViewCount(context.Context, string) error {
	f.views++
	return nil
}

type fakeCategoryStore struct {
	inUse map[string]bool
	items []models.Category
}

func (f *fakeCategoryStore) List(context.Context) ([]models.Category, error) { return f.items, nil }

func (f *fakeCategoryStore) GetByID(_ context.Context, id string) (*models.Category, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeCategoryStore) Create(_ context.Context, c *models.Category) error {
	c.ID = "cat-new"
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeCategoryStore) Update(context.Context, *models.Category) error { return nil }

func (f *fakeCategoryStore) Delete(_ context.Context, id string) error {
	if f.inUse[id] {
		return database.ErrCategoryInUse
	}
	if _, err := f.GetByID(context.Background(), id); err != nil {
		return err
	}
	return nil
}

type fakeAffiliates struct {
	links  map[string]*models.AffiliateLink
	clicks int
}

func (f *fakeAffiliates) List(context.Context, models.AffiliateQuery) ([]models.AffiliateLink, error) {
	var out []models.AffiliateLink
	for _, l := range f.links {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeAffiliates) GetByIDOrShortCode(_ context.Context, key string) (*models.AffiliateLink, error) {
	for _, l := range f.links {
		if l.ID == key || l.ShortCode == key {
			return l, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeAffiliates) Create(_ context.Context, l *models.AffiliateLink) error {
	l.ID = "aff-new"
	f.links[l.ID] = l
	return nil
}

func (f *fakeAffiliates) Update(context.Context, *models.AffiliateLink) error { return nil }
func (f *fakeAffiliates) Delete(context.Context, string) error                { return nil }

func (f *fakeAffiliates) IncrementClicks(context.Context, string) error {
	f.clicks++
	return nil
}

type countingClicks struct{ n int }

func (c *countingClicks) ObserveClick() { c.n++ }

type fakeSubscribers struct {
	outcome database.SubscribeOutcome
	err     error
	got     []*models.NewsletterSubscriber
	known   map[string]bool
}

func (f *fakeSubscribers) Subscribe(_ context.Context, s *models.NewsletterSubscriber) (database.SubscribeOutcome, error) {
	f.got = append(f.got, s)
	return f.outcome, f.err
}

func (f *fakeSubscribers) Unsubscribe(_ context.Context, email string) error {
	if !f.known[email] {
		return database.ErrNotFound
	}
	return nil
}

type fakeGenerator struct {
	posts []generator.PostRequest
	err   error
}

func (f *fakeGenerator) GeneratePost(_ context.Context, req generator.PostRequest) (*generator.PostResult, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, generator.ErrEmptyTopic
	}
	f.posts = append(f.posts, req)
	if f.err != nil {
		return nil, f.err
	}
	return &generator.PostResult{Post: &models.Post{ID: "p1", Title: req.Topic, Slug: "sleep"}}, nil
}

func (f *fakeGenerator) GenerateRecipe(_ context.Context, req generator.RecipeRequest) (*generator.RecipeResult, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, generator.ErrEmptyTopic
	}
	return &generator.RecipeResult{Recipe: &models.Recipe{ID: "r1"}}, f.err
}

func (f *fakeGenerator) GenerateImage(_ context.Context, req generator.ImageRequest) (*generator.ImageResult, error) {
	if req.Prompt == "" && req.Title == "" {
		return nil, generator.ErrImageInput
	}
	if f.err != nil {
		return nil, f.err
	}
	return &generator.ImageResult{URL: "https://img.example/x.png", Prompt: req.Prompt}, nil
}

type fakeDaily struct {
	out   *scheduler.Outcome
	err   error
	calls int
}

func (f *fakeDaily) Run(context.Context) (*scheduler.Outcome, error) {
	f.calls++
	return f.out, f.err
}

func testRouter(deps Dependencies) http.Handler {
	deps.Auth = testAuth
	if deps.RateLimit == (config.RateLimitConfig{}) {
		deps.RateLimit = config.RateLimitConfig{ClickRPM: 120, NewsletterRPM: 60}
	}
	deps.CORS = config.CORSConfig{AllowedOrigins: []string{"*"}}
	return SetupRoutes(deps, logging.Discard())
}
