package generator

import (
	"context"
	"errors"
	"sync"

	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/llm"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

var errNetwork = errors.New("NetworkError: connection reset")

type fakeProvider struct {
	name       string
	model      string
	constrains bool
	text       string
	err        error
	// onCall runs before the response, e.g. to cancel the caller's context.
	onCall func()

	mu       sync.Mutex
	requests []llm.Request
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) Model() string        { return f.model }
func (f *fakeProvider) ConstrainsJSON() bool { return f.constrains }

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (llm.Completion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	return llm.Completion{Text: f.text, Model: f.model, InputTokens: 100, OutputTokens: 50}, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func openAI(text string, err error) *fakeProvider {
	return &fakeProvider{name: llm.ProviderOpenAI, model: "gpt-4-turbo-preview", constrains: true, text: text, err: err}
}

func claude(text string, err error) *fakeProvider {
	return &fakeProvider{name: llm.ProviderAnthropic, model: "claude-sonnet-4-20250514", text: text, err: err}
}

type fakeImages struct {
	url   string
	err   error
	calls int
}

func (f *fakeImages) ImageModel() string { return "dall-e-3" }

func (f *fakeImages) GenerateImage(context.Context, llm.ImageRequest) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakePostStore struct {
	// taken lists slugs that collide on insert.
	taken     map[string]bool
	daily     bool
	createErr error
	attempts  []string
	created   []*models.Post
	images    map[string]string
}

func (s *fakePostStore) Create(_ context.Context, p *models.Post) error {
	s.attempts = append(s.attempts, p.Slug)
	if s.createErr != nil {
		return s.createErr
	}
	if s.taken[p.Slug] {
		return database.ErrSlugTaken
	}
	if p.DailySlot != nil && s.daily {
		return database.ErrDailySlotTaken
	}
	p.ID = "post-1"
	s.created = append(s.created, p)
	return nil
}

func (s *fakePostStore) UpdateFeaturedImage(_ context.Context, id, url, _ string) error {
	if s.images == nil {
		s.images = map[string]string{}
	}
	s.images[id] = url
	return nil
}

type fakeRecipeStore struct {
	created []*models.Recipe
}

func (s *fakeRecipeStore) Create(_ context.Context, r *models.Recipe) error {
	r.ID = "recipe-1"
	s.created = append(s.created, r)
	return nil
}

type fakeCategories map[string]*models.Category

func (c fakeCategories) GetByID(_ context.Context, id string) (*models.Category, error) {
	if cat, ok := c[id]; ok {
		return cat, nil
	}
	return nil, database.ErrNotFound
}

type fakeLogs struct {
	err     error
	entries []*models.GenerationLog
}

// Create rejects a done context the way database/sql does.
func (l *fakeLogs) Create(ctx context.Context, e *models.GenerationLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.entries = append(l.entries, e)
	return l.err
}

type recordingObserver struct {
	outcomes []bool
}

func (o *recordingObserver) ObserveGeneration(_, _ string, success, _ bool) {
	o.outcomes = append(o.outcomes, success)
}
