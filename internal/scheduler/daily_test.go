package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmojica26/womenhealthytips.com/internal/database"
	"github.com/lmojica26/womenhealthytips.com/internal/generator"
	"github.com/lmojica26/womenhealthytips.com/internal/logging"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

type fakeCounter struct {
	count int
	err   error
	since time.Time
}

func (c *fakeCounter) CountAIGeneratedSince(_ context.Context, since time.Time) (int, error) {
	c.since = since
	return c.count, c.err
}

type fakeFinder map[string]*models.Category

func (f fakeFinder) FindByName(_ context.Context, name string) (*models.Category, error) {
	if c, ok := f[name]; ok {
		return c, nil
	}
	return nil, database.ErrNotFound
}

type fakeGenerator struct {
	err      error
	requests []generator.PostRequest
	failures []string
}

func (g *fakeGenerator) GeneratePost(_ context.Context, req generator.PostRequest) (*generator.PostResult, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &generator.PostResult{
		Post:  &models.Post{ID: "p1", Title: "T", Slug: "t", Status: models.StatusPublished},
		Model: "gpt-4-turbo-preview",
	}, nil
}

func (g *fakeGenerator) LogFailure(_ context.Context, _ models.GenerationType, prompt, _ string, _ error) {
	g.failures = append(g.failures, prompt)
}

type runs []string

func (r *runs) ObserveDailyRun(result string) { *r = append(*r, result) }

var gateNow = time.Date(2025, time.January, 29, 6, 0, 0, 0, time.UTC)

func newGate(counter *fakeCounter, finder fakeFinder, gen *fakeGenerator, obs *runs) *DailyGate {
	return NewDailyGate(counter, finder, gen, DefaultTopics(), logging.Discard(),
		WithNow(func() time.Time { return gateNow }),
		WithRunObserver(obs),
		WithImages(true),
	)
}

func TestTopicIndex(t *testing.T) {
	day1 := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.Local)
	day29 := time.Date(2025, time.January, 29, 12, 0, 0, 0, time.Local)

	assert.Equal(t, 1, TopicIndex(day1, 28))
	assert.Equal(t, 1, TopicIndex(day29, 28))
	assert.Equal(t, 0, TopicIndex(time.Date(2025, time.January, 28, 0, 0, 0, 0, time.Local), 28))
}

func TestTopicsRepeatAfterFullCycle(t *testing.T) {
	topics := DefaultTopics()
	require.Len(t, topics, 29)

	start := time.Date(2025, time.February, 3, 9, 0, 0, 0, time.Local)
	seen := map[string]bool{}
	for i := 0; i < len(topics); i++ {
		seen[topics.For(start.AddDate(0, 0, i)).Topic] = true
	}
	assert.Len(t, seen, len(topics))
	assert.Equal(t, topics.For(start), topics.For(start.AddDate(0, 0, len(topics))))
}

func TestParseTopics(t *testing.T) {
	topics, err := ParseTopics([]byte("- topic: Sleep\n  category: wellness\n"))
	require.NoError(t, err)
	assert.Equal(t, Topics{{Topic: "Sleep", Category: "wellness"}}, topics)

	_, err = ParseTopics([]byte("[]"))
	assert.Error(t, err)

	_, err = ParseTopics([]byte("- category: wellness\n"))
	assert.Error(t, err)
}

func TestDailyGateCreatesPost(t *testing.T) {
	counter := &fakeCounter{}
	wellness := &models.Category{ID: "c1", Name: "Wellness"}
	gen := &fakeGenerator{}
	var obs runs

	out, err := newGate(counter, fakeFinder{"nutrition": wellness}, gen, &obs).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, out.Skipped)
	assert.Equal(t, "p1", out.Post.ID)
	assert.Equal(t, time.Date(2025, time.January, 29, 0, 0, 0, 0, time.UTC), counter.since)

	// Day 29 of a 29-topic list wraps to the first entry.
	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "Essential vitamins every woman needs", req.Topic)
	assert.Same(t, wellness, req.Category)
	assert.True(t, req.Daily)
	assert.True(t, req.UseImage)
	assert.Equal(t, runs{ResultCreated}, obs)
}

func TestDailyGateSkipsWithoutWrites(t *testing.T) {
	gen := &fakeGenerator{}
	var obs runs

	out, err := newGate(&fakeCounter{count: 1}, fakeFinder{}, gen, &obs).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, gen.requests)
	assert.Empty(t, gen.failures)
	assert.Equal(t, runs{ResultSkipped}, obs)
}

func TestDailyGateFallsBackToDefaultCategory(t *testing.T) {
	gen := &fakeGenerator{}

	_, err := newGate(&fakeCounter{}, fakeFinder{}, gen, &runs{}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, gen.requests, 1)
	assert.Nil(t, gen.requests[0].Category)
}

func TestDailyGateLostSlotRaceIsSkipped(t *testing.T) {
	gen := &fakeGenerator{err: database.ErrDailySlotTaken}
	var obs runs

	out, err := newGate(&fakeCounter{}, fakeFinder{}, gen, &obs).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, runs{ResultSkipped}, obs)
	assert.Empty(t, gen.failures)
}

func TestDailyGateGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: generator.ErrGenerationFailed}
	var obs runs

	_, err := newGate(&fakeCounter{}, fakeFinder{}, gen, &obs).Run(context.Background())
	assert.ErrorIs(t, err, generator.ErrGenerationFailed)
	assert.Equal(t, runs{ResultFailed}, obs)
}

func TestDailyGateCountFailureIsLogged(t *testing.T) {
	gen := &fakeGenerator{}
	var obs runs

	_, err := newGate(&fakeCounter{err: errors.New("db down")}, fakeFinder{}, gen, &obs).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, gen.requests)
	assert.Equal(t, []string{"daily-cron"}, gen.failures)
	assert.Equal(t, runs{ResultFailed}, obs)
}

func TestNewRunnerRejectsBadSchedule(t *testing.T) {
	gate := newGate(&fakeCounter{}, fakeFinder{}, &fakeGenerator{}, &runs{})

	_, err := NewRunner(gate, "every day", time.Minute, logging.Discard())
	assert.Error(t, err)

	_, err = NewRunner(gate, "0 6 * * *", time.Minute, logging.Discard())
	assert.NoError(t, err)
}
