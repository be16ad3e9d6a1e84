package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

const scenarioPost = `{"title":"T","excerpt":"E","content":"<p>C</p>","keywords":["a"],"readingTime":3}`

func TestGenerateBlogPostShape(t *testing.T) {
	p := openAI(scenarioPost, nil)

	post, c, err := GenerateBlogPost(context.Background(), p, "Sleep hygiene", "")
	require.NoError(t, err)
	assert.Equal(t, BlogPost{Title: "T", Excerpt: "E", Content: "<p>C</p>", Keywords: []string{"a"}, ReadingTime: 3}, post)
	assert.Equal(t, 150, c.TotalTokens())

	require.Equal(t, 1, p.calls())
	req := p.requests[0]
	assert.True(t, req.JSON)
	assert.Equal(t, 4000, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.Contains(t, req.User, `"Sleep hygiene" for the Health & Wellness category`)
}

func TestGenerateBlogPostExtractsJSONFromProse(t *testing.T) {
	p := claude("Here is your post:\n```json\n"+scenarioPost+"\n```\nEnjoy!", nil)

	post, _, err := GenerateBlogPost(context.Background(), p, "Sleep", "Wellness")
	require.NoError(t, err)
	assert.Equal(t, "T", post.Title)
}

func TestGenerateBlogPostComputesMissingReadingTime(t *testing.T) {
	p := openAI(`{"title":"T","excerpt":"E","content":"<p>one two three</p>","keywords":[]}`, nil)

	post, _, err := GenerateBlogPost(context.Background(), p, "Sleep", "")
	require.NoError(t, err)
	assert.Equal(t, 1, post.ReadingTime)
	assert.Equal(t, []string{}, post.Keywords)
}

func TestGenerateBlogPostFailures(t *testing.T) {
	tests := map[string]*fakeProvider{
		"backend error":    openAI("", errNetwork),
		"not json":         openAI("sorry, I cannot help", nil),
		"no json in prose": claude("sorry, I cannot help", nil),
		"missing title":    openAI(`{"excerpt":"E","content":"C","keywords":["a"]}`, nil),
		"missing content":  openAI(`{"title":"T","excerpt":"E","keywords":["a"]}`, nil),
		"missing keywords": openAI(`{"title":"T","excerpt":"E","content":"C"}`, nil),
		"wrong types":      openAI(`{"title":1,"excerpt":"E","content":"C","keywords":["a"]}`, nil),
	}

	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			post, _, err := GenerateBlogPost(context.Background(), p, "Sleep", "")
			assert.ErrorIs(t, err, ErrGenerationFailed)
			assert.Zero(t, post)
		})
	}
}

func TestGenerateBlogPostRejectsEmptyTopicWithoutCalling(t *testing.T) {
	p := openAI(scenarioPost, nil)

	_, _, err := GenerateBlogPost(context.Background(), p, "  ", "")
	assert.ErrorIs(t, err, ErrEmptyTopic)
	assert.Zero(t, p.calls())
}

func TestGenerateRecipe(t *testing.T) {
	p := openAI(`{
		"title": "Green Smoothie Bowl",
		"excerpt": "Fresh and fast.",
		"prepTime": 10, "cookTime": 0, "servings": 2,
		"difficulty": "easy",
		"ingredients": ["1 banana", " ", "1 cup spinach"],
		"instructions": ["Blend", "Serve"],
		"calories": 320.4, "protein": 12.5, "fiber": 8,
		"tips": "<ul><li>Freeze the banana</li></ul>",
		"keywords": ["smoothie"]
	}`, nil)

	rc, _, err := GenerateRecipe(context.Background(), p, "smoothie bowl", DietVegan.Name())
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyEasy, rc.Difficulty)
	assert.Equal(t, []string{"1 banana", "1 cup spinach"}, rc.Ingredients)
	assert.Equal(t, 10, rc.TotalTime)
	assert.Equal(t, 320, rc.Calories)
	require.NotNil(t, rc.Protein)
	assert.InDelta(t, 12.5, *rc.Protein, 1e-9)
	assert.Nil(t, rc.Carbs)
	assert.Contains(t, p.requests[0].User, `Create a healthy Vegan recipe for "smoothie bowl"`)
	assert.Equal(t, 3000, p.requests[0].MaxTokens)
}

func TestGenerateRecipeRequiresMetricsAndSteps(t *testing.T) {
	tests := map[string]string{
		"missing servings":     `{"title":"T","excerpt":"E","prepTime":1,"cookTime":1,"calories":1,"ingredients":["a"],"instructions":["b"]}`,
		"missing ingredients":  `{"title":"T","excerpt":"E","prepTime":1,"cookTime":1,"servings":1,"calories":1,"instructions":["b"]}`,
		"empty instructions":   `{"title":"T","excerpt":"E","prepTime":1,"cookTime":1,"servings":1,"calories":1,"ingredients":["a"],"instructions":[]}`,
		"negative prep time":   `{"title":"T","excerpt":"E","prepTime":-1,"cookTime":1,"servings":1,"calories":1,"ingredients":["a"],"instructions":["b"]}`,
		"missing recipe title": `{"excerpt":"E","prepTime":1,"cookTime":1,"servings":1,"calories":1,"ingredients":["a"],"instructions":["b"]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rc, _, err := GenerateRecipe(context.Background(), openAI(body, nil), "soup", "")
			assert.ErrorIs(t, err, ErrGenerationFailed)
			assert.ErrorIs(t, err, ErrIncomplete)
			assert.Zero(t, rc.Title)
		})
	}
}

func TestDietTypes(t *testing.T) {
	assert.Equal(t, "Gluten-Free", DietGlutenFree.Name())
	assert.Equal(t, "Healthy", DietType("CARNIVORE").Name())

	var r models.Recipe
	DietVegan.applyFlags(&r)
	assert.True(t, r.IsVegan)
	assert.True(t, r.IsVegetarian)
	assert.False(t, r.IsKeto)

	DietKeto.applyFlags(&r)
	assert.True(t, r.IsKeto)
	assert.False(t, r.IsVegan)
	assert.False(t, r.IsVegetarian)
}
