package generator

import "fmt"

// DefaultCategory labels content whose category is unknown.
const DefaultCategory = "Health & Wellness"

// RecipeImageCategory is the category passed to the image stage for recipes.
const RecipeImageCategory = "Healthy Recipes"

const (
	blogTemperature   = 0.7
	blogMaxTokens     = 4000
	recipeMaxTokens   = 3000
	imagePromptTokens = 200

	imageSize    = "1792x1024"
	imageQuality = "standard"
)

const blogSystemPrompt = `You are an expert health and wellness writer for Women's Health Tips, a website dedicated to empowering women with evidence-based health information. Write in a friendly, approachable, yet authoritative tone. Your content should be:

- Engaging and easy to read
- Based on current health research
- Practical with actionable tips
- Sensitive to women's health concerns
- SEO-optimized with natural keyword integration

Always include a compelling introduction, well-structured body with subheadings, and a motivating conclusion.`

const blogUserTemplate = `Write a comprehensive blog post about "%s" for the %s category.

Requirements:
1. Create an engaging title (60-70 characters)
2. Write a compelling excerpt/meta description (150-160 characters)
3. Structure the content with H2 and H3 headings
4. Include 5-7 practical tips or key points
5. Add a brief introduction and conclusion
6. Target word count: 1000-1500 words
7. Suggest 5-8 relevant keywords

Return the response in the following JSON format only (no markdown, no explanations):
{
  "title": "...",
  "excerpt": "...",
  "content": "... (HTML formatted with h2, h3, p, ul, li tags)",
  "keywords": ["keyword1", "keyword2", ...],
  "readingTime": <number in minutes>
}`

const recipeSystemPrompt = `You are a professional nutritionist and recipe developer for Women's Health Tips. Create delicious, healthy recipes that are:

- Nutritionally balanced
- Easy to follow with clear instructions
- Suitable for home cooks
- Focused on whole, healthy ingredients
- Aligned with the specified diet type

Include accurate nutrition information and practical cooking tips.`

const recipeUserTemplate = `Create a healthy %s recipe for "%s".

Requirements:
1. Recipe title (descriptive and appealing)
2. Brief description (2-3 sentences)
3. Prep time, cook time, total time (in minutes)
4. Number of servings
5. Difficulty level (EASY, MEDIUM, or HARD)
6. Complete ingredient list with measurements
7. Step-by-step instructions
8. Nutrition facts per serving (calories, protein, carbs, fat, fiber)
9. 3-5 helpful cooking tips

Return the response in the following JSON format only (no markdown, no explanations):
{
  "title": "...",
  "excerpt": "...",
  "prepTime": <number>,
  "cookTime": <number>,
  "totalTime": <number>,
  "servings": <number>,
  "difficulty": "EASY" | "MEDIUM" | "HARD",
  "ingredients": ["ingredient 1", "ingredient 2", ...],
  "instructions": ["step 1", "step 2", ...],
  "calories": <number>,
  "protein": <number>,
  "carbs": <number>,
  "fat": <number>,
  "fiber": <number>,
  "tips": "... (HTML formatted tips)",
  "keywords": ["keyword1", "keyword2", ...]
}`

const imagePromptSystem = "You are an expert at creating image prompts for DALL-E. Create descriptive, detailed prompts that will generate beautiful, professional images for a women's health and wellness blog."

const imagePromptTemplate = `Create a DALL-E image prompt for a blog post titled "%s" in the %s category. The image should be appropriate for a women's health website with a modern, clean aesthetic. Return only the prompt, no explanations.`

const imageStyleTemplate = `Professional, high-quality photograph for a women's health and wellness blog: %s. Style: bright, clean, modern wellness aesthetic with soft natural lighting. Colors: incorporate soft greens and pinks. No text or logos.`

func blogUserPrompt(topic, category string) string {
	return fmt.Sprintf(blogUserTemplate, topic, category)
}

func recipeUserPrompt(topic, dietName string) string {
	return fmt.Sprintf(recipeUserTemplate, dietName, topic)
}

func imagePromptRequest(title, category string) string {
	return fmt.Sprintf(imagePromptTemplate, title, category)
}

func fallbackImagePrompt(title string) string {
	return "Healthy lifestyle image for " + title
}

func styledImagePrompt(prompt string) string {
	return fmt.Sprintf(imageStyleTemplate, prompt)
}
