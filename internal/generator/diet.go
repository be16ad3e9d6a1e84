package generator

import "github.com/lmojica26/womenhealthytips.com/internal/models"

// DietType selects the recipe style.
type DietType string

const (
	DietKeto        DietType = "KETO"
	DietVegan       DietType = "VEGAN"
	DietVegetarian  DietType = "VEGETARIAN"
	DietPaleo       DietType = "PALEO"
	DietGlutenFree  DietType = "GLUTEN_FREE"
	DietDairyFree   DietType = "DAIRY_FREE"
	DietLowCarb     DietType = "LOW_CARB"
	DietHighProtein DietType = "HIGH_PROTEIN"
	DietHealthy     DietType = "HEALTHY"
)

var dietNames = map[DietType]string{
	DietKeto:        "Keto",
	DietVegan:       "Vegan",
	DietVegetarian:  "Vegetarian",
	DietPaleo:       "Paleo",
	DietGlutenFree:  "Gluten-Free",
	DietDairyFree:   "Dairy-Free",
	DietLowCarb:     "Low Carb",
	DietHighProtein: "High Protein",
	DietHealthy:     "Healthy",
}

// Name returns the readable diet name used in prompts. Unknown types read
// as "Healthy".
func (d DietType) Name() string {
	if name, ok := dietNames[d]; ok {
		return name
	}
	return dietNames[DietHealthy]
}

// applyFlags sets the recipe's diet booleans. Vegan recipes are also vegetarian.
func (d DietType) applyFlags(r *models.Recipe) {
	r.IsKeto = d == DietKeto
	r.IsVegan = d == DietVegan
	r.IsVegetarian = d == DietVegetarian || d == DietVegan
	r.IsGlutenFree = d == DietGlutenFree
	r.IsDairyFree = d == DietDairyFree
}
