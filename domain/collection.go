package domain

// SavedRecipe is a lightweight recipe reference held inside a collection.
type SavedRecipe struct {
	RecipeID int    `json:"recipeId"`
	Title    string `json:"title"`
	Image    string `json:"image,omitempty"`
	AddedAt  int64  `json:"addedAt"`
}

// Collection is a user-curated group of recipes.
type Collection struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Recipes     []SavedRecipe `json:"recipes"`
	CreatedAt   int64         `json:"createdAt"`
	UpdatedAt   int64         `json:"updatedAt"`
}

// Contains reports whether the collection already references the recipe.
func (c Collection) Contains(recipeID int) bool {
	for _, r := range c.Recipes {
		if r.RecipeID == recipeID {
			return true
		}
	}
	return false
}
