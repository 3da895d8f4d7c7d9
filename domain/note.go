package domain

// Note is a free-form user note attached to a recipe.
type Note struct {
	ID        string `json:"id"`
	RecipeID  int    `json:"recipeId"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}
