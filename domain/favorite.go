package domain

// Favorite is a single bookmarked recipe.
type Favorite struct {
	RecipeID int    `json:"recipeId"`
	Title    string `json:"title"`
	Image    string `json:"image,omitempty"`
	SavedAt  int64  `json:"savedAt"`
}
