package api

const postBodyMaxSize = 64 * 1024 // 64 KiB

type favoriteRequest struct {
	RecipeID int    `json:"recipeId"`
	Title    string `json:"title"`
	Image    string `json:"image"`
}

type collectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type collectionRecipeRequest struct {
	RecipeID int    `json:"recipeId"`
	Title    string `json:"title"`
	Image    string `json:"image"`
}

type noteRequest struct {
	RecipeID int    `json:"recipeId"`
	Text     string `json:"text"`
}

type modificationRequest struct {
	Instruction string `json:"instruction"`
}

// POST /api/recipes/:id/analysis response body
type analysisAcceptedResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Status    string `json:"status"`
}
