package domain

// Analysis status values.
const (
	AnalysisPending = "pending"
	AnalysisReady   = "ready"
	AnalysisFailed  = "failed"
)

// Substitution is a single ingredient swap proposed by an analysis.
type Substitution struct {
	Ingredient  string `json:"ingredient"`
	ReplaceWith string `json:"replaceWith"`
	Reason      string `json:"reason,omitempty"`
}

// RecipeAnalysis is the model-generated breakdown of a recipe.
type RecipeAnalysis struct {
	RecipeID      int            `json:"recipeId"`
	RequestID     string         `json:"requestId"`
	Status        string         `json:"status"`
	Summary       string         `json:"summary,omitempty"`
	HealthScore   int            `json:"healthScore,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Substitutions []Substitution `json:"substitutions,omitempty"`
	GeneratedAt   int64          `json:"generatedAt,omitempty"`
}

// AnalysisRequest is the queued unit of work for the analysis processor.
type AnalysisRequest struct {
	RequestID string `json:"requestId"`
	UserID    string `json:"userId"`
	RecipeID  int    `json:"recipeId"`
}

// RecipeModification is a constraint-driven rewrite of a recipe.
type RecipeModification struct {
	RecipeID    int      `json:"recipeId"`
	Instruction string   `json:"instruction"`
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Notes       string   `json:"notes,omitempty"`
}
