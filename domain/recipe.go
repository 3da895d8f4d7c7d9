package domain

// RecipeSummary is the card-sized projection returned by search and
// suggestion endpoints.
type RecipeSummary struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Image          string `json:"image,omitempty"`
	ReadyInMinutes int    `json:"readyInMinutes,omitempty"`
	Servings       int    `json:"servings,omitempty"`
}

// SearchResult mirrors the paged shape of the upstream search endpoint.
type SearchResult struct {
	Results      []RecipeSummary `json:"results"`
	Offset       int             `json:"offset"`
	Number       int             `json:"number"`
	TotalResults int             `json:"totalResults"`
}

// SearchParams carries the validated query parameters for a recipe search.
type SearchParams struct {
	Query        string
	Cuisine      string
	Diet         string
	Intolerances string
	MaxReadyTime int
	Offset       int
	Number       int
}

// HasFilter reports whether at least one narrowing filter is present.
func (p SearchParams) HasFilter() bool {
	return p.Query != "" || p.Cuisine != "" || p.Diet != "" || p.Intolerances != ""
}

// Ingredient is a single entry of a recipe's ingredient list.
type Ingredient struct {
	ID       int     `json:"id,omitempty"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Original string  `json:"original,omitempty"`
}

// Nutrient is a single nutrition fact (calories, protein, ...).
type Nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Recipe is the full recipe detail served by the information endpoint.
type Recipe struct {
	ID             int          `json:"id"`
	Title          string       `json:"title"`
	Image          string       `json:"image,omitempty"`
	Summary        string       `json:"summary,omitempty"`
	ReadyInMinutes int          `json:"readyInMinutes,omitempty"`
	Servings       int          `json:"servings,omitempty"`
	SourceURL      string       `json:"sourceUrl,omitempty"`
	Cuisines       []string     `json:"cuisines,omitempty"`
	Diets          []string     `json:"diets,omitempty"`
	DishTypes      []string     `json:"dishTypes,omitempty"`
	Ingredients    []Ingredient `json:"ingredients,omitempty"`
	Instructions   string       `json:"instructions,omitempty"`
	Nutrients      []Nutrient   `json:"nutrients,omitempty"`
}

// WinePairing is the upstream wine pairing for a food term.
type WinePairing struct {
	PairedWines []string `json:"pairedWines"`
	PairingText string   `json:"pairingText,omitempty"`
}
