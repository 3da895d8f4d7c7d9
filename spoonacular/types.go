package spoonacular

import "recipe-api/domain"

type searchResponse struct {
	Results      []searchEntry `json:"results"`
	Offset       int           `json:"offset"`
	Number       int           `json:"number"`
	TotalResults int           `json:"totalResults"`
}

type searchEntry struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Image          string `json:"image"`
	ReadyInMinutes int    `json:"readyInMinutes"`
	Servings       int    `json:"servings"`
}

func (e searchEntry) summary() domain.RecipeSummary {
	return domain.RecipeSummary{
		ID:             e.ID,
		Title:          e.Title,
		Image:          e.Image,
		ReadyInMinutes: e.ReadyInMinutes,
		Servings:       e.Servings,
	}
}

type wireIngredient struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Original string  `json:"original"`
}

type wireNutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type informationResponse struct {
	ID                  int              `json:"id"`
	Title               string           `json:"title"`
	Image               string           `json:"image"`
	Summary             string           `json:"summary"`
	ReadyInMinutes      int              `json:"readyInMinutes"`
	Servings            int              `json:"servings"`
	SourceURL           string           `json:"sourceUrl"`
	Cuisines            []string         `json:"cuisines"`
	Diets               []string         `json:"diets"`
	DishTypes           []string         `json:"dishTypes"`
	ExtendedIngredients []wireIngredient `json:"extendedIngredients"`
	Instructions        string           `json:"instructions"`
	Nutrition           *struct {
		Nutrients []wireNutrient `json:"nutrients"`
	} `json:"nutrition"`
}

func (r informationResponse) recipe() domain.Recipe {
	out := domain.Recipe{
		ID:             r.ID,
		Title:          r.Title,
		Image:          r.Image,
		Summary:        r.Summary,
		ReadyInMinutes: r.ReadyInMinutes,
		Servings:       r.Servings,
		SourceURL:      r.SourceURL,
		Cuisines:       r.Cuisines,
		Diets:          r.Diets,
		DishTypes:      r.DishTypes,
		Instructions:   r.Instructions,
	}
	for _, ing := range r.ExtendedIngredients {
		out.Ingredients = append(out.Ingredients, domain.Ingredient{
			ID:       ing.ID,
			Name:     ing.Name,
			Amount:   ing.Amount,
			Unit:     ing.Unit,
			Original: ing.Original,
		})
	}
	if r.Nutrition != nil {
		for _, n := range r.Nutrition.Nutrients {
			out.Nutrients = append(out.Nutrients, domain.Nutrient{Name: n.Name, Amount: n.Amount, Unit: n.Unit})
		}
	}
	return out
}

type randomResponse struct {
	Recipes []informationResponse `json:"recipes"`
}

type similarEntry struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	ReadyInMinutes int    `json:"readyInMinutes"`
	Servings       int    `json:"servings"`
}

type winePairingResponse struct {
	PairedWines []string `json:"pairedWines"`
	PairingText string   `json:"pairingText"`
}
