package api

import (
	"context"
	"time"

	"recipe-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error)
	SaveFavorite(ctx context.Context, userID string, fav domain.Favorite) error
	DeleteFavorite(ctx context.Context, userID string, recipeID int) error

	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)
	GetCollection(ctx context.Context, userID, id string) (domain.Collection, error)
	CreateCollection(ctx context.Context, userID string, col domain.Collection) error
	UpdateCollection(ctx context.Context, userID string, col domain.Collection) error
	DeleteCollection(ctx context.Context, userID, id string) error

	ListNotes(ctx context.Context, userID string, recipeID int) ([]domain.Note, error)
	GetNote(ctx context.Context, userID, id string) (domain.Note, error)
	CreateNote(ctx context.Context, userID string, note domain.Note) error
	UpdateNote(ctx context.Context, userID string, note domain.Note) error
	DeleteNote(ctx context.Context, userID, id string) error

	GetAnalysis(ctx context.Context, recipeID int) (domain.RecipeAnalysis, error)
	EnqueueAnalysis(ctx context.Context, req domain.AnalysisRequest) error
}

// RecipeSource is the upstream recipe API surface used by the proxy handlers.
type RecipeSource interface {
	Search(ctx context.Context, p domain.SearchParams) (domain.SearchResult, error)
	Information(ctx context.Context, id int, includeNutrition bool) (domain.Recipe, error)
	Random(ctx context.Context, number int, tags []string) ([]domain.Recipe, error)
	Similar(ctx context.Context, id, number int) ([]domain.RecipeSummary, error)
	WinePairing(ctx context.Context, food string) (domain.WinePairing, error)
}

// ContentSource serves CMS blog posts.
type ContentSource interface {
	ListPosts(ctx context.Context, limit int) ([]domain.BlogPost, error)
	PostBySlug(ctx context.Context, slug string) (domain.BlogPost, error)
}

// WeatherSource provides current conditions for the suggestion endpoint.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (domain.Conditions, error)
}

// Modifier produces constraint-driven recipe rewrites.
type Modifier interface {
	ModifyRecipe(ctx context.Context, recipe domain.Recipe, instruction string) (domain.RecipeModification, error)
}

// ResponseCache caches proxied upstream responses and tracks quota usage.
type ResponseCache interface {
	GetJSON(ctx context.Context, key string, v any) bool
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration)
	QuotaPointsToday(ctx context.Context) (float64, error)
	Available(ctx context.Context) bool
}

// NotFoundError marks lookups of entities or recipes that do not exist.
type NotFoundError interface {
	error
	NotFound()
}

// QuotaError marks upstream quota exhaustion, surfaced as HTTP 402.
type QuotaError interface {
	error
	QuotaExceeded()
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents duplicate queued work.
type Deduper interface {
	// Add records the key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}
