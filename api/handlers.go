package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"recipe-api/domain"
)

// Cache TTLs for proxied upstream responses. Random recipes are never
// cached; caching would defeat the endpoint.
const (
	searchCacheTTL      = 10 * time.Minute
	informationCacheTTL = 6 * time.Hour
	similarCacheTTL     = 6 * time.Hour
	winePairingCacheTTL = 24 * time.Hour
	blogCacheTTL        = 15 * time.Minute
	weatherCacheTTL     = 30 * time.Minute
)

const (
	defaultSearchNumber  = 12
	maxSearchNumber      = 100
	defaultRandomNumber  = 6
	maxRandomNumber      = 25
	defaultSimilarNumber = 8
	maxSimilarNumber     = 20
)

// Deps bundles the collaborators the route handlers need.
type Deps struct {
	Recipes  RecipeSource
	Content  ContentSource
	Weather  WeatherSource
	Modifier Modifier
	Store    Storage
	Cache    ResponseCache
	Auth     Authenticator
	Deduper  Deduper
	Version  string
	Log      *log.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/api/recipes/search", searchRecipes(d.Recipes, d.Cache, d.Log))
	e.GET("/api/recipes/random", randomRecipes(d.Recipes))
	e.GET("/api/recipes/:id/information", recipeInformation(d.Recipes, d.Cache))
	e.GET("/api/recipes/:id/similar", similarRecipes(d.Recipes, d.Cache))
	e.GET("/api/food/wine/pairing", winePairing(d.Recipes, d.Cache))
	e.GET("/api/weather/suggestions", weatherSuggestions(d.Weather, d.Recipes, d.Cache))
	e.GET("/api/blog", listBlogPosts(d.Content, d.Cache))
	e.GET("/api/blog/:slug", blogPostBySlug(d.Content, d.Cache))
	e.GET("/api/status", getStatus(d.Cache, d.Version))

	e.GET("/api/favorites", listFavorites(d.Store, d.Auth))
	e.POST("/api/favorites", saveFavorite(d.Store, d.Auth), DecompressRequests())
	e.DELETE("/api/favorites/:recipeId", deleteFavorite(d.Store, d.Auth))

	e.GET("/api/collections", listCollections(d.Store, d.Auth))
	e.POST("/api/collections", createCollection(d.Store, d.Auth), DecompressRequests())
	e.GET("/api/collections/:id", getCollection(d.Store, d.Auth))
	e.PUT("/api/collections/:id", updateCollection(d.Store, d.Auth), DecompressRequests())
	e.DELETE("/api/collections/:id", deleteCollection(d.Store, d.Auth))
	e.POST("/api/collections/:id/recipes", addCollectionRecipe(d.Store, d.Auth), DecompressRequests())
	e.DELETE("/api/collections/:id/recipes/:recipeId", removeCollectionRecipe(d.Store, d.Auth))

	e.GET("/api/notes", listNotes(d.Store, d.Auth))
	e.POST("/api/notes", createNote(d.Store, d.Auth), DecompressRequests())
	e.PUT("/api/notes/:id", updateNote(d.Store, d.Auth), DecompressRequests())
	e.DELETE("/api/notes/:id", deleteNote(d.Store, d.Auth))

	e.GET("/api/recipes/:id/analysis", getAnalysis(d.Store, d.Auth))
	e.POST("/api/recipes/:id/analysis", requestAnalysis(d.Store, d.Auth, d.Deduper))
	e.POST("/api/recipes/:id/modifications", modifyRecipe(d.Recipes, d.Modifier, d.Auth), DecompressRequests())

	e.GET("/healthz", healthz())

	initAnalysisSender(d.Store, d.Deduper, d.Log)
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// upstreamError maps recipe source failures to the response contract:
// quota exhaustion passes through as 402, unknown ids as 404, the rest as
// a generic 500.
func upstreamError(c echo.Context, err error) error {
	var quotaErr QuotaError
	if errors.As(err, &quotaErr) {
		return c.JSON(http.StatusPaymentRequired, errorResponse{Error: "recipe API quota exceeded"})
	}
	var notFoundErr NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "upstream request failed"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func searchRecipes(recipes RecipeSource, cache ResponseCache, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newSearchRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		params, parseErr := parseSearchParams(c)
		if parseErr != "" {
			metrics.SetErrorStage("validation")
			err = badRequest(c, parseErr)
			return err
		}

		key := searchCacheKey(params)
		var result domain.SearchResult
		if cache != nil && cache.GetJSON(ctx, key, &result) {
			metrics.SetCacheHit(true)
			metrics.SetResultsReturned(len(result.Results))
			err = c.JSON(http.StatusOK, result)
			return err
		}

		fetchStart := time.Now()
		result, fetchErr := recipes.Search(ctx, params)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("upstream")
			err = upstreamError(c, fetchErr)
			return err
		}
		if cache != nil {
			cache.SetJSON(ctx, key, result, searchCacheTTL)
		}

		metrics.SetResultsReturned(len(result.Results))
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, result)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

// parseSearchParams validates the search query string. It returns a
// non-empty message describing the first violation.
func parseSearchParams(c echo.Context) (domain.SearchParams, string) {
	p := domain.SearchParams{
		Query:        strings.TrimSpace(c.QueryParam("query")),
		Cuisine:      strings.TrimSpace(c.QueryParam("cuisine")),
		Diet:         strings.TrimSpace(c.QueryParam("diet")),
		Intolerances: strings.TrimSpace(c.QueryParam("intolerances")),
		Number:       defaultSearchNumber,
	}
	if !p.HasFilter() {
		return p, "at least one of query, cuisine, diet or intolerances is required"
	}
	if raw := c.QueryParam("maxReadyTime"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return p, "invalid maxReadyTime"
		}
		p.MaxReadyTime = n
	}
	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, "invalid offset"
		}
		p.Offset = n
	}
	if raw := c.QueryParam("number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSearchNumber {
			return p, "invalid number"
		}
		p.Number = n
	}
	return p, ""
}

// searchCacheKey derives a stable key from the normalized parameter set.
func searchCacheKey(p domain.SearchParams) string {
	v := url.Values{}
	if p.Query != "" {
		v.Set("q", strings.ToLower(p.Query))
	}
	if p.Cuisine != "" {
		v.Set("cuisine", strings.ToLower(p.Cuisine))
	}
	if p.Diet != "" {
		v.Set("diet", strings.ToLower(p.Diet))
	}
	if p.Intolerances != "" {
		v.Set("intolerances", strings.ToLower(p.Intolerances))
	}
	if p.MaxReadyTime > 0 {
		v.Set("maxReadyTime", strconv.Itoa(p.MaxReadyTime))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	v.Set("number", strconv.Itoa(p.Number))
	return "search:" + v.Encode()
}

func recipeIDParam(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func recipeInformation(recipes RecipeSource, cache ResponseCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, ok := recipeIDParam(c)
		if !ok {
			return badRequest(c, "invalid recipe id")
		}
		includeNutrition := false
		if raw := c.QueryParam("includeNutrition"); raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return badRequest(c, "invalid includeNutrition")
			}
			includeNutrition = b
		}

		key := "recipe:" + strconv.Itoa(id) + ":info"
		if includeNutrition {
			key += ":nutrition"
		}
		var recipe domain.Recipe
		if cache != nil && cache.GetJSON(ctx, key, &recipe) {
			return c.JSON(http.StatusOK, recipe)
		}

		recipe, err := recipes.Information(ctx, id, includeNutrition)
		if err != nil {
			return upstreamError(c, err)
		}
		if cache != nil {
			cache.SetJSON(ctx, key, recipe, informationCacheTTL)
		}
		return c.JSON(http.StatusOK, recipe)
	}
}

func randomRecipes(recipes RecipeSource) echo.HandlerFunc {
	return func(c echo.Context) error {
		number := defaultRandomNumber
		if raw := c.QueryParam("number"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxRandomNumber {
				return badRequest(c, "invalid number")
			}
			number = n
		}
		var tags []string
		if raw := strings.TrimSpace(c.QueryParam("tags")); raw != "" {
			for _, tag := range strings.Split(raw, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					tags = append(tags, tag)
				}
			}
		}

		result, err := recipes.Random(c.Request().Context(), number, tags)
		if err != nil {
			return upstreamError(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]domain.Recipe{"recipes": result})
	}
}

func similarRecipes(recipes RecipeSource, cache ResponseCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id, ok := recipeIDParam(c)
		if !ok {
			return badRequest(c, "invalid recipe id")
		}
		number := defaultSimilarNumber
		if raw := c.QueryParam("number"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxSimilarNumber {
				return badRequest(c, "invalid number")
			}
			number = n
		}

		key := "recipe:" + strconv.Itoa(id) + ":similar:" + strconv.Itoa(number)
		var similar []domain.RecipeSummary
		if cache != nil && cache.GetJSON(ctx, key, &similar) {
			return c.JSON(http.StatusOK, similar)
		}

		similar, err := recipes.Similar(ctx, id, number)
		if err != nil {
			return upstreamError(c, err)
		}
		if cache != nil {
			cache.SetJSON(ctx, key, similar, similarCacheTTL)
		}
		return c.JSON(http.StatusOK, similar)
	}
}

func winePairing(recipes RecipeSource, cache ResponseCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		// Normalized once so the cache key and the upstream query agree.
		food := strings.ToLower(strings.TrimSpace(c.QueryParam("food")))
		if food == "" {
			return badRequest(c, "food is required")
		}

		key := "wine:" + food
		var pairing domain.WinePairing
		if cache != nil && cache.GetJSON(ctx, key, &pairing) {
			return c.JSON(http.StatusOK, pairing)
		}

		pairing, err := recipes.WinePairing(ctx, food)
		if err != nil {
			return upstreamError(c, err)
		}
		if cache != nil {
			cache.SetJSON(ctx, key, pairing, winePairingCacheTTL)
		}
		return c.JSON(http.StatusOK, pairing)
	}
}
