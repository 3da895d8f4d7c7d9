package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"recipe-api/domain"
)

const weatherSuggestionCount = 6

func weatherSuggestions(weather WeatherSource, recipes RecipeSource, cache ResponseCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
		if err != nil || lat < -90 || lat > 90 {
			return badRequest(c, "invalid lat")
		}
		lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
		if err != nil || lon < -180 || lon > 180 {
			return badRequest(c, "invalid lon")
		}

		// Coordinates are snapped to a 0.1 degree grid so nearby clients
		// share cache entries.
		key := fmt.Sprintf("weather:%.1f:%.1f", lat, lon)
		var suggestion domain.WeatherSuggestion
		if cache != nil && cache.GetJSON(ctx, key, &suggestion) {
			return c.JSON(http.StatusOK, suggestion)
		}

		conditions, err := weather.Current(ctx, lat, lon)
		if err != nil {
			return upstreamError(c, err)
		}

		theme := themeFor(conditions)
		result, err := recipes.Search(ctx, domain.SearchParams{
			Query:  theme,
			Number: weatherSuggestionCount,
		})
		if err != nil {
			return upstreamError(c, err)
		}

		suggestion = domain.WeatherSuggestion{
			Conditions: conditions,
			Theme:      theme,
			Recipes:    result.Results,
		}
		if cache != nil {
			cache.SetJSON(ctx, key, suggestion, weatherCacheTTL)
		}
		return c.JSON(http.StatusOK, suggestion)
	}
}

// themeFor picks a recipe search theme from current conditions. Precipitation
// beats temperature: a rainy warm day still calls for comfort food.
func themeFor(cond domain.Conditions) string {
	switch {
	case cond.Code >= 71 && cond.Code <= 86 && cond.Code != 80 && cond.Code != 81 && cond.Code != 82:
		return "hearty stew"
	case cond.Code >= 51:
		return "comfort food"
	case cond.TemperatureC <= 5:
		return "warming soup"
	case cond.TemperatureC >= 25:
		return "fresh salad"
	default:
		return "seasonal dinner"
	}
}
