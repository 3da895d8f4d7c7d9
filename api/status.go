package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type statusResponse struct {
	Status          string  `json:"status"`
	Version         string  `json:"version"`
	CacheAvailable  bool    `json:"cacheAvailable"`
	QuotaPointsUsed float64 `json:"quotaPointsUsed"`
}

func getStatus(cache ResponseCache, version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := statusResponse{Status: "ok", Version: version}
		if cache != nil {
			ctx := c.Request().Context()
			resp.CacheAvailable = cache.Available(ctx)
			if points, err := cache.QuotaPointsToday(ctx); err == nil {
				resp.QuotaPointsUsed = points
			}
		}
		return c.JSON(http.StatusOK, resp)
	}
}
