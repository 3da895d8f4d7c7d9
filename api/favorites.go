package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"recipe-api/domain"
)

// decodeBody reads a size-limited JSON request body into v, rejecting
// unknown fields.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, postBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// storageError maps persistence failures: unknown entities become 404,
// everything else a generic 500.
func storageError(c echo.Context, err error) error {
	var notFoundErr NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
}

func listFavorites(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		favorites, err := store.ListFavorites(c.Request().Context(), userID)
		if err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, favorites)
	}
}

func saveFavorite(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req favoriteRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		if req.RecipeID <= 0 {
			return badRequest(c, "recipeId is required")
		}
		if strings.TrimSpace(req.Title) == "" {
			return badRequest(c, "title is required")
		}

		fav := domain.Favorite{
			RecipeID: req.RecipeID,
			Title:    strings.TrimSpace(req.Title),
			Image:    req.Image,
			SavedAt:  time.Now().Unix(),
		}
		if err := store.SaveFavorite(c.Request().Context(), userID, fav); err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusCreated, fav)
	}
}

func deleteFavorite(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		recipeID, err := strconv.Atoi(c.Param("recipeId"))
		if err != nil || recipeID <= 0 {
			return badRequest(c, "invalid recipe id")
		}
		if err := store.DeleteFavorite(c.Request().Context(), userID, recipeID); err != nil {
			return storageError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
