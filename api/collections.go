package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"recipe-api/domain"
)

const maxCollectionNameLen = 80

func listCollections(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		collections, err := store.ListCollections(c.Request().Context(), userID)
		if err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, collections)
	}
}

func getCollection(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		col, err := store.GetCollection(c.Request().Context(), userID, c.Param("id"))
		if err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, col)
	}
}

func validateCollectionRequest(req collectionRequest) (collectionRequest, string) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		return req, "name is required"
	}
	if len(req.Name) > maxCollectionNameLen {
		return req, "name too long"
	}
	return req, ""
}

func createCollection(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req collectionRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		req, msg := validateCollectionRequest(req)
		if msg != "" {
			return badRequest(c, msg)
		}

		now := time.Now().Unix()
		col := domain.Collection{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Recipes:     []domain.SavedRecipe{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.CreateCollection(c.Request().Context(), userID, col); err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusCreated, col)
	}
}

func updateCollection(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req collectionRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		req, msg := validateCollectionRequest(req)
		if msg != "" {
			return badRequest(c, msg)
		}

		col, err := store.GetCollection(ctx, userID, c.Param("id"))
		if err != nil {
			return storageError(c, err)
		}
		col.Name = req.Name
		col.Description = req.Description
		col.UpdatedAt = time.Now().Unix()
		if err := store.UpdateCollection(ctx, userID, col); err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, col)
	}
}

func deleteCollection(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if err := store.DeleteCollection(c.Request().Context(), userID, c.Param("id")); err != nil {
			return storageError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func addCollectionRecipe(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req collectionRecipeRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		if req.RecipeID <= 0 {
			return badRequest(c, "recipeId is required")
		}
		if strings.TrimSpace(req.Title) == "" {
			return badRequest(c, "title is required")
		}

		col, err := store.GetCollection(ctx, userID, c.Param("id"))
		if err != nil {
			return storageError(c, err)
		}
		if col.Contains(req.RecipeID) {
			// Adding the same recipe twice is a no-op, not an error.
			return c.JSON(http.StatusOK, col)
		}
		col.Recipes = append(col.Recipes, domain.SavedRecipe{
			RecipeID: req.RecipeID,
			Title:    strings.TrimSpace(req.Title),
			Image:    req.Image,
			AddedAt:  time.Now().Unix(),
		})
		col.UpdatedAt = time.Now().Unix()
		if err := store.UpdateCollection(ctx, userID, col); err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, col)
	}
}

func removeCollectionRecipe(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		recipeID, err := strconv.Atoi(c.Param("recipeId"))
		if err != nil || recipeID <= 0 {
			return badRequest(c, "invalid recipe id")
		}

		col, err := store.GetCollection(ctx, userID, c.Param("id"))
		if err != nil {
			return storageError(c, err)
		}
		if !col.Contains(recipeID) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "recipe not in collection"})
		}
		kept := col.Recipes[:0]
		for _, r := range col.Recipes {
			if r.RecipeID != recipeID {
				kept = append(kept, r)
			}
		}
		col.Recipes = kept
		col.UpdatedAt = time.Now().Unix()
		if err := store.UpdateCollection(ctx, userID, col); err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, col)
	}
}
