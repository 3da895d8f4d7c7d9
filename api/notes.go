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

const maxNoteTextLen = 2000

func listNotes(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		recipeID := 0
		if raw := c.QueryParam("recipeId"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return badRequest(c, "invalid recipeId")
			}
			recipeID = n
		}
		notes, err := store.ListNotes(c.Request().Context(), userID, recipeID)
		if err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, notes)
	}
}

func validateNoteText(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return text, "text is required"
	}
	if len(text) > maxNoteTextLen {
		return text, "text too long"
	}
	return text, ""
}

func createNote(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req noteRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		if req.RecipeID <= 0 {
			return badRequest(c, "recipeId is required")
		}
		text, msg := validateNoteText(req.Text)
		if msg != "" {
			return badRequest(c, msg)
		}

		now := time.Now().Unix()
		note := domain.Note{
			ID:        uuid.NewString(),
			RecipeID:  req.RecipeID,
			Text:      text,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.CreateNote(c.Request().Context(), userID, note); err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusCreated, note)
	}
}

func updateNote(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req noteRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		text, msg := validateNoteText(req.Text)
		if msg != "" {
			return badRequest(c, msg)
		}

		note, err := store.GetNote(ctx, userID, c.Param("id"))
		if err != nil {
			return storageError(c, err)
		}
		note.Text = text
		note.UpdatedAt = time.Now().Unix()
		if err := store.UpdateNote(ctx, userID, note); err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, note)
	}
}

func deleteNote(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if err := store.DeleteNote(c.Request().Context(), userID, c.Param("id")); err != nil {
			return storageError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
