package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"recipe-api/domain"
)

const maxInstructionLen = 500

func getAnalysis(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		id, ok := recipeIDParam(c)
		if !ok {
			return badRequest(c, "invalid recipe id")
		}
		analysis, err := store.GetAnalysis(c.Request().Context(), id)
		if err != nil {
			return storageError(c, err)
		}
		return c.JSON(http.StatusOK, analysis)
	}
}

func requestAnalysis(store Storage, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		id, ok := recipeIDParam(c)
		if !ok {
			return badRequest(c, "invalid recipe id")
		}

		stored, storedErr := store.GetAnalysis(ctx, id)
		if storedErr == nil && stored.Status == domain.AnalysisReady {
			// Analyses are terminal once produced; point the client at the result.
			return c.JSON(http.StatusOK, analysisAcceptedResponse{
				RequestID: stored.RequestID,
				Status:    stored.Status,
			})
		}

		dedupeKey := "analysis:" + strconv.Itoa(id)
		if deduper != nil {
			if storedErr == nil && stored.Status == domain.AnalysisFailed {
				// The previous run finished; drop its in-flight marker so the
				// recipe can be analyzed again.
				_ = deduper.Remove(ctx, userID, dedupeKey)
			}
			added, err := deduper.Add(ctx, userID, dedupeKey)
			if err == nil && !added {
				// Already queued by this user; report the in-flight state.
				return c.JSON(http.StatusAccepted, analysisAcceptedResponse{Status: domain.AnalysisPending})
			}
			if err != nil {
				dedupeKey = "" // dedupe store unavailable, proceed without rollback key
			}
		} else {
			dedupeKey = ""
		}

		req := domain.AnalysisRequest{
			RequestID: uuid.NewString(),
			UserID:    userID,
			RecipeID:  id,
		}
		if !tryEnqueueJob(analysisJob{userID: userID, req: req, dedupeKey: dedupeKey}) {
			// Pool saturated or not running, fall back to a synchronous enqueue.
			if err := store.EnqueueAnalysis(ctx, req); err != nil {
				if dedupeKey != "" && deduper != nil {
					_ = deduper.Remove(ctx, userID, dedupeKey)
				}
				c.Logger().Error(err)
				return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to queue analysis"})
			}
		}
		return c.JSON(http.StatusAccepted, analysisAcceptedResponse{
			RequestID: req.RequestID,
			Status:    domain.AnalysisPending,
		})
	}
}

func modifyRecipe(recipes RecipeSource, modifier Modifier, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		id, ok := recipeIDParam(c)
		if !ok {
			return badRequest(c, "invalid recipe id")
		}
		var req modificationRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "invalid body")
		}
		instruction := strings.TrimSpace(req.Instruction)
		if instruction == "" {
			return badRequest(c, "instruction is required")
		}
		if len(instruction) > maxInstructionLen {
			return badRequest(c, "instruction too long")
		}

		recipe, err := recipes.Information(ctx, id, false)
		if err != nil {
			return upstreamError(c, err)
		}
		mod, err := modifier.ModifyRecipe(ctx, recipe, instruction)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusBadGateway, errorResponse{Error: "recipe modification failed"})
		}
		return c.JSON(http.StatusOK, mod)
	}
}
