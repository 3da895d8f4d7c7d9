package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"recipe-api/domain"
)

const (
	defaultBlogLimit = 10
	maxBlogLimit     = 50
)

func listBlogPosts(content ContentSource, cache ResponseCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		limit := defaultBlogLimit
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxBlogLimit {
				return badRequest(c, "invalid limit")
			}
			limit = n
		}

		key := "blog:list:" + strconv.Itoa(limit)
		var posts []domain.BlogPost
		if cache != nil && cache.GetJSON(ctx, key, &posts) {
			return c.JSON(http.StatusOK, posts)
		}

		posts, err := content.ListPosts(ctx, limit)
		if err != nil {
			return upstreamError(c, err)
		}
		if cache != nil {
			cache.SetJSON(ctx, key, posts, blogCacheTTL)
		}
		return c.JSON(http.StatusOK, posts)
	}
}

func blogPostBySlug(content ContentSource, cache ResponseCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		slug := strings.TrimSpace(c.Param("slug"))
		if slug == "" {
			return badRequest(c, "invalid slug")
		}

		key := "blog:post:" + slug
		var post domain.BlogPost
		if cache != nil && cache.GetJSON(ctx, key, &post) {
			return c.JSON(http.StatusOK, post)
		}

		post, err := content.PostBySlug(ctx, slug)
		if err != nil {
			return upstreamError(c, err)
		}
		if cache != nil {
			cache.SetJSON(ctx, key, post, blogCacheTTL)
		}
		return c.JSON(http.StatusOK, post)
	}
}
