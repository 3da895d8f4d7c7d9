package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/bytedance/sonic"

	"recipe-api/domain"
)

type stubContent struct {
	listFn func(ctx context.Context, limit int) ([]domain.BlogPost, error)
	slugFn func(ctx context.Context, slug string) (domain.BlogPost, error)
}

func (s *stubContent) ListPosts(ctx context.Context, limit int) ([]domain.BlogPost, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit)
}

func (s *stubContent) PostBySlug(ctx context.Context, slug string) (domain.BlogPost, error) {
	if s.slugFn == nil {
		return domain.BlogPost{}, nil
	}
	return s.slugFn(ctx, slug)
}

func TestListBlogPosts(t *testing.T) {
	var gotLimit int
	content := &stubContent{listFn: func(_ context.Context, limit int) ([]domain.BlogPost, error) {
		gotLimit = limit
		return []domain.BlogPost{{Slug: "meal-prep", Title: "Meal prep"}}, nil
	}}
	cache := newMemCache()
	rec := doRequest(t, listBlogPosts(content, cache), http.MethodGet, "/api/blog")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if gotLimit != defaultBlogLimit {
		t.Fatalf("expected default limit %d, got %d", defaultBlogLimit, gotLimit)
	}
	var posts []domain.BlogPost
	if err := sonic.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "meal-prep" {
		t.Fatalf("unexpected posts: %#v", posts)
	}
	if len(cache.setKeys) != 1 || cache.setKeys[0] != "blog:list:10" {
		t.Fatalf("unexpected cache writes: %v", cache.setKeys)
	}
}

func TestListBlogPostsInvalidLimit(t *testing.T) {
	testCases := map[string]string{
		"non_numeric": "/api/blog?limit=abc",
		"zero":        "/api/blog?limit=0",
		"too_large":   "/api/blog?limit=51",
	}
	for name, target := range testCases {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, listBlogPosts(&stubContent{}, newMemCache()), http.MethodGet, target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400 got %d", rec.Code)
			}
		})
	}
}

func TestBlogPostBySlug(t *testing.T) {
	calls := 0
	content := &stubContent{slugFn: func(_ context.Context, slug string) (domain.BlogPost, error) {
		calls++
		return domain.BlogPost{Slug: slug, Title: "Meal prep", Body: "<p>hello</p>"}, nil
	}}
	cache := newMemCache()
	for i := 0; i < 2; i++ {
		rec := jsonRequest(t, blogPostBySlug(content, cache), http.MethodGet, "/api/blog/meal-prep", "", "slug", "meal-prep")
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: expected status 200 got %d", i, rec.Code)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}

func TestBlogPostBySlugNotFound(t *testing.T) {
	content := &stubContent{slugFn: func(context.Context, string) (domain.BlogPost, error) {
		return domain.BlogPost{}, notFoundErr{}
	}}
	rec := jsonRequest(t, blogPostBySlug(content, newMemCache()), http.MethodGet, "/api/blog/missing", "", "slug", "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}
