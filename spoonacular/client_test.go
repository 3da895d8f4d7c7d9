package spoonacular

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"recipe-api/domain"
)

type quotaSpy struct {
	mu     sync.Mutex
	points float64
}

func (q *quotaSpy) RecordQuota(_ context.Context, points float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.points += points
}

func (q *quotaSpy) total() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.points
}

func TestSearchForwardsParams(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":7,"title":"Miso Ramen","image":"ramen.jpg","readyInMinutes":35}],"offset":0,"number":12,"totalResults":1}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "test-key", nil)
	res, err := c.Search(context.Background(), domain.SearchParams{
		Query:        "ramen",
		Cuisine:      "japanese",
		MaxReadyTime: 45,
		Number:       12,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].ID != 7 || res.Results[0].Title != "Miso Ramen" {
		t.Fatalf("unexpected results: %#v", res.Results)
	}
	if res.TotalResults != 1 {
		t.Fatalf("unexpected totalResults: %d", res.TotalResults)
	}
	for k, want := range map[string]string{
		"apiKey":       "test-key",
		"query":        "ramen",
		"cuisine":      "japanese",
		"maxReadyTime": "45",
		"number":       "12",
	} {
		if gotQuery[k] != want {
			t.Fatalf("expected %s=%q, got %q", k, want, gotQuery[k])
		}
	}
	if _, ok := gotQuery["offset"]; ok {
		t.Fatalf("expected zero offset to be omitted")
	}
}

func TestInformationMapsNutrition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/42/information" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("includeNutrition") != "true" {
			t.Errorf("expected includeNutrition=true")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":42,"title":"Shakshuka","servings":2,
			"extendedIngredients":[{"id":1,"name":"egg","amount":4,"unit":"","original":"4 eggs"}],
			"nutrition":{"nutrients":[{"name":"Calories","amount":320,"unit":"kcal"}]}
		}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "k", nil)
	recipe, err := c.Information(context.Background(), 42, true)
	if err != nil {
		t.Fatalf("information: %v", err)
	}
	if recipe.ID != 42 || recipe.Title != "Shakshuka" {
		t.Fatalf("unexpected recipe: %#v", recipe)
	}
	if len(recipe.Ingredients) != 1 || recipe.Ingredients[0].Name != "egg" {
		t.Fatalf("unexpected ingredients: %#v", recipe.Ingredients)
	}
	if len(recipe.Nutrients) != 1 || recipe.Nutrients[0].Amount != 320 {
		t.Fatalf("unexpected nutrients: %#v", recipe.Nutrients)
	}
}

func TestInformationNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"failure"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "k", nil)
	_, err := c.Information(context.Background(), 999999, false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuotaExceededNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "quota", http.StatusPaymentRequired)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "k", nil)
	_, err := c.Search(context.Background(), domain.SearchParams{Query: "stew"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single upstream call, got %d", calls)
	}
}

func TestServerErrorRetriedThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"pairedWines":["malbec"],"pairingText":"Bold reds."}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "k", nil)
	pairing, err := c.WinePairing(context.Background(), "steak")
	if err != nil {
		t.Fatalf("wine pairing: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
	if len(pairing.PairedWines) != 1 || pairing.PairedWines[0] != "malbec" {
		t.Fatalf("unexpected pairing: %#v", pairing)
	}
}

func TestServerErrorRetriesExhausted(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "k", nil)
	if _, err := c.Search(context.Background(), domain.SearchParams{Query: "soup"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != maxRetries+1 {
		t.Fatalf("expected %d calls, got %d", maxRetries+1, calls)
	}
}

func TestQuotaHeaderRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Quota-Request", "1.5")
		_, _ = w.Write([]byte(`{"results":[],"offset":0,"number":0,"totalResults":0}`))
	}))
	t.Cleanup(srv.Close)

	spy := &quotaSpy{}
	c := New(srv.URL, "k", spy)
	if _, err := c.Search(context.Background(), domain.SearchParams{Query: "pho"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if spy.total() != 1.5 {
		t.Fatalf("expected 1.5 points recorded, got %v", spy.total())
	}
}

func TestSimilar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/11/similar" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":12,"title":"Pad See Ew","readyInMinutes":25,"servings":2}]`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "k", nil)
	similar, err := c.Similar(context.Background(), 11, 8)
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	if len(similar) != 1 || similar[0].ID != 12 {
		t.Fatalf("unexpected similar list: %#v", similar)
	}
}

func TestMetricEndpointCollapsesIDs(t *testing.T) {
	got := metricEndpoint("/recipes/12345/information")
	if got != "recipes/:id/information" {
		t.Fatalf("unexpected endpoint label: %q", got)
	}
}
