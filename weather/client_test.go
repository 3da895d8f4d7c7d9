package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "52.5200" || q.Get("longitude") != "13.4050" {
			t.Errorf("coordinates not forwarded: %v", q)
		}
		if q.Get("current_weather") != "true" {
			t.Errorf("expected current_weather=true")
		}
		_, _ = w.Write([]byte(`{"current_weather":{"temperature":3.4,"windspeed":18.2,"weathercode":63}}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	cond, err := c.Current(context.Background(), 52.52, 13.405)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cond.TemperatureC != 3.4 || cond.Code != 63 {
		t.Fatalf("unexpected conditions: %#v", cond)
	}
	if cond.Description != "rain" {
		t.Fatalf("unexpected description %q", cond.Description)
	}
}

func TestCurrentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	if _, err := c.Current(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestDescribe(t *testing.T) {
	cases := map[int]string{
		0:  "clear",
		2:  "partly cloudy",
		45: "fog",
		55: "drizzle",
		65: "rain",
		75: "snow",
		95: "thunderstorm",
	}
	for code, want := range cases {
		if got := describe(code); got != want {
			t.Fatalf("describe(%d) = %q, want %q", code, got, want)
		}
	}
}
