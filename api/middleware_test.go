package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestDecompressRequestsInflatesBody(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(`{"recipeId":5}`)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/favorites", &buf)
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got []byte
	handler := DecompressRequests()(func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		got = b
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if string(got) != `{"recipeId":5}` {
		t.Fatalf("unexpected body: %s", got)
	}
	if c.Request().Header.Get(echo.HeaderContentEncoding) != "" {
		t.Fatal("expected content encoding header to be removed")
	}
}

func TestDecompressRequestsRejectsBadPayload(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/favorites", strings.NewReader("not gzip"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := DecompressRequests()(func(c echo.Context) error {
		t.Fatal("handler should not be reached")
		return nil
	})
	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestDecompressRequestsPassthrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/favorites", strings.NewReader(`{"recipeId":5}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := DecompressRequests()(func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		if string(b) != `{"recipeId":5}` {
			t.Fatalf("unexpected body: %s", b)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
}
