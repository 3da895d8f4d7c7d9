package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DecompressRequests inflates gzip-encoded request bodies on the JSON write
// routes so the sonic decoders downstream always see plain payloads. A body
// that claims gzip but does not parse is rejected with 400 before any
// handler runs.
func DecompressRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			encoded := false
			for _, enc := range strings.Split(req.Header.Get(echo.HeaderContentEncoding), ",") {
				if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
					encoded = true
					break
				}
			}
			if !encoded {
				return next(c)
			}

			raw := req.Body
			gr, err := gzip.NewReader(raw)
			if err != nil {
				_ = raw.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}

			req.Body = &inflatedBody{Reader: gr, raw: raw}
			// The decoded length is unknown; decodeBody enforces its own cap.
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)

			return next(c)
		}
	}
}

// inflatedBody closes both the gzip reader and the wrapped request body.
type inflatedBody struct {
	*gzip.Reader
	raw io.Closer
}

func (b *inflatedBody) Close() error {
	err := b.Reader.Close()
	if cerr := b.raw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
