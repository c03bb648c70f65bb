package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequestID_GeneratesNew(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid == "" {
			t.Error("expected request_id to be generated")
		}
		return ok(c)
	}

	if err := RequestID()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")
	c.Request().Header.Set(RequestIDHeader, "my-custom-id")

	handler := func(c echo.Context) error {
		if rid := c.Get("request_id").(string); rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return ok(c)
	}

	RequestID()(handler)(c)
	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")
	c.Request().Header.Set(RequestIDHeader, strings.Repeat("x", 200))

	RequestID()(ok)(c)
	if got := rec.Header().Get(RequestIDHeader); len(got) > 128 {
		t.Errorf("expected generated id, got %d bytes", len(got))
	}
}

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return line
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newContext(http.MethodGet, "/patients")
	c.Set("request_id", "req-1")

	if err := Logger(zerolog.New(&buf))(ok)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := logLine(t, &buf)
	if line["level"] != "info" || line["status"].(float64) != 200 {
		t.Errorf("unexpected log line %v", line)
	}
	if line["request_id"] != "req-1" || line["path"] != "/patients" || line["method"] != "GET" {
		t.Errorf("missing request fields: %v", line)
	}
}

type badRequest struct{}

func (badRequest) Error() string   { return "bad" }
func (badRequest) StatusCode() int { return http.StatusBadRequest }

func TestLogger_StatusFromError(t *testing.T) {
	tests := []struct {
		err   error
		level string
		code  float64
	}{
		{echo.NewHTTPError(http.StatusNotFound, "missing"), "warn", 404},
		{badRequest{}, "warn", 400},
		{errors.New("boom"), "error", 500},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		c, _ := newContext(http.MethodGet, "/")
		err := Logger(zerolog.New(&buf))(func(echo.Context) error { return tt.err })(c)
		if err != tt.err {
			t.Errorf("expected error passed through, got %v", err)
		}
		line := logLine(t, &buf)
		if line["level"] != tt.level || line["status"].(float64) != tt.code {
			t.Errorf("%v: unexpected log line %v", tt.err, line)
		}
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newContext(http.MethodGet, "/panic")

	handler := func(c echo.Context) error {
		panic("test panic")
	}

	err := Recovery(zerolog.New(&buf))(handler)(c)
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	httpErr, isHTTP := err.(*echo.HTTPError)
	if !isHTTP {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
	if !strings.Contains(buf.String(), "test panic") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/ok")
	if err := Recovery(zerolog.Nop())(ok)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSecurityHeaders(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/patients")
	if err := SecurityHeaders()(ok)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s: expected %q, got %q", k, v, got)
		}
	}
}
