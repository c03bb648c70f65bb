// Package httperr renders API errors. Validation failures become a flat
// field-to-message map; everything else becomes a structured status body.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// InvalidFormat is reported for path or query values that cannot be parsed.
const InvalidFormat = "Invalid format. Please check the input format"

// FieldErrors maps a request field name to the reason it was rejected.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns nil when no field was rejected.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, k := range fields {
		parts[i] = k + ": " + f[k]
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// StatusCode reports the HTTP status FieldErrors are rendered with.
func (f FieldErrors) StatusCode() int { return http.StatusBadRequest }

// Field returns a FieldErrors holding a single entry.
func Field(field, msg string) FieldErrors {
	return FieldErrors{field: msg}
}

// Response is the body written for non-validation errors.
type Response struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// NotFound builds a 404 carrying msg.
func NotFound(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, msg)
}

// Handler returns an echo.HTTPErrorHandler. Unclassified errors are logged
// and answered with a generic 500 so internals never leak to clients.
func Handler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		rid, _ := c.Get("request_id").(string)

		var fields FieldErrors
		if errors.As(err, &fields) {
			writeJSON(c, http.StatusBadRequest, fields)
			return
		}

		code := http.StatusInternalServerError
		msg := "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprintf("%v", he.Message)
			if he.Internal != nil {
				logger.Debug().Err(he.Internal).Str("request_id", rid).Int("status", code).Msg("request rejected")
			}
		} else {
			logger.Error().Err(err).Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		writeJSON(c, code, Response{
			Status:  code,
			Error:   http.StatusText(code),
			Message: msg,
			Path:    c.Request().URL.Path,
		})
	}
}

func writeJSON(c echo.Context, code int, body interface{}) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
