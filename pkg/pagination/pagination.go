package pagination

import (
	"math"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehr/patientlookup/internal/platform/httperr"
)

const (
	DefaultSize = 10
	MaxSize     = 50
)

// MaxPage is the largest page index whose offset fits in an int at MaxSize.
const MaxPage = math.MaxInt / MaxSize

// Direction is the sort order of a page request.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any letter case.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	}
	return "", false
}

// Request describes one page window: a zero-based page index, the page
// size, and the field and direction to sort by.
type Request struct {
	Page      int
	Size      int
	SortBy    string
	Direction Direction
}

// Clamp caps Size at MaxSize.
func (r Request) Clamp() Request {
	if r.Size > MaxSize {
		r.Size = MaxSize
	}
	return r
}

// Offset returns the number of rows preceding the page.
func (r Request) Offset() int {
	return r.Page * r.Size
}

// Envelope wraps one page of results.
type Envelope[T any] struct {
	Result []T `json:"result"`
	Count  int `json:"count"`
	Page   int `json:"page"`
}

// NewEnvelope builds an Envelope; a nil items slice is encoded as [].
func NewEnvelope[T any](items []T, total, page int) *Envelope[T] {
	if items == nil {
		items = []T{}
	}
	return &Envelope[T]{Result: items, Count: total, Page: page}
}

// FromContext reads page, size, sortBy and direction from the query string.
// sortBy must be one of sortFields; the first entry is the default. Sizes
// above MaxSize are clamped, while a negative page, a page above MaxPage or
// a size below one is rejected.
func FromContext(c echo.Context, sortFields ...string) (Request, error) {
	req := Request{Size: DefaultSize, Direction: Asc}
	if len(sortFields) > 0 {
		req.SortBy = sortFields[0]
	}
	errs := httperr.FieldErrors{}

	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.Add("page", httperr.InvalidFormat)
		case n < 0:
			errs.Add("page", "must be greater than or equal to 0")
		case n > MaxPage:
			errs.Add("page", "must be less than or equal to "+strconv.Itoa(MaxPage))
		default:
			req.Page = n
		}
	}

	if raw := c.QueryParam("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.Add("size", httperr.InvalidFormat)
		case n < 1:
			errs.Add("size", "must be greater than or equal to 1")
		default:
			req.Size = n
		}
	}

	if raw := c.QueryParam("sortBy"); raw != "" {
		if !contains(sortFields, raw) {
			errs.Add("sortBy", "Unsupported sort field. Allowed: "+strings.Join(sortFields, ", "))
		} else {
			req.SortBy = raw
		}
	}

	if raw := c.QueryParam("direction"); raw != "" {
		d, ok := ParseDirection(raw)
		if !ok {
			errs.Add("direction", "Direction must be 'asc' or 'desc'")
		} else {
			req.Direction = d
		}
	}

	if err := errs.Err(); err != nil {
		return Request{}, err
	}
	return req.Clamp(), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
