// Package pagination reads limit/offset paging from list requests and
// shapes the list envelope. Both the REST spellings (limit, offset) and
// the FHIR search spellings (_count, _offset) are accepted, FHIR taking
// precedence.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is one page of a list query.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads the page from the request query, clamping the limit to
// [1, MaxLimit] and the offset to zero or above.
func FromContext(c echo.Context) Params {
	limit := queryInt(c, "_count", "limit")
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := queryInt(c, "_offset", "offset")
	return Params{Limit: limit, Offset: offset}
}

// queryInt returns the first of the named parameters that parses to a
// positive integer, or 0.
func queryInt(c echo.Context, names ...string) int {
	for _, name := range names {
		if v, err := strconv.Atoi(c.QueryParam(name)); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

// Response is the list envelope returned by collection endpoints.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}
