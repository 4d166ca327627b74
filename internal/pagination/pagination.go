// Package pagination implements the shared paging, sorting and envelope
// conventions used by every list endpoint: zero-based pages, a bounded
// page size, and "field,ASC|DESC" sort expressions validated against a
// per-endpoint column whitelist.
package pagination

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Request carries the common list-query parameters.
type Request struct {
	Page    int    // zero-based page index
	Size    int    // page size, 1..MaxSize
	Sort    string // raw "field,ASC|DESC" expression, may be empty
	Keyword string // optional free-text filter
}

// Parse reads page/size/sort/keyword from the query string, clamping
// out-of-range values instead of failing: a negative page becomes 0 and
// size is forced into 1..MaxSize.
func Parse(c echo.Context) Request {
	r := Request{Page: 0, Size: DefaultSize}
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			r.Page = n
		}
	}
	if v := c.QueryParam("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.Size = n
		}
	}
	if r.Size < 1 {
		r.Size = 1
	}
	if r.Size > MaxSize {
		r.Size = MaxSize
	}
	r.Sort = strings.TrimSpace(c.QueryParam("sort"))
	r.Keyword = strings.TrimSpace(c.QueryParam("keyword"))
	return r
}

// Offset returns the row offset for the current page.
func (r Request) Offset() int { return r.Page * r.Size }

// OrderBy translates a "field,ASC|DESC" sort expression into a SQL ORDER BY
// clause.  Field names are resolved through the allowed map (request field
// -> column expression), which doubles as an injection guard: anything not
// whitelisted, and any unparseable expression, falls back to def.  def must
// itself be a valid expression against the same whitelist.
func OrderBy(sort, def string, allowed map[string]string) string {
	if clause, ok := orderClause(sort, allowed); ok {
		return clause
	}
	clause, _ := orderClause(def, allowed)
	return clause
}

func orderClause(expr string, allowed map[string]string) (string, bool) {
	parts := strings.SplitN(expr, ",", 2)
	if len(parts) != 2 {
		return "", false
	}
	col, ok := allowed[strings.TrimSpace(parts[0])]
	if !ok {
		return "", false
	}
	dir := strings.ToUpper(strings.TrimSpace(parts[1]))
	if dir != "ASC" && dir != "DESC" {
		return "", false
	}
	return col + " " + dir, true
}

// Response is the page envelope returned by list endpoints.
type Response struct {
	Content       any    `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int64  `json:"total_elements"`
	TotalPages    int64  `json:"total_pages"`
	Sort          string `json:"sort,omitempty"`
}

// NewResponse wraps content in the page envelope, deriving total_pages
// from the element count.
func NewResponse(content any, req Request, total int64) Response {
	pages := int64(0)
	if total > 0 {
		pages = (total + int64(req.Size) - 1) / int64(req.Size)
	}
	return Response{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
		Sort:          req.Sort,
	}
}
