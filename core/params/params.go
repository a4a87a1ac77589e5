package params

import (
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

// QueryParams carries common pagination query parameters.
type QueryParams struct {
	PageNumber int
	PageSize   int
}

// NewQueryParams reads page and limit from the request, clamping to
// sane bounds.
func NewQueryParams(ctx echo.Context) *QueryParams {
	page := cast.ToInt(ctx.QueryParam("page"))
	if page < 1 {
		page = DefaultPageNumber
	}

	limit := cast.ToInt(ctx.QueryParam("limit"))
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	return &QueryParams{
		PageNumber: page,
		PageSize:   limit,
	}
}
