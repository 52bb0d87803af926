package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	// DefaultLimit is the default number of items per page.
	DefaultLimit = 10
	// MaxLimit is the maximum number of items per page.
	MaxLimit = 100
)

// Params represents pagination parameters.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Meta represents pagination metadata.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// Response represents a paginated response.
type Response struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta"`
}

// FromRequest extracts page and limit query parameters, clamping bad values.
func FromRequest(c echo.Context) Params {
	return New(c.QueryParam("page"), c.QueryParam("limit"))
}

// New builds Params from raw page/limit strings.
func New(pageStr, limitStr string) Params {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// NewMeta calculates pagination metadata.
func NewMeta(p Params, total int64) *Meta {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return &Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

// NewResponse creates a paginated response.
func NewResponse(data interface{}, p Params, total int64) *Response {
	return &Response{Data: data, Meta: NewMeta(p, total)}
}
