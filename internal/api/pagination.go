package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

type pageParams struct {
	Page  int
	Limit int
}

// parsePageParams reads page-number pagination from the query string. The
// page size defaults to the configured value and is overridable via limit.
func parsePageParams(c *gin.Context, defaultLimit int) pageParams {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}

	return pageParams{Page: page, Limit: limit}
}

// PaginatedResponse is the standard list envelope.
type PaginatedResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func newPaginatedResponse(c *gin.Context, count int64, params pageParams, results interface{}) PaginatedResponse {
	resp := PaginatedResponse{Count: count, Results: results}

	if int64(params.Page*params.Limit) < count {
		next := pageURL(c, params.Page+1)
		resp.Next = &next
	}
	if params.Page > 1 {
		previous := pageURL(c, params.Page-1)
		resp.Previous = &previous
	}
	return resp
}

func pageURL(c *gin.Context, page int) string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
