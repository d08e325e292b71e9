package handlers

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/socialgraph/backend/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 10
)

var errInvalidPage = errors.New("invalid page")

type pageParams struct {
	number int
	size   int
}

type pageResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// parsePage reads page and page_size. A malformed page is an error; a
// malformed page_size falls back to the default.
func parsePage(r *http.Request) (pageParams, error) {
	params := pageParams{number: 1, size: defaultPageSize}
	query := r.URL.Query()

	if raw := query.Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			params.size = min(n, maxPageSize)
		}
	}

	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return pageParams{}, errInvalidPage
		}
		// The offset must fit in an int.
		if n-1 > math.MaxInt/params.size {
			return pageParams{}, errInvalidPage
		}
		params.number = n
	}

	return params, nil
}

func (p pageParams) window() models.Page {
	return models.Page{Limit: p.size, Offset: (p.number - 1) * p.size}
}

// buildPage assembles the response envelope. It reports false when the
// requested page lies beyond the last one.
func buildPage[T any](r *http.Request, p pageParams, total int, results []T) (pageResponse[T], bool) {
	lastPage := 1
	if total > 0 {
		lastPage = (total + p.size - 1) / p.size
	}
	if p.number > lastPage {
		return pageResponse[T]{}, false
	}

	if results == nil {
		results = []T{}
	}
	resp := pageResponse[T]{Count: total, Results: results}

	if p.number < lastPage {
		next := pageURL(r, p.number+1)
		resp.Next = &next
	}
	if p.number > 1 {
		prev := pageURL(r, p.number-1)
		resp.Previous = &prev
	}

	return resp, true
}

func pageURL(r *http.Request, number int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	query := r.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}
