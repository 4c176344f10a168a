/* models.go
 * This file contains the models returned by the movie catalog used as reference data for grading
 */

package external

import (
	"strings"
	"time"
)

// Movie is the subset of a catalog movie the listing rubric compares against
type Movie struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Runtime     int    `json:"runtime"`
	Overview    string `json:"overview"`
}

// Released parses ReleaseDate (YYYY-MM-DD) as a UTC date
func (m Movie) Released() (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(m.ReleaseDate))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// moviePage is one page of a catalog listing such as /movie/top_rated
type moviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type apiError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
