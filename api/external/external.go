/* external.go
 * Contains the client used to fetch reference data from the external movie catalog (TMDB v3 api).
 * Requests are authenticated with a bearer token and rate limited on the client side.
 */

package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	defaultRPS     = 4
)

// ErrNoResults is returned when a listing page has no movies in it
var ErrNoResults = errors.New("catalog returned no movies")

// Catalog is the read-only movie catalog the listing rubric is checked against
type Catalog interface {
	TopRated(ctx context.Context) ([]Movie, error)
	Movie(ctx context.Context, id int) (Movie, error)
}

// Client is a Catalog backed by the TMDB http api
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

var _ Catalog = (*Client)(nil)

// NewClient creates a catalog client. rps <= 0 falls back to a conservative default.
func NewClient(baseURL, token string, rps float64) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if rps <= 0 {
		rps = defaultRPS
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// TopRated fetches the first page of the top rated listing
// Preconditions: Receives a context bounding the request
// Postconditions: Returns the movies in listing order, or an error if the request or decoding fails
func (c *Client) TopRated(ctx context.Context) ([]Movie, error) {
	params := url.Values{}
	params.Set("language", "en-US")
	params.Set("page", "1")

	var page moviePage
	if err := c.get(ctx, "/movie/top_rated", params, &page); err != nil {
		return nil, fmt.Errorf("error fetching top rated movies: %w", err)
	}
	return page.Results, nil
}

// Movie fetches a single movie's details
func (c *Client) Movie(ctx context.Context, id int) (Movie, error) {
	params := url.Values{}
	params.Set("language", "en-US")

	var movie Movie
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), params, &movie); err != nil {
		return Movie{}, fmt.Errorf("error fetching movie %d: %w", id, err)
	}
	return movie, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.StatusMessage != "" {
			return fmt.Errorf("unexpected status code %d: %s", response.StatusCode, apiErr.StatusMessage)
		}
		return fmt.Errorf("unexpected status code %d", response.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
