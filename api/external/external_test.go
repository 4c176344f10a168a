/* external_test.go
 * Contains unit tests for the catalog client and the reference cache using httptest
 */

package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/top_rated", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page":1,"results":[
			{"id":278,"title":"The Shawshank Redemption","release_date":"1994-09-23","overview":"Framed in the 1940s."},
			{"id":238,"title":"The Godfather","release_date":"1972-03-14"}
		],"total_pages":1,"total_results":2}`))
	})
	mux.HandleFunc("/movie/278", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":278,"title":"The Shawshank Redemption","release_date":"1994-09-23","runtime":142,"overview":"Framed in the 1940s."}`))
	})
	return httptest.NewServer(mux)
}

// region Client

func TestClient_TopRated(t *testing.T) {
	server := newCatalogServer(t, nil)
	defer server.Close()

	client := NewClient(server.URL, "secret", 100)
	movies, err := client.TopRated(context.Background())

	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, 278, movies[0].ID)
	assert.Equal(t, "The Shawshank Redemption", movies[0].Title)
}

func TestClient_Movie(t *testing.T) {
	server := newCatalogServer(t, nil)
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", 100)
	movie, err := client.Movie(context.Background(), 278)

	require.NoError(t, err)
	assert.Equal(t, 142, movie.Runtime)

	released, ok := movie.Released()
	require.True(t, ok)
	assert.Equal(t, time.Date(1994, 9, 23, 0, 0, 0, 0, time.UTC), released)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad", 100)
	_, err := client.TopRated(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestClient_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 100)
	_, err := client.TopRated(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_CancelledContext(t *testing.T) {
	server := newCatalogServer(t, nil)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "secret", 100)
	_, err := client.TopRated(ctx)
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("", "", 0)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, float64(defaultRPS), float64(client.limiter.Limit()))
}

// endregion

// region ReferenceCache

func TestReferenceCache_LoadsOnce(t *testing.T) {
	var hits atomic.Int32
	server := newCatalogServer(t, &hits)
	defer server.Close()

	cache := NewReferenceCache(NewClient(server.URL, "secret", 1000), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			movie, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 278, movie.ID)
		}()
	}
	wg.Wait()

	movie, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 142, movie.Runtime)
	assert.Equal(t, int32(1), hits.Load())

	_, ok := cache.LoadedAt()
	assert.True(t, ok)
}

func TestReferenceCache_InvalidateAndRefresh(t *testing.T) {
	var hits atomic.Int32
	server := newCatalogServer(t, &hits)
	defer server.Close()

	cache := NewReferenceCache(NewClient(server.URL, "secret", 1000), nil)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	cache.Invalidate()
	_, ok := cache.LoadedAt()
	assert.False(t, ok)

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	_, err = cache.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

type stubCatalog struct {
	top    []Movie
	topErr error
}

func (s stubCatalog) TopRated(ctx context.Context) ([]Movie, error) { return s.top, s.topErr }
func (s stubCatalog) Movie(ctx context.Context, id int) (Movie, error) {
	return Movie{ID: id, Runtime: 90}, nil
}

// blockingCatalog holds TopRated until release is closed, then serves a title per call
type blockingCatalog struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingCatalog) TopRated(ctx context.Context) ([]Movie, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
		<-b.release
		return []Movie{{ID: 1, Title: "Old"}}, nil
	}
	return []Movie{{ID: 2, Title: "New"}}, nil
}

func (b *blockingCatalog) Movie(ctx context.Context, id int) (Movie, error) {
	return Movie{ID: id}, nil
}

func TestReferenceCache_InvalidateDuringLoad(t *testing.T) {
	catalog := &blockingCatalog{started: make(chan struct{}), release: make(chan struct{})}
	cache := NewReferenceCache(catalog, nil)

	done := make(chan Movie)
	go func() {
		movie, err := cache.Get(context.Background())
		assert.NoError(t, err)
		done <- movie
	}()

	<-catalog.started
	cache.Invalidate()
	close(catalog.release)

	assert.Equal(t, "Old", (<-done).Title, "the caller that started the fetch still gets its result")
	_, ok := cache.LoadedAt()
	assert.False(t, ok, "a fetch started before Invalidate is not cached")

	movie, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "New", movie.Title)
	assert.Equal(t, int32(2), catalog.calls.Load())
}

func TestReferenceCache_Errors(t *testing.T) {
	cache := NewReferenceCache(stubCatalog{topErr: errors.New("boom")}, nil)
	_, err := cache.Get(context.Background())
	assert.EqualError(t, err, "boom")
	_, ok := cache.LoadedAt()
	assert.False(t, ok)

	cache = NewReferenceCache(stubCatalog{}, nil)
	_, err = cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestReferenceCache_FillsFromListing(t *testing.T) {
	cache := NewReferenceCache(stubCatalog{top: []Movie{{ID: 7, Title: "Heat", ReleaseDate: "1995-12-15"}}}, nil)
	movie, err := cache.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Movie{ID: 7, Title: "Heat", ReleaseDate: "1995-12-15", Runtime: 90}, movie)
}

// endregion
