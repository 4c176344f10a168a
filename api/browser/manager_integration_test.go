/* manager_integration_test.go
 * Contains tests for manager.go and page.go that drive a real Chrome process against an httptest site.
 * They are skipped when no Chrome binary can be found or when running with -short.
 */

package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const profileHTML = `<!DOCTYPE html>
<html><body>
<script>alert("welcome")</script>
<p data-testid="slackUserName">alice</p>
<img data-testid="slackDisplayImage" alt="alice" src="data:,">
<script>document.write('<p data-testid="myTrack">' + confirm("continue?") + '</p>')</script>
<div data-testid="movie-card"></div>
<div data-testid="movie-card"></div>
<div data-testid="movie-card"></div>
<a href="/about">about</a>
<a href="/movies/278">details</a>
</body></html>`

const detailHTML = `<!DOCTYPE html>
<html><body><h1 data-testid="movie-title">The Shawshank Redemption</h1></body></html>`

// chromePath finds a Chrome binary, preferring BROWSER_PATH
func chromePath(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	if path := os.Getenv("BROWSER_PATH"); path != "" {
		return path
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chrome binary found")
	return ""
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(profileHTML))
	})
	mux.HandleFunc("/movies/278", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(detailHTML))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func launch(t *testing.T) *Manager {
	t.Helper()
	path := chromePath(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := Launch(ctx, Config{ExecPath: path, Headless: true, Timeout: 20 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// region Manager

func TestLaunch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Launch(ctx, Config{Headless: true}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_NewPageAfterClose(t *testing.T) {
	m := launch(t)

	p, err := m.NewPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.NewPage(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

// endregion

// region chromePage

func TestChromePage_ReadsGradedFields(t *testing.T) {
	m := launch(t)
	site := newSite(t)
	ctx := context.Background()

	p, err := m.NewPage(ctx)
	require.NoError(t, err)
	defer p.Close()

	// the page blocks on alert and confirm until the dialogs are accepted
	require.NoError(t, p.Goto(ctx, site.URL+"/"))

	name, found, err := p.Text(ctx, SlackUserName)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice", name)

	alt, found, err := p.Text(ctx, SlackDisplayImage)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice", alt)

	confirmed, found, err := p.Text(ctx, MyTrack)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", confirmed)

	cards, err := p.Count(ctx, MovieCard)
	require.NoError(t, err)
	assert.Equal(t, 3, cards)

	value, found, err := p.Text(ctx, CurrentUTCTime)
	require.NoError(t, err, "a missing element is not an error")
	assert.False(t, found)
	assert.Equal(t, "", value)

	missing, err := p.Count(ctx, MovieTitle)
	require.NoError(t, err)
	assert.Equal(t, 0, missing)
}

func TestChromePage_FollowLink(t *testing.T) {
	m := launch(t)
	site := newSite(t)
	ctx := context.Background()

	p, err := m.NewPage(ctx)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Goto(ctx, site.URL+"/"))

	ok, err := p.FollowLink(ctx, "/nowhere")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.FollowLink(ctx, "/movies/")
	require.NoError(t, err)
	assert.True(t, ok)

	url, err := p.URL(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/movies/278"), url)

	title, found, err := p.Text(ctx, MovieTitle)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "The Shawshank Redemption", title)
}

func TestChromePage_CallerCancellation(t *testing.T) {
	m := launch(t)
	site := newSite(t)

	p, err := m.NewPage(context.Background())
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Goto(ctx, site.URL+"/"))
}

// endregion
