/* inspector_test.go
 * Contains unit tests for inspector.go and fields.go
 */

package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_Selector(t *testing.T) {
	assert.Equal(t, `[data-testid="slackUserName"]`, SlackUserName.Selector())
	assert.Equal(t, "slackDisplayImage@alt", SlackDisplayImage.String())
	assert.Equal(t, "movie-card", MovieCard.String())
}

func TestInspect_MissingElementsAreAbsent(t *testing.T) {
	b := NewFakeBrowser()
	b.AddSite("https://alice.dev", FakeSite{
		Texts: map[Field]string{
			SlackUserName: "alice",
		},
		Counts: map[Field]int{MovieCard: 12},
	})

	p, err := b.NewPage(context.Background())
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Goto(context.Background(), "https://alice.dev"))

	snap, err := Inspect(context.Background(), p, []Field{SlackUserName, MyTrack}, []Field{MovieCard, MoviePoster})
	require.NoError(t, err)

	name, ok := snap.Text(SlackUserName)
	assert.True(t, ok)
	assert.Equal(t, "alice", name)

	_, ok = snap.Text(MyTrack)
	assert.False(t, ok)

	assert.Equal(t, 12, snap.Count(MovieCard))
	assert.Equal(t, 0, snap.Count(MoviePoster))
}

func TestFakeBrowser_TracksActivePages(t *testing.T) {
	b := NewFakeBrowser()

	p1, err := b.NewPage(context.Background())
	require.NoError(t, err)
	p2, err := b.NewPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), b.Active.Load())

	require.NoError(t, p1.Close())
	require.NoError(t, p1.Close())
	require.NoError(t, p2.Close())
	assert.Equal(t, int32(0), b.Active.Load())
	assert.Equal(t, int32(2), b.Peak.Load())

	require.NoError(t, b.Close())
	_, err = b.NewPage(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFakePage_FollowLink(t *testing.T) {
	b := NewFakeBrowser()
	b.AddSite("https://movies.dev", FakeSite{Links: []string{"https://movies.dev/movies/278"}})
	b.AddSite("https://movies.dev/movies/278", FakeSite{Texts: map[Field]string{MovieTitle: "The Shawshank Redemption"}})

	p, err := b.NewPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Goto(context.Background(), "https://movies.dev"))

	ok, err := p.FollowLink(context.Background(), "/movies/278")
	require.NoError(t, err)
	assert.True(t, ok)

	url, _ := p.URL(context.Background())
	assert.Equal(t, "https://movies.dev/movies/278", url)

	ok, err = p.FollowLink(context.Background(), "/movies/1")
	require.NoError(t, err)
	assert.False(t, ok)
}
