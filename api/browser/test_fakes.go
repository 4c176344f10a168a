/* test_fakes.go
 * Contains a scripted Browser and Page for testing the grader without launching Chrome
 */

package browser

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

// FakeSite is what a FakePage renders for a given URL prefix
type FakeSite struct {
	Texts  map[Field]string
	Counts map[Field]int
	// Links are hrefs present on the page
	Links []string
	// GotoErr makes navigation to the site fail
	GotoErr error
	// Dialog marks a page that raises a native dialog on load
	Dialog bool
}

// FakeBrowser serves FakeSites keyed by URL prefix. The longest matching prefix wins.
type FakeBrowser struct {
	mu       sync.Mutex
	Sites    map[string]FakeSite
	NewErr   error
	Closed   bool
	Opened   atomic.Int32
	Active   atomic.Int32
	Peak     atomic.Int32
	Launches atomic.Int32
	Visited  []string
}

var _ Browser = (*FakeBrowser)(nil)

// NewFakeBrowser creates a FakeBrowser with no sites
func NewFakeBrowser() *FakeBrowser {
	return &FakeBrowser{Sites: map[string]FakeSite{}}
}

// AddSite registers a site under a URL prefix
func (b *FakeBrowser) AddSite(prefix string, site FakeSite) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Sites[prefix] = site
}

func (b *FakeBrowser) NewPage(ctx context.Context) (Page, error) {
	b.mu.Lock()
	closed, newErr := b.Closed, b.NewErr
	b.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if newErr != nil {
		return nil, newErr
	}
	b.Opened.Add(1)
	now := b.Active.Add(1)
	for {
		old := b.Peak.Load()
		if now <= old || b.Peak.CompareAndSwap(old, now) {
			break
		}
	}
	return &FakePage{browser: b}, nil
}

func (b *FakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	return nil
}

// Launcher returns a Launcher that reopens and hands out this browser on every launch
func (b *FakeBrowser) Launcher() Launcher {
	return LauncherFunc(func(ctx context.Context) (Browser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.Closed = false
		b.Launches.Add(1)
		return b, nil
	})
}

// IsClosed reports whether Close was called
func (b *FakeBrowser) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Closed
}

func (b *FakeBrowser) lookup(url string) (FakeSite, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Visited = append(b.Visited, url)
	best, found := "", false
	for prefix := range b.Sites {
		if strings.HasPrefix(url, prefix) && len(prefix) >= len(best) {
			best, found = prefix, true
		}
	}
	return b.Sites[best], found
}

// FakePage renders whichever FakeSite matches the last navigated URL
type FakePage struct {
	browser         *FakeBrowser
	url             string
	site            FakeSite
	closed          atomic.Bool
	DialogsAccepted int
}

var _ Page = (*FakePage)(nil)

// ErrSiteNotFound is returned when navigating to a URL without a registered site
var ErrSiteNotFound = errors.New("net::ERR_NAME_NOT_RESOLVED")

func (p *FakePage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	site, ok := p.browser.lookup(url)
	if !ok {
		return ErrSiteNotFound
	}
	if site.GotoErr != nil {
		return site.GotoErr
	}
	if site.Dialog {
		p.DialogsAccepted++
	}
	p.url, p.site = url, site
	return nil
}

func (p *FakePage) Text(ctx context.Context, field Field) (string, bool, error) {
	v, ok := p.site.Texts[field]
	return v, ok, nil
}

func (p *FakePage) Count(ctx context.Context, field Field) (int, error) {
	if n, ok := p.site.Counts[field]; ok {
		return n, nil
	}
	if _, ok := p.site.Texts[field]; ok {
		return 1, nil
	}
	return 0, nil
}

func (p *FakePage) FollowLink(ctx context.Context, hrefPart string) (bool, error) {
	for _, link := range p.site.Links {
		if strings.Contains(link, hrefPart) {
			return true, p.Goto(ctx, link)
		}
	}
	return false, nil
}

func (p *FakePage) URL(ctx context.Context) (string, error) {
	return p.url, nil
}

func (p *FakePage) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		p.browser.Active.Add(-1)
	}
	return nil
}
