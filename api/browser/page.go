/* page.go
 * Contains the Browser and Page interfaces the grader drives, and the chromedp backed Page
 */

package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Browser is a shared browser process able to open independent pages
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one isolated navigation context. Lookups never fail because an element is missing:
// a missing element is reported with found == false.
type Page interface {
	Goto(ctx context.Context, url string) error
	Text(ctx context.Context, field Field) (value string, found bool, err error)
	Count(ctx context.Context, field Field) (int, error)
	// FollowLink navigates to the first anchor whose href contains hrefPart, reporting whether one existed
	FollowLink(ctx context.Context, hrefPart string) (bool, error)
	URL(ctx context.Context) (string, error)
	Close() error
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	settle  time.Duration
	once    sync.Once
}

var _ Page = (*chromePage)(nil)

// newChromePage opens a tab in the shared browser, sets the user agent and registers the
// dialog handler before anything is navigated.
func newChromePage(browserCtx context.Context, cfg Config) (*chromePage, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			// must not run the action on the event goroutine
			go func() {
				_ = chromedp.Run(tabCtx, page.HandleJavaScriptDialog(true))
			}()
		}
	})

	p := &chromePage{
		ctx:     tabCtx,
		cancel:  cancel,
		timeout: cfg.timeoutOrDefault(),
		settle:  cfg.SettleDelay,
	}
	// first Run on the tab context creates the target
	if err := chromedp.Run(tabCtx, emulation.SetUserAgentOverride(cfg.userAgentOrDefault())); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return p, nil
}

// run executes actions on the tab bounded by the per-operation timeout and the caller's context
func (p *chromePage) run(callCtx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	if callCtx != nil {
		if err := callCtx.Err(); err != nil {
			return err
		}
		stop := context.AfterFunc(callCtx, cancel)
		defer stop()
	}
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Goto(ctx context.Context, url string) error {
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if p.settle > 0 {
		actions = append(actions, chromedp.Sleep(p.settle))
	}
	if err := p.run(ctx, actions...); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

type lookup struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

func (p *chromePage) Text(ctx context.Context, field Field) (string, bool, error) {
	selector, _ := json.Marshal(field.Selector())
	read := "el.textContent"
	if field.Attribute != "" {
		attr, _ := json.Marshal(field.Attribute)
		read = fmt.Sprintf("el.getAttribute(%s)", attr)
	}
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {found: false, value: ""};
		const v = %s;
		return {found: v !== null && v !== undefined, value: v === null || v === undefined ? "" : String(v)};
	})()`, selector, read)

	var res lookup
	if err := p.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return "", false, fmt.Errorf("read %s: %w", field, err)
	}
	return res.Value, res.Found, nil
}

func (p *chromePage) Count(ctx context.Context, field Field) (int, error) {
	selector, _ := json.Marshal(field.Selector())
	expr := fmt.Sprintf(`document.querySelectorAll(%s).length`, selector)

	var n int
	if err := p.run(ctx, chromedp.Evaluate(expr, &n)); err != nil {
		return 0, fmt.Errorf("count %s: %w", field, err)
	}
	return n, nil
}

func (p *chromePage) FollowLink(ctx context.Context, hrefPart string) (bool, error) {
	part, _ := json.Marshal(hrefPart)
	expr := fmt.Sprintf(`(() => {
		const a = Array.from(document.querySelectorAll("a[href]")).find(a => a.getAttribute("href").includes(%s));
		return a ? {found: true, value: a.href} : {found: false, value: ""};
	})()`, part)

	var res lookup
	if err := p.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return false, fmt.Errorf("find link %s: %w", hrefPart, err)
	}
	if !res.Found {
		return false, nil
	}
	return true, p.Goto(ctx, res.Value)
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var location string
	if err := p.run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// Close closes the tab. It is safe to call more than once.
func (p *chromePage) Close() error {
	p.once.Do(p.cancel)
	return nil
}
