/* manager.go
 * Owns a single headless Chrome process shared by every page of a grading batch. Pages are tabs of
 * that process; closing the manager kills the process and with it every page.
 */

package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0"
)

// ErrClosed is returned when a page is requested from a closed manager
var ErrClosed = errors.New("browser is closed")

// Config configures the headless browser used for grading
type Config struct {
	ExecPath    string
	Headless    bool
	UserAgent   string
	Timeout     time.Duration
	SettleDelay time.Duration
}

func (c Config) timeoutOrDefault() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c Config) userAgentOrDefault() string {
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		return ua
	}
	return defaultUserAgent
}

// Launcher starts a browser for one batch
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// LauncherFunc adapts a function to a Launcher
type LauncherFunc func(ctx context.Context) (Browser, error)

func (f LauncherFunc) Launch(ctx context.Context) (Browser, error) {
	return f(ctx)
}

// ChromeLauncher launches Chrome processes with a fixed configuration
type ChromeLauncher struct {
	Config Config
	Logger *zap.Logger
}

func (l ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	return Launch(ctx, l.Config, l.Logger)
}

// Manager is the shared browser handle
type Manager struct {
	cfg           Config
	log           *zap.Logger
	mu            sync.Mutex
	closed        bool
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

var _ Browser = (*Manager)(nil)

// Launch starts the Chrome process. The process lives until Close is called; ctx only bounds start-up.
func Launch(ctx context.Context, cfg Config, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.UserAgent(cfg.userAgentOrDefault()),
	)
	if path := strings.TrimSpace(cfg.ExecPath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := ctx.Err(); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	// The first Run must use the browser context itself: it starts the process, and a cancelled
	// child context would take the process down with it.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info("browser started", zap.Bool("headless", cfg.Headless))
	return &Manager{
		cfg:           cfg,
		log:           log,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// NewPage opens a new tab in the shared browser. Safe for concurrent use.
func (m *Manager) NewPage(ctx context.Context) (Page, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	browserCtx := m.browserCtx
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newChromePage(browserCtx, m.cfg)
}

// Close terminates the browser process and invalidates every page opened from it
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.browserCancel()
	m.allocCancel()
	m.log.Info("browser closed")
	return nil
}
