package dom

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	json "github.com/goccy/go-json"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/presenter"
)

// ChromeConfig tunes the headless browser page.
type ChromeConfig struct {
	// IdleAfter is how long the network must be quiet after navigation.
	IdleAfter time.Duration `yaml:"idle_after"`
	// MaxIdleWait bounds the wait for network idle.
	MaxIdleWait time.Duration `yaml:"max_idle_wait"`
	Headless    bool          `yaml:"headless"`
}

func DefaultChromeConfig() ChromeConfig {
	return ChromeConfig{IdleAfter: 2 * time.Second, MaxIdleWait: 30 * time.Second, Headless: true}
}

// ChromePage is a Page rendered by a real browser through chromedp.
type ChromePage struct {
	url    string
	cfg    ChromeConfig
	logger logging.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	navigateOnce sync.Once
	navigateErr  error
}

// NewChromePage starts a browser tab for url. Navigation is deferred to the
// first AnchorReady call.
func NewChromePage(url string, cfg ChromeConfig, logger logging.Logger, opts ...chromedp.ExecAllocatorOption) (*ChromePage, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	allocOpts = append(allocOpts, opts...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// start the browser now so a missing binary fails fast
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("dom: start browser: %w", err)
	}

	return &ChromePage{
		url:         url,
		cfg:         cfg,
		logger:      logger.With(logging.Field{Key: "component", Value: "chrome_page"}),
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}, nil
}

func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idle := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMu sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idle) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})
	startTimer()
	return idle
}

func (p *ChromePage) navigate(ctx context.Context) error {
	p.navigateOnce.Do(func() {
		idle := waitNetworkIdle(p.ctx, p.cfg.IdleAfter)
		if err := chromedp.Run(p.ctx, network.Enable(), chromedp.Navigate(p.url)); err != nil {
			p.navigateErr = fmt.Errorf("dom: navigate %s: %w", p.url, err)
			return
		}
		select {
		case <-idle:
		case <-time.After(p.cfg.MaxIdleWait):
			p.logger.Warn("network never went idle", logging.Field{Key: "url", Value: p.url})
		case <-ctx.Done():
			p.navigateErr = ctx.Err()
		}
	})
	return p.navigateErr
}

func (p *ChromePage) AnchorReady(ctx context.Context) (bool, error) {
	if err := p.navigate(ctx); err != nil {
		return false, err
	}
	var ready bool
	script := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(AnchorSelector))
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &ready)); err != nil {
		return false, fmt.Errorf("dom: query comment header: %w", err)
	}
	return ready, nil
}

const insertScript = `(() => {
  const anchor = document.querySelector(%s);
  if (!anchor) return false;
  const tpl = document.createElement("template");
  tpl.innerHTML = %s;
  const node = tpl.content.firstElementChild;
  const existing = document.getElementById(%s);
  if (existing) { existing.replaceWith(node); return true; }
  anchor.insertBefore(node, anchor.children[%d] || null);
  return true;
})()`

func (p *ChromePage) Insert(_ context.Context, t *presenter.RenderTree) error {
	markup, err := RenderHTML(t)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(insertScript,
		jsString(AnchorSelector), jsString(markup), jsString(presenter.ContainerID), InsertIndex)

	var ok bool
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("dom: insert analysis: %w", err)
	}
	if !ok {
		return ErrAnchorMissing
	}
	return nil
}

// OuterHTML returns the live document markup.
func (p *ChromePage) OuterHTML() (string, error) {
	var out string
	err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &out))
	return out, err
}

func (p *ChromePage) Close() error {
	p.cancel()
	p.allocCancel()
	return nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
