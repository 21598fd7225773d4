package proxygateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/model"
)

// browserFetcher implements tierFetcher for ModeStandard, ModePremium and
// ModeStealth: a headless browser via Rod, with stealth patches applied
// only at ModeStealth.
type browserFetcher struct {
	browser  *rod.Browser
	cfg      *config.Config
	mode     model.ProxyMode
	stealthy bool
	logger   *slog.Logger
	mu       sync.Mutex
	pagePool chan *rod.Page
	maxPages int
}

func newBrowserFetcher(cfg *config.Config, logger *slog.Logger, mode model.ProxyMode) (*browserFetcher, error) {
	bf := &browserFetcher{
		cfg:      cfg,
		mode:     mode,
		stealthy: mode == model.ModeStealth,
		logger:   logger.With("component", "browser_fetcher", "mode", mode.String()),
		maxPages: cfg.ProxyGateway.BrowserPoolSize,
	}
	if bf.maxPages < 1 {
		bf.maxPages = 1
	}

	launchURL, err := bf.launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf.browser = browser
	bf.pagePool = make(chan *rod.Page, bf.maxPages)

	bf.logger.Info("browser fetcher ready", "max_pages", bf.maxPages, "stealth", bf.stealthy)

	return bf, nil
}

func (bf *browserFetcher) Mode() model.ProxyMode { return bf.mode }

func (bf *browserFetcher) launchBrowser() (string, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-web-security").
		Set("disable-features", "IsolateOrigins,site-per-process").
		Set("disable-blink-features", "AutomationControlled")

	if bf.stealthy {
		sc := DefaultStealthConfig()
		if sc.WindowSize != "" {
			l = l.Set("window-size", sc.WindowSize)
		}
	}

	return l.Launch()
}

// Fetch navigates to a URL and returns the rendered page content.
func (bf *browserFetcher) Fetch(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, error) {
	start := time.Now()

	page, err := bf.getPage()
	if err != nil {
		return nil, &model.TransientFetchError{URL: req.URLString(), Mode: bf.mode, Err: err}
	}
	defer bf.putPage(page)

	if bf.stealthy {
		page, err = stealth.Page(bf.browser)
		if err != nil {
			return nil, &model.TransientFetchError{URL: req.URLString(), Mode: bf.mode, Err: fmt.Errorf("stealth page: %w", err)}
		}
		if _, err := page.EvalOnNewDocument(StealthJS()); err != nil {
			bf.logger.Warn("stealth js injection failed", "error", err)
		}
	}

	if ua := req.Headers.Get("User-Agent"); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if len(req.Headers) > 0 {
		headers := make([]string, 0, len(req.Headers)*2)
		for k, vals := range req.Headers {
			if k == "User-Agent" {
				continue
			}
			for _, v := range vals {
				headers = append(headers, k, v)
			}
		}
		if len(headers) > 0 {
			_, _ = page.SetExtraHeaders(headers)
		}
	}

	if cookies, ok := req.Meta["cookies"]; ok {
		if cookieList, ok := cookies.([]*proto.NetworkCookieParam); ok {
			if err := page.SetCookies(cookieList); err != nil {
				bf.logger.Warn("failed to set cookies", "error", err)
			}
		}
	}

	timeout := bf.cfg.Crawler.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	if err := page.Timeout(timeout).Navigate(req.URLString()); err != nil {
		return nil, &model.TransientFetchError{URL: req.URLString(), Mode: bf.mode, Err: err}
	}

	if err := page.Timeout(timeout).WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", req.URLString(), "error", err)
	}

	if jsCode, ok := req.Meta["js_eval"]; ok {
		if js, ok := jsCode.(string); ok && js != "" {
			if _, err := page.Eval(js); err != nil {
				bf.logger.Warn("js eval error", "url", req.URLString(), "error", err)
			}
			time.Sleep(500 * time.Millisecond)
		}
	}

	if selector, ok := req.Meta["wait_selector"]; ok {
		if sel, ok := selector.(string); ok && sel != "" {
			if err := page.Timeout(10 * time.Second).MustElement(sel).WaitVisible(); err != nil {
				bf.logger.Warn("wait selector timeout", "selector", sel, "error", err)
			}
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &model.TransientFetchError{URL: req.URLString(), Mode: bf.mode, Err: err}
	}

	finalURL := req.URLString()
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	resp := model.NewBrowserFetchResponse(req, 200, []byte(html), finalURL, duration, bf.mode)

	if pageCookies, err := page.Cookies(nil); err == nil && len(pageCookies) > 0 {
		resp.Meta["cookies"] = pageCookies
	}

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(), "final_url", finalURL, "size", len(html), "duration", duration)

	return resp, nil
}

func (bf *browserFetcher) Close() error {
	close(bf.pagePool)
	for page := range bf.pagePool {
		_ = page.Close()
	}
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

func (bf *browserFetcher) getPage() (*rod.Page, error) {
	select {
	case page := <-bf.pagePool:
		return page, nil
	default:
		return bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
}

func (bf *browserFetcher) putPage(page *rod.Page) {
	_ = page.Navigate("about:blank")
	select {
	case bf.pagePool <- page:
	default:
		_ = page.Close()
	}
}
