package proxygateway

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/crawlchat/crawlchat/internal/cache"
	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/observability"
)

// HostCapabilityCache memoizes the minimum ProxyMode a given host has been
// observed to require, so the gateway can start future fetches at that
// tier instead of re-discovering it by escalating from ModeNoJS every time.
type HostCapabilityCache struct {
	backend cache.Cache
	ttl     time.Duration
}

func NewHostCapabilityCache(backend cache.Cache) *HostCapabilityCache {
	return &HostCapabilityCache{backend: backend, ttl: 24 * time.Hour}
}

func (h *HostCapabilityCache) Get(ctx context.Context, host string) (model.ProxyMode, bool) {
	raw, ok, err := h.backend.Get(ctx, "hostcap:"+host)
	if err != nil || !ok {
		return model.ModeNoJS, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return model.ModeNoJS, false
	}
	return model.ProxyMode(n), true
}

func (h *HostCapabilityCache) Set(ctx context.Context, host string, mode model.ProxyMode) {
	_ = h.backend.Set(ctx, "hostcap:"+host, strconv.Itoa(int(mode)), h.ttl)
}

// Gateway fetches a URL, escalating through proxy modes (NoJS -> Standard
// -> Premium -> Stealth) until one succeeds or the ladder is exhausted.
// A CAPTCHA challenge detected mid-ladder triggers an auxiliary solve
// attempt before continuing the escalation.
type Gateway struct {
	cfg       *config.Config
	tiers     map[model.ProxyMode]tierFetcher
	hostCache *HostCapabilityCache
	captcha   *CAPTCHASolver
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewGateway builds the full escalation ladder. Browser tiers are launched
// lazily on first use to avoid paying Chromium startup cost for crawls that
// never need more than ModeNoJS. metrics may be nil when metrics are
// disabled.
func NewGateway(cfg *config.Config, hostCache *HostCapabilityCache, metrics *observability.Metrics, logger *slog.Logger) (*Gateway, error) {
	httpT, err := newHTTPFetcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init nojs tier: %w", err)
	}

	gw := &Gateway{
		tiers:     map[model.ProxyMode]tierFetcher{model.ModeNoJS: httpT},
		hostCache: hostCache,
		metrics:   metrics,
		logger:    logger.With("component", "proxy_gateway"),
	}

	if cfg.ProxyGateway.CaptchaAPIKey != "" {
		gw.captcha = NewCAPTCHASolver(cfg.ProxyGateway.CaptchaProvider, cfg.ProxyGateway.CaptchaAPIKey, "", logger)
	}

	gw.cfg = cfg
	return gw, nil
}

// retriesFor returns the bounded retry count for a tier per §4.1: 2 for
// Standard/Premium, 1 for Stealth and NoJS.
func (g *Gateway) retriesFor(mode model.ProxyMode) int {
	switch mode {
	case model.ModeStandard, model.ModePremium:
		if n := g.cfg.ProxyGateway.StandardRetries; n > 0 {
			return n
		}
		return 2
	case model.ModeStealth:
		if n := g.cfg.ProxyGateway.StealthRetries; n > 0 {
			return n
		}
		return 1
	default:
		return 1
	}
}

func (g *Gateway) retryBackoff() time.Duration {
	if g.cfg.ProxyGateway.RetryBackoff > 0 {
		return g.cfg.ProxyGateway.RetryBackoff
	}
	return time.Second
}

// fetchTier runs one tier's fetch with its bounded retry count, sleeping
// retryBackoff between attempts. It stops early on a PermanentFetchError
// or context cancellation, neither of which a retry can fix.
func (g *Gateway) fetchTier(ctx context.Context, tier tierFetcher, mode model.ProxyMode, req *model.FetchRequest) (*model.FetchResponse, error) {
	retries := g.retriesFor(mode)

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if g.metrics != nil {
			g.metrics.RequestsTotal.WithLabelValues(mode.String()).Inc()
		}

		resp, err := tier.Fetch(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var perm *model.PermanentFetchError
		if asPermanent(err, &perm) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}

		if attempt < retries {
			if g.metrics != nil {
				g.metrics.RequestsRetried.WithLabelValues(mode.String()).Inc()
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.retryBackoff()):
			}
		}
	}

	if g.metrics != nil {
		g.metrics.RequestsFailed.WithLabelValues(mode.String()).Inc()
		g.metrics.ProxyErrors.WithLabelValues(mode.String()).Inc()
	}
	return nil, lastErr
}

// cfg is kept to lazily construct browser tiers on demand.
func (g *Gateway) lazyTier(mode model.ProxyMode) (tierFetcher, error) {
	if t, ok := g.tiers[mode]; ok {
		return t, nil
	}
	bf, err := newBrowserFetcher(g.cfg, g.logger, mode)
	if err != nil {
		return nil, err
	}
	g.tiers[mode] = bf
	return bf, nil
}

// Fetch runs the escalation ladder for req, starting at the host's cached
// capability (if known) or req.Mode otherwise.
func (g *Gateway) Fetch(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, error) {
	start := req.Mode
	if g.hostCache != nil {
		if cached, ok := g.hostCache.Get(ctx, req.Domain()); ok && cached > start {
			start = cached
		}
	}

	var lastErr error
	for mode := start; ; mode = mode.Next() {
		tier, err := g.lazyTier(mode)
		if err != nil {
			lastErr = err
			if mode == model.ModeStealth {
				break
			}
			continue
		}

		resp, err := g.fetchTier(ctx, tier, mode, req)
		if err == nil {
			if ctype, sitekey := DetectCAPTCHA(string(resp.Body)); ctype != "" && g.captcha != nil {
				if solved := g.trySolveCaptcha(ctx, req, ctype, sitekey); !solved && mode != model.ModeStealth {
					lastErr = fmt.Errorf("captcha detected, unresolved at mode %s", mode)
					continue
				}
			}
			if g.hostCache != nil && mode > start {
				g.hostCache.Set(ctx, req.Domain(), mode)
			}
			return resp, nil
		}

		var perm *model.PermanentFetchError
		if asPermanent(err, &perm) {
			return nil, err
		}

		lastErr = err
		g.logger.Debug("tier failed, escalating", "url", req.URLString(), "mode", mode, "error", err)

		if mode == model.ModeStealth {
			break
		}
		if g.metrics != nil {
			g.metrics.ProxyRotations.WithLabelValues(mode.Next().String()).Inc()
		}
	}

	if lastErr == nil {
		lastErr = model.ErrModeExhausted
	}
	return nil, fmt.Errorf("%w: %v", model.ErrModeExhausted, lastErr)
}

func (g *Gateway) trySolveCaptcha(ctx context.Context, req *model.FetchRequest, ctype CAPTCHAType, sitekey string) bool {
	sol, err := g.captcha.Solve(ctx, &CAPTCHARequest{
		Type:    ctype,
		SiteKey: sitekey,
		SiteURL: req.URLString(),
	})
	if err != nil {
		g.logger.Warn("captcha solve failed", "url", req.URLString(), "error", err)
		return false
	}
	req.Meta["captcha_solution"] = sol.Solution
	return true
}

func asPermanent(err error, target **model.PermanentFetchError) bool {
	p, ok := err.(*model.PermanentFetchError)
	if ok {
		*target = p
	}
	return ok
}

// Close releases every launched tier's resources.
func (g *Gateway) Close() error {
	var firstErr error
	for _, t := range g.tiers {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
