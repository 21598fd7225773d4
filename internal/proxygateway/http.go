package proxygateway

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/model"
)

// httpFetcher implements tierFetcher for ModeNoJS: a plain net/http client
// with no JavaScript execution.
type httpFetcher struct {
	client     *http.Client
	cfg        *config.ProxyGatewayConfig
	logger     *slog.Logger
	userAgents []string
	uaIndex    atomic.Int64
}

func newHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*httpFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.ProxyGateway.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.ProxyGateway.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.ProxyGateway.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decompression is handled explicitly below, brotli included
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !cfg.ProxyGateway.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.ProxyGateway.MaxRedirects {
			return fmt.Errorf("max redirects (%d) reached", cfg.ProxyGateway.MaxRedirects)
		}
		return nil
	}

	client := &http.Client{
		Transport:     transport,
		Jar:           jar,
		Timeout:       cfg.Crawler.RequestTimeout,
		CheckRedirect: redirectPolicy,
	}

	return &httpFetcher{
		client:     client,
		cfg:        &cfg.ProxyGateway,
		logger:     logger.With("component", "http_fetcher"),
		userAgents: cfg.Crawler.UserAgents,
	}, nil
}

func (f *httpFetcher) Mode() model.ProxyMode { return model.ModeNoJS }

func (f *httpFetcher) Fetch(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URLString(), nil)
	if err != nil {
		return nil, &model.PermanentFetchError{URL: req.URLString(), Mode: f.Mode(), Err: err}
	}

	httpReq.Header.Set("User-Agent", f.nextUserAgent())
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	httpReq.Header.Set("Connection", "keep-alive")

	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}

	if len(req.Body) > 0 {
		httpReq.Body = io.NopCloser(&bytesReaderSimple{data: req.Body})
		httpReq.ContentLength = int64(len(req.Body))
	}

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		if isRetryableError(err) {
			return nil, &model.TransientFetchError{URL: req.URLString(), Mode: f.Mode(), Err: err}
		}
		return nil, &model.PermanentFetchError{URL: req.URLString(), Mode: f.Mode(), Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &model.TransientFetchError{
			URL:        req.URLString(),
			StatusCode: httpResp.StatusCode,
			Mode:       f.Mode(),
			Err:        fmt.Errorf("HTTP 429: rate limited: %s", strings.TrimSpace(string(body))),
			RetryAfter: retryAfter,
		}
	}

	if httpResp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, &model.TransientFetchError{
			URL:        req.URLString(),
			StatusCode: httpResp.StatusCode,
			Mode:       f.Mode(),
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(body)),
		}
	}

	var reader io.Reader = httpResp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}
	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, &model.PermanentFetchError{URL: req.URLString(), Mode: f.Mode(), Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &model.TransientFetchError{URL: req.URLString(), Mode: f.Mode(), Err: err}
	}

	resp := model.NewFetchResponse(req, httpResp, body, duration, f.Mode())

	f.logger.Debug("fetch complete",
		"url", req.URLString(),
		"status", resp.StatusCode,
		"size", len(body),
		"duration", duration,
	)

	return resp, nil
}

func (f *httpFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func (f *httpFetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return "crawlchat/" + config.Version
	}
	idx := f.uaIndex.Add(1) % int64(len(f.userAgents))
	return f.userAgents[idx]
}

func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) || errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 5 * time.Second
}

type bytesReaderSimple struct {
	data []byte
	pos  int
}

func (r *bytesReaderSimple) Read(p []byte) (n int, err error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n = copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// RandomDelay returns a random delay around the base duration (+/-25%),
// used between same-host fetches to avoid a metronomic request pattern.
func RandomDelay(base time.Duration) time.Duration {
	jitter := float64(base) * 0.25
	return base + time.Duration(rand.Float64()*2*jitter-jitter)
}
