package proxygateway

import (
	"context"

	"github.com/crawlchat/crawlchat/internal/model"
)

// tierFetcher is implemented by each proxy-mode-specific fetcher (plain
// HTTP, headless browser, stealth browser).
type tierFetcher interface {
	Fetch(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, error)
	Close() error
	Mode() model.ProxyMode
}
