package mq

import (
	"context"

	"github.com/crawlchat/crawlchat/internal/model"
)

// DocumentSink publishes a crawled document to the extraction/indexing
// subject, the internal/crawler.DocumentSink implementation the engine is
// wired to: a slow indexing worker never blocks the crawl itself.
type DocumentSink struct {
	client *Client
}

func NewDocumentSink(client *Client) *DocumentSink {
	return &DocumentSink{client: client}
}

func (s *DocumentSink) HandleDocument(ctx context.Context, doc *model.CrawledDocument) error {
	return s.client.PublishDocument(doc)
}
