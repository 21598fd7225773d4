package model

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FetchResponse is the result of fetching a FetchRequest through the proxy
// gateway, regardless of which tier handled it.
type FetchResponse struct {
	StatusCode    int
	Headers       http.Header
	Body          []byte
	Request       *FetchRequest
	ContentType   string
	ContentLength int64
	FinalURL      string
	FetchedVia    ProxyMode

	doc *goquery.Document

	FetchDuration time.Duration
	FetchedAt     time.Time
	Meta          map[string]any
}

// NewFetchResponse builds a FetchResponse from a raw http.Response body.
func NewFetchResponse(req *FetchRequest, httpResp *http.Response, body []byte, duration time.Duration, via ProxyMode) *FetchResponse {
	return &FetchResponse{
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          body,
		Request:       req,
		ContentType:   httpResp.Header.Get("Content-Type"),
		ContentLength: int64(len(body)),
		FinalURL:      httpResp.Request.URL.String(),
		FetchedVia:    via,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
		Meta:          make(map[string]any),
	}
}

// NewBrowserFetchResponse builds a FetchResponse from headless browser
// output, which has no underlying http.Response.
func NewBrowserFetchResponse(req *FetchRequest, statusCode int, body []byte, finalURL string, duration time.Duration, via ProxyMode) *FetchResponse {
	return &FetchResponse{
		StatusCode:    statusCode,
		Headers:       make(http.Header),
		Body:          body,
		Request:       req,
		ContentType:   "text/html",
		ContentLength: int64(len(body)),
		FinalURL:      finalURL,
		FetchedVia:    via,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
		Meta:          make(map[string]any),
	}
}

// Document returns a parsed goquery document, lazily initializing it.
func (r *FetchResponse) Document() (*goquery.Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(io.NopCloser(bytes.NewReader(r.Body)))
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return doc, nil
}

func (r *FetchResponse) IsSuccess() bool      { return r.StatusCode >= 200 && r.StatusCode < 300 }
func (r *FetchResponse) IsRedirect() bool     { return r.StatusCode >= 300 && r.StatusCode < 400 }
func (r *FetchResponse) IsClientError() bool  { return r.StatusCode >= 400 && r.StatusCode < 500 }
func (r *FetchResponse) IsServerError() bool  { return r.StatusCode >= 500 && r.StatusCode < 600 }
