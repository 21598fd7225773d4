package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Client talks to a managed OCR provider: submit an image, poll for the
// recognized text. The submit-then-poll shape mirrors the CAPTCHA solving
// integration in internal/proxygateway, which hits the same kind of
// asynchronous third-party recognition API.
type Client struct {
	provider string
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

func NewClient(provider, endpoint, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		provider: provider,
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 120 * time.Second},
		logger:   logger.With("component", "ocr_client"),
	}
}

// Block is one recognized region of text, in reading order, with its
// bounding box preserved so downstream callers can reconstruct layout
// (e.g. table rows) without a pointer-graph of parent/child nodes.
type Block struct {
	Text       string
	X, Y, W, H float64
}

// Page is the OCR result for a single rendered page or image, represented
// as a flat arena of Blocks rather than a tree of pointers so it can be
// serialized and walked without cycles.
type Page struct {
	Blocks []Block
}

// Recognize submits imageBytes for OCR and returns the recognized blocks.
// If the provider is "none" (the default, no managed OCR configured) it
// returns an empty page rather than erroring, so callers can fall through
// to the next tier.
func (c *Client) Recognize(ctx context.Context, imageBytes []byte) (*Page, error) {
	if c.provider == "" || c.provider == "none" {
		return &Page{}, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"api_key": c.apiKey,
		"image":   base64.StdEncoding.EncodeToString(imageBytes),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/submit", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	submitResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit ocr job: %w", err)
	}
	defer submitResp.Body.Close()

	var submitResult struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(submitResp.Body).Decode(&submitResult); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}

	for i := 0; i < 40; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}

		pollReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/result/"+submitResult.JobID, nil)
		pollResp, err := c.http.Do(pollReq)
		if err != nil {
			continue
		}

		var result struct {
			Status string `json:"status"`
			Blocks []struct {
				Text string  `json:"text"`
				X    float64 `json:"x"`
				Y    float64 `json:"y"`
				W    float64 `json:"w"`
				H    float64 `json:"h"`
			} `json:"blocks"`
		}
		decodeErr := json.NewDecoder(pollResp.Body).Decode(&result)
		pollResp.Body.Close()
		if decodeErr != nil {
			continue
		}

		if result.Status == "done" {
			page := &Page{Blocks: make([]Block, len(result.Blocks))}
			for i, b := range result.Blocks {
				page.Blocks[i] = Block{Text: b.Text, X: b.X, Y: b.Y, W: b.W, H: b.H}
			}
			return page, nil
		}
		if result.Status == "error" {
			return nil, fmt.Errorf("ocr job failed")
		}
	}

	return nil, fmt.Errorf("ocr poll timeout")
}

// Text concatenates every block's text in reading order.
func (p *Page) Text() string {
	var buf bytes.Buffer
	for _, b := range p.Blocks {
		buf.WriteString(b.Text)
		buf.WriteByte('\n')
	}
	return buf.String()
}
