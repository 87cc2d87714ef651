package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"MarketReview/internal/model"
)

// BochaClient implements Searcher against the Bocha web-search API.
type BochaClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewBochaClient creates a search client.
func NewBochaClient(apiKey, baseURL string) *BochaClient {
	return &BochaClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Search runs one web-search query and maps the page results to NewsItems.
func (c *BochaClient) Search(ctx context.Context, query string, maxResults int) ([]model.NewsItem, error) {
	payload := map[string]interface{}{
		"query":     query,
		"freshness": "oneWeek",
		"summary":   true,
		"count":     maxResults,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var items []model.NewsItem
	pages := gjson.GetBytes(respBody, "data.webPages.value")
	pages.ForEach(func(_, page gjson.Result) bool {
		snippet := page.Get("summary").String()
		if snippet == "" {
			snippet = page.Get("snippet").String()
		}
		items = append(items, model.NewsItem{
			Title:   page.Get("name").String(),
			Snippet: snippet,
			Link:    page.Get("url").String(),
			Date:    page.Get("datePublished").String(),
		})
		return len(items) < maxResults
	})
	return items, nil
}
