package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const szseReportURL = "https://www.szse.cn/api/report/ShowReport/data"

// SZSEWebClient implements ExchangeWebEndpoint against the Shenzhen Stock
// Exchange market-summary report page. This is a page scrape, not a stable
// API: one attempt with a bounded timeout, no retry wrapper.
type SZSEWebClient struct {
	Client *http.Client
}

// NewSZSEWebClient creates a client with optional proxy support.
func NewSZSEWebClient(proxyURL string) *SZSEWebClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &SZSEWebClient{
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

// Fetch returns the raw JSON report for the given date (2006-01-02).
func (c *SZSEWebClient) Fetch(ctx context.Context, date string) ([]byte, error) {
	params := url.Values{}
	params.Set("SHOWTYPE", "json")
	params.Set("CATALOGID", "1803_sczm")
	params.Set("TABKEY", "tab1")
	params.Set("txtQueryDate", date)
	params.Set("random", fmt.Sprintf("%d", time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, szseReportURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://www.szse.cn/market/stock/summary/index.html")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("szse report fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("szse report read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("szse report: status %d", resp.StatusCode)
	}
	return body, nil
}
