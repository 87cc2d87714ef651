package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const sseSummaryURL = "https://query.sse.com.cn/commonQuery.do?sqlId=COMMON_SSE_SJ_GPSJ_GPSJZM_TJSJ_L&PRODUCT_NAME=%E8%82%A1%E7%A5%A8%2C%E4%B8%BB%E6%9D%BF%2C%E7%A7%91%E5%88%9B%E6%9D%BF&type=inParams"

// sseMetrics maps report row labels to the endpoint's field names.
// Values are reported in 亿元 (亿 for counts).
var sseMetrics = []struct {
	Label string
	Field string
}{
	{"上市公司", "LIST_COM_NUM"},
	{"总股本", "TOTAL_ISSUE_VOL"},
	{"流通股本", "NEGO_ISSUE_VOL"},
	{"总市值", "TOTAL_VALUE"},
	{"流通市值", "NEGO_VALUE"},
	{"平均市盈率", "AVG_PE_RATE"},
}

// SSESummaryClient implements ExchangeSummarySource against the Shanghai
// Stock Exchange statistics endpoint. The raw response is one object per
// product board; it is pivoted here into category/value rows so the
// caller sees the same 项目/股票 table shape the venue publishes.
type SSESummaryClient struct {
	Client *http.Client
}

// NewSSESummaryClient creates a client with optional proxy support.
func NewSSESummaryClient(proxyURL string) *SSESummaryClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &SSESummaryClient{
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

// FetchSummary returns the SSE market summary as 项目-keyed rows with one
// column per product board (股票 / 主板 / 科创板).
func (c *SSESummaryClient) FetchSummary(ctx context.Context) ([]SummaryRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sseSummaryURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://www.sse.com.cn/")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sse summary fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sse summary read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sse summary: status %d", resp.StatusCode)
	}

	result := gjson.GetBytes(body, "result")
	if !result.Exists() || len(result.Array()) == 0 {
		return nil, fmt.Errorf("sse summary: empty result")
	}

	boards := result.Array()
	rows := make([]SummaryRow, 0, len(sseMetrics))
	for _, m := range sseMetrics {
		row := SummaryRow{"项目": m.Label}
		for _, board := range boards {
			name := board.Get("PRODUCT_NAME").String()
			if name == "" {
				continue
			}
			row[name] = board.Get(m.Field).String()
		}
		rows = append(rows, row)
	}
	return rows, nil
}
