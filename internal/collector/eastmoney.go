package collector

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// EastMoney endpoints.
const (
	eastMoneyIndexURL  = "https://push2.eastmoney.com/api/qt/ulist.np/get"
	eastMoneyListURL   = "https://82.push2.eastmoney.com/api/qt/clist/get"
	eastMoneyMarginURL = "https://datacenter-web.eastmoney.com/api/data/v1/get"

	// f2 现价 f3 涨跌幅 f4 涨跌额 f5 成交量 f6 成交额
	// f12 代码 f13 市场 f14 名称 f15 最高 f16 最低 f17 今开 f18 昨收
	indexFields = "f2,f3,f4,f5,f6,f12,f13,f14,f15,f16,f17,f18"
	quoteFields = "f3,f6,f12,f14"
	boardFields = "f3,f12,f14"

	// 全部A股 / 行业板块
	marketFS = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"
	sectorFS = "m:90+t:2+f:!50"

	listPageSize = 500
	maxListPages = 30
)

// Browser-like headers; the endpoints reject default Go clients.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	emReferer      = "https://quote.eastmoney.com/"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
)

// EastMoneyClient implements the index batch, full-market, sector and
// margin-account sources against EastMoney's public quote endpoints.
type EastMoneyClient struct {
	Client  *http.Client
	Indices []string // exchange-prefixed codes to request, e.g. sh000001
}

// NewEastMoneyClient creates a client with optional proxy support.
func NewEastMoneyClient(codes []string, proxyURL string) *EastMoneyClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &EastMoneyClient{
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		Indices: codes,
	}
}

func (c *EastMoneyClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", emReferer)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eastmoney fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eastmoney read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eastmoney: status %d", resp.StatusCode)
	}
	return body, nil
}

// secIDForCode converts sh000001 -> 1.000001, sz399001 -> 0.399001.
func secIDForCode(code string) string {
	switch {
	case strings.HasPrefix(code, "sh"):
		return "1." + code[2:]
	case strings.HasPrefix(code, "sz"):
		return "0." + code[2:]
	default:
		return code
	}
}

// codeForRow reconstructs the exchange-prefixed code from f13 (market) + f12.
func codeForRow(market int64, bare string) string {
	if market == 1 {
		return "sh" + bare
	}
	return "sz" + bare
}

// FetchIndexSpot returns quotes for the configured indices in one batch call.
func (c *EastMoneyClient) FetchIndexSpot(ctx context.Context) ([]IndexRow, error) {
	secIDs := make([]string, 0, len(c.Indices))
	for _, code := range c.Indices {
		secIDs = append(secIDs, secIDForCode(code))
	}
	u := fmt.Sprintf("%s?fltt=2&invt=2&secids=%s&fields=%s",
		eastMoneyIndexURL, strings.Join(secIDs, ","), indexFields)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	diff := gjson.GetBytes(body, "data.diff")
	if !diff.Exists() {
		return nil, fmt.Errorf("eastmoney index spot: no data.diff in response")
	}

	var rows []IndexRow
	diff.ForEach(func(_, item gjson.Result) bool {
		rows = append(rows, IndexRow{
			Code:      codeForRow(item.Get("f13").Int(), item.Get("f12").String()),
			Name:      item.Get("f14").String(),
			Current:   item.Get("f2").Float(),
			ChangePct: item.Get("f3").Float(),
			Change:    item.Get("f4").Float(),
			Volume:    item.Get("f5").Float(),
			Amount:    item.Get("f6").Float(),
			High:      item.Get("f15").Float(),
			Low:       item.Get("f16").Float(),
			Open:      item.Get("f17").Float(),
			PrevClose: item.Get("f18").Float(),
		})
		return true
	})
	return rows, nil
}

// changePct parses an f3 value, mapping "-", null and missing values
// (suspended / no quote) to NaN.
func changePct(item gjson.Result) float64 {
	f3 := item.Get("f3")
	if !f3.Exists() || f3.Type == gjson.Null {
		return math.NaN()
	}
	if f3.Type == gjson.String {
		s := strings.TrimSpace(f3.String())
		if s == "" || s == "-" {
			return math.NaN()
		}
	}
	return f3.Float()
}

// fetchList pages through a clist endpoint until all rows are read.
func (c *EastMoneyClient) fetchList(ctx context.Context, fs, fields string, visit func(item gjson.Result)) error {
	total := 0
	seen := 0
	for page := 1; page <= maxListPages; page++ {
		u := fmt.Sprintf("%s?pn=%d&pz=%d&po=1&fltt=2&invt=2&fs=%s&fields=%s",
			eastMoneyListURL, page, listPageSize, fs, fields)
		body, err := c.get(ctx, u)
		if err != nil {
			return err
		}
		total = int(gjson.GetBytes(body, "data.total").Int())
		diff := gjson.GetBytes(body, "data.diff")
		count := 0
		diff.ForEach(func(_, item gjson.Result) bool {
			visit(item)
			count++
			return true
		})
		seen += count
		if count == 0 || seen >= total || count < listPageSize {
			return nil
		}
	}
	return nil
}

// FetchMarketSpot returns the full A-share quote table.
func (c *EastMoneyClient) FetchMarketSpot(ctx context.Context) ([]QuoteRow, error) {
	var rows []QuoteRow
	err := c.fetchList(ctx, marketFS, quoteFields, func(item gjson.Result) {
		rows = append(rows, QuoteRow{
			Code:      item.Get("f12").String(),
			Name:      item.Get("f14").String(),
			ChangePct: changePct(item),
			Amount:    item.Get("f6").Float(),
		})
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("eastmoney market spot: empty result")
	}
	return rows, nil
}

// FetchSectorSpot returns the industry-board quote table.
func (c *EastMoneyClient) FetchSectorSpot(ctx context.Context) ([]SectorRow, error) {
	var rows []SectorRow
	err := c.fetchList(ctx, sectorFS, boardFields, func(item gjson.Result) {
		rows = append(rows, SectorRow{
			Name:      item.Get("f14").String(),
			ChangePct: changePct(item),
		})
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("eastmoney sector spot: empty result")
	}
	return rows, nil
}

// FetchMarginAccounts returns margin-account statistics, newest first as
// delivered by the endpoint. FIN_BALANCE is reported in 亿元.
func (c *EastMoneyClient) FetchMarginAccounts(ctx context.Context) ([]MarginRow, error) {
	u := fmt.Sprintf("%s?reportName=RPTA_WEB_MARGIN_DAILYTRADE&columns=ALL&sortColumns=STATISTICS_DATE&sortTypes=-1&pageSize=50&pageNumber=1",
		eastMoneyMarginURL)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	data := gjson.GetBytes(body, "result.data")
	if !data.Exists() {
		return nil, fmt.Errorf("eastmoney margin accounts: no result.data in response")
	}
	var rows []MarginRow
	data.ForEach(func(_, item gjson.Result) bool {
		rows = append(rows, MarginRow{
			Date:             item.Get("STATISTICS_DATE").String(),
			FinancingBalance: item.Get("FIN_BALANCE").Float(),
		})
		return true
	})
	return rows, nil
}
