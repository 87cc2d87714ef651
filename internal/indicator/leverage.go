package indicator

import (
	"context"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"MarketReview/internal/collector"
	"MarketReview/internal/model"
)

// szse report field-name variants, empirically observed on the report
// endpoint. The ordered scan is authoritative, no single variant is.
var (
	szseCategoryKeys = []string{"lbmc", "zqlb", "证券类别"}
	szseCapKeys      = []string{"sjzz", "zsz", "总市值"}
)

// Leverage computes the margin-balance / total-market-cap ratio, the
// bull-market top-escape signal. The ratio and warning flag are set only
// when both operands are strictly positive.
type Leverage struct {
	Margin           collector.MarginAccountSource
	Summary          collector.ExchangeSummarySource
	Web              collector.ExchangeWebEndpoint
	WarningThreshold float64 // percent, warning strictly above
	Attempts         int
}

// NewLeverage creates the indicator stage.
func NewLeverage(margin collector.MarginAccountSource, summary collector.ExchangeSummarySource, web collector.ExchangeWebEndpoint, warningThreshold float64, attempts int) *Leverage {
	return &Leverage{
		Margin:           margin,
		Summary:          summary,
		Web:              web,
		WarningThreshold: warningThreshold,
		Attempts:         attempts,
	}
}

// Populate fills the snapshot's leverage block. Incomplete inputs leave
// every derived field at its zero default: the indicator reports "no
// data", never a partial ratio.
func (l *Leverage) Populate(ctx context.Context, snap *model.MarketSnapshot) {
	marginBalance, dataDate := l.marginBalance(ctx)
	totalCap := l.totalMarketCap(ctx)

	if marginBalance <= 0 || totalCap <= 0 {
		log.Printf("[WARN] leverage indicator incomplete: 融资余额=%.0f 总市值=%.0f", marginBalance, totalCap)
		return
	}

	ratio := math.Round(marginBalance/totalCap*100*100) / 100
	snap.Leverage = model.LeverageIndicator{
		MarginBalance:  marginBalance,
		TotalMarketCap: totalCap,
		Ratio:          ratio,
		Warning:        ratio > l.WarningThreshold,
		DataDate:       dataDate,
	}

	status := "正常"
	if snap.Leverage.Warning {
		status = "⚠️ 触发逃顶警告!"
	}
	log.Printf("[INFO] 逃顶指标: 融资余额=%.0f亿 总市值=%.0f亿 比值=%.2f%% %s",
		marginBalance, totalCap, ratio, status)
}

// marginBalance returns the latest margin financing balance (亿元) and its
// statistics date. Any failure yields 0.
func (l *Leverage) marginBalance(ctx context.Context) (float64, string) {
	rows, ok := collector.FetchWithRetry(ctx, "融资融券账户信息", l.Attempts, func() ([]collector.MarginRow, error) {
		return l.Margin.FetchMarginAccounts(ctx)
	})
	if !ok || len(rows) == 0 {
		return 0, ""
	}

	sorted := make([]collector.MarginRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })

	latest := sorted[0]
	if latest.FinancingBalance <= 0 {
		return 0, ""
	}
	return latest.FinancingBalance, latest.Date
}

// totalMarketCap sums the two exchange totals (亿元). Each sub-fetch
// degrades to 0 independently.
func (l *Leverage) totalMarketCap(ctx context.Context) float64 {
	sse := l.sseMarketCap(ctx)
	szse := l.szseMarketCap(ctx)
	log.Printf("[INFO] 两市总市值: 上交所=%.0f亿 + 深交所=%.0f亿", sse, szse)
	return sse + szse
}

// sseMarketCap reads the 股票 column of the 总市值 row from the SSE
// summary table, falling back to a column scan on structural mismatch.
func (l *Leverage) sseMarketCap(ctx context.Context) float64 {
	rows, ok := collector.FetchWithRetry(ctx, "上交所市值统计", l.Attempts, func() ([]collector.SummaryRow, error) {
		return l.Summary.FetchSummary(ctx)
	})
	if !ok || len(rows) == 0 {
		return 0
	}

	for _, row := range rows {
		if row["项目"] != "总市值" {
			continue
		}
		if cap, err := parseAmount(row["股票"]); err == nil && cap > 0 {
			return cap
		}
	}

	// Expected shape not found: scan for any market-cap-like column.
	for _, key := range summaryKeys(rows) {
		if !strings.Contains(key, "市值") && !strings.Contains(strings.ToLower(key), "market") {
			continue
		}
		sum := 0.0
		numeric := false
		for _, row := range rows {
			if v, err := parseAmount(row[key]); err == nil {
				sum += v
				numeric = true
			}
		}
		if numeric && sum > 0 {
			return sum
		}
	}
	return 0
}

// szseMarketCap scrapes the SZSE report for today's stock total market
// value (亿元). Single attempt; any failure yields 0.
func (l *Leverage) szseMarketCap(ctx context.Context) float64 {
	date := time.Now().Format("2006-01-02")
	raw, err := l.Web.Fetch(ctx, date)
	if err != nil {
		log.Printf("[WARN] 深交所API调用失败 (日期: %s): %v", date, err)
		return 0
	}
	cap := ParseSZSEMarketCap(raw)
	if cap <= 0 {
		log.Printf("[WARN] 深交所市值解析失败 (日期: %s)", date)
	}
	return cap
}

// ParseSZSEMarketCap extracts the stock total market value (亿元) from the
// raw SZSE report JSON: an array of tables, each with a data row list.
func ParseSZSEMarketCap(raw []byte) float64 {
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return 0
	}
	for _, table := range parsed.Array() {
		for _, row := range table.Get("data").Array() {
			if firstField(row, szseCategoryKeys) != "股票" {
				continue
			}
			capStr := firstField(row, szseCapKeys)
			if capStr == "" {
				continue
			}
			if cap, err := parseAmount(capStr); err == nil && cap > 0 {
				return cap
			}
		}
	}
	return 0
}

// firstField is a schema-tolerant accessor: it tries the candidate keys
// in order and returns the first non-empty value.
func firstField(row gjson.Result, keys []string) string {
	for _, key := range keys {
		if v := row.Get(key); v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// parseAmount parses a venue-formatted number, tolerating thousands
// separators and a currency-unit suffix.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "亿元")
	return strconv.ParseFloat(s, 64)
}

// summaryKeys returns the union of column names, sorted for a stable scan.
func summaryKeys(rows []collector.SummaryRow) []string {
	set := map[string]struct{}{}
	for _, row := range rows {
		for k := range row {
			if k != "项目" {
				set[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
