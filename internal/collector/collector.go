package collector

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"MarketReview/internal/config"
	"MarketReview/internal/model"
)

const sectorRankSize = 5

// Collector builds the market snapshot from the configured sources.
// Every source failure degrades to empty fields; Collect never fails.
type Collector struct {
	Indices  []config.IndexSpec
	Batch    IndexBatchSource
	History  IndexHistorySource
	Market   FullMarketSource
	Sectors  SectorSource
	Attempts int
}

// NewCollector creates a new Collector.
func NewCollector(indices []config.IndexSpec, batch IndexBatchSource, history IndexHistorySource, market FullMarketSource, sectors SectorSource, attempts int) *Collector {
	return &Collector{
		Indices:  indices,
		Batch:    batch,
		History:  history,
		Market:   market,
		Sectors:  sectors,
		Attempts: attempts,
	}
}

// Collect builds the snapshot for today: index quotes, breadth counts and
// sector rankings. The leverage indicator is populated by its own stage.
func (c *Collector) Collect(ctx context.Context) *model.MarketSnapshot {
	snap := &model.MarketSnapshot{Date: time.Now().Format("2006-01-02")}

	snap.Indices = c.ResolveIndices(ctx)
	log.Printf("[INFO] resolved %d index quotes", len(snap.Indices))

	c.CollectBreadth(ctx, snap)
	c.CollectSectors(ctx, snap)

	return snap
}

// ResolveIndices resolves the tracked indices from the primary batch
// source, falling back index-by-index to the history source only when the
// primary yields zero matches. A partial primary result is returned as-is.
func (c *Collector) ResolveIndices(ctx context.Context) []model.IndexQuote {
	var quotes []model.IndexQuote

	rows, ok := FetchWithRetry(ctx, "指数行情", c.Attempts, func() ([]IndexRow, error) {
		return c.Batch.FetchIndexSpot(ctx)
	})
	if ok {
		for _, spec := range c.Indices {
			row, found := matchIndexRow(rows, spec.Code)
			if !found {
				continue
			}
			q := model.IndexQuote{
				Code:      spec.Code,
				Name:      spec.Name,
				Current:   row.Current,
				Change:    row.Change,
				ChangePct: row.ChangePct,
				Open:      row.Open,
				High:      row.High,
				Low:       row.Low,
				PrevClose: row.PrevClose,
				Volume:    row.Volume,
				Amount:    row.Amount,
			}
			if q.PrevClose > 0 {
				q.Amplitude = (q.High - q.Low) / q.PrevClose * 100
			}
			quotes = append(quotes, q)
		}
	}

	if len(quotes) == 0 && c.History != nil {
		log.Printf("[WARN] primary index source yielded nothing, falling back to history source")
		quotes = c.resolveFromHistory(ctx)
	}

	return quotes
}

// matchIndexRow finds a row by exact code, then by substring.
func matchIndexRow(rows []IndexRow, code string) (IndexRow, bool) {
	for _, r := range rows {
		if r.Code == code {
			return r, true
		}
	}
	for _, r := range rows {
		if strings.Contains(r.Code, code) || strings.Contains(code, r.Code) {
			return r, true
		}
	}
	return IndexRow{}, false
}

// resolveFromHistory builds quotes from two-point price histories. A
// failure for one index skips only that index.
func (c *Collector) resolveFromHistory(ctx context.Context) []model.IndexQuote {
	var quotes []model.IndexQuote
	for _, spec := range c.Indices {
		bars, err := c.History.FetchRecent(ctx, spec.Code, 2)
		if err != nil || len(bars) == 0 {
			log.Printf("[WARN] history fallback for %s failed: %v", spec.Name, err)
			continue
		}
		last := bars[len(bars)-1]
		prev := last
		if len(bars) > 1 {
			prev = bars[len(bars)-2]
		}
		change := last.Close - prev.Close
		changePct := 0.0
		if prev.Close != 0 {
			changePct = change / prev.Close * 100
		}
		q := model.IndexQuote{
			Code:      spec.Code,
			Name:      spec.Name,
			Current:   last.Close,
			Change:    change,
			ChangePct: changePct,
			Open:      last.Open,
			High:      last.High,
			Low:       last.Low,
			PrevClose: prev.Close,
			Volume:    last.Volume,
		}
		if q.PrevClose > 0 {
			q.Amplitude = (q.High - q.Low) / q.PrevClose * 100
		}
		quotes = append(quotes, q)
		log.Printf("[INFO] history fallback resolved %s", spec.Name)
	}
	return quotes
}

// CollectBreadth fills up/down/flat, limit-up/limit-down counts and total
// turnover from the full-market table. Rows with NaN change are excluded
// from every bucket; failure leaves the zero defaults.
func (c *Collector) CollectBreadth(ctx context.Context, snap *model.MarketSnapshot) {
	rows, ok := FetchWithRetry(ctx, "A股实时行情", c.Attempts, func() ([]QuoteRow, error) {
		return c.Market.FetchMarketSpot(ctx)
	})
	if !ok {
		return
	}

	var amount float64
	for _, r := range rows {
		amount += r.Amount
		if math.IsNaN(r.ChangePct) {
			continue
		}
		switch {
		case r.ChangePct > 0:
			snap.UpCount++
		case r.ChangePct < 0:
			snap.DownCount++
		default:
			snap.FlatCount++
		}
		if r.ChangePct >= 9.9 {
			snap.LimitUpCount++
		}
		if r.ChangePct <= -9.9 {
			snap.LimitDownCount++
		}
	}
	snap.TotalAmount = amount / 1e8 // yuan -> 亿元

	log.Printf("[INFO] breadth 涨:%d 跌:%d 平:%d 涨停:%d 跌停:%d 成交额:%.0f亿",
		snap.UpCount, snap.DownCount, snap.FlatCount,
		snap.LimitUpCount, snap.LimitDownCount, snap.TotalAmount)
}

// CollectSectors fills the top/bottom sector rankings. Ties keep source
// row order; fewer than five valid rows yield shorter lists.
func (c *Collector) CollectSectors(ctx context.Context, snap *model.MarketSnapshot) {
	rows, ok := FetchWithRetry(ctx, "行业板块行情", c.Attempts, func() ([]SectorRow, error) {
		return c.Sectors.FetchSectorSpot(ctx)
	})
	if !ok {
		return
	}

	valid := make([]SectorRow, 0, len(rows))
	for _, r := range rows {
		if !math.IsNaN(r.ChangePct) {
			valid = append(valid, r)
		}
	}
	snap.TopSectors = rankSectors(valid, true)
	snap.BottomSectors = rankSectors(valid, false)

	log.Printf("[INFO] sectors 领涨:%s 领跌:%s",
		sectorNames(snap.TopSectors), sectorNames(snap.BottomSectors))
}

func rankSectors(rows []SectorRow, top bool) []model.SectorEntry {
	sorted := make([]SectorRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if top {
			return sorted[i].ChangePct > sorted[j].ChangePct
		}
		return sorted[i].ChangePct < sorted[j].ChangePct
	})
	n := sectorRankSize
	if len(sorted) < n {
		n = len(sorted)
	}
	entries := make([]model.SectorEntry, 0, n)
	for _, r := range sorted[:n] {
		entries = append(entries, model.SectorEntry{Name: r.Name, ChangePct: r.ChangePct})
	}
	return entries
}

func sectorNames(entries []model.SectorEntry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return strings.Join(names, "、")
}
