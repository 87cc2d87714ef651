package collector

import (
	"context"

	"MarketReview/internal/model"
)

// IndexRow is one row of the primary batch index table.
type IndexRow struct {
	Code      string // exchange-prefixed, e.g. sh000001
	Name      string
	Current   float64
	Change    float64
	ChangePct float64
	Open      float64
	High      float64
	Low       float64
	PrevClose float64
	Volume    float64
	Amount    float64
}

// QuoteRow is one per-security row of the full-market table.
// ChangePct is NaN when the venue reports no change value (suspended etc.).
type QuoteRow struct {
	Code      string
	Name      string
	ChangePct float64
	Amount    float64 // traded value in yuan
}

// SectorRow is one row of the industry-board table.
// ChangePct is NaN when unparsable.
type SectorRow struct {
	Name      string
	ChangePct float64
}

// MarginRow is one row of the margin-account-statistics table.
type MarginRow struct {
	Date             string
	FinancingBalance float64 // 融资余额, 亿元
}

// SummaryRow is one loosely-typed category/value row of an exchange
// summary table. Keys are column names as reported by the venue.
type SummaryRow map[string]string

// IndexBatchSource returns quotes for many indices in one call.
type IndexBatchSource interface {
	FetchIndexSpot(ctx context.Context) ([]IndexRow, error)
}

// IndexHistorySource returns a short recent price history for one index.
// It is the per-index fallback when the batch source yields nothing.
type IndexHistorySource interface {
	FetchRecent(ctx context.Context, code string, points int) ([]model.OHLCV, error)
}

// FullMarketSource returns the per-security quote table for the whole market.
type FullMarketSource interface {
	FetchMarketSpot(ctx context.Context) ([]QuoteRow, error)
}

// SectorSource returns the per-sector quote table.
type SectorSource interface {
	FetchSectorSpot(ctx context.Context) ([]SectorRow, error)
}

// MarginAccountSource returns margin-account statistics rows.
type MarginAccountSource interface {
	FetchMarginAccounts(ctx context.Context) ([]MarginRow, error)
}

// ExchangeSummarySource returns the primary exchange's market summary table.
type ExchangeSummarySource interface {
	FetchSummary(ctx context.Context) ([]SummaryRow, error)
}

// ExchangeWebEndpoint fetches raw JSON from a direct exchange web page
// endpoint. Single attempt, bounded timeout; callers parse the payload.
type ExchangeWebEndpoint interface {
	Fetch(ctx context.Context, date string) ([]byte, error)
}
