package model

// IndexQuote holds one tracked index's end-of-day snapshot.
type IndexQuote struct {
	Code      string  // exchange-prefixed code, e.g. sh000001
	Name      string  // display name, e.g. 上证指数
	Current   float64 // latest level
	Change    float64 // absolute change
	ChangePct float64 // change in percent
	Open      float64
	High      float64
	Low       float64
	PrevClose float64
	Volume    float64 // traded volume (手)
	Amount    float64 // traded value (元); secondary source leaves it 0
	Amplitude float64 // (high-low)/prevClose*100, only when prevClose > 0
}

// SectorEntry is one row of the top/bottom sector ranking.
type SectorEntry struct {
	Name      string
	ChangePct float64
}

// Metric is a float value with an explicit presence flag, so that
// "never fetched" is distinguishable from a genuine zero.
type Metric struct {
	Value   float64
	Present bool
}

// LeverageIndicator is the margin-balance / total-market-cap warning signal.
// All fields are set together or not at all: a ratio is never reported
// without both operands.
type LeverageIndicator struct {
	MarginBalance  float64 // 亿元
	TotalMarketCap float64 // 亿元
	Ratio          float64 // percent, rounded to 2 decimals
	Warning        bool    // ratio strictly above the warning threshold
	DataDate       string
}

// MarketSnapshot aggregates everything collected for one calendar day.
// Each pipeline stage populates a disjoint subset of its fields; missing
// data leaves the zero defaults in place.
type MarketSnapshot struct {
	Date    string
	Indices []IndexQuote // canonical index order, 0-6 entries

	UpCount        int
	DownCount      int
	FlatCount      int
	LimitUpCount   int
	LimitDownCount int
	TotalAmount    float64 // combined turnover (亿元)

	// North-bound flow has no implemented fetch path; it stays absent
	// and must be rendered as "no data", not as zero flow.
	NorthFlow Metric

	TopSectors    []SectorEntry // up to 5
	BottomSectors []SectorEntry // up to 5

	Leverage LeverageIndicator
}

// CompositeIndex returns the Shanghai composite quote if it was resolved.
func (s *MarketSnapshot) CompositeIndex() *IndexQuote {
	for i := range s.Indices {
		if s.Indices[i].Code == "sh000001" {
			return &s.Indices[i]
		}
	}
	return nil
}
