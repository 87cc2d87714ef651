package collector

import (
	"context"
	"errors"
	"math"
	"testing"

	"MarketReview/internal/config"
	"MarketReview/internal/model"
)

var testIndices = []config.IndexSpec{
	{Code: "sh000001", Name: "上证指数"},
	{Code: "sz399001", Name: "深证成指"},
	{Code: "sz399006", Name: "创业板指"},
	{Code: "sh000688", Name: "科创50"},
	{Code: "sh000016", Name: "上证50"},
	{Code: "sh000300", Name: "沪深300"},
}

type fakeBatch struct {
	rows  []IndexRow
	err   error
	calls int
}

func (f *fakeBatch) FetchIndexSpot(_ context.Context) ([]IndexRow, error) {
	f.calls++
	return f.rows, f.err
}

type fakeHistory struct {
	bars  map[string][]model.OHLCV
	errs  map[string]error
	calls int
}

func (f *fakeHistory) FetchRecent(_ context.Context, code string, _ int) ([]model.OHLCV, error) {
	f.calls++
	if err := f.errs[code]; err != nil {
		return nil, err
	}
	return f.bars[code], nil
}

type fakeMarket struct {
	rows []QuoteRow
	err  error
}

func (f *fakeMarket) FetchMarketSpot(_ context.Context) ([]QuoteRow, error) {
	return f.rows, f.err
}

type fakeSectors struct {
	rows []SectorRow
	err  error
}

func (f *fakeSectors) FetchSectorSpot(_ context.Context) ([]SectorRow, error) {
	return f.rows, f.err
}

func newTestCollector(batch IndexBatchSource, history IndexHistorySource, market FullMarketSource, sectors SectorSource) *Collector {
	return NewCollector(testIndices, batch, history, market, sectors, 1)
}

func indexRow(code string, current, changePct, high, low, prevClose float64) IndexRow {
	return IndexRow{
		Code: code, Name: "n", Current: current, ChangePct: changePct,
		High: high, Low: low, PrevClose: prevClose,
	}
}

func TestResolveIndices_PrimaryFull(t *testing.T) {
	batch := &fakeBatch{rows: []IndexRow{
		indexRow("sh000001", 3250, 0.5, 3260, 3230, 3233.8),
		indexRow("sz399001", 10500, -0.3, 10600, 10450, 10531.6),
		indexRow("sz399006", 2100, 1.2, 2110, 2070, 2075.1),
		indexRow("sh000688", 980, 0.1, 990, 975, 979),
		indexRow("sh000016", 2700, 0.2, 2710, 2690, 2694.6),
		indexRow("sh000300", 3900, 0.4, 3910, 3880, 3884.5),
	}}
	history := &fakeHistory{}
	c := newTestCollector(batch, history, nil, nil)

	quotes := c.ResolveIndices(context.Background())
	if len(quotes) != 6 {
		t.Fatalf("expected 6 quotes, got %d", len(quotes))
	}
	if history.calls != 0 {
		t.Errorf("history fallback should not run, got %d calls", history.calls)
	}
	// canonical order follows the index table
	if quotes[0].Name != "上证指数" || quotes[5].Name != "沪深300" {
		t.Errorf("unexpected order: %s ... %s", quotes[0].Name, quotes[5].Name)
	}
}

func TestResolveIndices_PartialPrimaryDoesNotFallBack(t *testing.T) {
	batch := &fakeBatch{rows: []IndexRow{
		indexRow("sh000001", 3250, 0.5, 3260, 3230, 3233.8),
		indexRow("sz399001", 10500, -0.3, 10600, 10450, 10531.6),
		indexRow("sz399006", 2100, 1.2, 2110, 2070, 2075.1),
	}}
	history := &fakeHistory{bars: map[string][]model.OHLCV{}}
	c := newTestCollector(batch, history, nil, nil)

	quotes := c.ResolveIndices(context.Background())
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}
	if history.calls != 0 {
		t.Error("3/6 primary matches must not trigger the fallback")
	}
}

func TestResolveIndices_SubstringMatch(t *testing.T) {
	batch := &fakeBatch{rows: []IndexRow{
		indexRow("x.sh000001", 3250, 0.5, 3260, 3230, 3233.8),
	}}
	c := newTestCollector(batch, &fakeHistory{}, nil, nil)

	quotes := c.ResolveIndices(context.Background())
	if len(quotes) != 1 || quotes[0].Code != "sh000001" {
		t.Fatalf("expected substring match for sh000001, got %+v", quotes)
	}
}

func TestResolveIndices_AmplitudeOnlyWithPrevClose(t *testing.T) {
	batch := &fakeBatch{rows: []IndexRow{
		indexRow("sh000001", 3250, 0.5, 3300, 3200, 3233.8),
		indexRow("sz399001", 10500, -0.3, 10600, 10450, 0), // no prev close
	}}
	c := newTestCollector(batch, &fakeHistory{}, nil, nil)

	quotes := c.ResolveIndices(context.Background())
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	want := (3300.0 - 3200.0) / 3233.8 * 100
	if math.Abs(quotes[0].Amplitude-want) > 1e-9 {
		t.Errorf("amplitude: expected %.4f, got %.4f", want, quotes[0].Amplitude)
	}
	if quotes[1].Amplitude != 0 {
		t.Errorf("amplitude must stay 0 when prevClose is 0, got %.4f", quotes[1].Amplitude)
	}
}

func TestResolveIndices_FallbackOnEmptyPrimary(t *testing.T) {
	history := &fakeHistory{
		bars: map[string][]model.OHLCV{
			"sh000001": {
				{Open: 3200, High: 3260, Low: 3190, Close: 3220, Volume: 100},
				{Open: 3220, High: 3290, Low: 3210, Close: 3250, Volume: 120},
			},
			"sz399001": {
				{Open: 10400, High: 10600, Low: 10350, Close: 10500, Volume: 80},
			},
		},
		errs: map[string]error{
			"sz399006": errors.New("lookup failed"),
		},
	}
	c := newTestCollector(&fakeBatch{}, history, nil, nil)

	quotes := c.ResolveIndices(context.Background())
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes from fallback, got %d", len(quotes))
	}

	// two-point history: change from the last two closes
	sh := quotes[0]
	if sh.Code != "sh000001" {
		t.Fatalf("expected sh000001 first, got %s", sh.Code)
	}
	if math.Abs(sh.Change-30) > 1e-9 {
		t.Errorf("expected change 30, got %.2f", sh.Change)
	}
	if math.Abs(sh.ChangePct-30.0/3220*100) > 1e-9 {
		t.Errorf("unexpected change pct %.4f", sh.ChangePct)
	}
	if sh.Amount != 0 {
		t.Errorf("secondary source must leave amount 0, got %.2f", sh.Amount)
	}

	// single-point history: previous == current, zero change
	sz := quotes[1]
	if sz.Change != 0 || sz.ChangePct != 0 {
		t.Errorf("single point must yield zero change, got %.2f (%.2f%%)", sz.Change, sz.ChangePct)
	}
}

func TestResolveIndices_FallbackOnPrimaryError(t *testing.T) {
	history := &fakeHistory{
		bars: map[string][]model.OHLCV{
			"sh000300": {{Close: 3900}},
		},
	}
	c := newTestCollector(&fakeBatch{err: errors.New("boom")}, history, nil, nil)

	quotes := c.ResolveIndices(context.Background())
	if len(quotes) != 1 || quotes[0].Code != "sh000300" {
		t.Fatalf("expected one fallback quote, got %+v", quotes)
	}
}

func TestResolveIndices_AllSourcesDown(t *testing.T) {
	history := &fakeHistory{errs: map[string]error{}}
	for _, spec := range testIndices {
		history.errs[spec.Code] = errors.New("down")
	}
	c := newTestCollector(&fakeBatch{err: errors.New("boom")}, history, nil, nil)

	quotes := c.ResolveIndices(context.Background())
	if len(quotes) != 0 {
		t.Fatalf("expected empty result, got %d", len(quotes))
	}
}

func TestCollectBreadth(t *testing.T) {
	changes := []float64{10.0, 9.9, 5, 0, -3, -9.9, -10, math.NaN()}
	rows := make([]QuoteRow, len(changes))
	for i, chg := range changes {
		rows[i] = QuoteRow{ChangePct: chg, Amount: 1e8}
	}
	c := newTestCollector(nil, nil, &fakeMarket{rows: rows}, nil)

	snap := &model.MarketSnapshot{}
	c.CollectBreadth(context.Background(), snap)

	if snap.UpCount != 3 || snap.DownCount != 3 || snap.FlatCount != 1 {
		t.Errorf("counts: expected 3/3/1, got %d/%d/%d", snap.UpCount, snap.DownCount, snap.FlatCount)
	}
	if snap.LimitUpCount != 2 || snap.LimitDownCount != 2 {
		t.Errorf("limits: expected 2/2, got %d/%d", snap.LimitUpCount, snap.LimitDownCount)
	}
	if math.Abs(snap.TotalAmount-8) > 1e-9 {
		t.Errorf("expected total 8亿, got %.2f", snap.TotalAmount)
	}
}

func TestCollectBreadth_SourceFailure(t *testing.T) {
	c := newTestCollector(nil, nil, &fakeMarket{err: errors.New("down")}, nil)
	snap := &model.MarketSnapshot{}
	c.CollectBreadth(context.Background(), snap)

	if snap.UpCount != 0 || snap.DownCount != 0 || snap.TotalAmount != 0 {
		t.Errorf("expected zero defaults on failure, got %+v", snap)
	}
}

func TestCollectSectors_Ranking(t *testing.T) {
	rows := []SectorRow{
		{Name: "半导体", ChangePct: 3.2},
		{Name: "白酒", ChangePct: -2.1},
		{Name: "券商", ChangePct: 1.1},
		{Name: "保险", ChangePct: 1.1}, // tie with 券商, keeps source order
		{Name: "煤炭", ChangePct: -0.4},
		{Name: "停牌板", ChangePct: math.NaN()},
		{Name: "军工", ChangePct: 2.5},
		{Name: "地产", ChangePct: -3.7},
	}
	c := newTestCollector(nil, nil, nil, &fakeSectors{rows: rows})
	snap := &model.MarketSnapshot{}
	c.CollectSectors(context.Background(), snap)

	if len(snap.TopSectors) != 5 || len(snap.BottomSectors) != 5 {
		t.Fatalf("expected 5/5 entries, got %d/%d", len(snap.TopSectors), len(snap.BottomSectors))
	}
	if snap.TopSectors[0].Name != "半导体" || snap.TopSectors[1].Name != "军工" {
		t.Errorf("unexpected top order: %+v", snap.TopSectors)
	}
	if snap.TopSectors[2].Name != "券商" || snap.TopSectors[3].Name != "保险" {
		t.Errorf("tie must keep source order: %+v", snap.TopSectors)
	}
	if snap.BottomSectors[0].Name != "地产" || snap.BottomSectors[1].Name != "白酒" {
		t.Errorf("unexpected bottom order: %+v", snap.BottomSectors)
	}
}

func TestCollectSectors_FewerThanFive(t *testing.T) {
	rows := []SectorRow{
		{Name: "半导体", ChangePct: 3.2},
		{Name: "白酒", ChangePct: -2.1},
		{Name: "券商", ChangePct: 1.1},
	}
	c := newTestCollector(nil, nil, nil, &fakeSectors{rows: rows})
	snap := &model.MarketSnapshot{}
	c.CollectSectors(context.Background(), snap)

	if len(snap.TopSectors) != 3 || len(snap.BottomSectors) != 3 {
		t.Errorf("expected 3/3 entries without padding, got %d/%d", len(snap.TopSectors), len(snap.BottomSectors))
	}
}

func TestCollectSectors_SourceFailure(t *testing.T) {
	c := newTestCollector(nil, nil, nil, &fakeSectors{err: errors.New("down")})
	snap := &model.MarketSnapshot{}
	c.CollectSectors(context.Background(), snap)

	if len(snap.TopSectors) != 0 || len(snap.BottomSectors) != 0 {
		t.Errorf("expected empty lists on failure, got %+v", snap)
	}
}
