package report

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"MarketReview/internal/model"
)

var testThresholds = Thresholds{Warning: 3.5, Watch: 3.0, Normal: 2.5}

func fixedClock() time.Time {
	return time.Date(2026, 8, 29, 18, 30, 0, 0, time.Local)
}

func fullSnapshot() *model.MarketSnapshot {
	return &model.MarketSnapshot{
		Date: "2026-08-29",
		Indices: []model.IndexQuote{
			{Code: "sh000001", Name: "上证指数", Current: 3250.12, ChangePct: 0.52},
			{Code: "sz399001", Name: "深证成指", Current: 10512.34, ChangePct: -0.31},
			{Code: "sz399006", Name: "创业板指", Current: 2101.88, ChangePct: 1.24},
			{Code: "sh000300", Name: "沪深300", Current: 3901.45, ChangePct: 0.40},
		},
		UpCount: 2800, DownCount: 2100, FlatCount: 300,
		LimitUpCount: 45, LimitDownCount: 12,
		TotalAmount: 9876,
		TopSectors: []model.SectorEntry{
			{Name: "半导体", ChangePct: 3.2}, {Name: "军工", ChangePct: 2.5},
			{Name: "券商", ChangePct: 1.1}, {Name: "保险", ChangePct: 1.0},
		},
		BottomSectors: []model.SectorEntry{
			{Name: "地产", ChangePct: -3.7}, {Name: "白酒", ChangePct: -2.1},
		},
		Leverage: model.LeverageIndicator{
			MarginBalance: 18000, TotalMarketCap: 900000,
			Ratio: 2.0, Warning: false, DataDate: "2026-08-29",
		},
	}
}

func TestRenderTemplate_EmptySnapshot(t *testing.T) {
	snap := &model.MarketSnapshot{Date: "2026-08-29"}
	out := RenderTemplate(snap, testThresholds, fixedClock())

	for _, want := range []string{
		"### 一、市场总结",
		"### 二、指数点评",
		"### 三、资金动向",
		"### 四、逃顶指标分析",
		"### 五、热点解读",
		"### 六、后市展望",
		"### 七、风险提示",
		"暂无数据（指数行情获取失败）",
		"暂无数据（涨跌统计获取失败）",
		"暂无数据（融资余额或总市值数据获取失败）",
		"暂无数据（板块行情获取失败）",
		"震荡整理",
		"- 今日部分行情数据暂无数据，以上内容仅基于可得数据生成。",
		"市场有风险，投资需谨慎",
		"*复盘时间: 18:30*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// an empty snapshot must never render fabricated index levels
	if regexp.MustCompile(`\d+\.\d{2} \([↑↓-]`).MatchString(out) {
		t.Error("empty snapshot rendered numeric index levels")
	}
}

func TestRenderTemplate_Idempotent(t *testing.T) {
	snap := fullSnapshot()
	first := RenderTemplate(snap, testThresholds, fixedClock())
	second := RenderTemplate(snap, testThresholds, fixedClock())
	if first != second {
		t.Error("same snapshot and clock must render byte-identical output")
	}
}

func TestRenderTemplate_FullSnapshot(t *testing.T) {
	out := RenderTemplate(fullSnapshot(), testThresholds, fixedClock())

	for _, want := range []string{
		"## 📊 2026-08-29 大盘复盘",
		"**小幅上涨**",
		"- **上证指数**: 3250.12 (↑0.52%)",
		"- **深证成指**: 10512.34 (↓0.31%)",
		"| 上涨家数 | 2800 |",
		"| 涨停 | 45 |",
		"| 两市成交额 | 9876亿 |",
		"| 北向资金 | 暂无数据 |",
		"| 两市融资余额 | 18000亿 |",
		"| 融资/市值比 | **2.00%** |",
		"- **领涨**: 半导体、军工、券商",
		"- **领跌**: 地产、白酒",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, "保险") {
		t.Error("sector list must be capped at three names")
	}
	if strings.Contains(out, "逃顶指标已触发警告") {
		t.Error("warning bullet must not appear when the flag is unset")
	}
	if strings.Contains(out, "今日部分行情数据暂无数据") {
		t.Error("data-gap bullet must not appear on a complete snapshot")
	}
}

func TestRenderTemplate_WarningBullet(t *testing.T) {
	snap := fullSnapshot()
	snap.Leverage.Ratio = 3.62
	snap.Leverage.Warning = true
	out := RenderTemplate(snap, testThresholds, fixedClock())

	if !strings.Contains(out, "逃顶指标已触发警告") {
		t.Error("expected warning bullet in the risk section")
	}
	if !strings.Contains(out, "🔴 **警告：触发逃顶信号！**") {
		t.Error("expected red banner in the indicator section")
	}
}

func TestMarketMood(t *testing.T) {
	cases := []struct {
		name      string
		changePct float64
		want      string
	}{
		{"strong rally", 1.2, "强势上涨"},
		{"just above one", 1.01, "强势上涨"},
		{"mild rally", 0.5, "小幅上涨"},
		{"flat counts as mild dip", 0, "小幅下跌"},
		{"mild dip", -0.5, "小幅下跌"},
		{"clear drop", -1.5, "明显下跌"},
		{"exactly minus one", -1, "明显下跌"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := &model.MarketSnapshot{Indices: []model.IndexQuote{
				{Code: "sh000001", Name: "上证指数", ChangePct: tc.changePct},
			}}
			if got := marketMood(snap); got != tc.want {
				t.Errorf("changePct %.2f: expected %s, got %s", tc.changePct, tc.want, got)
			}
		})
	}

	t.Run("composite index absent", func(t *testing.T) {
		snap := &model.MarketSnapshot{Indices: []model.IndexQuote{
			{Code: "sz399001", Name: "深证成指", ChangePct: 2.0},
		}}
		if got := marketMood(snap); got != "震荡整理" {
			t.Errorf("expected 震荡整理 without the composite index, got %s", got)
		}
	})
}

func TestLeverageBanner_Tiers(t *testing.T) {
	cases := []struct {
		name    string
		lv      model.LeverageIndicator
		wantTag string
	}{
		{"warning flag", model.LeverageIndicator{Ratio: 3.6, Warning: true}, "🔴"},
		{"watch tier", model.LeverageIndicator{Ratio: 3.2}, "🟡"},
		{"normal tier", model.LeverageIndicator{Ratio: 2.8}, "正常"},
		{"safe tier", model.LeverageIndicator{Ratio: 2.0}, "安全"},
		{"watch boundary stays normal", model.LeverageIndicator{Ratio: 3.0}, "正常"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, tip := leverageBanner(tc.lv, testThresholds)
			if !strings.Contains(status, tc.wantTag) {
				t.Errorf("expected banner containing %q, got %q", tc.wantTag, status)
			}
			if tip == "" {
				t.Error("expected a non-empty advisory tip")
			}
		})
	}
}

func TestNorthFlowLine(t *testing.T) {
	if got := northFlowLine(model.Metric{}); got != "暂无数据" {
		t.Errorf("absent metric: expected 暂无数据, got %q", got)
	}
	if got := northFlowLine(model.Metric{Value: -12.3, Present: true}); got != "-12.30 亿元" {
		t.Errorf("present metric: got %q", got)
	}
	if got := northFlowLine(model.Metric{Value: 5, Present: true}); got != "+5.00 亿元" {
		t.Errorf("positive metric must carry a sign, got %q", got)
	}
}
