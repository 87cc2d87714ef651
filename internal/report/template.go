package report

import (
	"fmt"
	"strings"
	"time"

	"MarketReview/internal/model"
)

// Thresholds are the leverage banner tiers, in percent.
type Thresholds struct {
	Warning float64 // strictly above => warning banner (flag set upstream)
	Watch   float64
	Normal  float64
}

// marketMood classifies the day from the composite index, or falls back
// to a neutral label when that index is absent.
func marketMood(snap *model.MarketSnapshot) string {
	idx := snap.CompositeIndex()
	if idx == nil {
		return "震荡整理"
	}
	switch {
	case idx.ChangePct > 1:
		return "强势上涨"
	case idx.ChangePct > 0:
		return "小幅上涨"
	case idx.ChangePct > -1:
		return "小幅下跌"
	default:
		return "明显下跌"
	}
}

// leverageBanner returns the qualitative status line and advisory tip for
// the indicator's tier.
func leverageBanner(lv model.LeverageIndicator, th Thresholds) (string, string) {
	switch {
	case lv.Warning:
		return "🔴 **警告：触发逃顶信号！**",
			fmt.Sprintf("融资余额占比超过 %.1f%%，市场过热，建议谨慎操作", th.Warning)
	case lv.Ratio > th.Watch:
		return "🟡 **关注：接近警戒线**",
			fmt.Sprintf("融资余额占比接近 %.1f%%，市场情绪偏热", th.Warning)
	case lv.Ratio > th.Normal:
		return "🟢 **正常：市场情绪适中**", "融资余额占比处于合理区间"
	default:
		return "🟢 **安全：市场情绪偏冷**", "融资余额占比较低，市场相对安全"
	}
}

// leverageTable renders the indicator as a table plus its tier banner, or
// an explicit no-data line when the indicator was not computed.
func leverageTable(lv model.LeverageIndicator, th Thresholds) string {
	if lv.Ratio <= 0 {
		return "暂无数据（融资余额或总市值数据获取失败）"
	}
	status, tip := leverageBanner(lv, th)
	return fmt.Sprintf(`| 指标 | 数值 |
|------|------|
| 两市融资余额 | %.0f亿 |
| 两市总市值 | %.0f亿 |
| 融资/市值比 | **%.2f%%** |
| 逃顶阈值 | %.1f%% |

%s

> 💡 %s`, lv.MarginBalance, lv.TotalMarketCap, lv.Ratio, th.Warning, status, tip)
}

func sectorNameList(entries []model.SectorEntry, limit int) string {
	if len(entries) > limit {
		entries = entries[:limit]
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return strings.Join(names, "、")
}

// hasBreadth reports whether the breadth stage produced any data.
func hasBreadth(snap *model.MarketSnapshot) bool {
	return snap.UpCount != 0 || snap.DownCount != 0 || snap.FlatCount != 0 || snap.TotalAmount != 0
}

// RenderTemplate deterministically renders the review from the snapshot.
// Missing sections render as 暂无数据, never as fabricated numbers. The
// trailing timestamp line is the only input-independent output.
func RenderTemplate(snap *model.MarketSnapshot, th Thresholds, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## 📊 %s 大盘复盘\n\n", snap.Date))

	b.WriteString("### 一、市场总结\n")
	b.WriteString(fmt.Sprintf("今日A股市场整体呈现**%s**态势。\n\n", marketMood(snap)))

	b.WriteString("### 二、指数点评\n")
	if len(snap.Indices) == 0 {
		b.WriteString("暂无数据（指数行情获取失败）\n")
	} else {
		limit := 4
		if len(snap.Indices) < limit {
			limit = len(snap.Indices)
		}
		for _, idx := range snap.Indices[:limit] {
			b.WriteString(fmt.Sprintf("- **%s**: %.2f (%s%.2f%%)\n",
				idx.Name, idx.Current, glyph(idx.ChangePct), abs(idx.ChangePct)))
		}
	}
	b.WriteString("\n### 三、资金动向\n")
	if !hasBreadth(snap) {
		b.WriteString("暂无数据（涨跌统计获取失败）\n")
	} else {
		b.WriteString("| 指标 | 数值 |\n|------|------|\n")
		b.WriteString(fmt.Sprintf("| 上涨家数 | %d |\n", snap.UpCount))
		b.WriteString(fmt.Sprintf("| 下跌家数 | %d |\n", snap.DownCount))
		b.WriteString(fmt.Sprintf("| 涨停 | %d |\n", snap.LimitUpCount))
		b.WriteString(fmt.Sprintf("| 跌停 | %d |\n", snap.LimitDownCount))
		b.WriteString(fmt.Sprintf("| 两市成交额 | %.0f亿 |\n", snap.TotalAmount))
		b.WriteString(fmt.Sprintf("| 北向资金 | %s |\n", northFlowLine(snap.NorthFlow)))
	}

	b.WriteString("\n### 四、逃顶指标分析\n")
	b.WriteString(leverageTable(snap.Leverage, th) + "\n")

	b.WriteString("\n### 五、热点解读\n")
	if len(snap.TopSectors) == 0 && len(snap.BottomSectors) == 0 {
		b.WriteString("暂无数据（板块行情获取失败）\n")
	} else {
		b.WriteString(fmt.Sprintf("- **领涨**: %s\n", orNoData(sectorNameList(snap.TopSectors, 3))))
		b.WriteString(fmt.Sprintf("- **领跌**: %s\n", orNoData(sectorNameList(snap.BottomSectors, 3))))
	}

	b.WriteString("\n### 六、后市展望\n")
	b.WriteString(fmt.Sprintf("短期市场或延续**%s**格局，关注量能变化与板块轮动节奏。\n", marketMood(snap)))

	b.WriteString("\n### 七、风险提示\n")
	if snap.Leverage.Warning {
		b.WriteString("- ⚠️ 逃顶指标已触发警告，融资盘占比过高，注意控制仓位。\n")
	}
	if len(snap.Indices) == 0 || !hasBreadth(snap) || snap.Leverage.Ratio <= 0 {
		b.WriteString("- 今日部分行情数据暂无数据，以上内容仅基于可得数据生成。\n")
	}
	b.WriteString("- 市场有风险，投资需谨慎。以上数据仅供参考，不构成投资建议。\n")

	b.WriteString(fmt.Sprintf("\n---\n*复盘时间: %s*\n", now.Format("15:04")))
	return b.String()
}
