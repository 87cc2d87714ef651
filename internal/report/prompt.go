package report

import (
	"fmt"
	"strings"

	"MarketReview/internal/model"
)

const (
	promptNewsLimit    = 6
	promptTitleLimit   = 50
	promptSnippetLimit = 100
)

// glyph returns the direction marker for a percent change.
func glyph(changePct float64) string {
	switch {
	case changePct > 0:
		return "↑"
	case changePct < 0:
		return "↓"
	default:
		return "-"
	}
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func indicesBlock(snap *model.MarketSnapshot) string {
	var b strings.Builder
	for _, idx := range snap.Indices {
		b.WriteString(fmt.Sprintf("- %s: %.2f (%s%.2f%%)\n",
			idx.Name, idx.Current, glyph(idx.ChangePct), abs(idx.ChangePct)))
	}
	return b.String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sectorsLine(entries []model.SectorEntry, limit int) string {
	if len(entries) > limit {
		entries = entries[:limit]
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s(%+.2f%%)", e.Name, e.ChangePct))
	}
	return strings.Join(parts, ", ")
}

func newsBlock(news []model.NewsItem) string {
	if len(news) > promptNewsLimit {
		news = news[:promptNewsLimit]
	}
	var b strings.Builder
	for i, n := range news {
		b.WriteString(fmt.Sprintf("%d. %s\n   %s\n",
			i+1, truncateRunes(n.Title, promptTitleLimit), truncateRunes(n.Snippet, promptSnippetLimit)))
	}
	return b.String()
}

func northFlowLine(m model.Metric) string {
	if !m.Present {
		return "暂无数据"
	}
	return fmt.Sprintf("%+.2f 亿元", m.Value)
}

func leveragePromptBlock(lv model.LeverageIndicator, warningThreshold float64) string {
	if lv.Ratio <= 0 {
		return "暂无数据"
	}
	warning := ""
	if lv.Warning {
		warning = "\n【警告】触发逃顶信号！"
	}
	return fmt.Sprintf("- 两市融资余额: %.0f亿\n- 两市总市值: %.0f亿\n- 融资/市值比: %.2f%% (阈值: %.1f%%)%s",
		lv.MarginBalance, lv.TotalMarketCap, lv.Ratio, warningThreshold, warning)
}

// BuildPrompt renders the fixed review prompt from the snapshot and news.
// Empty snapshot sections appear as explicit 暂无数据 markers, and an
// extra guard instruction forbids invented index levels when no index
// data arrived.
func BuildPrompt(snap *model.MarketSnapshot, news []model.NewsItem, warningThreshold float64) string {
	indices := indicesBlock(snap)
	topSectors := sectorsLine(snap.TopSectors, 3)
	bottomSectors := sectorsLine(snap.BottomSectors, 3)
	newsText := newsBlock(news)

	var b strings.Builder
	b.WriteString("你是一位专业的A股市场分析师，请根据以下数据生成一份简洁的大盘复盘报告。\n\n")
	b.WriteString("【重要】输出要求：\n")
	b.WriteString("- 必须输出纯 Markdown 文本格式\n")
	b.WriteString("- 禁止输出 JSON 格式\n")
	b.WriteString("- 禁止输出代码块\n")
	b.WriteString("- emoji 仅在标题处少量使用（每个标题最多1个）\n\n")
	b.WriteString("---\n\n# 今日市场数据\n\n")
	b.WriteString("## 日期\n" + snap.Date + "\n\n")

	b.WriteString("## 主要指数\n")
	if indices != "" {
		b.WriteString(indices)
	} else {
		b.WriteString("暂无指数数据（接口异常）\n")
	}

	b.WriteString("\n## 市场概况\n")
	b.WriteString(fmt.Sprintf("- 上涨: %d 家 | 下跌: %d 家 | 平盘: %d 家\n", snap.UpCount, snap.DownCount, snap.FlatCount))
	b.WriteString(fmt.Sprintf("- 涨停: %d 家 | 跌停: %d 家\n", snap.LimitUpCount, snap.LimitDownCount))
	b.WriteString(fmt.Sprintf("- 两市成交额: %.0f 亿元\n", snap.TotalAmount))
	b.WriteString("- 北向资金: " + northFlowLine(snap.NorthFlow) + "\n")

	b.WriteString("\n## 牛市逃顶指标\n")
	b.WriteString(leveragePromptBlock(snap.Leverage, warningThreshold) + "\n")

	b.WriteString("\n## 板块表现\n")
	b.WriteString("领涨: " + orNoData(topSectors) + "\n")
	b.WriteString("领跌: " + orNoData(bottomSectors) + "\n")

	b.WriteString("\n## 市场新闻\n")
	if newsText != "" {
		b.WriteString(newsText)
	} else {
		b.WriteString("暂无相关新闻\n")
	}

	if indices == "" {
		b.WriteString("\n注意：由于行情数据获取失败，请主要根据【市场新闻】进行定性分析和总结，不要编造具体的指数点位。\n")
	}

	b.WriteString("\n---\n\n# 输出格式模板（请严格按此格式输出）\n\n")
	b.WriteString("## 📊 " + snap.Date + " 大盘复盘\n\n")
	b.WriteString("### 一、市场总结\n（2-3句话概括今日市场整体表现，包括指数涨跌、成交量变化）\n\n")
	b.WriteString("### 二、指数点评\n（分析上证、深证、创业板等各指数走势特点）\n\n")
	b.WriteString("### 三、资金动向\n（解读成交额和北向资金流向的含义）\n\n")
	b.WriteString("### 四、逃顶指标分析\n（分析融资余额/总市值比值，判断市场是否过热，是否触发逃顶警告）\n\n")
	b.WriteString("### 五、热点解读\n（分析领涨领跌板块背后的逻辑和驱动因素）\n\n")
	b.WriteString("### 六、后市展望\n（结合当前走势和新闻，给出明日市场预判）\n\n")
	b.WriteString("### 七、风险提示\n（需要关注的风险点，特别是如果逃顶指标异常需要重点提示）\n\n")
	b.WriteString("---\n\n请直接输出复盘报告内容，不要输出其他说明文字。\n")
	return b.String()
}

func orNoData(s string) string {
	if s == "" {
		return "暂无数据"
	}
	return s
}
