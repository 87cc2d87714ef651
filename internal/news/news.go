// Package news gathers market headlines used as review context.
package news

import (
	"context"
	"fmt"
	"log"
	"time"

	"MarketReview/internal/model"
)

const resultsPerQuery = 3

// Searcher is the news-search capability.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.NewsItem, error)
}

// Aggregator issues the fixed topic queries and concatenates the results.
// Duplicates across queries are kept.
type Aggregator struct {
	Searcher Searcher
}

// NewAggregator creates an aggregator; a nil searcher is allowed and
// yields an empty result.
func NewAggregator(s Searcher) *Aggregator {
	return &Aggregator{Searcher: s}
}

// Queries returns the three topic queries for the given day.
func Queries(now time.Time) []string {
	month := fmt.Sprintf("%d年%d月", now.Year(), int(now.Month()))
	return []string{
		"A股 大盘 复盘 " + month,
		"股市 行情 分析 今日 " + month,
		"A股 市场 热点 板块 " + month,
	}
}

// Collect runs all queries in order. Per-query failures are logged and
// skipped; the result may be empty.
func (a *Aggregator) Collect(ctx context.Context, now time.Time) []model.NewsItem {
	if a.Searcher == nil {
		log.Println("[WARN] 搜索服务未配置，跳过新闻搜索")
		return nil
	}

	var all []model.NewsItem
	for _, query := range Queries(now) {
		items, err := a.Searcher.Search(ctx, query, resultsPerQuery)
		if err != nil {
			log.Printf("[WARN] 搜索 %q 失败: %v", query, err)
			continue
		}
		all = append(all, items...)
		log.Printf("[INFO] 搜索 %q 获取 %d 条结果", query, len(items))
	}
	log.Printf("[INFO] 共获取 %d 条市场新闻", len(all))
	return all
}
