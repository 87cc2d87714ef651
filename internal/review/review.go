// Package review orchestrates the daily market review pipeline.
package review

import (
	"context"
	"log"
	"time"

	"MarketReview/internal/collector"
	"MarketReview/internal/indicator"
	"MarketReview/internal/model"
	"MarketReview/internal/news"
	"MarketReview/internal/notifier"
	"MarketReview/internal/recorder"
	"MarketReview/internal/report"
)

// Runner wires the pipeline stages together. Every stage degrades to
// empty data on failure; RunDailyReview always returns a report.
type Runner struct {
	Collector *collector.Collector
	Leverage  *indicator.Leverage
	News      *news.Aggregator
	Synth     *report.Synthesizer
	Notifier  *notifier.TelegramNotifier // optional
	Recorder  recorder.Recorder
}

// NewRunner creates a runner. notif may be nil; rec must not be (use the
// noop recorder).
func NewRunner(col *collector.Collector, lev *indicator.Leverage, agg *news.Aggregator, synth *report.Synthesizer, notif *notifier.TelegramNotifier, rec recorder.Recorder) *Runner {
	return &Runner{
		Collector: col,
		Leverage:  lev,
		News:      agg,
		Synth:     synth,
		Notifier:  notif,
		Recorder:  rec,
	}
}

// RunDailyReview builds the snapshot, gathers news, synthesizes the
// review, and delivers and archives it.
func (r *Runner) RunDailyReview(ctx context.Context) string {
	log.Println("[INFO] ========== 开始大盘复盘分析 ==========")

	snap := r.Collector.Collect(ctx)
	r.Leverage.Populate(ctx, snap)
	items := r.News.Collect(ctx, time.Now())

	text, generated := r.Synth.Synthesize(ctx, snap, items)

	r.recordGaps(snap, items)
	mode := "template"
	if generated {
		mode = "llm"
	}
	if err := r.Recorder.RecordReview(&recorder.ReviewRecord{
		Date:          snap.Date,
		Mode:          mode,
		Report:        text,
		IndexCount:    len(snap.Indices),
		NewsCount:     len(items),
		LeverageRatio: snap.Leverage.Ratio,
	}); err != nil {
		log.Printf("[ERROR] record review: %v", err)
	}

	if r.Notifier != nil {
		if err := r.Notifier.SendReport(ctx, text, 3); err != nil {
			log.Printf("[ERROR] send review: %v", err)
		}
	}

	log.Println("[INFO] ========== 大盘复盘分析完成 ==========")
	return text
}

// recordGaps archives which sections came back empty for this run.
func (r *Runner) recordGaps(snap *model.MarketSnapshot, items []model.NewsItem) {
	gaps := map[string]bool{
		"indices":  len(snap.Indices) == 0,
		"breadth":  snap.UpCount == 0 && snap.DownCount == 0 && snap.FlatCount == 0 && snap.TotalAmount == 0,
		"sectors":  len(snap.TopSectors) == 0 && len(snap.BottomSectors) == 0,
		"leverage": snap.Leverage.Ratio <= 0,
		"news":     len(items) == 0,
	}
	for section, missing := range gaps {
		if !missing {
			continue
		}
		if err := r.Recorder.RecordSourceGap(&recorder.SourceGap{Date: snap.Date, Section: section}); err != nil {
			log.Printf("[ERROR] record source gap %s: %v", section, err)
		}
	}
}
