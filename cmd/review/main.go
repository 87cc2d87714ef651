package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"MarketReview/internal/collector"
	"MarketReview/internal/config"
	"MarketReview/internal/indicator"
	"MarketReview/internal/llm"
	"MarketReview/internal/news"
	"MarketReview/internal/notifier"
	"MarketReview/internal/recorder"
	"MarketReview/internal/report"
	"MarketReview/internal/review"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketReview starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Data sources
	codes := make([]string, 0, len(cfg.Indices))
	for _, idx := range cfg.Indices {
		codes = append(codes, idx.Code)
	}
	em := collector.NewEastMoneyClient(codes, cfg.Proxy)
	history := collector.NewYahooFetcher(cfg.Proxy)

	col := collector.NewCollector(cfg.Indices, em, history, em, em, cfg.Fetch.RetryAttempts)
	lev := indicator.NewLeverage(em,
		collector.NewSSESummaryClient(cfg.Proxy),
		collector.NewSZSEWebClient(cfg.Proxy),
		cfg.Leverage.WarningThreshold, cfg.Fetch.RetryAttempts)

	// News search
	var searcher news.Searcher
	if cfg.Search.APIKey != "" {
		searcher = news.NewBochaClient(cfg.Search.APIKey, cfg.Search.BaseURL)
	} else {
		log.Println("[WARN] no search api key, news section will be empty")
	}
	agg := news.NewAggregator(searcher)

	// Text generator
	var gen llm.TextGenerator
	switch cfg.LLM.Provider {
	case "openai":
		gen = llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	case "gemini":
		gen = llm.NewGeminiClient(cfg.LLM.APIKey, cfg.LLM.Model)
	default:
		log.Println("[WARN] no llm provider configured, using template reports")
	}
	synth := report.NewSynthesizer(gen,
		llm.Options{Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens},
		report.Thresholds{
			Warning: cfg.Leverage.WarningThreshold,
			Watch:   cfg.Leverage.WatchThreshold,
			Normal:  cfg.Leverage.NormalThreshold,
		})

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Notifier (optional)
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	runner := review.NewRunner(col, lev, agg, synth, tn, rec)
	text := runner.RunDailyReview(context.Background())

	fmt.Println(text)
	log.Println("[INFO] MarketReview done")
}
