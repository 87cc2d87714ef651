// Package report turns a market snapshot plus news into the daily review
// text, via an LLM when one is configured and a fixed template otherwise.
package report

import (
	"context"
	"log"
	"time"

	"MarketReview/internal/llm"
	"MarketReview/internal/model"
)

// Synthesizer produces the review text. The generative path is chosen
// once per invocation; any failure there falls back to the template, so
// synthesis always yields a report.
type Synthesizer struct {
	Generator  llm.TextGenerator
	Options    llm.Options
	Thresholds Thresholds
	Now        func() time.Time // injected for deterministic tests
}

// NewSynthesizer creates a synthesizer; gen may be nil for template-only.
func NewSynthesizer(gen llm.TextGenerator, opts llm.Options, th Thresholds) *Synthesizer {
	return &Synthesizer{
		Generator:  gen,
		Options:    opts,
		Thresholds: th,
		Now:        time.Now,
	}
}

// Synthesize returns the review text and whether the generative path
// produced it.
func (s *Synthesizer) Synthesize(ctx context.Context, snap *model.MarketSnapshot, news []model.NewsItem) (string, bool) {
	if s.Generator != nil && s.Generator.Available() {
		prompt := BuildPrompt(snap, news, s.Thresholds.Warning)
		log.Println("[INFO] 调用大模型生成复盘报告...")
		text, err := s.Generator.Generate(ctx, prompt, s.Options)
		if err != nil {
			log.Printf("[WARN] 大模型生成复盘报告失败: %v", err)
		} else if text != "" {
			log.Printf("[INFO] 复盘报告生成成功，长度: %d 字符", len([]rune(text)))
			return text, true
		} else {
			log.Println("[WARN] 大模型返回为空")
		}
	} else {
		log.Println("[WARN] AI分析器未配置或不可用，使用模板生成报告")
	}
	return RenderTemplate(snap, s.Thresholds, s.Now()), false
}
