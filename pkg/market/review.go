// pkg/market/review.go
package market

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"StockPilot/pkg/search"
)

// Searcher 市场情报检索依赖
type Searcher interface {
	IsAvailable() bool
	SearchComprehensiveIntel(ctx context.Context, code, name string, maxSearches int) (*search.IntelBundle, error)
	FormatIntelReport(bundle *search.IntelBundle, name string) string
}

// Completer 大盘复盘文本生成依赖
type Completer interface {
	Configured() bool
	Chat(ctx context.Context, system, user string) (string, error)
}

// Analyzer 大盘复盘分析器
type Analyzer struct {
	search Searcher
	llm    Completer
}

// NewAnalyzer 创建大盘复盘分析器
func NewAnalyzer(search Searcher, llm Completer) *Analyzer {
	return &Analyzer{search: search, llm: llm}
}

const reviewSystemPrompt = `你是一位资深的A股市场策略分析师。请根据提供的当日市场情报，生成一份简明的大盘复盘报告。
要求：
1. 先用一句话概括今日市场整体表现
2. 分析主要指数走势与成交量变化
3. 点评当日热点板块与资金流向
4. 给出明日关注要点
输出为纯文本，不超过500字，不要使用Markdown标题语法。`

// RunDailyReview 生成当日大盘复盘。
// 搜索不可用或大模型未配置时返回空串，不视为错误。
func (a *Analyzer) RunDailyReview(ctx context.Context) (string, error) {
	if a.llm == nil || !a.llm.Configured() {
		log.Println("大模型未配置，跳过大盘复盘")
		return "", nil
	}
	if a.search == nil || !a.search.IsAvailable() {
		log.Println("搜索服务不可用，跳过大盘复盘")
		return "", nil
	}

	today := time.Now().Format("2006-01-02")
	bundle, err := a.search.SearchComprehensiveIntel(ctx, "A股大盘", "上证指数", 3)
	if err != nil {
		return "", fmt.Errorf("大盘情报检索失败: %w", err)
	}
	intel := a.search.FormatIntelReport(bundle, "上证指数")
	if strings.TrimSpace(intel) == "" {
		log.Println("未检索到有效市场情报，跳过大盘复盘")
		return "", nil
	}

	user := fmt.Sprintf("日期：%s\n\n【今日市场情报】\n%s", today, intel)
	report, err := a.llm.Chat(ctx, reviewSystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("大盘复盘生成失败: %w", err)
	}
	return strings.TrimSpace(report), nil
}
