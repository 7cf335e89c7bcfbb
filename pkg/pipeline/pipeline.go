package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"StockPilot/pkg/config"
	"StockPilot/pkg/model"
	"StockPilot/pkg/search"
)

// QuoteProvider 实时快照与筹码分布协作方（仅股票）
type QuoteProvider interface {
	GetRealtimeQuote(ctx context.Context, code string) (*model.RealtimeQuote, error)
	GetChipDistribution(ctx context.Context, code string) (*model.ChipDistribution, error)
}

// SentimentProvider 加密货币情绪文本协作方，尽力而为、从不报错
type SentimentProvider interface {
	GetSentimentBlock(ctx context.Context) string
}

// TrendAnalyzer 趋势信号协作方
type TrendAnalyzer interface {
	Analyze(bars []model.DailyBar, symbol string) (*model.TrendSignal, error)
}

// IntelSearcher 新闻情报协作方
type IntelSearcher interface {
	IsAvailable() bool
	SearchComprehensiveIntel(ctx context.Context, code, name string, maxSearches int) (*search.IntelBundle, error)
	FormatIntelReport(bundle *search.IntelBundle, name string) string
}

// Insight 结构化洞察协作方
type Insight interface {
	Analyze(ctx context.Context, actx *model.AnalysisContext, news, extra string, class model.AssetClass) (*model.AnalysisResult, error)
}

// Notifier 通知协作方
type Notifier interface {
	IsAvailable() bool
	Send(text string) error
	GenerateDashboardReport(results []model.AnalysisResult) string
	GenerateSingleStockReport(result *model.AnalysisResult) string
	SaveReportToFile(text string) (string, error)
}

// ResultSink 完成结果的下游发布方（可选，如 NATS）
type ResultSink interface {
	PublishResult(result *model.AnalysisResult) error
}

// ReportStore 结果落库方（可选）
type ReportStore interface {
	SaveReport(result *model.AnalysisResult) error
}

// Options 单次运行的开关
type Options struct {
	DryRun bool // 只抓数据，不做分析
	Notify bool // 允许派发通知
}

// Pipeline 多标的并发分析流水线。
// 每个标的一个任务，跑在固定大小的 worker 池上；
// 任务失败只影响自身，屏障等待全部完成后才做汇总派发。
type Pipeline struct {
	facade    *DataFacade
	storage   Storage
	quotes    QuoteProvider
	sentiment SentimentProvider
	trend     TrendAnalyzer
	search    IntelSearcher
	insight   Insight
	notifier  Notifier
	sink      ResultSink
	reports   ReportStore
	classify  model.ClassifyFunc
	names     map[string]string
	workers   int
	mode      string
}

// New 创建流水线。quotes/sentiment/trend/search/sink/reports 均可为 nil，
// 对应能力缺省时静默降级。
func New(facade *DataFacade, storage Storage, insight Insight, notifier Notifier, classify model.ClassifyFunc, workers int, mode string) *Pipeline {
	if classify == nil {
		classify = model.ClassifyByLetter
	}
	if workers <= 0 {
		workers = 3
	}
	if mode == "" {
		mode = config.NotifyModeAggregate
	}
	return &Pipeline{
		facade:   facade,
		storage:  storage,
		insight:  insight,
		notifier: notifier,
		classify: classify,
		names:    map[string]string{},
		workers:  workers,
		mode:     mode,
	}
}

// WithQuotes 注入实时快照协作方
func (p *Pipeline) WithQuotes(q QuoteProvider) *Pipeline { p.quotes = q; return p }

// WithSentiment 注入情绪协作方
func (p *Pipeline) WithSentiment(s SentimentProvider) *Pipeline { p.sentiment = s; return p }

// WithTrend 注入趋势协作方
func (p *Pipeline) WithTrend(t TrendAnalyzer) *Pipeline { p.trend = t; return p }

// WithSearch 注入情报搜索协作方
func (p *Pipeline) WithSearch(s IntelSearcher) *Pipeline { p.search = s; return p }

// WithSink 注入结果发布方
func (p *Pipeline) WithSink(s ResultSink) *Pipeline { p.sink = s; return p }

// WithReports 注入结果落库方
func (p *Pipeline) WithReports(r ReportStore) *Pipeline { p.reports = r; return p }

// WithNames 注入代码到展示名的映射
func (p *Pipeline) WithNames(names map[string]string) *Pipeline {
	if names != nil {
		p.names = names
	}
	return p
}

// Run 并发处理全部标的并返回结果集合。
// 返回顺序为完成顺序，与输入顺序无对应关系，调用方不得按位置回查。
func (p *Pipeline) Run(ctx context.Context, symbols []string, opts Options) []model.AnalysisResult {
	if len(symbols) == 0 {
		return nil
	}
	start := time.Now()
	log.Printf("开始执行任务，包含 %d 个标的，并发数 %d", len(symbols), p.workers)

	jobs := make(chan string)
	resultCh := make(chan model.AnalysisResult)

	var results []model.AnalysisResult
	done := make(chan struct{})
	go func() {
		for r := range resultCh {
			results = append(results, r)
		}
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				if r := p.processSymbol(ctx, symbol, opts); r != nil {
					resultCh <- *r
				}
			}
		}()
	}

	for _, s := range symbols {
		jobs <- s
	}
	close(jobs)

	// 屏障：等全部任务收尾后才可能做汇总派发
	wg.Wait()
	close(resultCh)
	<-done

	log.Printf("任务执行完成，%d/%d 个标的产出结果，耗时 %s",
		len(results), len(symbols), time.Since(start).Round(time.Millisecond))

	if p.mode == config.NotifyModeAggregate && opts.Notify && !opts.DryRun && len(results) > 0 {
		p.dispatchAggregate(results)
	}
	return results
}

// processSymbol 单标的任务边界：任何失败（包括panic）都转化为
// "该标的无结果"，绝不传播到兄弟任务或中止 worker 池。
func (p *Pipeline) processSymbol(ctx context.Context, symbol string, opts Options) (result *model.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] 任务异常退出: %v", symbol, r)
			result = nil
		}
	}()

	log.Printf("========== 开始处理 %s ==========", symbol)
	task := NewTask(symbol)

	_ = task.markFetching()
	if err := p.facade.FetchDaily(ctx, symbol, false); err != nil {
		_ = task.markFetchFailed(err)
		log.Printf("[%s] %v", symbol, err)
		return nil
	}
	_ = task.markFetched()

	if opts.DryRun {
		return nil
	}

	_ = task.markAnalyzing()
	res, err := p.analyzeSymbol(ctx, symbol)
	if err != nil {
		_ = task.markAnalysisFailed(err)
		log.Printf("[%s] %v", symbol, err)
		return nil
	}
	_ = task.markCompleted(res)

	p.deliverResult(res, opts)
	return res
}

// analyzeSymbol 组装上下文并调用洞察客户端
func (p *Pipeline) analyzeSymbol(ctx context.Context, symbol string) (*model.AnalysisResult, error) {
	class := p.classify(symbol)

	in := ContextInput{}
	name := p.names[symbol]
	if name == "" {
		name = symbol
	}

	if class == model.AssetCrypto {
		if p.sentiment != nil {
			in.Sentiment = p.sentiment.GetSentimentBlock(ctx)
		}
	} else {
		if p.quotes != nil {
			if rt, err := p.quotes.GetRealtimeQuote(ctx, symbol); err != nil {
				log.Printf("[%s] 实时行情获取失败: %v", symbol, err)
			} else {
				in.Realtime = rt
				if rt.Name != "" {
					name = rt.Name
				}
			}
			if chip, err := p.quotes.GetChipDistribution(ctx, symbol); err != nil {
				log.Printf("[%s] 筹码分布获取失败: %v", symbol, err)
			} else {
				in.Chip = chip
			}
		}
	}

	base, err := p.storage.GetAnalysisContext(symbol)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, &FetchError{Kind: ErrEmptyDataset, Symbol: symbol}
	}

	if p.trend != nil && len(base.Bars) > 0 {
		if sig, err := p.trend.Analyze(base.Bars, symbol); err != nil {
			log.Printf("[%s] 趋势研判跳过: %v", symbol, err)
		} else {
			in.Trend = sig
		}
	}

	if p.search != nil && p.search.IsAvailable() {
		if bundle, err := p.search.SearchComprehensiveIntel(ctx, symbol, name, 2); err != nil {
			log.Printf("[%s] 情报搜索失败: %v", symbol, err)
		} else {
			in.News = p.search.FormatIntelReport(bundle, name)
		}
	}

	actx := BuildContext(base, class, in, p.names)
	if actx.Name == "" || actx.Name == symbol {
		actx.Name = name
	}

	return p.insight.Analyze(ctx, actx, in.News, in.Sentiment, class)
}

// deliverResult 完成态的附带动作：落库、下游发布、单标的即时通知。
// 任一动作失败只记日志，不影响结果本身。
func (p *Pipeline) deliverResult(res *model.AnalysisResult, opts Options) {
	if p.reports != nil {
		if err := p.reports.SaveReport(res); err != nil {
			log.Printf("[%s] 结果落库失败: %v", res.Code, err)
		}
	}
	if p.sink != nil {
		if err := p.sink.PublishResult(res); err != nil {
			log.Printf("[%s] 结果发布失败: %v", res.Code, err)
		}
	}
	if p.mode == config.NotifyModePerSymbol && opts.Notify && p.notifier != nil && p.notifier.IsAvailable() {
		report := p.notifier.GenerateSingleStockReport(res)
		if err := p.notifier.Send(report); err != nil {
			log.Printf("[%s] 单标的通知失败: %v", res.Code, err)
		}
	}
}

// dispatchAggregate 汇总模式的一次性派发：先归档，再推送
func (p *Pipeline) dispatchAggregate(results []model.AnalysisResult) {
	if p.notifier == nil {
		return
	}
	report := p.notifier.GenerateDashboardReport(results)
	if path, err := p.notifier.SaveReportToFile(report); err != nil {
		log.Printf("报告归档失败: %v", err)
	} else {
		log.Printf("报告已归档: %s", path)
	}
	if p.notifier.IsAvailable() {
		if err := p.notifier.Send(report); err != nil {
			log.Printf("通知发送失败: %v", err)
		}
	}
}
