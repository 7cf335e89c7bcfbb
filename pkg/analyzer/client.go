package analyzer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"StockPilot/pkg/model"
)

// ErrorKind 分析失败的分类
type ErrorKind int

const (
	// ErrUnconfigured 未配置模型凭据，直接短路，不发起网络调用
	ErrUnconfigured ErrorKind = iota
	// ErrSchema 模型输出不满足九字段结构
	ErrSchema
	// ErrTransient 网络或接口层面的单次失败
	ErrTransient
	// ErrExhausted 重试次数用尽
	ErrExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnconfigured:
		return "unconfigured"
	case ErrSchema:
		return "schema"
	case ErrTransient:
		return "transient"
	case ErrExhausted:
		return "exhausted"
	}
	return "unknown"
}

// AnalysisError 带分类与尝试次数的分析错误
type AnalysisError struct {
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("分析失败(%s, 尝试%d次)", e.Kind, e.Attempts)
	}
	return fmt.Sprintf("分析失败(%s, 尝试%d次): %v", e.Kind, e.Attempts, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Completer 一轮对话的最小接口，便于测试替换
type Completer interface {
	Configured() bool
	Chat(ctx context.Context, system, user string) (string, error)
}

// 重试参数：最多 3 次，间隔 2s 起每次翻倍，上限 10s
const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// InsightClient 结构化洞察客户端：提示词选择、上下文渲染、模型调用、
// 围栏剥离、九字段校验，整体作为一个重试单元。
type InsightClient struct {
	llm         Completer
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewInsightClient 创建洞察客户端
func NewInsightClient(llm Completer) *InsightClient {
	return &InsightClient{
		llm:         llm,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
	}
}

// SetRetryDelays 调整重试间隔，测试用
func (c *InsightClient) SetRetryDelays(base, max time.Duration) {
	c.baseDelay = base
	c.maxDelay = max
}

// Analyze 调用模型生成结构化分析结果。
// news 为搜索情报文本，extra 为情绪数据文本（仅加密货币模板使用）。
func (c *InsightClient) Analyze(ctx context.Context, actx *model.AnalysisContext, news, extra string, class model.AssetClass) (*model.AnalysisResult, error) {
	if c.llm == nil || !c.llm.Configured() {
		return nil, &AnalysisError{Kind: ErrUnconfigured}
	}

	var system string
	if class == model.AssetCrypto {
		system = cryptoSystemPrompt(extra)
	} else {
		system = stockSystemPrompt()
	}
	user := fmt.Sprintf("待分析数据如下：\n%s\n请输出 JSON 格式结果。", renderContext(actx, news))

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.backoff(attempt)
			log.Printf("[%s] 第%d次尝试前等待 %s", actx.Symbol, attempt, delay)
			select {
			case <-ctx.Done():
				return nil, &AnalysisError{Kind: ErrTransient, Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		raw, err := c.llm.Chat(ctx, system, user)
		if err != nil {
			lastErr = &AnalysisError{Kind: ErrTransient, Attempts: attempt, Err: err}
			log.Printf("[%s] 模型调用失败(第%d次): %v", actx.Symbol, attempt, err)
			continue
		}

		result, err := model.ParseAnalysisResult([]byte(stripCodeFence(raw)))
		if err != nil {
			lastErr = &AnalysisError{Kind: ErrSchema, Attempts: attempt, Err: err}
			log.Printf("[%s] 结构校验失败(第%d次): %v", actx.Symbol, attempt, err)
			continue
		}
		return result, nil
	}

	return nil, &AnalysisError{Kind: ErrExhausted, Attempts: c.maxAttempts, Err: lastErr}
}

// backoff 第 attempt 次尝试前的等待：base * 2^(attempt-2)，封顶 maxDelay
func (c *InsightClient) backoff(attempt int) time.Duration {
	delay := c.baseDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
	}
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	return delay
}

// stripCodeFence 剥离可选的围栏代码块包装（```json ... ```）
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// 丢弃围栏行上的语言标记（如 json）
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
