package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"StockPilot/pkg/model"
)

const goodResponse = `{
	"code": "600519",
	"name": "贵州茅台",
	"operation_advice": "建议买入",
	"sentiment_score": 72,
	"trend_prediction": "震荡上行",
	"risk_level": "中",
	"analysis_points": ["量价配合良好"],
	"technical_indicators": {"MACD": "金叉"},
	"summary": "技术面偏多。"
}`

// fakeLLM 可编排的假模型：按顺序返回预置的响应或错误
type fakeLLM struct {
	configured bool
	responses  []string
	errs       []error
	calls      int
	systems    []string
}

func (f *fakeLLM) Configured() bool { return f.configured }

func (f *fakeLLM) Chat(ctx context.Context, system, user string) (string, error) {
	i := f.calls
	f.calls++
	f.systems = append(f.systems, system)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return goodResponse, nil
}

func testContext() *model.AnalysisContext {
	return &model.AnalysisContext{
		Symbol: "600519",
		Name:   "贵州茅台",
		Class:  model.AssetEquity,
		Bars: []model.DailyBar{
			{Date: "2025-01-01", Close: 1500},
			{Date: "2025-01-02", Close: 1520, Change: 20, PctChange: 1.33},
		},
	}
}

func fastClient(llm Completer) *InsightClient {
	c := NewInsightClient(llm)
	c.SetRetryDelays(time.Millisecond, 2*time.Millisecond)
	return c
}

func TestAnalyzeUnconfiguredShortCircuits(t *testing.T) {
	llm := &fakeLLM{configured: false}
	c := NewInsightClient(llm)

	_, err := c.Analyze(context.Background(), testContext(), "", "", model.AssetEquity)
	var aerr *AnalysisError
	if !errors.As(err, &aerr) || aerr.Kind != ErrUnconfigured {
		t.Fatalf("expected unconfigured error, got %v", err)
	}
	if llm.calls != 0 {
		t.Fatalf("unconfigured client must not call the model, calls = %d", llm.calls)
	}
}

func TestAnalyzeFencedAndPlainEquivalent(t *testing.T) {
	plain := &fakeLLM{configured: true, responses: []string{goodResponse}}
	fenced := &fakeLLM{configured: true, responses: []string{"```json\n" + goodResponse + "\n```"}}

	r1, err := fastClient(plain).Analyze(context.Background(), testContext(), "", "", model.AssetEquity)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	r2, err := fastClient(fenced).Analyze(context.Background(), testContext(), "", "", model.AssetEquity)
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if r1.Code != r2.Code || r1.SentimentScore != r2.SentimentScore || r1.Summary != r2.Summary {
		t.Fatalf("fenced and plain responses should parse identically: %+v vs %+v", r1, r2)
	}
}

func TestAnalyzeRetriesThenSucceeds(t *testing.T) {
	llm := &fakeLLM{
		configured: true,
		errs:       []error{fmt.Errorf("连接超时"), fmt.Errorf("连接超时")},
		responses:  []string{"", "", goodResponse},
	}
	c := fastClient(llm)

	r, err := c.Analyze(context.Background(), testContext(), "", "", model.AssetEquity)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.Code != "600519" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if llm.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", llm.calls)
	}
}

func TestAnalyzeExhaustsAfterThreeAttempts(t *testing.T) {
	llm := &fakeLLM{
		configured: true,
		responses:  []string{"not json", "not json", "not json", "not json"},
	}
	c := fastClient(llm)

	_, err := c.Analyze(context.Background(), testContext(), "", "", model.AssetEquity)
	var aerr *AnalysisError
	if !errors.As(err, &aerr) || aerr.Kind != ErrExhausted {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	if aerr.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", aerr.Attempts)
	}
	if llm.calls != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", llm.calls)
	}

	// 末次失败原因保留在错误链上
	var inner *AnalysisError
	if !errors.As(aerr.Err, &inner) || inner.Kind != ErrSchema {
		t.Fatalf("expected schema error in chain, got %v", aerr.Err)
	}
}

func TestAnalyzeContextCanceledDuringBackoff(t *testing.T) {
	llm := &fakeLLM{
		configured: true,
		errs:       []error{fmt.Errorf("连接超时")},
	}
	c := NewInsightClient(llm)
	c.SetRetryDelays(time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Analyze(ctx, testContext(), "", "", model.AssetEquity)
	var aerr *AnalysisError
	if !errors.As(err, &aerr) || aerr.Kind != ErrTransient {
		t.Fatalf("expected transient error on cancellation, got %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", llm.calls)
	}
}

func TestAnalyzeCryptoPromptCarriesSentiment(t *testing.T) {
	llm := &fakeLLM{configured: true, responses: []string{goodResponse}}
	c := fastClient(llm)

	extra := "恐慌贪婪指数：15 (Extreme Fear)"
	if _, err := c.Analyze(context.Background(), testContext(), "", extra, model.AssetCrypto); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(llm.systems) != 1 || !strings.Contains(llm.systems[0], extra) {
		t.Fatalf("crypto prompt should embed sentiment block")
	}
	if !strings.Contains(llm.systems[0], "市盈率") {
		t.Fatalf("crypto prompt should forbid equity terms")
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	c := NewInsightClient(&fakeLLM{configured: true})
	if got := c.backoff(2); got != 2*time.Second {
		t.Fatalf("backoff(2) = %v", got)
	}
	if got := c.backoff(3); got != 4*time.Second {
		t.Fatalf("backoff(3) = %v", got)
	}
	if got := c.backoff(6); got != 10*time.Second {
		t.Fatalf("backoff(6) = %v, want cap", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```json\n{\"a\":1}\n```  ", "{\"a\":1}"},
	}
	for _, c := range cases {
		if got := stripCodeFence(c.in); got != c.want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
