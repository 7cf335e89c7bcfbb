package pipeline

import (
	"testing"

	"StockPilot/pkg/model"
)

func TestBuildContextEquityFields(t *testing.T) {
	base := &model.AnalysisContext{Symbol: "600519"}
	in := ContextInput{
		Realtime:  &model.RealtimeQuote{Name: "贵州茅台", Price: 1500},
		Chip:      &model.ChipDistribution{ProfitRatio: 0.8, Status: "高位获利"},
		Sentiment: "恐慌贪婪指数：15",
	}
	actx := BuildContext(base, model.AssetEquity, in, nil)

	if actx.Realtime == nil || actx.Chip == nil {
		t.Fatalf("equity context should carry realtime and chip")
	}
	if actx.Sentiment != "" {
		t.Fatalf("equity context must not carry sentiment text")
	}
	if actx.Name != "贵州茅台" {
		t.Fatalf("realtime name should win, got %q", actx.Name)
	}
}

func TestBuildContextCryptoFields(t *testing.T) {
	base := &model.AnalysisContext{Symbol: "BTC-USD"}
	in := ContextInput{
		Realtime:  &model.RealtimeQuote{Name: "不该出现"},
		Chip:      &model.ChipDistribution{},
		Sentiment: "恐慌贪婪指数：80 (Extreme Greed)",
	}
	actx := BuildContext(base, model.AssetCrypto, in, map[string]string{"BTC-USD": "比特币"})

	if actx.Realtime != nil || actx.Chip != nil {
		t.Fatalf("crypto context must not carry realtime or chip")
	}
	if actx.Sentiment == "" {
		t.Fatalf("crypto context should carry sentiment text")
	}
	if actx.Name != "比特币" {
		t.Fatalf("name map fallback not applied, got %q", actx.Name)
	}
}

func TestBuildContextMissingInputsStayAbsent(t *testing.T) {
	base := &model.AnalysisContext{Symbol: "000858"}
	actx := BuildContext(base, model.AssetEquity, ContextInput{}, nil)

	if actx.Realtime != nil || actx.Chip != nil || actx.Trend != nil {
		t.Fatalf("missing inputs should stay nil, not placeholder values")
	}
	if actx.News != "" {
		t.Fatalf("missing news should stay empty")
	}
	if actx.Name != "000858" {
		t.Fatalf("name should fall back to symbol, got %q", actx.Name)
	}
}

func TestBuildContextDoesNotMutateBase(t *testing.T) {
	base := &model.AnalysisContext{Symbol: "600519"}
	_ = BuildContext(base, model.AssetEquity, ContextInput{
		Realtime: &model.RealtimeQuote{Name: "贵州茅台"},
	}, nil)

	if base.Realtime != nil || base.Name != "" {
		t.Fatalf("BuildContext must not mutate its input: %+v", base)
	}
}
