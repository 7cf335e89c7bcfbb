package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const spotResponse = `[
	{"代码": "600519", "名称": "贵州茅台", "最新价": 1510.5, "量比": 1.2, "换手率": 0.35},
	{"代码": "000858", "名称": "五粮液", "最新价": 128.4, "量比": 0.9, "换手率": 0.8}
]`

func TestGetRealtimeQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/public/stock_zh_a_spot_em" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(spotResponse))
	}))
	defer srv.Close()

	a := NewAKShareAdapter(srv.URL)
	quote, err := a.GetRealtimeQuote(context.Background(), "sh600519")
	if err != nil {
		t.Fatalf("GetRealtimeQuote: %v", err)
	}
	if quote.Name != "贵州茅台" || quote.Price != 1510.5 || quote.VolumeRatio != 1.2 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestGetRealtimeQuoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(spotResponse))
	}))
	defer srv.Close()

	if _, err := NewAKShareAdapter(srv.URL).GetRealtimeQuote(context.Background(), "999999"); err == nil {
		t.Fatalf("expected error for unknown code")
	}
}

func TestGetChipDistribution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "600519" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[
			{"日期": "2025-01-02", "获利比例": 0.55},
			{"日期": "2025-01-03", "获利比例": 0.92}
		]`))
	}))
	defer srv.Close()

	chip, err := NewAKShareAdapter(srv.URL).GetChipDistribution(context.Background(), "sh600519")
	if err != nil {
		t.Fatalf("GetChipDistribution: %v", err)
	}
	if chip.ProfitRatio != 0.92 {
		t.Fatalf("should take the latest row, got %v", chip.ProfitRatio)
	}
	if chip.Status == "" {
		t.Fatalf("status should be derived")
	}
}

func TestUnconfiguredAdapter(t *testing.T) {
	a := NewAKShareAdapter("")
	if a.Available() {
		t.Fatalf("empty base url should be unavailable")
	}
	if _, err := a.GetRealtimeQuote(context.Background(), "600519"); err == nil {
		t.Fatalf("expected error when unconfigured")
	}
	if _, err := a.GetChipDistribution(context.Background(), "600519"); err == nil {
		t.Fatalf("expected error when unconfigured")
	}
}

func TestChipStatusThresholds(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{0.95, "高位获利盘密集，警惕抛压"},
		{0.6, "多数持仓获利"},
		{0.3, "套牢盘较多"},
		{0.1, "深度套牢，抛压较轻"},
	}
	for _, c := range cases {
		if got := chipStatus(c.ratio); got != c.want {
			t.Fatalf("chipStatus(%v) = %q, want %q", c.ratio, got, c.want)
		}
	}
}

func TestTrimExchangePrefix(t *testing.T) {
	cases := map[string]string{
		"sh600519": "600519",
		"sz000858": "000858",
		"bj830799": "830799",
		"600519":   "600519",
		"BTC-USD":  "BTC-USD",
	}
	for in, want := range cases {
		if got := trimExchangePrefix(in); got != want {
			t.Fatalf("trimExchangePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
