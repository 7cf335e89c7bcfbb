package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"StockPilot/pkg/model"
)

// memStorage 内存版存储，并发安全
type memStorage struct {
	mu       sync.Mutex
	today    map[string]bool
	saved    map[string]*model.DailyDataset
	contexts map[string]*model.AnalysisContext
	hasErr   error
}

func newMemStorage() *memStorage {
	return &memStorage{
		today:    map[string]bool{},
		saved:    map[string]*model.DailyDataset{},
		contexts: map[string]*model.AnalysisContext{},
	}
}

func (m *memStorage) HasTodayData(symbol string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasErr != nil {
		return false, m.hasErr
	}
	return m.today[symbol], nil
}

func (m *memStorage) SaveDailyData(ds *model.DailyDataset, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[ds.Symbol] = ds
	m.today[ds.Symbol] = true
	return len(ds.Bars), nil
}

func (m *memStorage) GetAnalysisContext(symbol string) (*model.AnalysisContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if actx, ok := m.contexts[symbol]; ok {
		return actx, nil
	}
	if ds, ok := m.saved[symbol]; ok {
		return &model.AnalysisContext{Symbol: symbol, Bars: ds.Bars}, nil
	}
	return nil, nil
}

// fakeFetcher 可编排的假数据源
type fakeFetcher struct {
	mu     sync.Mutex
	source string
	bars   []model.DailyBar
	err    error
	calls  int
	days   []int
}

func (f *fakeFetcher) Source() string { return f.source }

func (f *fakeFetcher) FetchDaily(ctx context.Context, symbol string, days int) ([]model.DailyBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.days = append(f.days, days)
	return f.bars, f.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleBars() []model.DailyBar {
	return []model.DailyBar{
		{Date: "2025-01-02", Close: 105},
		{Date: "2025-01-01", Close: 100},
	}
}

func TestFetchDailySkipsWhenTodayDataExists(t *testing.T) {
	storage := newMemStorage()
	storage.today["600519"] = true
	equity := &fakeFetcher{source: "eastmoney", bars: sampleBars()}
	facade := NewDataFacade(storage, equity, &fakeFetcher{source: "yfinance"}, model.ClassifyByLetter, 30)

	if err := facade.FetchDaily(context.Background(), "600519", false); err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if equity.callCount() != 0 {
		t.Fatalf("dedup short-circuit must not hit the data source, calls = %d", equity.callCount())
	}
}

func TestFetchDailyForceBypassesDedup(t *testing.T) {
	storage := newMemStorage()
	storage.today["600519"] = true
	equity := &fakeFetcher{source: "eastmoney", bars: sampleBars()}
	facade := NewDataFacade(storage, equity, &fakeFetcher{source: "yfinance"}, model.ClassifyByLetter, 30)

	if err := facade.FetchDaily(context.Background(), "600519", true); err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if equity.callCount() != 1 {
		t.Fatalf("force should bypass dedup, calls = %d", equity.callCount())
	}
}

func TestFetchDailyIdempotentSecondRun(t *testing.T) {
	storage := newMemStorage()
	equity := &fakeFetcher{source: "eastmoney", bars: sampleBars()}
	facade := NewDataFacade(storage, equity, &fakeFetcher{source: "yfinance"}, model.ClassifyByLetter, 30)

	if err := facade.FetchDaily(context.Background(), "600519", false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := facade.FetchDaily(context.Background(), "600519", false); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if equity.callCount() != 1 {
		t.Fatalf("second run should short-circuit, calls = %d", equity.callCount())
	}
}

func TestFetchDailyEmptyDataset(t *testing.T) {
	storage := newMemStorage()
	equity := &fakeFetcher{source: "eastmoney"}
	facade := NewDataFacade(storage, equity, &fakeFetcher{source: "yfinance"}, model.ClassifyByLetter, 30)

	err := facade.FetchDaily(context.Background(), "600519", false)
	var ferr *FetchError
	if !errors.As(err, &ferr) || ferr.Kind != ErrEmptyDataset {
		t.Fatalf("expected empty_dataset error, got %v", err)
	}
	if len(storage.saved) != 0 {
		t.Fatalf("empty dataset must not be saved")
	}
}

func TestFetchDailySourceUnavailable(t *testing.T) {
	storage := newMemStorage()
	equity := &fakeFetcher{source: "eastmoney", err: fmt.Errorf("连接超时")}
	facade := NewDataFacade(storage, equity, &fakeFetcher{source: "yfinance"}, model.ClassifyByLetter, 30)

	err := facade.FetchDaily(context.Background(), "600519", false)
	var ferr *FetchError
	if !errors.As(err, &ferr) || ferr.Kind != ErrSourceUnavailable {
		t.Fatalf("expected source_unavailable error, got %v", err)
	}
}

func TestFetchDailyRoutesCryptoWithLongerLookback(t *testing.T) {
	storage := newMemStorage()
	equity := &fakeFetcher{source: "eastmoney", bars: sampleBars()}
	crypto := &fakeFetcher{source: "yfinance", bars: sampleBars()}
	facade := NewDataFacade(storage, equity, crypto, model.ClassifyByLetter, 30)

	if err := facade.FetchDaily(context.Background(), "BTC-USD", false); err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if equity.callCount() != 0 || crypto.callCount() != 1 {
		t.Fatalf("crypto symbol must route to the crypto fetcher")
	}
	if crypto.days[0] < 100 {
		t.Fatalf("crypto lookback = %d, want >= 100", crypto.days[0])
	}
	if storage.saved["BTC-USD"].Source != "yfinance" {
		t.Fatalf("saved source = %q", storage.saved["BTC-USD"].Source)
	}
}

func TestFetchDailyNormalizesBeforeSave(t *testing.T) {
	storage := newMemStorage()
	equity := &fakeFetcher{source: "eastmoney", bars: sampleBars()}
	facade := NewDataFacade(storage, equity, &fakeFetcher{source: "yfinance"}, model.ClassifyByLetter, 30)

	if err := facade.FetchDaily(context.Background(), "600519", false); err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	ds := storage.saved["600519"]
	if ds.Bars[0].Date != "2025-01-01" {
		t.Fatalf("bars should be sorted before save: %+v", ds.Bars)
	}
	if ds.Bars[1].Change != 5 {
		t.Fatalf("derived fields should be computed before save: %+v", ds.Bars[1])
	}
}
