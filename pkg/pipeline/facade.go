package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"StockPilot/pkg/collector"
	"StockPilot/pkg/model"
)

// FetchErrorKind 抓取失败的分类
type FetchErrorKind int

const (
	// ErrEmptyDataset 数据源返回零行
	ErrEmptyDataset FetchErrorKind = iota
	// ErrSourceUnavailable 传输或解析层失败
	ErrSourceUnavailable
)

func (k FetchErrorKind) String() string {
	if k == ErrEmptyDataset {
		return "empty_dataset"
	}
	return "source_unavailable"
}

// FetchError 带分类的抓取错误
type FetchError struct {
	Kind   FetchErrorKind
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("抓取失败(%s): %s", e.Kind, e.Symbol)
	}
	return fmt.Sprintf("抓取失败(%s): %s: %v", e.Kind, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Storage 存储协作方契约。实现必须能承受多个标的并发读写；
// 各标的键互不相交，门面层不做额外加锁。
type Storage interface {
	HasTodayData(symbol string, day time.Time) (bool, error)
	SaveDailyData(ds *model.DailyDataset, day time.Time) (int, error)
	GetAnalysisContext(symbol string) (*model.AnalysisContext, error)
}

// DataFacade 统一股票与加密货币的日线获取，带同日去重短路
type DataFacade struct {
	storage  Storage
	equity   collector.DailyFetcher
	crypto   collector.DailyFetcher
	classify model.ClassifyFunc
	lookback int
	now      func() time.Time
}

// NewDataFacade 创建数据获取门面
func NewDataFacade(storage Storage, equity, crypto collector.DailyFetcher, classify model.ClassifyFunc, lookbackDays int) *DataFacade {
	if classify == nil {
		classify = model.ClassifyByLetter
	}
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &DataFacade{
		storage:  storage,
		equity:   equity,
		crypto:   crypto,
		classify: classify,
		lookback: lookbackDays,
		now:      time.Now,
	}
}

// FetchDaily 拉取并落库某标的的日线。
// force=false 且今日已有数据时直接短路成功，不触达任何外部数据源。
func (f *DataFacade) FetchDaily(ctx context.Context, symbol string, force bool) error {
	today := f.now()
	if !force {
		has, err := f.storage.HasTodayData(symbol, today)
		if err != nil {
			return &FetchError{Kind: ErrSourceUnavailable, Symbol: symbol, Err: err}
		}
		if has {
			log.Printf("[%s] 今日数据已存在，跳过抓取", symbol)
			return nil
		}
	}

	fetcher := f.equity
	days := f.lookback
	if f.classify(symbol) == model.AssetCrypto {
		fetcher = f.crypto
		// 币市 7x24，多拉一些数据保证均线计算
		if days < 100 {
			days = 100
		}
	}

	bars, err := fetcher.FetchDaily(ctx, symbol, days)
	if err != nil {
		return &FetchError{Kind: ErrSourceUnavailable, Symbol: symbol, Err: err}
	}
	if len(bars) == 0 {
		return &FetchError{Kind: ErrEmptyDataset, Symbol: symbol}
	}

	ds := &model.DailyDataset{
		Symbol: symbol,
		Source: fetcher.Source(),
		Bars:   bars,
	}
	if err := ds.Normalize(); err != nil {
		return &FetchError{Kind: ErrSourceUnavailable, Symbol: symbol, Err: err}
	}

	count, err := f.storage.SaveDailyData(ds, today)
	if err != nil {
		return &FetchError{Kind: ErrSourceUnavailable, Symbol: symbol, Err: err}
	}
	log.Printf("[%s] 落库日线 %d 行，来源=%s", symbol, count, ds.Source)
	return nil
}
