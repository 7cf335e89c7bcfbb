// Package trend 从日线序列推导均线形态、MACD 信号与 0-100 买入评分。
package trend

import (
	"fmt"

	"StockPilot/pkg/model"
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	minBarsForTrend = 20
)

// 趋势状态
const (
	TrendBullish = "多头排列"
	TrendBearish = "空头排列"
	TrendRanging = "震荡整理"
)

// 买入信号
const (
	SignalBuy   = "买入"
	SignalWatch = "关注"
	SignalHold  = "观望"
)

// Analyzer 趋势分析器，无状态、并发安全
type Analyzer struct{}

// NewAnalyzer 创建趋势分析器
func NewAnalyzer() *Analyzer { return &Analyzer{} }

// Analyze 对日线序列做趋势研判，序列过短时报错
func (a *Analyzer) Analyze(bars []model.DailyBar, symbol string) (*model.TrendSignal, error) {
	if len(bars) < minBarsForTrend {
		return nil, fmt.Errorf("K线不足%d根，无法研判: %s", minBarsForTrend, symbol)
	}

	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}

	ma5 := maN(closes, 5)
	ma10 := maN(closes, 10)
	ma20 := maN(closes, 20)
	price := closes[len(closes)-1]
	macd := computeMACD(closes)

	status := TrendRanging
	switch {
	case ma5 > ma10 && ma10 > ma20:
		status = TrendBullish
	case ma5 < ma10 && ma10 < ma20:
		status = TrendBearish
	}

	score := 0
	if price > ma20 {
		score += 30
	}
	if ma5 > ma10 {
		score += 20
	}
	if macd.goldenCross {
		score += 20
	}
	if macd.histogram > 0 {
		score += 15
	}
	if macd.histogram > macd.histogramPrev {
		score += 15
	}
	if score > 100 {
		score = 100
	}

	signal := SignalHold
	switch {
	case score >= 70:
		signal = SignalBuy
	case score >= 50:
		signal = SignalWatch
	}

	return &model.TrendSignal{
		TrendStatus: status,
		BuySignal:   signal,
		SignalScore: score,
	}, nil
}

// maN 末端 n 日均价，数据不足时返回 0
func maN(closes []float64, n int) float64 {
	if len(closes) < n {
		return 0
	}
	var sum float64
	for _, c := range closes[len(closes)-n:] {
		sum += c
	}
	return sum / float64(n)
}

// macdResult 当日/昨日红柱及是否刚金叉
type macdResult struct {
	histogram     float64
	histogramPrev float64
	goldenCross   bool
}

func computeMACD(closes []float64) macdResult {
	n := len(closes)
	if n < macdSlow+macdSignal {
		return macdResult{}
	}
	ema12 := ema(closes, macdFast)
	ema26 := ema(closes, macdSlow)
	dif := make([]float64, n)
	for i := macdSlow - 1; i < n; i++ {
		dif[i] = ema12[i] - ema26[i]
	}
	dea := ema(dif[macdSlow-1:], macdSignal)

	last, prev := n-1, n-2
	firstValid := macdSlow - 1 + macdSignal - 1

	var h0, h1 float64
	if last >= firstValid {
		h0 = 2 * (dif[last] - dea[last-(macdSlow-1)])
	}
	if prev >= firstValid {
		h1 = 2 * (dif[prev] - dea[prev-(macdSlow-1)])
	}

	goldenCross := false
	if prev >= firstValid {
		deaPrev := dea[prev-(macdSlow-1)]
		deaLast := dea[last-(macdSlow-1)]
		if dif[last] > deaLast && dif[prev] <= deaPrev {
			goldenCross = true
		}
	}
	return macdResult{histogram: h0, histogramPrev: h1, goldenCross: goldenCross}
}

func ema(data []float64, period int) []float64 {
	if len(data) < period {
		return nil
	}
	out := make([]float64, len(data))
	mult := 2.0 / float64(period+1)
	var sum float64
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < len(data); i++ {
		out[i] = (data[i]-out[i-1])*mult + out[i-1]
	}
	return out
}
