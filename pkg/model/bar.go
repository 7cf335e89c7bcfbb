package model

import (
	"fmt"
	"sort"
)

// DailyBar 单日K线，日期为 YYYY-MM-DD 字符串
type DailyBar struct {
	Date      string  `json:"date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Change    float64 `json:"change"`     // 涨跌额 = close[t] - close[t-1]
	PctChange float64 `json:"pct_change"` // 涨跌幅(%) = change / close[t-1] * 100
}

// DailyDataset 某一标的的日线序列，按日期严格递增、无重复日期
type DailyDataset struct {
	Symbol string     `json:"symbol"`
	Source string     `json:"source"`
	Bars   []DailyBar `json:"bars"`
}

// Normalize 整理原始序列：按日期排序、去重，并重算涨跌额/涨跌幅。
// 首日的衍生字段定义为 0。日期重复时保留后到的一条（刷新覆盖语义）。
func (d *DailyDataset) Normalize() error {
	if len(d.Bars) == 0 {
		return fmt.Errorf("数据集为空: %s", d.Symbol)
	}
	sort.SliceStable(d.Bars, func(i, j int) bool {
		return d.Bars[i].Date < d.Bars[j].Date
	})
	deduped := d.Bars[:0]
	for _, b := range d.Bars {
		if n := len(deduped); n > 0 && deduped[n-1].Date == b.Date {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	d.Bars = deduped
	for i := range d.Bars {
		if i == 0 {
			d.Bars[0].Change = 0
			d.Bars[0].PctChange = 0
			continue
		}
		prev := d.Bars[i-1].Close
		d.Bars[i].Change = d.Bars[i].Close - prev
		if prev != 0 {
			d.Bars[i].PctChange = d.Bars[i].Change / prev * 100
		} else {
			d.Bars[i].PctChange = 0
		}
	}
	return nil
}

// Latest 返回最新一根K线，序列为空时返回 nil
func (d *DailyDataset) Latest() *DailyBar {
	if len(d.Bars) == 0 {
		return nil
	}
	return &d.Bars[len(d.Bars)-1]
}
