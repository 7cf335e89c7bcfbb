package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"StockPilot/pkg/model"
)

// DailyBarRecord 日线落库记录。FetchDate 为抓取日，用于同日去重；
// 同一标的每天整表覆盖，不追加。
type DailyBarRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"type:varchar(20);not null;index:idx_bar_symbol_date,unique,priority:1"`
	Date      string    `gorm:"type:varchar(10);not null;index:idx_bar_symbol_date,unique,priority:2"`
	Open      float64   `gorm:"not null"`
	High      float64   `gorm:"not null"`
	Low       float64   `gorm:"not null"`
	Close     float64   `gorm:"not null"`
	Volume    float64   `gorm:"not null"`
	Change    float64   `gorm:"not null"`
	PctChange float64   `gorm:"not null"`
	Source    string    `gorm:"type:varchar(32)"`
	FetchDate string    `gorm:"type:varchar(10);not null;index"`
	CreatedAt time.Time
}

func (DailyBarRecord) TableName() string {
	return "daily_bars"
}

const dayFormat = "2006-01-02"

// HasTodayData 指定标的在给定日期是否已抓取过数据
func (s *Store) HasTodayData(symbol string, day time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&DailyBarRecord{}).
		Where("symbol = ? AND fetch_date = ?", symbol, day.Format(dayFormat)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询抓取记录失败: %w", err)
	}
	return count > 0, nil
}

// SaveDailyData 覆盖式保存日线序列，返回写入行数
func (s *Store) SaveDailyData(ds *model.DailyDataset, day time.Time) (int, error) {
	if ds == nil || len(ds.Bars) == 0 {
		return 0, fmt.Errorf("数据集为空")
	}
	records := make([]*DailyBarRecord, 0, len(ds.Bars))
	fetchDate := day.Format(dayFormat)
	for _, b := range ds.Bars {
		records = append(records, &DailyBarRecord{
			Symbol:    ds.Symbol,
			Date:      b.Date,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			Change:    b.Change,
			PctChange: b.PctChange,
			Source:    ds.Source,
			FetchDate: fetchDate,
		})
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("symbol = ?", ds.Symbol).Delete(&DailyBarRecord{}).Error; err != nil {
			return fmt.Errorf("清理旧数据失败: %w", err)
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			return fmt.Errorf("写入日线失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// GetAnalysisContext 按日期升序取出某标的的全部日线，组装基础分析上下文。
// 无数据时返回 nil, nil。
func (s *Store) GetAnalysisContext(symbol string) (*model.AnalysisContext, error) {
	var records []DailyBarRecord
	err := s.db.Where("symbol = ?", symbol).
		Order("date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询日线失败: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	bars := make([]model.DailyBar, 0, len(records))
	for _, r := range records {
		bars = append(bars, model.DailyBar{
			Date:      r.Date,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
			Change:    r.Change,
			PctChange: r.PctChange,
		})
	}
	return &model.AnalysisContext{
		Symbol: symbol,
		Bars:   bars,
	}, nil
}
