package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"StockPilot/pkg/model"
)

// AnalysisReport 单标的分析结果落库记录，Payload 保留完整结构化结果
type AnalysisReport struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Symbol         string    `gorm:"type:varchar(20);not null;index" json:"symbol"`
	Name           string    `gorm:"type:varchar(64)" json:"name"`
	Advice         string    `gorm:"type:varchar(32)" json:"advice"`
	SentimentScore int       `gorm:"default:0" json:"sentiment_score"`
	RiskLevel      string    `gorm:"type:varchar(16)" json:"risk_level"`
	Summary        string    `gorm:"type:text" json:"summary"`
	Payload        string    `gorm:"type:jsonb" json:"payload"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *AnalysisReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (AnalysisReport) TableName() string {
	return "analysis_reports"
}

// SaveReport 保存一条分析结果
func (s *Store) SaveReport(result *model.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化分析结果失败: %w", err)
	}
	report := &AnalysisReport{
		Symbol:         result.Code,
		Name:           result.Name,
		Advice:         result.OperationAdvice,
		SentimentScore: result.SentimentScore,
		RiskLevel:      result.RiskLevel,
		Summary:        result.Summary,
		Payload:        string(payload),
	}
	if err := s.db.Create(report).Error; err != nil {
		return fmt.Errorf("保存分析结果失败: %w", err)
	}
	return nil
}

// RecentReports 按时间倒序取最近的分析结果
func (s *Store) RecentReports(limit int) ([]*AnalysisReport, error) {
	var reports []*AnalysisReport
	err := s.db.Order("created_at DESC").Limit(limit).Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("查询分析结果失败: %w", err)
	}
	return reports, nil
}

// ReportsBySymbol 某标的的历史分析结果
func (s *Store) ReportsBySymbol(symbol string, limit int) ([]*AnalysisReport, error) {
	var reports []*AnalysisReport
	err := s.db.Where("symbol = ?", symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("查询分析结果失败: %w", err)
	}
	return reports, nil
}
