package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// 操作建议的标准措辞，模型偶尔返回变体时不拒绝，
// 但只有标准措辞参与展示图标的推导
const (
	AdviceStrongBuy  = "大力买入"
	AdviceBuy        = "建议买入"
	AdviceHold       = "观望"
	AdviceSell       = "建议卖出"
	AdviceStrongSell = "坚决卖出"
)

// AnalysisResult 模型返回的结构化分析结果，九个字段缺一不可
type AnalysisResult struct {
	Code                string            `json:"code"`
	Name                string            `json:"name"`
	OperationAdvice     string            `json:"operation_advice"`
	SentimentScore      int               `json:"sentiment_score"`
	TrendPrediction     string            `json:"trend_prediction"`
	RiskLevel           string            `json:"risk_level"`
	AnalysisPoints      []string          `json:"analysis_points"`
	TechnicalIndicators map[string]string `json:"technical_indicators"`
	Summary             string            `json:"summary"`
}

// Emoji 按操作建议推导展示图标：含"买入"看多、含"卖出"看空、其余中性
func (r *AnalysisResult) Emoji() string {
	if strings.Contains(r.OperationAdvice, "买入") {
		return "🚀"
	}
	if strings.Contains(r.OperationAdvice, "卖出") {
		return "⚠️"
	}
	return "⚖️"
}

// resultFields 九个必填字段及其解析目标的对应关系
var resultFields = []string{
	"code", "name", "operation_advice", "sentiment_score", "trend_prediction",
	"risk_level", "analysis_points", "technical_indicators", "summary",
}

// ParseAnalysisResult 严格解析模型输出：任何字段缺失或类型不符都视为失败。
// 多余字段被忽略。
func ParseAnalysisResult(data []byte) (*AnalysisResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}
	for _, f := range resultFields {
		if _, ok := raw[f]; !ok {
			return nil, fmt.Errorf("缺少必填字段: %s", f)
		}
	}
	var r AnalysisResult
	targets := map[string]interface{}{
		"code":                 &r.Code,
		"name":                 &r.Name,
		"operation_advice":     &r.OperationAdvice,
		"sentiment_score":      &r.SentimentScore,
		"trend_prediction":     &r.TrendPrediction,
		"risk_level":           &r.RiskLevel,
		"analysis_points":      &r.AnalysisPoints,
		"technical_indicators": &r.TechnicalIndicators,
		"summary":              &r.Summary,
	}
	for _, f := range resultFields {
		if err := json.Unmarshal(raw[f], targets[f]); err != nil {
			return nil, fmt.Errorf("字段 %s 类型不符: %w", f, err)
		}
	}
	return &r, nil
}
