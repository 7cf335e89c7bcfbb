package model

// RealtimeQuote 实时行情快照（仅股票）
type RealtimeQuote struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	VolumeRatio  float64 `json:"volume_ratio"`  // 量比
	TurnoverRate float64 `json:"turnover_rate"` // 换手率(%)
}

// ChipDistribution 筹码分布（仅股票），获利比为 0~1
type ChipDistribution struct {
	ProfitRatio float64 `json:"profit_ratio"`
	Status      string  `json:"status"`
}

// TrendSignal 趋势分析结果，由趋势分析器产出
type TrendSignal struct {
	TrendStatus string `json:"trend_status"`
	BuySignal   string `json:"buy_signal"`
	SignalScore int    `json:"signal_score"` // 0-100
}

// AnalysisContext 单个标的一次分析所需的全部上下文，每轮重建、不落库。
// 可选字段缺失时保持 nil/空串，不用占位错误文本替代。
// Realtime/Chip 仅股票会填充，Sentiment 仅加密货币会填充。
type AnalysisContext struct {
	Symbol    string
	Name      string
	Class     AssetClass
	Realtime  *RealtimeQuote
	Chip      *ChipDistribution
	Trend     *TrendSignal
	News      string // 搜索到的情报文本
	Sentiment string // 链上情绪/恐慌贪婪文本
	Bars      []DailyBar
}
