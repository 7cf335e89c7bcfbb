package collector

import (
	"context"

	"StockPilot/pkg/model"
)

// DailyFetcher 日线数据获取接口，按资产类别各有一个实现
type DailyFetcher interface {
	// FetchDaily 拉取最近 days 天的日K，返回的衍生字段（涨跌额/涨跌幅）
	// 不要求填充，由上层统一重算
	FetchDaily(ctx context.Context, symbol string, days int) ([]model.DailyBar, error)
	// Source 数据来源标签，随数据集一并落库
	Source() string
}
