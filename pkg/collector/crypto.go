package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"StockPilot/pkg/model"
)

const yahooChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// CryptoClient 加密货币日线客户端，走 Yahoo Finance chart 接口，
// 交易对代码形如 BTC-USD、ETH-USD
type CryptoClient struct {
	client *resty.Client
}

// NewCryptoClient 创建加密货币客户端
func NewCryptoClient() *CryptoClient {
	client := resty.New()
	client.SetBaseURL(yahooChartBaseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", emUserAgent)
	return &CryptoClient{client: client}
}

// Source 数据来源标签
func (c *CryptoClient) Source() string { return "yfinance" }

// FetchDaily 拉取最近 days 天日线。币市 7x24，天数直接映射 range 参数。
func (c *CryptoClient) FetchDaily(ctx context.Context, symbol string, days int) ([]model.DailyBar, error) {
	if symbol == "" || days <= 0 {
		return nil, fmt.Errorf("非法的代码或天数")
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"range":    fmt.Sprintf("%dd", days),
			"interval": "1d",
		}).
		Get("/" + symbol)
	if err != nil {
		return nil, fmt.Errorf("请求行情接口失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("行情接口返回错误 %d: %s", resp.StatusCode(), resp.String())
	}
	return parseChart(resp.Body(), symbol)
}

// parseChart 解析 chart.result[0]：timestamp 数组 + indicators.quote[0] 的 OHLCV 列
func parseChart(body []byte, symbol string) ([]model.DailyBar, error) {
	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		errMsg := gjson.GetBytes(body, "chart.error.description").String()
		return nil, fmt.Errorf("行情响应异常: %s %s", symbol, errMsg)
	}
	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	out := make([]model.DailyBar, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i].Type == gjson.Null {
			continue
		}
		bar := model.DailyBar{
			Date:  time.Unix(ts.Int(), 0).UTC().Format("2006-01-02"),
			Close: closes[i].Float(),
		}
		if i < len(opens) {
			bar.Open = opens[i].Float()
		}
		if i < len(highs) {
			bar.High = highs[i].Float()
		}
		if i < len(lows) {
			bar.Low = lows[i].Float()
		}
		if i < len(volumes) {
			bar.Volume = volumes[i].Float()
		}
		out = append(out, bar)
	}
	return out, nil
}
