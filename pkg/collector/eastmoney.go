package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"StockPilot/pkg/model"
)

// 东方财富接口地址
const (
	eastMoneyKLineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
)

// 请求头（模拟浏览器）
const (
	emUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	emReferer   = "https://quote.eastmoney.com/"
)

const emHTTPTimeout = 10 * time.Second

// EastMoneyClient A股日线客户端，走东方财富公开行情接口
type EastMoneyClient struct {
	httpClient *http.Client
}

// NewEastMoneyClient 创建东方财富客户端
func NewEastMoneyClient() *EastMoneyClient {
	return &EastMoneyClient{
		httpClient: &http.Client{Timeout: emHTTPTimeout},
	}
}

// Source 数据来源标签
func (c *EastMoneyClient) Source() string { return "eastmoney" }

// secID 代码转东财 secid：6 开头为沪市（1.），其余深市（0.）；
// 容忍 sh/sz 前缀写法
func secID(code string) string {
	code = strings.TrimPrefix(strings.TrimPrefix(code, "sh"), "sz")
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}

// FetchDaily 拉取前复权日K线，count 上限 1000
func (c *EastMoneyClient) FetchDaily(ctx context.Context, symbol string, days int) ([]model.DailyBar, error) {
	if symbol == "" || days <= 0 {
		return nil, fmt.Errorf("非法的代码或天数")
	}
	if days > 1000 {
		days = 1000
	}
	url := fmt.Sprintf("%s?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56&klt=101&fqt=1&lmt=%d",
		eastMoneyKLineURL, secID(symbol), days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("User-Agent", emUserAgent)
	req.Header.Set("Referer", emReferer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求K线接口失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("K线接口返回非200状态码: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return parseKlines(body, symbol)
}

// parseKlines 解析 data.klines，每条形如 "2024-01-02,开,收,高,低,量"
func parseKlines(body []byte, symbol string) ([]model.DailyBar, error) {
	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || !klines.IsArray() {
		return nil, fmt.Errorf("响应中无 data.klines: %s", symbol)
	}
	arr := klines.Array()
	out := make([]model.DailyBar, 0, len(arr))
	for _, v := range arr {
		parts := strings.Split(strings.TrimSpace(v.String()), ",")
		if len(parts) < 6 {
			continue
		}
		open, _ := strconv.ParseFloat(parts[1], 64)
		closeVal, _ := strconv.ParseFloat(parts[2], 64)
		high, _ := strconv.ParseFloat(parts[3], 64)
		low, _ := strconv.ParseFloat(parts[4], 64)
		volume, _ := strconv.ParseFloat(parts[5], 64)
		out = append(out, model.DailyBar{
			Date:   parts[0],
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeVal,
			Volume: volume,
		})
	}
	return out, nil
}
