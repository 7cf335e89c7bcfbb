package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"StockPilot/pkg/model"
)

// AKShareAdapter 自建 AKShare HTTP 服务适配器，提供实时行情与筹码分布。
// 这两类数据为增强信息，调用方失败时应降级为 nil，而不是中断分析。
type AKShareAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewAKShareAdapter 创建 AKShare 适配器
func NewAKShareAdapter(baseURL string) *AKShareAdapter {
	return &AKShareAdapter{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // AKShare 接口偏慢，放宽超时
		},
	}
}

// Available 是否配置了 AKShare 服务地址
func (a *AKShareAdapter) Available() bool { return a != nil && a.baseURL != "" }

func (a *AKShareAdapter) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求AKShare服务失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AKShare服务返回非200状态码: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}

// GetRealtimeQuote 获取单只股票的实时快照（最新价/量比/换手率）
func (a *AKShareAdapter) GetRealtimeQuote(ctx context.Context, code string) (*model.RealtimeQuote, error) {
	if !a.Available() {
		return nil, fmt.Errorf("未配置AKShare服务地址")
	}
	body, err := a.get(ctx, "/api/public/stock_zh_a_spot_em")
	if err != nil {
		return nil, err
	}
	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return nil, fmt.Errorf("行情响应不是数组")
	}
	bare := trimExchangePrefix(code)
	var quote *model.RealtimeQuote
	rows.ForEach(func(_, row gjson.Result) bool {
		if row.Get("代码").String() != bare {
			return true
		}
		quote = &model.RealtimeQuote{
			Name:         row.Get("名称").String(),
			Price:        row.Get("最新价").Float(),
			VolumeRatio:  row.Get("量比").Float(),
			TurnoverRate: row.Get("换手率").Float(),
		}
		return false
	})
	if quote == nil {
		return nil, fmt.Errorf("未找到股票: %s", code)
	}
	return quote, nil
}

// GetChipDistribution 获取筹码分布，取最近一个交易日的获利比例
func (a *AKShareAdapter) GetChipDistribution(ctx context.Context, code string) (*model.ChipDistribution, error) {
	if !a.Available() {
		return nil, fmt.Errorf("未配置AKShare服务地址")
	}
	body, err := a.get(ctx, "/api/public/stock_cyq_em?symbol="+trimExchangePrefix(code))
	if err != nil {
		return nil, err
	}
	rows := gjson.ParseBytes(body).Array()
	if len(rows) == 0 {
		return nil, fmt.Errorf("筹码分布为空: %s", code)
	}
	last := rows[len(rows)-1]
	ratio := last.Get("获利比例").Float()
	return &model.ChipDistribution{
		ProfitRatio: ratio,
		Status:      chipStatus(ratio),
	}, nil
}

// chipStatus 获利比例的粗粒度解读，直接注入提示词
func chipStatus(ratio float64) string {
	switch {
	case ratio >= 0.9:
		return "高位获利盘密集，警惕抛压"
	case ratio >= 0.5:
		return "多数持仓获利"
	case ratio >= 0.2:
		return "套牢盘较多"
	default:
		return "深度套牢，抛压较轻"
	}
}

func trimExchangePrefix(code string) string {
	if len(code) > 2 {
		switch code[:2] {
		case "sh", "sz", "bj", "SH", "SZ", "BJ":
			return code[2:]
		}
	}
	return code
}
