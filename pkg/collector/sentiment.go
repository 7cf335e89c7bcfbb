package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const fearGreedURL = "https://api.alternative.me/fng/"

// 基准标的，用于给 AI 一条大盘方向参考
const benchmarkSymbol = "BTC-USD"

// SentimentClient 加密货币市场情绪客户端。
// 产出一段可直接注入提示词的文本；任何子项失败只缺那一行，整体从不报错。
type SentimentClient struct {
	client *resty.Client
	crypto *CryptoClient
}

// NewSentimentClient 创建情绪客户端
func NewSentimentClient(crypto *CryptoClient) *SentimentClient {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	return &SentimentClient{client: client, crypto: crypto}
}

// GetSentimentBlock 汇总恐慌贪婪指数与基准标的两日走向。
// 尽力而为：返回值可能为空串，但调用永远成功。
func (s *SentimentClient) GetSentimentBlock(ctx context.Context) string {
	var b strings.Builder

	if line, err := s.fearGreedLine(ctx); err != nil {
		log.Printf("恐慌贪婪指数获取失败: %v", err)
	} else {
		b.WriteString(line)
	}

	if line, err := s.benchmarkTrendLine(ctx); err != nil {
		log.Printf("基准走势获取失败: %v", err)
	} else {
		b.WriteString(line)
	}

	return b.String()
}

// fearGreedLine 恐慌贪婪指数（0-100 + 分类标签），极端区间附加提示
func (s *SentimentClient) fearGreedLine(ctx context.Context) (string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(fearGreedURL)
	if err != nil {
		return "", fmt.Errorf("请求指数接口失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("指数接口返回非200状态码: %d", resp.StatusCode())
	}
	body := resp.Body()
	if e := gjson.GetBytes(body, "metadata.error"); e.Exists() && e.Type != gjson.Null {
		return "", fmt.Errorf("指数接口报错: %s", e.String())
	}
	entry := gjson.GetBytes(body, "data.0")
	if !entry.Exists() {
		return "", fmt.Errorf("指数响应无数据")
	}
	value := entry.Get("value").Int()
	label := entry.Get("value_classification").String()

	line := fmt.Sprintf("【市场情绪】当前恐慌贪婪指数为 %d (%s)。\n", value, label)
	if value < 20 {
		line += "注：市场处于极度恐慌，历史上通常是阶段性底部区域。\n"
	} else if value > 80 {
		line += "注：市场处于极度贪婪，历史上需警惕回调风险。\n"
	}
	return line, nil
}

// benchmarkTrendLine 比较基准标的最近两根日K收盘价给出涨跌方向
func (s *SentimentClient) benchmarkTrendLine(ctx context.Context) (string, error) {
	if s.crypto == nil {
		return "", fmt.Errorf("未配置行情客户端")
	}
	bars, err := s.crypto.FetchDaily(ctx, benchmarkSymbol, 5)
	if err != nil {
		return "", err
	}
	if len(bars) < 2 {
		return "", fmt.Errorf("基准K线不足两根")
	}
	last := bars[len(bars)-1].Close
	prev := bars[len(bars)-2].Close
	direction := "下行"
	if last > prev {
		direction = "上行"
	}
	return fmt.Sprintf("【大盘参考】%s 最近两日收盘 %.2f -> %.2f，短期%s。\n",
		benchmarkSymbol, prev, last, direction), nil
}
