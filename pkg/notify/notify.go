// Package notify 负责分析结果的报告生成、Webhook 推送与本地归档。
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"StockPilot/pkg/model"
)

// Service 通知服务，webhook 未配置时仅做本地归档
type Service struct {
	webhookURL string
	reportDir  string
	client     *http.Client
	now        func() time.Time
}

// NewService 创建通知服务
func NewService(webhookURL, reportDir string) *Service {
	return &Service{
		webhookURL: webhookURL,
		reportDir:  reportDir,
		client:     &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

// IsAvailable 是否配置了推送渠道
func (s *Service) IsAvailable() bool {
	return s != nil && s.webhookURL != ""
}

// Send 推送文本到 Webhook（企业微信机器人格式）
func (s *Service) Send(text string) error {
	if !s.IsAvailable() {
		return fmt.Errorf("未配置Webhook地址")
	}
	payload := map[string]interface{}{
		"msgtype": "text",
		"text":    map[string]string{"content": text},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化通知失败: %w", err)
	}
	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("推送通知失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("通知渠道返回非200状态码: %d", resp.StatusCode)
	}
	return nil
}

// GenerateDashboardReport 汇总多个标的的决策仪表盘报告。
// 结果按情绪评分降序排列；输入顺序无意义，不保留。
func (s *Service) GenerateDashboardReport(results []model.AnalysisResult) string {
	if len(results) == 0 {
		return "今日无分析结果。"
	}
	sorted := make([]model.AnalysisResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SentimentScore > sorted[j].SentimentScore
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📊 决策仪表盘（%s，共%d个标的）\n\n",
		s.now().Format("2006-01-02"), len(sorted))
	for _, r := range sorted {
		fmt.Fprintf(&b, "%s %s (%s)\n", r.Emoji(), r.Name, r.Code)
		fmt.Fprintf(&b, "  建议：%s | 情绪：%d | 风险：%s\n", r.OperationAdvice, r.SentimentScore, r.RiskLevel)
		fmt.Fprintf(&b, "  %s\n\n", r.Summary)
	}
	b.WriteString("💡 以上内容由模型生成，仅供参考，不构成投资建议。")
	return b.String()
}

// GenerateSingleStockReport 单标的详细报告
func (s *Service) GenerateSingleStockReport(r *model.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s) 分析报告\n\n", r.Emoji(), r.Name, r.Code)
	fmt.Fprintf(&b, "操作建议：%s\n", r.OperationAdvice)
	fmt.Fprintf(&b, "情绪评分：%d/100\n", r.SentimentScore)
	fmt.Fprintf(&b, "走势预测：%s\n", r.TrendPrediction)
	fmt.Fprintf(&b, "风险等级：%s\n", r.RiskLevel)
	if len(r.AnalysisPoints) > 0 {
		b.WriteString("\n核心要点：\n")
		for _, p := range r.AnalysisPoints {
			fmt.Fprintf(&b, "• %s\n", p)
		}
	}
	if len(r.TechnicalIndicators) > 0 {
		b.WriteString("\n技术指标：\n")
		keys := make([]string, 0, len(r.TechnicalIndicators))
		for k := range r.TechnicalIndicators {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "• %s：%s\n", k, r.TechnicalIndicators[k])
		}
	}
	fmt.Fprintf(&b, "\n总结：%s\n", r.Summary)
	return b.String()
}

// SaveReportToFile 将报告归档到本地文件，返回文件路径
func (s *Service) SaveReportToFile(text string) (string, error) {
	if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}
	name := fmt.Sprintf("report_%s_%s.md",
		s.now().Format("20060102_1504"), uuid.New().String()[:8])
	path := filepath.Join(s.reportDir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}
	return path, nil
}
