package analyzer

import (
	"fmt"
	"strings"

	"StockPilot/pkg/model"
)

// 缺失字段的占位标记。始终渲染全部字段位，保证各轮调用里
// 字段位置与语义对模型稳定。
const missingMark = "N/A"

const jsonDirective = "请只输出一个可机器解析的 JSON 对象，不要附加任何解释文字。"

// stockSystemPrompt A股分析的系统提示词
func stockSystemPrompt() string {
	return `你是一位资深的 A 股证券分析师，擅长量价分析和筹码分布研究。
请基于技术面和最新情报给出专业、客观的投资建议，重点关注：
1. 量比与换手率的配合关系。
2. 筹码分布与获利盘的位置。
3. 均线形态与趋势信号评分。

请严格按 JSON 格式输出包含：code, name, operation_advice, sentiment_score, trend_prediction, risk_level, analysis_points, technical_indicators, summary。
` + jsonDirective
}

// cryptoSystemPrompt 加密货币分析的系统提示词，注入情绪数据文本
func cryptoSystemPrompt(extra string) string {
	if extra == "" {
		extra = missingMark
	}
	return fmt.Sprintf(`你是一位顶级的加密货币策略分析师，精通链上数据与技术面分析。
请根据提供的历史价格、成交量以及【市场情绪数据】进行深度研判。

【核心原则】：
1. 波动性：加密货币波动巨大，请给出更具容错空间的建议。
2. 情绪驱动：高度参考恐慌贪婪指数。
3. 禁忌：不要提到市盈率、财报、法人等股票术语。

【当前市场参考】：
%s

请严格按 JSON 格式输出包含：code, name, operation_advice, sentiment_score, trend_prediction, risk_level, analysis_points, technical_indicators, summary。
%s`, extra, jsonDirective)
}

// renderContext 按固定顺序序列化分析上下文：
// 名称、代码、最新价、量比、换手率、趋势状态、信号评分、筹码获利比、情报。
// 缺失项渲染为 N/A 而不是整行省略。
func renderContext(actx *model.AnalysisContext, news string) string {
	var b strings.Builder

	name := actx.Name
	if name == "" {
		name = actx.Symbol
	}

	price, volumeRatio, turnoverRate := missingMark, missingMark, missingMark
	if actx.Realtime != nil {
		price = fmt.Sprintf("%.2f", actx.Realtime.Price)
		volumeRatio = fmt.Sprintf("%.2f", actx.Realtime.VolumeRatio)
		turnoverRate = fmt.Sprintf("%.2f", actx.Realtime.TurnoverRate)
	} else if last := latestBar(actx.Bars); last != nil {
		// 无实时快照时退回最新收盘价
		price = fmt.Sprintf("%.2f", last.Close)
	}

	trendStatus, signalScore := missingMark, missingMark
	if actx.Trend != nil {
		trendStatus = actx.Trend.TrendStatus
		signalScore = fmt.Sprintf("%d", actx.Trend.SignalScore)
	}

	fmt.Fprintf(&b, "标的名称：%s (%s)\n", name, actx.Symbol)
	fmt.Fprintf(&b, "最新价格：%s\n", price)
	fmt.Fprintf(&b, "量比/换手：%s / %s%%\n", volumeRatio, turnoverRate)
	fmt.Fprintf(&b, "趋势状态：%s\n", trendStatus)
	fmt.Fprintf(&b, "买入信号评分：%s\n", signalScore)

	if actx.Chip != nil {
		fmt.Fprintf(&b, "筹码获利比：%.2f（%s）\n", actx.Chip.ProfitRatio, actx.Chip.Status)
	} else {
		fmt.Fprintf(&b, "筹码获利比：%s\n", missingMark)
	}

	if len(actx.Bars) > 0 {
		fmt.Fprintf(&b, "\n【近期日K】（日期,收盘,涨跌幅%%）:\n")
		bars := actx.Bars
		if len(bars) > 15 {
			bars = bars[len(bars)-15:]
		}
		for _, bar := range bars {
			fmt.Fprintf(&b, "%s,%.2f,%.2f\n", bar.Date, bar.Close, bar.PctChange)
		}
	}

	if news != "" {
		fmt.Fprintf(&b, "\n【最新相关情报】:\n%s\n", news)
	} else {
		fmt.Fprintf(&b, "\n【最新相关情报】: %s\n", missingMark)
	}

	return b.String()
}

func latestBar(bars []model.DailyBar) *model.DailyBar {
	if len(bars) == 0 {
		return nil
	}
	return &bars[len(bars)-1]
}
