package pipeline

import "StockPilot/pkg/model"

// ContextInput 构建分析上下文的可选增强输入
type ContextInput struct {
	Realtime  *model.RealtimeQuote
	Chip      *model.ChipDistribution
	Trend     *model.TrendSignal
	News      string
	Sentiment string
}

// BuildContext 纯合并：把各采集结果并入基础上下文。
// 缺失的可选输入保持缺省，不以错误占位文本替代。
// 股票不携带情绪文本，加密货币不携带实时快照与筹码。
// names 是外部传入的代码->展示名映射，实时快照里的名称优先。
func BuildContext(base *model.AnalysisContext, class model.AssetClass, in ContextInput, names map[string]string) *model.AnalysisContext {
	actx := *base
	actx.Class = class
	actx.Trend = in.Trend
	actx.News = in.News

	if actx.Name == "" {
		if n, ok := names[actx.Symbol]; ok {
			actx.Name = n
		} else {
			actx.Name = actx.Symbol
		}
	}

	switch class {
	case model.AssetCrypto:
		actx.Sentiment = in.Sentiment
	default:
		actx.Realtime = in.Realtime
		actx.Chip = in.Chip
		if in.Realtime != nil && in.Realtime.Name != "" {
			actx.Name = in.Realtime.Name
		}
	}
	return &actx
}
