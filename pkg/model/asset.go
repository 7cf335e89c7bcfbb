package model

import "unicode"

// AssetClass 标的资产类别
type AssetClass string

const (
	AssetEquity AssetClass = "equity" // A股股票
	AssetCrypto AssetClass = "crypto" // 加密货币
)

// ClassifyFunc 代码到资产类别的判定规则，由配置选择后注入，
// 流水线内部不感知具体规则。
type ClassifyFunc func(code string) AssetClass

// ClassifyByLetter 默认规则：代码中包含字母即视为加密货币。
// 已知局限：带交易所前缀的股票代码（如 sh600519）会被误判为加密货币，
// 与历史行为保持一致，需要规避时通过配置切换到 suffix 规则。
func ClassifyByLetter(code string) AssetClass {
	for _, c := range code {
		if unicode.IsLetter(c) {
			return AssetCrypto
		}
	}
	return AssetEquity
}

// ClassifyBySuffix 交易所前缀感知规则：sh/sz/bj 前缀视为股票，
// 其余含字母的代码视为加密货币。
func ClassifyBySuffix(code string) AssetClass {
	if len(code) > 2 {
		switch code[:2] {
		case "sh", "sz", "bj", "SH", "SZ", "BJ":
			rest := code[2:]
			if ClassifyByLetter(rest) == AssetEquity {
				return AssetEquity
			}
		}
	}
	return ClassifyByLetter(code)
}

// ClassifyRule 按配置名称返回判定规则，未知名称回落到默认规则。
func ClassifyRule(name string) ClassifyFunc {
	switch name {
	case "suffix":
		return ClassifyBySuffix
	default:
		return ClassifyByLetter
	}
}
