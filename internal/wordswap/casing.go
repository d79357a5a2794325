package wordswap

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Casing 匹配词的大小写模式
type Casing int

const (
	// CasingOther 混合或全小写，替换词使用全小写
	CasingOther Casing = iota
	// CasingUpper 全大写，例如 YALE
	CasingUpper
	// CasingCapitalized 首字母大写其余小写，例如 Yale
	CasingCapitalized
)

// String 返回大小写模式名称
func (c Casing) String() string {
	switch c {
	case CasingUpper:
		return "ALL_UPPER"
	case CasingCapitalized:
		return "CAPITALIZED"
	default:
		return "OTHER"
	}
}

// Classify 判断单个匹配词的大小写模式
// 每个匹配独立计算，不依赖上下文
func Classify(token string) Casing {
	if token == "" {
		return CasingOther
	}
	if token == strings.ToUpper(token) {
		return CasingUpper
	}

	first, size := utf8.DecodeRuneInString(token)
	rest := token[size:]
	if unicode.IsUpper(first) && rest == strings.ToLower(rest) {
		return CasingCapitalized
	}
	return CasingOther
}
