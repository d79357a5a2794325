// Package wordswap 实现保留大小写模式的整词替换
package wordswap

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// matchTimeout 单次替换允许的最长匹配时间
const matchTimeout = 2 * time.Second

// Rewriter 按 Rule 替换文本中的目标词
// 构造后不可变，可在多个 goroutine 中并发使用
type Rewriter struct {
	rule     Rule
	re       *regexp2.Regexp
	variants map[Casing]string
}

// New 根据规则创建 Rewriter
func New(rule Rule) (*Rewriter, error) {
	if rule.Language == "" {
		rule.Language = "und"
	}
	if err := rule.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid rewrite rule")
	}

	re, err := regexp2.Compile(buildPattern(rule), regexp2.IgnoreCase)
	if err != nil {
		return nil, errors.Wrap(err, "compile word pattern")
	}
	re.MatchTimeout = matchTimeout

	tag := language.Make(rule.Language)
	return &Rewriter{
		rule:     rule,
		re:       re,
		variants: buildVariants(rule.Replacement, tag),
	}, nil
}

// MustNew 与 New 相同，出错时 panic
func MustNew(rule Rule) *Rewriter {
	r, err := New(rule)
	if err != nil {
		panic(err)
	}
	return r
}

// Rule 返回当前使用的规则
func (r *Rewriter) Rule() Rule {
	return r.rule
}

// Rewrite 替换 text 中所有整词匹配
func (r *Rewriter) Rewrite(text string) string {
	out, _ := r.RewriteCount(text)
	return out
}

// RewriteCount 替换并返回替换次数
// 正则引擎出错（如超时）时原样返回输入
func (r *Rewriter) RewriteCount(text string) (string, int) {
	if text == "" {
		return text, 0
	}

	count := 0
	out, err := r.re.ReplaceFunc(text, func(m regexp2.Match) string {
		count++
		return r.variants[Classify(m.String())]
	}, -1, -1)
	if err != nil || count == 0 {
		return text, 0
	}
	return out, count
}

func buildPattern(rule Rule) string {
	var b strings.Builder
	b.WriteString(`\b`)
	b.WriteString(regexp2.Escape(rule.Target))
	b.WriteString(`\b`)

	if len(rule.Qualifiers) > 0 {
		quoted := make([]string, 0, len(rule.Qualifiers))
		for _, q := range rule.Qualifiers {
			quoted = append(quoted, regexp2.Escape(q))
		}
		b.WriteString(`(?=\s+(?:`)
		b.WriteString(strings.Join(quoted, "|"))
		b.WriteString(`)\b)`)
	}
	return b.String()
}

// buildVariants 预先计算三种大小写形式的替换词
func buildVariants(replacement string, tag language.Tag) map[Casing]string {
	upper := cases.Upper(tag)
	lower := cases.Lower(tag)

	_, size := utf8.DecodeRuneInString(replacement)
	capitalized := upper.String(replacement[:size]) + lower.String(replacement[size:])

	return map[Casing]string{
		CasingUpper:       upper.String(replacement),
		CasingCapitalized: capitalized,
		CasingOther:       lower.String(replacement),
	}
}
