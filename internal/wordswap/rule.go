package wordswap

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"
)

// Rule 描述一次词替换：目标词、替换词以及可选的限定短语
type Rule struct {
	Target      string   `mapstructure:"target"`
	Replacement string   `mapstructure:"replacement"`
	Qualifiers  []string `mapstructure:"qualifiers"` // 非空时，目标词后必须紧跟其中一个短语才会替换
	Language    string   `mapstructure:"language"`   // 替换词大小写转换使用的语言标签，默认 und
}

// DefaultRule 返回默认的 Yale -> Fale 规则
func DefaultRule() Rule {
	return Rule{
		Target:      "Yale",
		Replacement: "Fale",
		Language:    "und",
	}
}

// InstitutionQualifiers 只在机构名称中替换时使用的限定短语
var InstitutionQualifiers = []string{"University", "College", "medical school"}

// Validate 校验规则是否可用
func (r Rule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Target, validation.Required, validation.By(wordEdges)),
		validation.Field(&r.Replacement, validation.Required, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if strings.EqualFold(s, r.Target) {
				return errors.New("must differ from target")
			}
			return nil
		})),
		validation.Field(&r.Qualifiers, validation.Each(validation.Required)),
		validation.Field(&r.Language, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			if _, err := language.Parse(s); err != nil {
				return errors.Wrapf(err, "invalid language tag %q", s)
			}
			return nil
		})),
	)
}

// wordEdges 要求目标词首尾都是单词字符，否则 \b 边界没有意义
func wordEdges(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if !isWordRune(first) || !isWordRune(last) {
		return errors.New("must start and end with a word character")
	}
	return nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
