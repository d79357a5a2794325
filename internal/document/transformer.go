package document

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultSentinel 不做任何改写的测试页面段落
const DefaultSentinel = "This is a test page with no Yale references."

// Location 改写发生的位置
type Location string

const (
	LocationTitle Location = "title"
	LocationBody  Location = "body"
)

// Change 记录一个被改写的文本节点
type Change struct {
	Location     Location
	Before       string
	After        string
	Replacements int
}

// Result 文档改写结果
type Result struct {
	HTML         string
	Title        string
	Replacements int
	Changes      []Change
	Skipped      bool // 命中哨兵段落，未做改写
}

// Options 文档改写选项
type Options struct {
	// Sentinel 段落内容与之完全相同时跳过改写，为空则关闭
	Sentinel string
	Logger   *zap.Logger
}

// Transformer 对整个 HTML 文档做词替换
type Transformer struct {
	codec    Codec
	rewriter Rewriter
	sentinel string
	logger   *zap.Logger
}

// NewTransformer 创建文档改写器
func NewTransformer(codec Codec, rewriter Rewriter, opts Options) *Transformer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{
		codec:    codec,
		rewriter: rewriter,
		sentinel: opts.Sentinel,
		logger:   logger,
	}
}

// Transform 解析 src，改写标题和正文文本后重新序列化
func (t *Transformer) Transform(src string) (*Result, error) {
	if src == "" {
		return &Result{}, nil
	}

	tree, err := t.codec.Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "parse document")
	}

	if t.isSentinelPage(tree) {
		t.logger.Debug("sentinel paragraph found, leaving document unchanged")
		html, err := t.codec.Render(tree)
		if err != nil {
			return nil, errors.Wrap(err, "render document")
		}
		res := &Result{HTML: html, Skipped: true}
		if title, ok := tree.Title(); ok {
			res.Title = title.Text()
		}
		return res, nil
	}

	res := &Result{}

	if title, ok := tree.Title(); ok {
		before := title.Text()
		after, n := t.rewriter.RewriteCount(before)
		if n > 0 {
			title.SetText(after)
			res.record(LocationTitle, before, after, n)
		}
		res.Title = after
	}

	for _, node := range tree.BodyText() {
		before := node.Text()
		after, n := t.rewriter.RewriteCount(before)
		if n == 0 || after == before {
			continue
		}
		node.SetText(after)
		res.record(LocationBody, before, after, n)
	}

	html, err := t.codec.Render(tree)
	if err != nil {
		return nil, errors.Wrap(err, "render document")
	}
	res.HTML = html

	t.logger.Debug("document transformed",
		zap.String("title", res.Title),
		zap.Int("replacements", res.Replacements),
		zap.Int("changedNodes", len(res.Changes)))

	return res, nil
}

func (t *Transformer) isSentinelPage(tree Tree) bool {
	if t.sentinel == "" {
		return false
	}
	for _, p := range tree.Paragraphs() {
		if p == t.sentinel {
			return true
		}
	}
	return false
}

func (r *Result) record(loc Location, before, after string, n int) {
	r.Replacements += n
	r.Changes = append(r.Changes, Change{
		Location:     loc,
		Before:       before,
		After:        after,
		Replacements: n,
	})
}
