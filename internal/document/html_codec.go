package document

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"
)

// skippedElements 内容不作为普通文本渲染的元素
var skippedElements = map[string]bool{
	"script":    true,
	"style":     true,
	"noscript":  true,
	"template":  true,
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"xmp":       true,
	"plaintext": true,
}

// HTMLCodec 基于 goquery 和 x/net/html 的宽松解析器
type HTMLCodec struct{}

// NewHTMLCodec 创建 HTML 编解码器
func NewHTMLCodec() *HTMLCodec {
	return &HTMLCodec{}
}

// Parse 解析 HTML，格式错误的标记不会导致失败
func (c *HTMLCodec) Parse(src string) (Tree, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}
	return &htmlTree{doc: doc}, nil
}

// Render 将文档树序列化为 HTML
func (c *HTMLCodec) Render(tree Tree) (string, error) {
	t, ok := tree.(*htmlTree)
	if !ok {
		return "", errors.Newf("unsupported tree type %T", tree)
	}
	out, err := t.doc.Html()
	if err != nil {
		return "", errors.Wrap(err, "failed to render HTML")
	}
	return out, nil
}

type htmlTree struct {
	doc *goquery.Document
}

func (t *htmlTree) Title() (TextNode, bool) {
	sel := t.doc.Find("head > title").First()
	if sel.Length() == 0 {
		// svg 等外部命名空间中的 title 不是文档标题
		sel = t.doc.Find("title").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Nodes[0].Namespace == ""
		}).First()
	}
	if sel.Length() == 0 {
		return nil, false
	}
	return &titleNode{sel: sel}, true
}

func (t *htmlTree) BodyText() []TextNode {
	var nodes []TextNode

	body := t.doc.Find("body").First()
	if body.Length() > 0 {
		collectText(body.Nodes[0], &nodes)
		return nodes
	}

	// frameset 等没有 body 的文档：遍历除 head 外的全部节点
	for _, root := range t.doc.Nodes {
		collectText(root, &nodes)
	}
	return nodes
}

func (t *htmlTree) Paragraphs() []string {
	var texts []string
	t.doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		// 仅匹配 <p>文本</p>：无属性且只有一个文本子节点
		n := s.Nodes[0]
		if len(n.Attr) == 0 && n.FirstChild != nil && n.FirstChild == n.LastChild && n.FirstChild.Type == html.TextNode {
			texts = append(texts, n.FirstChild.Data)
		}
	})
	return texts
}

func collectText(n *html.Node, out *[]TextNode) {
	switch n.Type {
	case html.TextNode:
		*out = append(*out, &textNode{node: n})
		return
	case html.ElementNode:
		if n.Data == "head" || skippedElements[n.Data] {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}

// textNode 直接修改 html.Node 的 Data，不改变树结构
type textNode struct {
	node *html.Node
}

func (n *textNode) Text() string {
	return n.node.Data
}

func (n *textNode) SetText(text string) {
	n.node.Data = text
}

// titleNode 标题按整体文本处理
type titleNode struct {
	sel *goquery.Selection
}

func (n *titleNode) Text() string {
	return n.sel.Text()
}

func (n *titleNode) SetText(text string) {
	n.sel.SetText(text)
}
