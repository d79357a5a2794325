// Package document 在解析后的 HTML 树上执行整词替换
package document

// TextNode 树中一段可改写的文本
type TextNode interface {
	Text() string
	SetText(text string)
}

// Tree 解析后的文档树，只暴露改写需要的部分
type Tree interface {
	// Title 返回标题元素，文档没有标题时 ok 为 false
	Title() (node TextNode, ok bool)
	// BodyText 按文档顺序返回正文中所有可见文本节点
	BodyText() []TextNode
	// Paragraphs 返回无属性且只含单个文本节点的 <p> 元素内容
	Paragraphs() []string
}

// Codec 负责文档的解析与序列化
type Codec interface {
	Parse(src string) (Tree, error)
	Render(tree Tree) (string, error)
}

// Rewriter 对单段文本做替换并返回替换次数
type Rewriter interface {
	RewriteCount(text string) (string, int)
}
