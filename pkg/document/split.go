package document

import (
	"strings"

	"github.com/allanpk716/genderiser/internal/domain"
)

// token 内容条目中的一段：标签或标签之间的文本
type token struct {
	start, end int
	tag        bool
}

func tokenize(content string) []token {
	tags := xmlTagPattern.FindAllStringIndex(content, -1)
	tokens := make([]token, 0, 2*len(tags)+1)

	last := 0
	for _, tag := range tags {
		if tag[0] > last {
			tokens = append(tokens, token{start: last, end: tag[0]})
		}
		tokens = append(tokens, token{start: tag[0], end: tag[1], tag: true})
		last = tag[1]
	}
	if last < len(content) {
		tokens = append(tokens, token{start: last, end: len(content)})
	}
	return tokens
}

// textBreaks 会切断文本的标签，值为纯文本视图中的替代字符
var textBreaks = map[string]string{
	"w:p":             "\n",
	"w:br":            "\n",
	"w:cr":            "\n",
	"w:tab":           "\t",
	"text:p":          "\n",
	"text:h":          "\n",
	"text:line-break": "\n",
	"text:tab":        "\t",
}

// tagBreak 判断标签是否切断文本；段落只在结束处输出换行
func tagBreak(tag string) (string, bool) {
	closing := strings.HasPrefix(tag, "</")
	name := strings.TrimPrefix(strings.TrimPrefix(tag, "<"), "/")
	if end := strings.IndexAny(name, " \t\r\n/>"); end >= 0 {
		name = name[:end]
	}

	text, ok := textBreaks[name]
	if !ok {
		return "", false
	}
	switch name {
	case "w:p", "text:p", "text:h":
		if !closing && !strings.HasSuffix(tag, "/>") {
			return "", true
		}
	}
	return text, true
}

// HandleSplitPlaceholders 处理被 XML 标签分割的占位符
// 同一段落内相邻文本片段拼接后查找占位符，跨片段的占位符整体移入首个片段，
// 后续片段只保留占位符之后的文本，标签全部保持原样
func (p *Packaged) HandleSplitPlaceholders(raw []byte, find func(string) []domain.Match) []byte {
	content := string(raw)
	tokens := tokenize(content)

	texts := make(map[int]string)
	var block []int
	reconstructed := false

	flush := func() {
		if len(block) > 1 && reconstructSplit(content, tokens, block, texts, find) {
			reconstructed = true
		}
		block = block[:0]
	}

	for i, t := range tokens {
		if !t.tag {
			block = append(block, i)
			continue
		}
		if _, breaks := tagBreak(content[t.start:t.end]); breaks {
			flush()
		}
	}
	flush()

	if !reconstructed {
		return raw
	}

	var builder strings.Builder
	builder.Grow(len(content))
	for i, t := range tokens {
		if text, ok := texts[i]; ok {
			builder.WriteString(text)
			continue
		}
		builder.WriteString(content[t.start:t.end])
	}
	return []byte(builder.String())
}

// reconstructSplit 重组一个段落内被分割的占位符，结果写入 texts
func reconstructSplit(content string, tokens []token, block []int, texts map[int]string, find func(string) []domain.Match) bool {
	// bounds[k] 为第 k 个片段在拼接文本中的起点
	bounds := make([]int, len(block)+1)
	var joined strings.Builder
	for k, index := range block {
		bounds[k] = joined.Len()
		joined.WriteString(content[tokens[index].start:tokens[index].end])
	}
	text := joined.String()
	bounds[len(block)] = len(text)

	moved := false
	for _, match := range find(text) {
		for k := 1; k < len(block); k++ {
			if bounds[k] > match.StartPos && bounds[k] < match.EndPos {
				bounds[k] = match.EndPos
				moved = true
			}
		}
	}
	if !moved {
		return false
	}

	for k, index := range block {
		texts[index] = text[bounds[k]:bounds[k+1]]
	}
	return true
}

// HandleSplitPlaceholders 纯文本不存在标签分割
func (pt *PlainText) HandleSplitPlaceholders(raw []byte, find func(string) []domain.Match) []byte {
	return raw
}
