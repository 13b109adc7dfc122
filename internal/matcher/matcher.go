package matcher

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/allanpk716/genderiser/internal/domain"
)

// DefaultPattern 默认占位符模式：角色标识_词键
const DefaultPattern = `([A-Za-z]+)_([A-Za-z]+)`

// MissingFormat 无法解析的占位符在输出中的标记
const MissingFormat = "[MISSING:%s]"

// placeholderMatcher 占位符匹配器实现
type placeholderMatcher struct {
	pattern *regexp2.Regexp
}

// NewPlaceholderMatcher 创建新的占位符匹配器，模式必须恰好包含两个捕获组
// 模式语法支持环视等回溯特性，例如 (?<![A-Za-z])([a-z]+)_([a-z]+)
func NewPlaceholderMatcher(pattern string) (domain.PlaceholderMatcher, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, domain.WrapConfigurationError(err, "占位符模式 %q 无效", pattern)
	}
	if groups := len(re.GetGroupNumbers()) - 1; groups != 2 {
		return nil, domain.NewConfigurationError("占位符模式 %q 必须包含两个捕获组，当前 %d 个", pattern, groups)
	}

	return &placeholderMatcher{pattern: re}, nil
}

// FindMatches 按出现顺序查找内容中的全部占位符
func (pm *placeholderMatcher) FindMatches(content string) []domain.Match {
	var matches []domain.Match
	if content == "" {
		return matches
	}

	// regexp2 以 rune 计位置，这里换算回字节偏移
	offsets := make([]int, 0, len(content)+1)
	for i := range content {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(content))
	span := func(index, length int) (int, int) {
		return offsets[index], offsets[index+length]
	}

	m, err := pm.pattern.FindStringMatch(content)
	for ; err == nil && m != nil; m, err = pm.pattern.FindNextMatch(m) {
		character, word := m.GroupByNumber(1), m.GroupByNumber(2)
		// 捕获组未参与匹配时跳过
		if character == nil || word == nil || len(character.Captures) == 0 || len(word.Captures) == 0 {
			continue
		}
		start, end := span(m.Index, m.Length)
		charStart, charEnd := span(character.Index, character.Length)
		wordStart, wordEnd := span(word.Index, word.Length)
		matches = append(matches, domain.Match{
			Placeholder: content[start:end],
			Character:   content[charStart:charEnd],
			Word:        content[wordStart:wordEnd],
			StartPos:    start,
			EndPos:      end,
		})
	}
	return matches
}

// Replace 替换内容中的全部占位符
func (pm *placeholderMatcher) Replace(content string, table domain.SubstitutionTable) (string, domain.ReplacementStats) {
	return ReplaceEscaped(pm, content, table, nil)
}

// ReplaceEscaped 同 Replace，替换值会先经过 escape 处理（可为 nil）
func ReplaceEscaped(pm domain.PlaceholderMatcher, content string, table domain.SubstitutionTable, escape func(string) string) (string, domain.ReplacementStats) {
	var stats domain.ReplacementStats

	matches := pm.FindMatches(content)
	if len(matches) == 0 {
		return content, stats
	}

	// 从后往前替换，避免位置偏移问题
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartPos > matches[j].StartPos
	})

	result := content
	for _, match := range matches {
		replacement := Resolve(match, table)
		if _, ok := table[match.Key()]; ok {
			stats.Replacements++
		} else {
			stats.Unresolved++
		}
		if escape != nil {
			replacement = escape(replacement)
		}
		result = result[:match.StartPos] + replacement + result[match.EndPos:]
	}

	return result, stats
}

// Missing 返回内容中无法解析的占位符（保留原始大小写，已排序去重）
func (pm *placeholderMatcher) Missing(content string, table domain.SubstitutionTable) []string {
	set := make(map[string]struct{})
	for _, match := range pm.FindMatches(content) {
		if _, ok := table[match.Key()]; ok {
			continue
		}
		set[match.Placeholder] = struct{}{}
	}

	missing := make([]string, 0, len(set))
	for placeholder := range set {
		missing = append(missing, placeholder)
	}
	sort.Strings(missing)
	return missing
}

// Resolve 计算单个占位符的替换结果，角色标识首字母大写时替换值首字母也大写
func Resolve(match domain.Match, table domain.SubstitutionTable) string {
	value, ok := table[match.Key()]
	if !ok {
		return fmt.Sprintf(MissingFormat, match.Placeholder)
	}
	if match.Capitalized() {
		return Capitalize(value)
	}
	return value
}

// Capitalize 首字母大写，其余部分保持不变
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
