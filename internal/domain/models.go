package domain

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Separator 角色标识与词键之间的分隔符
const Separator = "_"

// Profile 表示一个性别配置，包含词键到替换词的映射
type Profile struct {
	ID     string
	Parent string // 为空表示没有父配置
	Words  map[string]string
}

// Assignment 表示角色到性别配置的分配
type Assignment struct {
	Character string
	Profile   string
}

// SubstitutionTable 扁平替换表，key 格式为 {character}_{word}（小写）
type SubstitutionTable map[string]string

// CompositeKey 组合角色与词键，统一转为小写
func CompositeKey(character, word string) string {
	return strings.ToLower(character) + Separator + strings.ToLower(word)
}

// Lookup 按角色和词键查找替换词
func (t SubstitutionTable) Lookup(character, word string) (string, bool) {
	value, ok := t[CompositeKey(character, word)]
	return value, ok
}

// Keys 返回按字典序排序的全部 key
func (t SubstitutionTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Match 表示文本中的一个占位符
type Match struct {
	Placeholder string // 原始文本，如 Jones_child
	Character   string // 保留原始大小写
	Word        string
	StartPos    int
	EndPos      int
}

// Key 返回规范化后的组合键
func (m Match) Key() string {
	return CompositeKey(m.Character, m.Word)
}

// Capitalized 角色标识首字母是否大写
func (m Match) Capitalized() bool {
	r, _ := utf8.DecodeRuneInString(m.Character)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// Mode 运行模式
type Mode int

const (
	ModeWrite Mode = iota
	ModePreview
	ModeSubstitutions
	ModeMissing
)

func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModePreview:
		return "preview"
	case ModeSubstitutions:
		return "substitutions"
	case ModeMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// ProcessResult 处理结果
type ProcessResult struct {
	ProcessedFiles int
	Replacements   int
	Unresolved     int
}

// ReplacementStats 单个文档的替换统计信息
type ReplacementStats struct {
	Replacements int
	Unresolved   int
}

// GenderResolver 将性别配置层级解析为扁平替换表
type GenderResolver interface {
	Resolve(profiles []Profile, assignments []Assignment) (SubstitutionTable, error)
}

// PlaceholderMatcher 占位符匹配器接口
type PlaceholderMatcher interface {
	FindMatches(content string) []Match
	Replace(content string, table SubstitutionTable) (string, ReplacementStats)
	Missing(content string, table SubstitutionTable) []string
}

// Document 文档适配器接口，屏蔽纯文本与 ZIP 打包 XML 的差异
type Document interface {
	// Path 相对于项目目录的路径
	Path() string
	Kind() string
	Read() ([]byte, error)
	PlainText(raw []byte) string
	// HandleSplitPlaceholders 将被标签分割的占位符重组到同一文本片段中
	HandleSplitPlaceholders(raw []byte, find func(string) []Match) []byte
	Rewrite(raw []byte, transform func(string) string) []byte
	// Escape 将替换值转义为可直接写入原始内容的形式
	Escape(value string) string
	Write(raw []byte, destination string) error
}
