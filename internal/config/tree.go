package config

import "strings"

// Entry 配置项
type Entry struct {
	Key   string
	Value string
}

// Section 配置段，保留配置项的原始顺序
type Section struct {
	Name    string
	Entries []Entry
}

// Get 查找配置项
func (s *Section) Get(key string) (string, bool) {
	key = normalize(key)
	for _, entry := range s.Entries {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

// Map 将配置段转换为映射表
func (s *Section) Map() map[string]string {
	m := make(map[string]string, len(s.Entries))
	for _, entry := range s.Entries {
		m[entry.Key] = entry.Value
	}
	return m
}

// set 已存在则原位覆盖，否则追加
func (s *Section) set(key, value string) {
	for i := range s.Entries {
		if s.Entries[i].Key == key {
			s.Entries[i].Value = value
			return
		}
	}
	s.Entries = append(s.Entries, Entry{Key: key, Value: value})
}

// Tree 已解析的配置树：段名到有序配置项的映射，与具体序列化格式无关
type Tree struct {
	order    []string
	sections map[string]*Section
}

// NewTree 创建空配置树
func NewTree() *Tree {
	return &Tree{sections: make(map[string]*Section)}
}

// AddSection 获取或创建配置段
func (t *Tree) AddSection(name string) *Section {
	name = normalize(name)
	if section, ok := t.sections[name]; ok {
		return section
	}
	section := &Section{Name: name}
	t.sections[name] = section
	t.order = append(t.order, name)
	return section
}

// Section 查找配置段
func (t *Tree) Section(name string) (*Section, bool) {
	section, ok := t.sections[normalize(name)]
	return section, ok
}

// Sections 按声明顺序返回全部配置段
func (t *Tree) Sections() []*Section {
	sections := make([]*Section, 0, len(t.order))
	for _, name := range t.order {
		sections = append(sections, t.sections[name])
	}
	return sections
}

// Set 设置配置项，键名统一小写
func (t *Tree) Set(section, key, value string) {
	t.AddSection(section).set(normalize(key), value)
}

// Get 查找配置项
func (t *Tree) Get(section, key string) (string, bool) {
	s, ok := t.Section(section)
	if !ok {
		return "", false
	}
	return s.Get(key)
}

// Merge 将 other 覆盖到当前配置树上，逐项覆盖
func (t *Tree) Merge(other *Tree) {
	if other == nil {
		return
	}
	for _, section := range other.Sections() {
		target := t.AddSection(section.Name)
		for _, entry := range section.Entries {
			target.set(entry.Key, entry.Value)
		}
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
