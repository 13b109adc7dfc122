package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/allanpk716/genderiser/internal/domain"
)

//go:embed defaults.toml
var defaultsTOML string

// ProjectFileNames 项目目录下按顺序查找的配置文件名
var ProjectFileNames = []string{"genderiser.toml", "genderiser.yaml", "genderiser.yml"}

// DefaultTree 返回内置默认配置
func DefaultTree() *Tree {
	tree, err := DecodeTOML(defaultsTOML)
	if err != nil {
		panic(fmt.Sprintf("内置默认配置无效: %v", err))
	}
	return tree
}

// FindProjectFile 查找项目目录下的配置文件，未找到时返回空字符串
func FindProjectFile(projectDir string) (string, error) {
	for _, name := range ProjectFileNames {
		path := filepath.Join(projectDir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("读取配置文件信息失败: %w", err)
		}
	}
	return "", nil
}

// LoadFile 按扩展名解析单个配置文件
func LoadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewConfigurationError("配置文件不存在: %s", path)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var tree *Tree
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		tree, err = DecodeTOML(string(data))
	case ".yaml", ".yml":
		tree, err = DecodeYAML(data)
	default:
		return nil, domain.NewConfigurationError("配置文件必须是 TOML 或 YAML 格式，当前文件: %s", ext)
	}
	if err != nil {
		if domain.IsConfigurationError(err) {
			return nil, err
		}
		return nil, domain.WrapConfigurationError(err, "解析配置文件 %s 失败", path)
	}
	return tree, nil
}

// DecodeTOML 解析 TOML 配置，配置项顺序取自文档
func DecodeTOML(data string) (*Tree, error) {
	var raw map[string]interface{}
	md, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, err
	}

	b := newTreeBuilder()
	for _, key := range md.Keys() {
		switch len(key) {
		case 1:
			if _, isTable := raw[key[0]].(map[string]interface{}); !isTable {
				return nil, domain.NewConfigurationError("顶层配置项 %q 必须位于配置段中", key[0])
			}
			b.section(key[0])
		case 2:
			table, _ := raw[key[0]].(map[string]interface{})
			value, err := scalarString(table[key[1]])
			if err != nil {
				return nil, domain.WrapConfigurationError(err, "配置项 %s.%s 无效", key[0], key[1])
			}
			if err := b.entry(key[0], key[1], value); err != nil {
				return nil, err
			}
		default:
			return nil, domain.NewConfigurationError("配置项 %s 嵌套过深", key.String())
		}
	}
	return b.tree, nil
}

// DecodeYAML 解析 YAML 配置，配置项顺序取自文档
func DecodeYAML(data []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	b := newTreeBuilder()
	if len(doc.Content) == 0 {
		return b.tree, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, domain.NewConfigurationError("YAML 配置的顶层必须是映射")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		name, body := root.Content[i].Value, root.Content[i+1]
		b.section(name)

		switch {
		case body.Kind == yaml.ScalarNode && body.Tag == "!!null":
			continue
		case body.Kind != yaml.MappingNode:
			return nil, domain.NewConfigurationError("配置段 %q 必须是映射 (第 %d 行)", name, body.Line)
		}

		for j := 0; j+1 < len(body.Content); j += 2 {
			keyNode, valueNode := body.Content[j], body.Content[j+1]
			value, err := yamlScalar(valueNode)
			if err != nil {
				return nil, domain.WrapConfigurationError(err, "配置项 %s.%s 无效 (第 %d 行)", name, keyNode.Value, keyNode.Line)
			}
			if err := b.entry(name, keyNode.Value, value); err != nil {
				return nil, err
			}
		}
	}
	return b.tree, nil
}

// treeBuilder 构建配置树，同一文件中规范化后重复的键视为配置错误
type treeBuilder struct {
	tree *Tree
	seen map[string]bool
}

func newTreeBuilder() *treeBuilder {
	return &treeBuilder{tree: NewTree(), seen: make(map[string]bool)}
}

func (b *treeBuilder) section(name string) {
	b.tree.AddSection(name)
}

func (b *treeBuilder) entry(section, key, value string) error {
	id := normalize(section) + "." + normalize(key)
	if b.seen[id] {
		return domain.NewConfigurationError("配置项重复: %s", id)
	}
	b.seen[id] = true
	b.tree.Set(section, key, value)
	return nil
}

func scalarString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, int64, float64:
		return fmt.Sprint(v), nil
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, err := scalarString(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("不支持的值类型 %T", value)
	}
}

func yamlScalar(node *yaml.Node) (string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "", nil
		}
		return node.Value, nil
	case yaml.SequenceNode:
		parts := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			s, err := yamlScalar(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("不支持的 YAML 节点类型 (第 %d 行)", node.Line)
	}
}
