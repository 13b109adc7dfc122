package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/allanpk716/genderiser/internal/domain"
)

// 保留的配置段名称
const (
	SectionDefault    = "default"
	SectionGenders    = "genders"
	SectionCharacters = "characters"
	SectionFiles      = "files"
)

var reservedSections = map[string]bool{
	SectionDefault:    true,
	SectionGenders:    true,
	SectionCharacters: true,
	SectionFiles:      true,
}

// FileSelection 文件选择：逗号分隔的文件列表和/或 glob 模式，均相对于项目目录
type FileSelection struct {
	Files   []string
	Pattern string
}

// Project 表示一次运行所需的完整项目配置
type Project struct {
	Root        string
	ConfigFile  string
	Pattern     string
	OutputDir   string
	Profiles    []domain.Profile
	Assignments []domain.Assignment
	Files       FileSelection
}

// ConfigManager 配置管理接口
type ConfigManager interface {
	LoadConfig(projectDir, configFile string) (*Tree, string, error)
	ValidateConfig(tree *Tree) error
	BuildProject(projectDir string, tree *Tree) (*Project, error)
}

// configManager 配置管理器实现
type configManager struct {
	logger *zap.Logger
}

// NewConfigManager 创建新的配置管理器
func NewConfigManager(logger *zap.Logger) ConfigManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &configManager{logger: logger}
}

// LoadConfig 加载内置默认配置并叠加项目配置，返回配置树和实际使用的配置文件路径
func (cm *configManager) LoadConfig(projectDir, configFile string) (*Tree, string, error) {
	if projectDir == "" {
		return nil, "", domain.NewConfigurationError("未指定项目目录")
	}

	info, err := os.Stat(projectDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", domain.NewConfigurationError("项目目录不存在: %s", projectDir)
		}
		return nil, "", fmt.Errorf("读取项目目录失败: %w", err)
	}
	if !info.IsDir() {
		return nil, "", domain.NewConfigurationError("项目路径不是目录: %s", projectDir)
	}

	path := configFile
	if path == "" {
		path, err = FindProjectFile(projectDir)
		if err != nil {
			return nil, "", err
		}
	}

	tree := DefaultTree()
	if path != "" {
		projectTree, err := LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		tree.Merge(projectTree)
		cm.logger.Debug("已加载项目配置", zap.String("file", path))
	} else {
		cm.logger.Debug("未找到项目配置文件，仅使用内置默认配置", zap.String("project", projectDir))
	}

	if err := cm.ValidateConfig(tree); err != nil {
		return nil, "", err
	}
	return tree, path, nil
}

// ValidateConfig 验证配置的有效性
func (cm *configManager) ValidateConfig(tree *Tree) error {
	if tree == nil {
		return domain.NewConfigurationError("配置不能为空")
	}

	genders, ok := tree.Section(SectionGenders)
	if !ok || len(genders.Entries) == 0 {
		return domain.NewConfigurationError("[%s] 配置段为空", SectionGenders)
	}

	for _, entry := range genders.Entries {
		if reservedSections[entry.Key] {
			return domain.NewConfigurationError("性别名称 %q 与保留配置段冲突", entry.Key)
		}
		if _, ok := tree.Section(entry.Key); !ok {
			return domain.NewConfigurationError("没有找到性别 %q 对应的配置段", entry.Key)
		}
	}

	if characters, ok := tree.Section(SectionCharacters); ok {
		for _, entry := range characters.Entries {
			if strings.TrimSpace(entry.Value) == "" {
				return domain.NewConfigurationError("角色 %q 没有指定性别", entry.Key)
			}
			if _, ok := genders.Get(entry.Value); !ok {
				return domain.NewConfigurationError("%q 没有在 [%s] 配置段中列出 (角色 %q)", entry.Value, SectionGenders, entry.Key)
			}
		}
	}

	return nil
}

// BuildProject 将配置树转换为项目配置
func (cm *configManager) BuildProject(projectDir string, tree *Tree) (*Project, error) {
	if err := cm.ValidateConfig(tree); err != nil {
		return nil, err
	}

	project := &Project{Root: projectDir}
	project.Pattern, _ = tree.Get(SectionDefault, "pattern")

	if outputDir, ok := tree.Get(SectionDefault, "output_dir"); ok && outputDir != "" {
		if !filepath.IsAbs(outputDir) {
			outputDir = filepath.Join(projectDir, outputDir)
		}
		project.OutputDir = outputDir
	}

	genders, _ := tree.Section(SectionGenders)
	for _, entry := range genders.Entries {
		section, _ := tree.Section(entry.Key)
		project.Profiles = append(project.Profiles, domain.Profile{
			ID:     entry.Key,
			Parent: normalize(entry.Value),
			Words:  section.Map(),
		})
	}

	if characters, ok := tree.Section(SectionCharacters); ok {
		for _, entry := range characters.Entries {
			project.Assignments = append(project.Assignments, domain.Assignment{
				Character: entry.Key,
				Profile:   normalize(entry.Value),
			})
		}
	}

	if files, ok := tree.Get(SectionFiles, "files"); ok {
		project.Files.Files = SplitList(files)
	}
	project.Files.Pattern, _ = tree.Get(SectionFiles, "pattern")

	cm.logger.Debug("项目配置已构建",
		zap.Int("profiles", len(project.Profiles)),
		zap.Int("characters", len(project.Assignments)),
		zap.Int("files", len(project.Files.Files)),
		zap.String("glob", project.Files.Pattern))

	return project, nil
}

// SplitList 拆分逗号分隔的列表，忽略空项
func SplitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
