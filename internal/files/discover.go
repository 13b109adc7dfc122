// Package files 根据项目配置解析需要处理的文档列表。
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/allanpk716/genderiser/internal/config"
	"github.com/allanpk716/genderiser/internal/domain"
)

// Discover 返回相对于项目目录的文档路径（排序去重），没有匹配到任何文件时返回配置错误
func Discover(root string, selection config.FileSelection) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(rel string) {
		rel = filepath.Clean(rel)
		if seen[rel] {
			return
		}
		seen[rel] = true
		result = append(result, rel)
	}

	for _, name := range selection.Files {
		rel, err := relative(root, name)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(filepath.Join(root, rel))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, domain.NewConfigurationError("文件不存在: %s", name)
			}
			return nil, fmt.Errorf("读取文件信息失败: %w", err)
		}
		if info.IsDir() {
			return nil, domain.NewConfigurationError("%s 是目录", name)
		}
		add(rel)
	}

	if selection.Pattern != "" {
		matches, err := filepath.Glob(filepath.Join(root, selection.Pattern))
		if err != nil {
			return nil, domain.WrapConfigurationError(err, "文件匹配模式 %q 无效", selection.Pattern)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() || isProjectConfig(match) {
				continue
			}
			rel, err := filepath.Rel(root, match)
			if err != nil {
				return nil, fmt.Errorf("计算相对路径失败: %w", err)
			}
			add(rel)
		}
	}

	if len(result) == 0 {
		return nil, domain.NewConfigurationError("没有找到需要处理的文件")
	}

	sort.Strings(result)
	return result, nil
}

// relative 校验路径位于项目目录内并返回相对路径
func relative(root, name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("计算相对路径失败: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.NewConfigurationError("文件 %s 不在项目目录中", name)
	}
	return rel, nil
}

func isProjectConfig(path string) bool {
	base := filepath.Base(path)
	for _, name := range config.ProjectFileNames {
		if base == name {
			return true
		}
	}
	return false
}
