// Package gender 将性别配置层级（含继承）解析为按角色展开的扁平替换表。
package gender

import (
	"strings"

	"go.uber.org/zap"

	"github.com/allanpk716/genderiser/internal/domain"
)

// resolver 性别解析器实现
type resolver struct {
	logger *zap.Logger
}

// NewResolver 创建新的性别解析器
func NewResolver(logger *zap.Logger) domain.GenderResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &resolver{logger: logger}
}

// Resolve 解析全部配置并为每个角色生成替换项
func (r *resolver) Resolve(profiles []domain.Profile, assignments []domain.Assignment) (domain.SubstitutionTable, error) {
	index, err := indexProfiles(profiles)
	if err != nil {
		return nil, err
	}

	effective := make(map[string]map[string]string, len(index))
	for id := range index {
		words, err := EffectiveWords(index, id)
		if err != nil {
			return nil, err
		}
		effective[id] = words
	}

	table := make(domain.SubstitutionTable)
	seen := make(map[string]string, len(assignments))

	for _, assignment := range assignments {
		character := strings.ToLower(strings.TrimSpace(assignment.Character))
		profileID := strings.ToLower(strings.TrimSpace(assignment.Profile))

		if character == "" {
			return nil, domain.NewConfigurationError("角色标识不能为空")
		}
		if previous, exists := seen[character]; exists {
			return nil, domain.NewConfigurationError("角色 %q 重复分配 (%s, %s)", character, previous, profileID)
		}
		seen[character] = profileID

		words, ok := effective[profileID]
		if !ok {
			return nil, domain.NewConfigurationError("角色 %q 引用了未声明的性别 %q", character, profileID)
		}

		added := expandForCharacter(table, character, words)
		r.logger.Debug("角色替换项已生成",
			zap.String("character", character),
			zap.String("profile", profileID),
			zap.Int("entries", added))
	}

	return table, nil
}

// expandForCharacter 将有效词表按角色展开写入替换表，返回写入数量
func expandForCharacter(table domain.SubstitutionTable, character string, words map[string]string) int {
	prefix := character + domain.Separator
	added := 0

	// 先写通用词，再写角色专属覆盖项，保证覆盖项优先
	for key, value := range words {
		if strings.Contains(key, domain.Separator) {
			continue
		}
		table[prefix+key] = value
		added++
	}
	for key, value := range words {
		if strings.HasPrefix(key, prefix) {
			table[key] = value
			added++
		}
		// 属于其他角色的专属项直接跳过
	}
	return added
}

// indexProfiles 按小写标识建立索引，并校验父配置均已声明
func indexProfiles(profiles []domain.Profile) (map[string]domain.Profile, error) {
	index := make(map[string]domain.Profile, len(profiles))
	for _, profile := range profiles {
		id := strings.ToLower(strings.TrimSpace(profile.ID))
		if id == "" {
			return nil, domain.NewConfigurationError("性别标识不能为空")
		}
		if _, exists := index[id]; exists {
			return nil, domain.NewConfigurationError("性别 %q 重复声明", id)
		}
		if profile.Words == nil {
			return nil, domain.NewConfigurationError("性别 %q 没有对应的词表", id)
		}

		words := make(map[string]string, len(profile.Words))
		for key, value := range profile.Words {
			words[strings.ToLower(key)] = value
		}
		index[id] = domain.Profile{
			ID:     id,
			Parent: strings.ToLower(strings.TrimSpace(profile.Parent)),
			Words:  words,
		}
	}

	for id, profile := range index {
		if profile.Parent == "" {
			continue
		}
		if _, ok := index[profile.Parent]; !ok {
			return nil, domain.NewConfigurationError("性别 %q 的父配置 %q 未声明", id, profile.Parent)
		}
	}
	return index, nil
}

// EffectiveWords 沿继承链计算配置的有效词表，子配置覆盖父配置
func EffectiveWords(index map[string]domain.Profile, id string) (map[string]string, error) {
	var chain []domain.Profile
	visited := make(map[string]bool)

	for current := id; current != ""; {
		if visited[current] {
			return nil, domain.NewConfigurationError("性别 %q 的继承链存在循环 (%s)", id, formatChain(chain, current))
		}
		visited[current] = true

		profile, ok := index[current]
		if !ok {
			return nil, domain.NewConfigurationError("性别 %q 未声明", current)
		}
		chain = append(chain, profile)
		current = profile.Parent
	}

	words := make(map[string]string)
	for i := len(chain) - 1; i >= 0; i-- {
		for key, value := range chain[i].Words {
			words[key] = value
		}
	}
	return words, nil
}

func formatChain(chain []domain.Profile, last string) string {
	ids := make([]string, 0, len(chain)+1)
	for _, profile := range chain {
		ids = append(ids, profile.ID)
	}
	ids = append(ids, last)
	return strings.Join(ids, " -> ")
}
