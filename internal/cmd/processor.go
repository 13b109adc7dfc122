package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/allanpk716/genderiser/internal/config"
	"github.com/allanpk716/genderiser/internal/domain"
	"github.com/allanpk716/genderiser/internal/files"
	"github.com/allanpk716/genderiser/internal/gender"
	"github.com/allanpk716/genderiser/internal/matcher"
	"github.com/allanpk716/genderiser/internal/processor"
)

// Prepared 已准备好的一次运行：项目配置、替换引擎与运行上下文
type Prepared struct {
	Project *config.Project
	Engine  *processor.Engine
	Run     *processor.Run
}

// Prepare 加载配置、构建替换表并解析文件列表，任何配置错误都在处理文档之前返回
func Prepare(args *CommandLineArgs, logger *zap.Logger, out io.Writer) (*Prepared, error) {
	configManager := config.NewConfigManager(logger)
	tree, configFile, err := configManager.LoadConfig(args.ProjectDir, args.ConfigFile)
	if err != nil {
		return nil, err
	}

	project, err := configManager.BuildProject(args.ProjectDir, tree)
	if err != nil {
		return nil, err
	}
	project.ConfigFile = configFile

	table, err := gender.NewResolver(logger).Resolve(project.Profiles, project.Assignments)
	if err != nil {
		return nil, err
	}
	logger.Debug("替换表已生成", zap.Int("entries", len(table)))

	placeholderMatcher, err := matcher.NewPlaceholderMatcher(project.Pattern)
	if err != nil {
		return nil, err
	}

	run := &processor.Run{
		Mode:      args.Mode(),
		InputRoot: project.Root,
		Table:     table,
		Jobs:      args.Jobs,
		Out:       out,
	}

	if run.Mode != domain.ModeSubstitutions {
		run.Documents, err = files.Discover(project.Root, project.Files)
		if err != nil {
			return nil, err
		}
		logger.Info("找到待处理文件", zap.Int("count", len(run.Documents)))
	}

	if run.Mode == domain.ModeWrite {
		run.OutputRoot = args.OutputDir
		if run.OutputRoot == "" {
			run.OutputRoot = project.OutputDir
		}
		if run.OutputRoot == "" {
			return nil, domain.NewConfigurationError("未指定输出目录，请使用 --output 或在配置中设置 output_dir")
		}
	}

	return &Prepared{
		Project: project,
		Engine:  processor.NewEngine(placeholderMatcher, logger),
		Run:     run,
	}, nil
}

// ExecuteProcessing 执行一次完整运行
func ExecuteProcessing(ctx context.Context, args *CommandLineArgs, logger *zap.Logger, out io.Writer) (*domain.ProcessResult, error) {
	prepared, err := Prepare(args, logger, out)
	if err != nil {
		return nil, err
	}

	result, err := prepared.Engine.Process(ctx, prepared.Run)
	if err != nil {
		return nil, fmt.Errorf("处理失败: %w", err)
	}
	return result, nil
}
