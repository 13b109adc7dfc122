package cmd

import (
	"github.com/allanpk716/genderiser/internal/domain"
)

const (
	AppName    = "genderiser"
	AppVersion = "1.0.0"
)

// CommandLineArgs 命令行参数结构
type CommandLineArgs struct {
	ProjectDir    string
	ConfigFile    string
	OutputDir     string
	Preview       bool
	Substitutions bool
	Missing       bool
	Jobs          int
	Watch         bool
	Verbose       bool
	LogLevel      string
	LogFormat     string
	ShowVersion   bool
}

// Mode 根据参数确定运行模式，未指定预览或报告时为写入模式
func (args *CommandLineArgs) Mode() domain.Mode {
	switch {
	case args.Preview:
		return domain.ModePreview
	case args.Substitutions:
		return domain.ModeSubstitutions
	case args.Missing:
		return domain.ModeMissing
	default:
		return domain.ModeWrite
	}
}

// ValidateArgs 验证命令行参数
func ValidateArgs(args *CommandLineArgs) error {
	if args.ProjectDir == "" {
		return domain.NewConfigurationError("必须指定项目目录")
	}

	modes := 0
	for _, enabled := range []bool{args.Preview, args.Substitutions, args.Missing, args.OutputDir != ""} {
		if enabled {
			modes++
		}
	}
	if modes > 1 {
		return domain.NewConfigurationError("输出目录、预览、替换表和缺失报告只能指定一个")
	}

	if args.Watch && args.Mode() != domain.ModeWrite {
		return domain.NewConfigurationError("监视模式只能与写入模式一起使用")
	}

	if args.Jobs < 0 {
		return domain.NewConfigurationError("并发数不能为负数: %d", args.Jobs)
	}
	if args.Jobs == 0 {
		args.Jobs = 1
	}

	return nil
}
