package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/allanpk716/genderiser/internal/cmd"
	"github.com/allanpk716/genderiser/internal/domain"
	"github.com/allanpk716/genderiser/internal/logger"
	"github.com/allanpk716/genderiser/internal/watch"
)

const envPrefix = "GENDERISER"

func main() {
	rootCmd, err := newRootCmd(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		if domain.IsConfigurationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) (*cobra.Command, error) {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           cmd.AppName + " [flags] PROJECT_DIR",
		Short:         "替换文档中角色相关的性别词占位符",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, positional []string) error {
			return run(c, v, positional, stdout)
		},
	}

	flags := rootCmd.Flags()
	flags.StringP("output", "o", "", "输出目录（写入模式）")
	flags.BoolP("preview", "p", false, "预览替换结果，不写入文件")
	flags.BoolP("substitutions", "s", false, "输出完整替换表")
	flags.BoolP("missing", "m", false, "输出无法解析的占位符")
	flags.StringP("config", "c", "", "配置文件路径（默认在项目目录中查找）")
	flags.Int("jobs", 1, "并发处理的文档数")
	flags.Bool("watch", false, "监视项目目录并在变化后重新写入")
	flags.BoolP("verbose", "v", false, "详细输出")
	flags.String("log-level", "warn", "日志级别 (debug, info, warn, error)")
	flags.String("log-format", "console", "日志格式 (console, json)")
	flags.Bool("version", false, "显示版本信息")

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("绑定命令行参数失败: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return rootCmd, nil
}

func run(c *cobra.Command, v *viper.Viper, positional []string, stdout io.Writer) error {
	if v.GetBool("version") {
		fmt.Fprintf(stdout, "%s v%s\n", cmd.AppName, cmd.AppVersion)
		return nil
	}

	args := &cmd.CommandLineArgs{
		ConfigFile:    v.GetString("config"),
		OutputDir:     v.GetString("output"),
		Preview:       v.GetBool("preview"),
		Substitutions: v.GetBool("substitutions"),
		Missing:       v.GetBool("missing"),
		Jobs:          v.GetInt("jobs"),
		Watch:         v.GetBool("watch"),
		Verbose:       v.GetBool("verbose"),
		LogLevel:      v.GetString("log-level"),
		LogFormat:     v.GetString("log-format"),
	}
	if len(positional) > 0 {
		args.ProjectDir = positional[0]
	}

	if err := cmd.ValidateArgs(args); err != nil {
		return err
	}

	level := args.LogLevel
	if args.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: args.LogFormat, Output: c.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("启动", zap.String("app", cmd.AppName), zap.String("version", cmd.AppVersion),
		zap.String("project", args.ProjectDir), zap.String("mode", args.Mode().String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args.Watch {
		return runWatch(ctx, args, log, stdout)
	}

	result, err := cmd.ExecuteProcessing(ctx, args, log, stdout)
	if err != nil {
		return err
	}
	log.Info("处理完成", zap.Int("files", result.ProcessedFiles), zap.Int("unresolved", result.Unresolved))
	return nil
}

// runWatch 先校验一次配置，配置错误直接退出，之后的错误只记录日志
func runWatch(ctx context.Context, args *cmd.CommandLineArgs, log *zap.Logger, stdout io.Writer) error {
	prepared, err := cmd.Prepare(args, log, stdout)
	if err != nil {
		return err
	}

	w := watch.New(prepared.Project.Root, prepared.Run.OutputRoot, log, func(ctx context.Context) error {
		_, err := cmd.ExecuteProcessing(ctx, args, log, stdout)
		return err
	})

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
