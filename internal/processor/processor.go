package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/allanpk716/genderiser/internal/domain"
	"github.com/allanpk716/genderiser/internal/matcher"
	"github.com/allanpk716/genderiser/pkg/document"
)

// Opener 打开项目目录下的文档
type Opener func(root, relPath string) (domain.Document, error)

// Run 单次运行的上下文，在处理文档前构建完成，之后只读
type Run struct {
	Mode       domain.Mode
	InputRoot  string
	OutputRoot string
	Documents  []string // 相对于 InputRoot 的路径
	Table      domain.SubstitutionTable
	Jobs       int
	Out        io.Writer
}

// Engine 替换引擎：扫描文档中的占位符并驱动文档适配器输出结果
type Engine struct {
	matcher domain.PlaceholderMatcher
	open    Opener
	logger  *zap.Logger
}

// NewEngine 创建新的替换引擎
func NewEngine(placeholderMatcher domain.PlaceholderMatcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		matcher: placeholderMatcher,
		open:    document.Open,
		logger:  logger,
	}
}

// WithOpener 替换文档打开方式
func (e *Engine) WithOpener(open Opener) *Engine {
	e.open = open
	return e
}

// processed 单个文档在内存中的处理结果
type processed struct {
	doc   domain.Document
	raw   []byte
	stats domain.ReplacementStats
}

// Process 按运行模式处理全部文档
func (e *Engine) Process(ctx context.Context, run *Run) (*domain.ProcessResult, error) {
	if run == nil {
		return nil, fmt.Errorf("运行上下文不能为空")
	}
	out := run.Out
	if out == nil {
		out = os.Stdout
	}

	if run.Mode == domain.ModeSubstitutions {
		if err := WriteSubstitutions(out, run.Table); err != nil {
			return nil, err
		}
		return &domain.ProcessResult{}, nil
	}

	if run.Mode == domain.ModeWrite {
		if err := checkOutputRoot(run.InputRoot, run.OutputRoot); err != nil {
			return nil, err
		}
	}

	docs, err := e.openAll(run)
	if err != nil {
		return nil, err
	}

	switch run.Mode {
	case domain.ModeWrite:
		return e.write(ctx, run, docs)
	case domain.ModePreview:
		return e.preview(ctx, run, docs, out)
	case domain.ModeMissing:
		return e.missing(ctx, run, docs, out)
	default:
		return nil, fmt.Errorf("未知的运行模式: %v", run.Mode)
	}
}

// openAll 先识别全部文档，任何格式错误都会在处理前中止运行
func (e *Engine) openAll(run *Run) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(run.Documents))
	for _, rel := range run.Documents {
		doc, err := e.open(run.InputRoot, rel)
		if err != nil {
			return nil, fmt.Errorf("打开文档 %s 失败: %w", rel, err)
		}
		e.logger.Debug("已识别文档", zap.String("file", rel), zap.String("kind", doc.Kind()))
		docs = append(docs, doc)
	}
	return docs, nil
}

// rewriteAll 并行读取并改写全部文档，结果按输入顺序返回
func (e *Engine) rewriteAll(ctx context.Context, run *Run, docs []domain.Document) ([]processed, error) {
	results := make([]processed, len(docs))

	err := forEach(ctx, run.Jobs, len(docs), func(i int) error {
		doc := docs[i]
		raw, err := doc.Read()
		if err != nil {
			return err
		}

		raw = doc.HandleSplitPlaceholders(raw, e.matcher.FindMatches)

		var stats domain.ReplacementStats
		rewritten := doc.Rewrite(raw, func(segment string) string {
			result, s := matcher.ReplaceEscaped(e.matcher, segment, run.Table, doc.Escape)
			stats.Replacements += s.Replacements
			stats.Unresolved += s.Unresolved
			return result
		})

		results[i] = processed{doc: doc, raw: rewritten, stats: stats}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) write(ctx context.Context, run *Run, docs []domain.Document) (*domain.ProcessResult, error) {
	results, err := e.rewriteAll(ctx, run, docs)
	if err != nil {
		return nil, err
	}

	err = forEach(ctx, run.Jobs, len(results), func(i int) error {
		item := results[i]
		destination := filepath.Join(run.OutputRoot, item.doc.Path())
		if err := item.doc.Write(item.raw, destination); err != nil {
			return fmt.Errorf("写入文档 %s 失败: %w", item.doc.Path(), err)
		}
		e.logger.Info("文档处理完成",
			zap.String("file", item.doc.Path()),
			zap.String("output", destination),
			zap.Int("replacements", item.stats.Replacements),
			zap.Int("unresolved", item.stats.Unresolved))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return e.summarize(run, results), nil
}

func (e *Engine) preview(ctx context.Context, run *Run, docs []domain.Document, out io.Writer) (*domain.ProcessResult, error) {
	results, err := e.rewriteAll(ctx, run, docs)
	if err != nil {
		return nil, err
	}

	for _, item := range results {
		if err := WritePreview(out, item.doc.Path(), item.doc.PlainText(item.raw)); err != nil {
			return nil, err
		}
	}
	return e.summarize(run, results), nil
}

func (e *Engine) missing(ctx context.Context, run *Run, docs []domain.Document, out io.Writer) (*domain.ProcessResult, error) {
	perDocument := make([][]string, len(docs))

	err := forEach(ctx, run.Jobs, len(docs), func(i int) error {
		doc := docs[i]
		raw, err := doc.Read()
		if err != nil {
			return err
		}
		raw = doc.HandleSplitPlaceholders(raw, e.matcher.FindMatches)

		// 与写入时扫描同样的文本片段，报告与替换结果保持一致
		doc.Rewrite(raw, func(segment string) string {
			perDocument[i] = append(perDocument[i], e.matcher.Missing(segment, run.Table)...)
			return segment
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for _, placeholders := range perDocument {
		for _, placeholder := range placeholders {
			set[placeholder] = struct{}{}
		}
	}
	missing := make([]string, 0, len(set))
	for placeholder := range set {
		missing = append(missing, placeholder)
	}
	sort.Strings(missing)

	if _, err := fmt.Fprintln(out, strings.Join(missing, ",")); err != nil {
		return nil, fmt.Errorf("输出缺失报告失败: %w", err)
	}
	return &domain.ProcessResult{ProcessedFiles: len(docs), Unresolved: len(missing)}, nil
}

func (e *Engine) summarize(run *Run, results []processed) *domain.ProcessResult {
	result := &domain.ProcessResult{ProcessedFiles: len(results)}
	for _, item := range results {
		result.Replacements += item.stats.Replacements
		result.Unresolved += item.stats.Unresolved
	}
	e.logger.Info("处理完成",
		zap.String("mode", run.Mode.String()),
		zap.Int("files", result.ProcessedFiles),
		zap.Int("replacements", result.Replacements),
		zap.Int("unresolved", result.Unresolved))
	return result
}

// forEach 以至多 jobs 个并发执行 fn，jobs 小于 1 时按顺序执行
func forEach(ctx context.Context, jobs, n int, fn func(i int) error) error {
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}

// checkOutputRoot 输出目录不能与输入目录相同
func checkOutputRoot(inputRoot, outputRoot string) error {
	if outputRoot == "" {
		return domain.NewConfigurationError("未指定输出目录")
	}

	in, err := filepath.Abs(inputRoot)
	if err != nil {
		return fmt.Errorf("解析输入目录失败: %w", err)
	}
	out, err := filepath.Abs(outputRoot)
	if err != nil {
		return fmt.Errorf("解析输出目录失败: %w", err)
	}
	if in == out {
		return domain.NewConfigurationError("输出目录不能与输入目录相同: %s", outputRoot)
	}

	inInfo, inErr := os.Stat(in)
	outInfo, outErr := os.Stat(out)
	if inErr == nil && outErr == nil && os.SameFile(inInfo, outInfo) {
		return domain.NewConfigurationError("输出目录不能与输入目录相同: %s", outputRoot)
	}
	return nil
}

// WriteSubstitutions 输出按 key 排序的替换表，单行、逗号分隔
func WriteSubstitutions(out io.Writer, table domain.SubstitutionTable) error {
	keys := table.Keys()
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+":"+table[key])
	}
	if _, err := fmt.Fprintln(out, strings.Join(pairs, ",")); err != nil {
		return fmt.Errorf("输出替换表失败: %w", err)
	}
	return nil
}

// WritePreview 输出单个文档的预览，标题下方的分隔线与标题等宽
func WritePreview(out io.Writer, path, text string) error {
	header := path + ":"
	underline := strings.Repeat("-", runewidth.StringWidth(header))
	if _, err := fmt.Fprintf(out, "%s\n%s\n%s\n\n", header, underline, strings.Trim(text, "\r\n")); err != nil {
		return fmt.Errorf("输出预览失败: %w", err)
	}
	return nil
}
