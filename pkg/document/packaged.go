package document

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/allanpk716/genderiser/internal/domain"
)

var (
	xmlTagPattern = regexp.MustCompile(`<[^>]*>`)

	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	xmlUnescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&apos;", "'",
		"&amp;", "&",
	)
)

// Packaged 基于 ZIP 结构的 XML 文档，文本位于一个指定的内容条目中
type Packaged struct {
	path    string
	relPath string
	kind    PackageKind
}

// Path 相对路径
func (p *Packaged) Path() string { return p.relPath }

// Kind 格式标签
func (p *Packaged) Kind() string { return p.kind.Kind }

// ContentPath 内容条目在压缩包中的路径
func (p *Packaged) ContentPath() string { return p.kind.ContentPath }

// Read 读取内容条目的字节
func (p *Packaged) Read() ([]byte, error) {
	reader, err := zip.OpenReader(p.path)
	if err != nil {
		return nil, &domain.UnsupportedFormatError{Path: p.relPath, Reason: "打开压缩包失败", Err: err}
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != p.kind.ContentPath {
			continue
		}
		content, err := readEntry(file)
		if err != nil {
			return nil, &domain.UnsupportedFormatError{Path: p.relPath, Reason: "读取内容条目失败", Err: err}
		}
		return content, nil
	}

	return nil, &domain.UnsupportedFormatError{Path: p.relPath, Reason: fmt.Sprintf("未找到 %s", p.kind.ContentPath)}
}

// PlainText 移除标签得到的纯文本视图，段落结束与换行标签输出换行，仅用于预览
func (p *Packaged) PlainText(raw []byte) string {
	content := string(raw)

	var builder strings.Builder
	for _, t := range tokenize(content) {
		segment := content[t.start:t.end]
		if !t.tag {
			builder.WriteString(segment)
			continue
		}
		text, _ := tagBreak(segment)
		builder.WriteString(text)
	}
	return xmlUnescaper.Replace(builder.String())
}

// Rewrite 对标签之间的文本片段执行转换，标签本身保持不变
func (p *Packaged) Rewrite(raw []byte, transform func(string) string) []byte {
	content := string(raw)

	var builder strings.Builder
	builder.Grow(len(content))
	for _, t := range tokenize(content) {
		if t.tag {
			builder.WriteString(content[t.start:t.end])
			continue
		}
		builder.WriteString(transform(content[t.start:t.end]))
	}
	return []byte(builder.String())
}

// Escape 转义 XML 特殊字符
func (p *Packaged) Escape(value string) string {
	return xmlEscaper.Replace(value)
}

// Write 按原顺序重新打包全部条目，只替换内容条目，其他条目按原始压缩数据原样复制
func (p *Packaged) Write(raw []byte, destination string) error {
	reader, err := zip.OpenReader(p.path)
	if err != nil {
		return &domain.UnsupportedFormatError{Path: p.relPath, Reason: "打开压缩包失败", Err: err}
	}
	defer reader.Close()

	if err := ensureDir(destination); err != nil {
		return err
	}

	outputFile, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}

	if err := p.repack(reader, outputFile, raw); err != nil {
		outputFile.Close()
		os.Remove(destination)
		return err
	}
	if err := outputFile.Close(); err != nil {
		return fmt.Errorf("关闭输出文件失败: %w", err)
	}
	return nil
}

func (p *Packaged) repack(reader *zip.ReadCloser, output io.Writer, content []byte) error {
	zipWriter := zip.NewWriter(output)
	zipWriter.SetComment(reader.Comment)

	written := make(map[string]bool, len(reader.File))
	for _, file := range reader.File {
		if written[file.Name] {
			return fmt.Errorf("压缩包 %s 中存在重复条目: %s", p.relPath, file.Name)
		}
		written[file.Name] = true

		if file.Name == p.kind.ContentPath {
			header := file.FileHeader
			writer, err := zipWriter.CreateHeader(&header)
			if err != nil {
				return fmt.Errorf("创建ZIP文件头失败: %w", err)
			}
			if _, err := writer.Write(content); err != nil {
				return fmt.Errorf("写入文件内容失败: %w", err)
			}
			continue
		}

		if err := copyRaw(zipWriter, file); err != nil {
			return fmt.Errorf("复制条目 %s 失败: %w", file.Name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("写入压缩包失败: %w", err)
	}
	return nil
}

// copyRaw 不解压直接复制条目的压缩数据
func copyRaw(zipWriter *zip.Writer, file *zip.File) error {
	rawReader, err := file.OpenRaw()
	if err != nil {
		return err
	}
	header := file.FileHeader
	writer, err := zipWriter.CreateRaw(&header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, rawReader)
	return err
}

func readEntry(file *zip.File) ([]byte, error) {
	fileReader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()
	return io.ReadAll(fileReader)
}
