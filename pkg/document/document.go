// Package document 提供文档适配器：纯文本文件与 ZIP 打包的 XML 文档（docx、odt）。
//
// 每个文档都以一个完整的内存单元处理，适配器负责读取原始内容、提供用于扫描的
// 纯文本视图、对原始内容执行改写，并以原始容器格式写回。
package document

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/allanpk716/genderiser/internal/domain"
)

const (
	KindText = "text"
	KindDocx = "docx"
	KindODT  = "odt"
)

// PackageKind 打包文档类型：内容条目路径与格式标签
type PackageKind struct {
	ContentPath string
	Kind        string
}

// PackageKinds 按优先级排列的打包文档类型，新增类型时追加到末尾
var PackageKinds = []PackageKind{
	{ContentPath: "word/document.xml", Kind: KindDocx},
	{ContentPath: "content.xml", Kind: KindODT},
}

// Open 识别并打开项目目录下的文档，relPath 为相对于 root 的路径
func Open(root, relPath string) (domain.Document, error) {
	fullPath := filepath.Join(root, relPath)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("读取文件信息失败: %w", err)
	}
	if info.IsDir() {
		return nil, &domain.UnsupportedFormatError{Path: relPath, Reason: "是目录"}
	}

	kind, err := Detect(fullPath)
	if err != nil {
		var formatErr *domain.UnsupportedFormatError
		if errors.As(err, &formatErr) {
			formatErr.Path = relPath
		}
		return nil, err
	}

	if kind.Kind == KindText {
		return &PlainText{path: fullPath, relPath: relPath}, nil
	}
	return &Packaged{path: fullPath, relPath: relPath, kind: kind}, nil
}

// Detect 识别文件类型：优先识别打包文档，其次按字节采样判断是否为文本
func Detect(path string) (PackageKind, error) {
	reader, err := zip.OpenReader(path)
	if err == nil {
		defer reader.Close()
		for _, kind := range PackageKinds {
			for _, file := range reader.File {
				if file.Name == kind.ContentPath {
					return kind, nil
				}
			}
		}
		return PackageKind{}, &domain.UnsupportedFormatError{Path: path, Reason: "压缩包中没有可识别的内容条目"}
	}

	isText, sniffErr := SniffFile(path)
	if sniffErr != nil {
		return PackageKind{}, fmt.Errorf("读取文件失败: %w", sniffErr)
	}
	if isText {
		return PackageKind{Kind: KindText}, nil
	}
	return PackageKind{}, &domain.UnsupportedFormatError{Path: path, Reason: "既不是文本也不是可识别的压缩包", Err: err}
}

// ensureDir 创建输出文件所在目录，目录已存在时不报错
func ensureDir(destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	return nil
}
