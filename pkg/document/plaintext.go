package document

import (
	"fmt"
	"os"
)

// PlainText 纯文本文档，原始内容即为可扫描文本
type PlainText struct {
	path    string
	relPath string
}

// Path 相对路径
func (pt *PlainText) Path() string { return pt.relPath }

// Kind 格式标签
func (pt *PlainText) Kind() string { return KindText }

// Read 读取整个文件
func (pt *PlainText) Read() ([]byte, error) {
	content, err := os.ReadFile(pt.path)
	if err != nil {
		return nil, fmt.Errorf("读取文件 %s 失败: %w", pt.relPath, err)
	}
	return content, nil
}

// PlainText 纯文本视图即原始内容
func (pt *PlainText) PlainText(raw []byte) string {
	return string(raw)
}

// Rewrite 对全部内容执行转换
func (pt *PlainText) Rewrite(raw []byte, transform func(string) string) []byte {
	return []byte(transform(string(raw)))
}

// Escape 纯文本不需要转义
func (pt *PlainText) Escape(value string) string {
	return value
}

// Write 直接写入字节，按需创建中间目录
func (pt *PlainText) Write(raw []byte, destination string) error {
	if err := ensureDir(destination); err != nil {
		return err
	}
	if err := os.WriteFile(destination, raw, 0644); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", destination, err)
	}
	return nil
}
