package document

import (
	"bytes"
	"io"
	"os"
)

// SampleSize 判断文本时采样的字节数
const SampleSize = 1024

// BinaryThreshold 不可打印字节占比超过该值即视为二进制
const BinaryThreshold = 0.30

// SniffFile 读取文件开头的采样并判断是否为文本
func SniffFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	sample := make([]byte, SampleSize)
	n, err := io.ReadFull(file, sample)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return IsText(sample[:n]), nil
}

// IsText 字节采样启发式：空内容为文本，含空字节为二进制，
// 否则按可打印 ASCII 与常见空白控制符之外的字节占比判断
func IsText(sample []byte) bool {
	if len(sample) == 0 {
		return true
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}

	nonText := 0
	for _, b := range sample {
		if !isTextByte(b) {
			nonText++
		}
	}
	return float64(nonText)/float64(len(sample)) <= BinaryThreshold
}

func isTextByte(b byte) bool {
	switch b {
	case '\n', '\r', '\t', '\f', '\b':
		return true
	}
	return b >= 0x20 && b < 0x7f
}
