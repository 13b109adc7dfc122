package document

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

type zipEntry struct {
	name   string
	body   string
	method uint16
}

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t xml:space="preserve">smith_child and Jones_child said &quot;hi&quot;</w:t></w:r></w:p>
</w:body>
</w:document>`

func docxEntries(documentXML string) []zipEntry {
	return []zipEntry{
		{name: "[Content_Types].xml", body: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`, method: zip.Deflate},
		{name: "_rels/.rels", body: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`, method: zip.Deflate},
		{name: "word/_rels/document.xml.rels", body: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`, method: zip.Deflate},
		{name: "word/document.xml", body: documentXML, method: zip.Deflate},
		{name: "word/styles.xml", body: `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:styleId="smith_child"/></w:styles>`, method: zip.Deflate},
		{name: "word/media/image1.png", body: "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRsmith_child", method: zip.Store},
	}
}

func odtEntries(contentXML string) []zipEntry {
	return []zipEntry{
		{name: "mimetype", body: "application/vnd.oasis.opendocument.text", method: zip.Store},
		{name: "META-INF/manifest.xml", body: `<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0"/>`, method: zip.Deflate},
		{name: "content.xml", body: contentXML, method: zip.Deflate},
		{name: "styles.xml", body: `<office:document-styles/>`, method: zip.Deflate},
	}
}

// writeZip 在 dir 下创建测试用压缩包
func writeZip(t *testing.T, dir, name string, entries []zipEntry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}
	defer file.Close()

	zipWriter := zip.NewWriter(file)
	for _, entry := range entries {
		writer, err := zipWriter.CreateHeader(&zip.FileHeader{Name: entry.name, Method: entry.method})
		if err != nil {
			t.Fatalf("创建条目 %s 失败: %v", entry.name, err)
		}
		if _, err := writer.Write([]byte(entry.body)); err != nil {
			t.Fatalf("写入条目 %s 失败: %v", entry.name, err)
		}
	}
	if err := zipWriter.Close(); err != nil {
		t.Fatalf("关闭压缩包失败: %v", err)
	}
	return path
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}
	return path
}

// readZip 按顺序读取压缩包的全部条目
func readZip(t *testing.T, path string) ([]string, map[string][]byte, map[string]*zip.FileHeader) {
	t.Helper()

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("打开压缩包失败: %v", err)
	}
	defer reader.Close()

	var names []string
	contents := make(map[string][]byte)
	headers := make(map[string]*zip.FileHeader)
	for _, file := range reader.File {
		content, err := readEntry(file)
		if err != nil {
			t.Fatalf("读取条目 %s 失败: %v", file.Name, err)
		}
		names = append(names, file.Name)
		contents[file.Name] = content
		header := file.FileHeader
		headers[file.Name] = &header
	}
	return names, contents, headers
}
