// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func zipFixture(t *testing.T, name string, parts map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for partName, content := range parts {
		w, err := zw.Create(partName)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return writeFixture(t, name, buf.Bytes())
}

// pdfFixture assembles a minimal PDF with one text line per page and a valid xref table
func pdfFixture(t *testing.T, pages ...string) string {
	t.Helper()
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return writeFixture(t, "report.pdf", buf.Bytes())
}

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Invoice for ACME</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Pay to DE89370400440532013000 </w:t></w:r><w:r><w:t>by Friday</w:t></w:r></w:p>
  </w:body>
</w:document>`

const odtContent = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
    xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
  <office:body>
    <office:text>
      <text:h>Minutes</text:h>
      <text:p>  Reach me at chair@example.org  </text:p>
      <text:p>   </text:p>
    </office:text>
  </office:body>
</office:document-content>`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path   string
		format SupportedFormat
	}{
		{"a.txt", PlainText},
		{"a.CSV", PlainText},
		{"a.md", PlainText},
		{"a.markdown", PlainText},
		{"a.html", PlainText},
		{"a.HTM", PlainText},
		{"a.rtf", RichText},
		{"a.pdf", Pdf},
		{"a.docx", OoxmlPackage},
		{"a.docm", OoxmlPackage},
		{"a.dotx", OoxmlPackage},
		{"a.dotm", OoxmlPackage},
		{"a.odt", OpenDocumentPackage},
		{"a.exe", Unsupported},
		{"a.doc", Unsupported},
		{"README", Unsupported},
		{"", Unsupported},
		{"dir.pdf/file", Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.format, DetectFormat(tt.path))
			assert.Equal(t, tt.format != Unsupported, IsSupported(tt.path))
		})
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Len(t, exts, 13)
	assert.Contains(t, exts, ".odt")
	assert.True(t, sortedStrings(exts))
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

func TestReadAsText_PlainText(t *testing.T) {
	path := writeFixture(t, "notes.txt", []byte("Contact: john@x.com\nline two"))

	text, err := ReadAsText(path)
	require.NoError(t, err)
	assert.Equal(t, "Contact: john@x.com\nline two", text)
}

func TestReadAsText_EmptyFile(t *testing.T) {
	path := writeFixture(t, "empty.txt", nil)

	text, err := ReadAsText(path)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestReadAsText_ByteOrderMarks(t *testing.T) {
	utf8BOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("café a@b.com")...)
	text, err := ReadAsText(writeFixture(t, "utf8.txt", utf8BOM))
	require.NoError(t, err)
	assert.Equal(t, "café a@b.com", text)

	units := utf16.Encode([]rune("hi a@b.com"))
	utf16LE := []byte{0xFF, 0xFE}
	for _, u := range units {
		utf16LE = append(utf16LE, byte(u), byte(u>>8))
	}
	text, err = ReadAsText(writeFixture(t, "utf16.csv", utf16LE))
	require.NoError(t, err)
	assert.Equal(t, "hi a@b.com", text)
}

func TestReadAsText_InvalidUTF8IsReplaced(t *testing.T) {
	text, err := ReadAsText(writeFixture(t, "latin1.txt", []byte("caf\xe9")))
	require.NoError(t, err)
	assert.Equal(t, "caf\uFFFD", text)
}

func TestReadAsText_MarkupModes(t *testing.T) {
	html := writeFixture(t, "page.html", []byte("<html><body><p>Hello <b>world</b></p><p>x@y.com</p></body></html>"))
	md := writeFixture(t, "doc.md", []byte("# Title\n\nSome **bold** text"))

	raw, err := ReadAsText(html)
	require.NoError(t, err)
	assert.Contains(t, raw, "<b>world</b>")

	strip := NewTextPreprocessor(Options{Markup: MarkupStrip})
	text, err := strip.ReadAsText(html)
	require.NoError(t, err)
	assert.NotContains(t, text, "<")
	assert.Contains(t, text, "Hello world")
	assert.Contains(t, text, "x@y.com")

	text, err = strip.ReadAsText(md)
	require.NoError(t, err)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Some bold text")
	assert.NotContains(t, text, "**")
}

func TestParseMarkupMode(t *testing.T) {
	mode, err := ParseMarkupMode("")
	require.NoError(t, err)
	assert.Equal(t, MarkupRaw, mode)

	mode, err = ParseMarkupMode(" Strip ")
	require.NoError(t, err)
	assert.Equal(t, MarkupStrip, mode)

	_, err = ParseMarkupMode("html")
	assert.Error(t, err)
}

func TestReadAsText_Docx(t *testing.T) {
	path := zipFixture(t, "invoice.docx", map[string]string{
		"_rels/.rels":       docxRels,
		"word/document.xml": docxDocument,
	})

	text, err := ReadAsText(path)
	require.NoError(t, err)
	assert.Equal(t, "Invoice for ACME\nPay to DE89370400440532013000 \nby Friday", text)
}

func TestReadAsText_DocxCustomMainPart(t *testing.T) {
	rels := strings.Replace(docxRels, "word/document.xml", "/word/main.xml", 1)
	path := zipFixture(t, "moved.dotx", map[string]string{
		"_rels/.rels":   rels,
		"word/main.xml": docxDocument,
	})

	text, err := ReadAsText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Invoice for ACME")
}

func TestReadAsText_Odt(t *testing.T) {
	path := zipFixture(t, "minutes.odt", map[string]string{"content.xml": odtContent})

	text, err := ReadAsText(path)
	require.NoError(t, err)
	assert.Equal(t, "Minutes\nReach me at chair@example.org\n", text)
}

func TestReadAsText_Rtf(t *testing.T) {
	rtf := `{\rtf1\ansi\ansicpg1252{\fonttbl{\f0 Arial;}}{\*\generator Test;}\f0 Caf\'e9 contact@x.com\par Second {\b line}\'80}`
	text, err := ReadAsText(writeFixture(t, "letter.rtf", []byte(rtf)))
	require.NoError(t, err)
	assert.Contains(t, text, "Café contact@x.com")
	assert.Contains(t, text, "Second line€")
	assert.NotContains(t, text, "Arial")
	assert.NotContains(t, text, "Test")
}

func TestReadAsText_PdfPagesInOrder(t *testing.T) {
	path := pdfFixture(t, "Alpha one@example.com", "Beta two@example.com", "Gamma three@example.com")

	text, err := ReadAsText(path)
	require.NoError(t, err)

	alpha := strings.Index(text, "one@example.com")
	beta := strings.Index(text, "two@example.com")
	gamma := strings.Index(text, "three@example.com")
	require.NotEqual(t, -1, alpha, text)
	require.NotEqual(t, -1, beta, text)
	require.NotEqual(t, -1, gamma, text)
	require.Less(t, alpha, beta)
	require.Less(t, beta, gamma)
	assert.Contains(t, text[alpha:beta], "\n")
	assert.Contains(t, text[beta:gamma], "\n")
}

func TestReadAsText_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.txt"), 0o700))

	tests := []struct {
		name     string
		path     string
		sentinel error
		kind     ErrorType
	}{
		{"unsupported extension", writeFixture(t, "tool.exe", []byte("MZ")), ErrUnsupportedFormat, ErrorTypeUnsupportedFormat},
		{"unsupported and missing", filepath.Join(dir, "missing.exe"), ErrUnsupportedFormat, ErrorTypeUnsupportedFormat},
		{"no extension", writeFixture(t, "README", []byte("x")), ErrUnsupportedFormat, ErrorTypeUnsupportedFormat},
		{"missing file", filepath.Join(dir, "missing.txt"), ErrNotFound, ErrorTypeNotFound},
		{"directory", filepath.Join(dir, "folder.txt"), ErrNotFound, ErrorTypeNotFound},
		{"docx not a zip", writeFixture(t, "fake.docx", []byte("plain text")), ErrMalformedContainer, ErrorTypeMalformedContainer},
		{"docx without body part", zipFixture(t, "hollow.docx", map[string]string{"_rels/.rels": docxRels}), ErrMalformedContainer, ErrorTypeMalformedContainer},
		{"odt without content", zipFixture(t, "hollow.odt", map[string]string{"mimetype": "application/vnd.oasis.opendocument.text"}), ErrMalformedContainer, ErrorTypeMalformedContainer},
		{"broken pdf", writeFixture(t, "broken.pdf", []byte("%PDF-1.4\nnot really")), ErrMalformedContainer, ErrorTypeMalformedContainer},
		{"rtf without header", writeFixture(t, "plain.rtf", []byte("just text")), ErrMalformedContainer, ErrorTypeMalformedContainer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ReadAsText(tt.path)
			require.Error(t, err)
			assert.Empty(t, text)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, GetErrorType(err))

			var readErr *ReadError
			require.ErrorAs(t, err, &readErr)
			assert.Equal(t, tt.path, readErr.FilePath)
		})
	}
}

func TestReadAsText_FileTooLarge(t *testing.T) {
	path := writeFixture(t, "big.txt", []byte("0123456789"))

	_, err := NewTextPreprocessor(Options{MaxFileSize: 5}).ReadAsText(path)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	text, err := NewTextPreprocessor(Options{MaxFileSize: 10}).ReadAsText(path)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", text)
}

func TestProcess_Counts(t *testing.T) {
	path := writeFixture(t, "counts.txt", []byte("one two\nthree"))

	content, err := NewTextPreprocessor(Options{}).Process(path)
	require.NoError(t, err)
	assert.Equal(t, "counts.txt", content.Filename)
	assert.Equal(t, PlainText, content.Format)
	assert.Equal(t, 3, content.WordCount)
	assert.Equal(t, 2, content.LineCount)
}

func TestDescribe(t *testing.T) {
	txt := writeFixture(t, "notes.txt", []byte("hello"))
	info := Describe(txt)
	assert.Equal(t, "notes.txt", info.Name)
	assert.Equal(t, "Plain Text", info.Format)
	assert.Equal(t, int64(5), info.Size)
	assert.Zero(t, info.PageCount)

	pdf := pdfFixture(t, "page one", "page two")
	info = Describe(pdf)
	assert.Equal(t, "PDF Document", info.Format)
	assert.Equal(t, "1.4", info.PDFVersion)

	missing := Describe(filepath.Join(t.TempDir(), "gone.pdf"))
	assert.Equal(t, "gone.pdf", missing.Name)
	assert.Zero(t, missing.Size)
	assert.Empty(t, missing.PDFVersion)
}
