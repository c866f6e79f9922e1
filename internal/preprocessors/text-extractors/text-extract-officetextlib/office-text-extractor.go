// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textextractofficetextlib

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	wordprocessingNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	wordprocessingStrictNS = "http://purl.oclc.org/ooxml/wordprocessingml/main"

	officeDocumentRelSuffix = "/officeDocument"
	defaultMainPart         = "word/document.xml"
	packageRelsPart         = "_rels/.rels"
	odfContentPart          = "content.xml"
)

// ErrContentMissing is returned when a package lacks the part holding its text
var ErrContentMissing = errors.New("content part not found in the archive")

// TextContent represents the extracted text content from a document
type TextContent struct {
	Filename  string
	Text      string
	Format    string
	WordCount int
	CharCount int
	LineCount int
}

// ExtractDocxText reads a WordprocessingML package (.docx, .docm, .dotx, .dotm).
// The text of every w:t run inside the main document body is collected in document order and
// joined with line breaks.
func ExtractDocxText(filePath string) (*TextContent, error) {
	content := &TextContent{
		Filename: filepath.Base(filePath),
		Format:   "Word Document",
	}

	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return content, fmt.Errorf("error opening package: %w", err)
	}
	defer reader.Close()

	mainPart, err := findMainDocumentPart(&reader.Reader)
	if err != nil {
		return content, err
	}

	documentFile := findFile(&reader.Reader, mainPart)
	if documentFile == nil {
		return content, fmt.Errorf("%s: %w", mainPart, ErrContentMissing)
	}

	runs, err := extractBodyRuns(documentFile)
	if err != nil {
		return content, fmt.Errorf("%s: %w", mainPart, err)
	}

	content.Text = strings.Join(runs, "\n")
	fillCounts(content)
	return content, nil
}

// ExtractOdtText reads an OpenDocument text package.
// Every non-blank text node of content.xml is trimmed and written as its own line.
func ExtractOdtText(filePath string) (*TextContent, error) {
	content := &TextContent{
		Filename: filepath.Base(filePath),
		Format:   "OpenDocument Text",
	}

	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return content, fmt.Errorf("error opening package: %w", err)
	}
	defer reader.Close()

	contentFile := findFile(&reader.Reader, odfContentPart)
	if contentFile == nil {
		return content, fmt.Errorf("%s: %w", odfContentPart, ErrContentMissing)
	}

	rc, err := contentFile.Open()
	if err != nil {
		return content, fmt.Errorf("error opening %s: %w", odfContentPart, err)
	}
	defer rc.Close()

	var buf strings.Builder
	decoder := newDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return content, fmt.Errorf("error parsing %s: %w", odfContentPart, err)
		}

		if data, ok := tok.(xml.CharData); ok {
			text := strings.TrimSpace(string(data))
			if text != "" {
				buf.WriteString(text)
				buf.WriteString("\n")
			}
		}
	}

	content.Text = buf.String()
	fillCounts(content)
	return content, nil
}

// relationships mirrors the package-level _rels/.rels part
type relationships struct {
	Relationships []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// findMainDocumentPart resolves the officeDocument relationship target.
// Packages without a relationships part fall back to word/document.xml.
func findMainDocumentPart(reader *zip.Reader) (string, error) {
	relsFile := findFile(reader, packageRelsPart)
	if relsFile == nil {
		return defaultMainPart, nil
	}

	rc, err := relsFile.Open()
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", packageRelsPart, err)
	}
	defer rc.Close()

	var rels relationships
	if err := newDecoder(rc).Decode(&rels); err != nil {
		return "", fmt.Errorf("error parsing %s: %w", packageRelsPart, err)
	}

	for _, rel := range rels.Relationships {
		if strings.HasSuffix(rel.Type, officeDocumentRelSuffix) {
			return path.Clean(strings.TrimPrefix(rel.Target, "/")), nil
		}
	}
	return defaultMainPart, nil
}

// extractBodyRuns streams the document part and returns the text of each w:t inside w:body
func extractBodyRuns(file *zip.File) ([]string, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		runs      []string
		bodyDepth int
		inText    bool
		current   strings.Builder
	)

	decoder := newDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch {
			case t.Name.Local == "body":
				bodyDepth++
			case t.Name.Local == "t" && bodyDepth > 0:
				inText = true
				current.Reset()
			}
		case xml.EndElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch {
			case t.Name.Local == "body" && bodyDepth > 0:
				bodyDepth--
			case t.Name.Local == "t" && inText:
				inText = false
				runs = append(runs, current.String())
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return runs, nil
}

func isWordElement(name xml.Name) bool {
	return name.Space == wordprocessingNS || name.Space == wordprocessingStrictNS
}

func findFile(reader *zip.Reader, name string) *zip.File {
	for _, file := range reader.File {
		if file.Name == name {
			return file
		}
	}
	return nil
}

func newDecoder(r io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	return decoder
}

func fillCounts(content *TextContent) {
	content.WordCount = len(strings.Fields(content.Text))
	content.CharCount = len(content.Text)
	content.LineCount = strings.Count(content.Text, "\n") + 1
}
