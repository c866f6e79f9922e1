// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textextractpdftextlib

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextContent represents the extracted text content from a PDF document
type TextContent struct {
	Filename  string
	Text      string
	PageCount int
	WordCount int
	CharCount int
	LineCount int
}

// ExtractText extracts the visible text of every page in page order.
// Each page's text is followed by a line break so tokens never run across a page boundary.
func ExtractText(filePath string) (content *TextContent, err error) {
	content = &TextContent{
		Filename: filepath.Base(filePath),
	}

	// ledongthuc/pdf panics on some damaged object graphs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error parsing PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return content, fmt.Errorf("error opening PDF: %w", err)
	}
	defer f.Close()

	content.PageCount = r.NumPage()

	var buf strings.Builder
	for pageNum := 1; pageNum <= content.PageCount; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			return content, fmt.Errorf("page %d: missing page object", pageNum)
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return content, fmt.Errorf("page %d: %w", pageNum, err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	content.Text = buf.String()
	content.WordCount = len(strings.Fields(content.Text))
	content.CharCount = len(content.Text)
	content.LineCount = strings.Count(content.Text, "\n")

	return content, nil
}
