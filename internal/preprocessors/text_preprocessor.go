// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"universal-extractor/internal/observability"
	textextractmarkuplib "universal-extractor/internal/preprocessors/text-extractors/text-extract-markuplib"
	textextractofficetextlib "universal-extractor/internal/preprocessors/text-extractors/text-extract-officetextlib"
	textextractpdftextlib "universal-extractor/internal/preprocessors/text-extractors/text-extract-pdftextlib"
	textextractrtftextlib "universal-extractor/internal/preprocessors/text-extractors/text-extract-rtftextlib"
)

// MarkupMode selects how HTML and Markdown files are read
type MarkupMode string

const (
	// MarkupRaw reads HTML and Markdown as the raw characters of the file
	MarkupRaw MarkupMode = "raw"
	// MarkupStrip removes tags and Markdown syntax, keeping visible text
	MarkupStrip MarkupMode = "strip"
)

// ParseMarkupMode validates a configured markup mode; empty means raw
func ParseMarkupMode(s string) (MarkupMode, error) {
	switch MarkupMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MarkupRaw:
		return MarkupRaw, nil
	case MarkupStrip:
		return MarkupStrip, nil
	}
	return "", fmt.Errorf("unknown markup mode %q (want raw or strip)", s)
}

// Options configures a TextPreprocessor
type Options struct {
	// MaxFileSize rejects larger files with ErrFileTooLarge; zero disables the limit
	MaxFileSize int64
	// Markup controls HTML/Markdown handling; empty means MarkupRaw
	Markup MarkupMode
}

// TextPreprocessor dispatches a file to the extraction strategy of its format
type TextPreprocessor struct {
	name     string
	options  Options
	observer *observability.StandardObserver
}

// NewTextPreprocessor creates a new text preprocessor
func NewTextPreprocessor(options Options) *TextPreprocessor {
	if options.Markup == "" {
		options.Markup = MarkupRaw
	}
	return &TextPreprocessor{
		name:    "Text Extractor",
		options: options,
	}
}

// SetObserver sets the observability component
func (tp *TextPreprocessor) SetObserver(observer *observability.StandardObserver) {
	tp.observer = observer
}

// GetName returns the name of this preprocessor
func (tp *TextPreprocessor) GetName() string {
	return tp.name
}

// CanProcess checks if this preprocessor can handle the given file
func (tp *TextPreprocessor) CanProcess(filePath string) bool {
	return IsSupported(filePath)
}

// ReadAsText returns the normalized text of the file
func (tp *TextPreprocessor) ReadAsText(filePath string) (string, error) {
	content, err := tp.Process(filePath)
	if err != nil {
		return "", err
	}
	return content.Text, nil
}

// Process extracts text content from the file
func (tp *TextPreprocessor) Process(filePath string) (*ProcessedContent, error) {
	finishTiming := tp.observer.StartTiming("text_preprocessor", "process_file", filePath)
	var finishStep func(bool, string)
	if tp.observer != nil && tp.observer.DebugObserver != nil {
		finishStep = tp.observer.DebugObserver.StartStep("text_preprocessor", "process_file", filePath)
	}

	format := DetectFormat(filePath)
	result, err := tp.process(filePath, format)

	metadata := map[string]interface{}{
		"file_ext": strings.ToLower(filepath.Ext(filePath)),
		"format":   format.String(),
	}
	if err != nil {
		metadata["error"] = err.Error()
	} else {
		metadata["content_length"] = result.CharCount
		metadata["word_count"] = result.WordCount
		metadata["page_count"] = result.PageCount
	}
	finishTiming(err == nil, metadata)
	if finishStep != nil {
		if err != nil {
			finishStep(false, fmt.Sprintf("Failed to extract text: %v", err))
		} else {
			finishStep(true, fmt.Sprintf("Extracted text: %d words, %d lines", result.WordCount, result.LineCount))
		}
	}

	return result, err
}

func (tp *TextPreprocessor) process(filePath string, format SupportedFormat) (*ProcessedContent, error) {
	if format == Unsupported {
		ext := filepath.Ext(filePath)
		return nil, newReadError(filePath, format, ErrorTypeUnsupportedFormat,
			fmt.Errorf("extension %q is not supported", ext))
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, classifyStatError(filePath, format, err)
	}
	if info.IsDir() {
		return nil, classifyStatError(filePath, format, fmt.Errorf("%s is a directory", filePath))
	}
	if tp.options.MaxFileSize > 0 && info.Size() > tp.options.MaxFileSize {
		return nil, newReadError(filePath, format, ErrorTypeFileSize,
			fmt.Errorf("%d bytes exceeds the %d byte limit", info.Size(), tp.options.MaxFileSize))
	}

	content := &ProcessedContent{
		OriginalPath:  filePath,
		Filename:      filepath.Base(filePath),
		Format:        format,
		ProcessorType: tp.name,
	}

	switch format {
	case PlainText:
		err = tp.processPlainText(filePath, content)
	case RichText:
		err = tp.processRTF(filePath, content)
	case Pdf:
		err = tp.processPDF(filePath, content)
	case OoxmlPackage:
		err = tp.processDocx(filePath, content)
	case OpenDocumentPackage:
		err = tp.processOdt(filePath, content)
	}
	if err != nil {
		return nil, classifyExtractionError(filePath, format, err)
	}

	if content.WordCount == 0 {
		content.WordCount = len(strings.Fields(content.Text))
	}
	content.CharCount = len(content.Text)
	content.LineCount = strings.Count(content.Text, "\n") + 1
	return content, nil
}

// processPlainText reads .txt .csv .md .markdown .html .htm
func (tp *TextPreprocessor) processPlainText(filePath string, content *ProcessedContent) error {
	text, err := readPlainText(filePath)
	if err != nil {
		return err
	}

	if tp.options.Markup == MarkupStrip {
		htmlMarkup, markdown := isMarkup(filePath)
		switch {
		case htmlMarkup:
			text = textextractmarkuplib.StripHTML(text)
		case markdown:
			if text, err = textextractmarkuplib.StripMarkdown(text); err != nil {
				return err
			}
		}
	}

	content.Text = text
	return nil
}

// processRTF decodes rich text markup
func (tp *TextPreprocessor) processRTF(filePath string, content *ProcessedContent) error {
	rtfContent, err := textextractrtftextlib.ExtractText(filePath)
	if err != nil {
		return fmt.Errorf("failed to extract text from RTF: %w", err)
	}
	content.Text = rtfContent.Text
	content.WordCount = rtfContent.WordCount
	return nil
}

// processPDF extracts text from PDF documents
func (tp *TextPreprocessor) processPDF(filePath string, content *ProcessedContent) error {
	pdfContent, err := textextractpdftextlib.ExtractText(filePath)
	if err != nil {
		return fmt.Errorf("failed to extract text from PDF: %w", err)
	}
	content.Text = pdfContent.Text
	content.PageCount = pdfContent.PageCount
	content.WordCount = pdfContent.WordCount
	return nil
}

// processDocx extracts text from WordprocessingML packages
func (tp *TextPreprocessor) processDocx(filePath string, content *ProcessedContent) error {
	officeContent, err := textextractofficetextlib.ExtractDocxText(filePath)
	if err != nil {
		return fmt.Errorf("failed to extract text from Word document: %w", err)
	}
	content.Text = officeContent.Text
	content.WordCount = officeContent.WordCount
	return nil
}

// processOdt extracts text from OpenDocument text packages
func (tp *TextPreprocessor) processOdt(filePath string, content *ProcessedContent) error {
	officeContent, err := textextractofficetextlib.ExtractOdtText(filePath)
	if err != nil {
		return fmt.Errorf("failed to extract text from OpenDocument: %w", err)
	}
	content.Text = officeContent.Text
	content.WordCount = officeContent.WordCount
	return nil
}

// classifyExtractionError maps a strategy failure onto the error taxonomy.
// File system failures mean the path is unreadable; everything else is a broken container.
func classifyExtractionError(filePath string, format SupportedFormat, err error) *ReadError {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return newReadError(filePath, format, ErrorTypeNotFound, err)
	}
	return newReadError(filePath, format, ErrorTypeMalformedContainer, err)
}
