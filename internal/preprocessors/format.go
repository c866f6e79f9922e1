// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"path/filepath"
	"sort"
	"strings"
)

// SupportedFormat identifies the extraction strategy for a file, derived from its extension
type SupportedFormat int

const (
	Unsupported SupportedFormat = iota
	PlainText
	RichText
	Pdf
	OoxmlPackage
	OpenDocumentPackage
)

// extensionFormats is the closed set of recognized extensions
var extensionFormats = map[string]SupportedFormat{
	".txt":      PlainText,
	".csv":      PlainText,
	".md":       PlainText,
	".markdown": PlainText,
	".html":     PlainText,
	".htm":      PlainText,
	".rtf":      RichText,
	".pdf":      Pdf,
	".docx":     OoxmlPackage,
	".docm":     OoxmlPackage,
	".dotx":     OoxmlPackage,
	".dotm":     OoxmlPackage,
	".odt":      OpenDocumentPackage,
}

// String returns a human-readable format name
func (f SupportedFormat) String() string {
	switch f {
	case PlainText:
		return "Plain Text"
	case RichText:
		return "Rich Text"
	case Pdf:
		return "PDF Document"
	case OoxmlPackage:
		return "Word Document"
	case OpenDocumentPackage:
		return "OpenDocument Text"
	default:
		return "Unsupported"
	}
}

// DetectFormat maps a path to its format using the lower-cased extension.
// It never touches the file system.
func DetectFormat(filePath string) SupportedFormat {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return Unsupported
	}
	if format, ok := extensionFormats[ext]; ok {
		return format
	}
	return Unsupported
}

// IsSupported reports whether the path carries a recognized extension
func IsSupported(filePath string) bool {
	return DetectFormat(filePath) != Unsupported
}

// SupportedExtensions returns the recognized extensions in sorted order
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionFormats))
	for ext := range extensionFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// isMarkup reports whether a plain-text extension carries HTML or Markdown markup
func isMarkup(filePath string) (htmlMarkup, markdown bool) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".html", ".htm":
		return true, false
	case ".md", ".markdown":
		return false, true
	}
	return false, false
}
