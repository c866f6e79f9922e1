// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"universal-extractor/internal/observability"
)

// ProcessedContent represents content that has been processed by a preprocessor
type ProcessedContent struct {
	// Original file information
	OriginalPath string
	Filename     string

	// Normalized text; empty only for a genuinely empty document
	Text string

	// Content metadata
	Format    SupportedFormat
	PageCount int
	WordCount int
	CharCount int
	LineCount int

	// Processing information
	ProcessorType string
}

// Preprocessor turns a supported file into normalized plain text
type Preprocessor interface {
	// CanProcess checks if this preprocessor can handle the given file
	CanProcess(filePath string) bool

	// Process extracts content from the file
	Process(filePath string) (*ProcessedContent, error)

	// ReadAsText extracts only the normalized text
	ReadAsText(filePath string) (string, error)

	// GetName returns the name of this preprocessor
	GetName() string

	// SetObserver sets the observability component
	SetObserver(observer *observability.StandardObserver)
}

var defaultPreprocessor = NewTextPreprocessor(Options{})

// ReadAsText reads a file with default options.
// It fails with ErrUnsupportedFormat when IsSupported(filePath) is false.
func ReadAsText(filePath string) (string, error) {
	return defaultPreprocessor.ReadAsText(filePath)
}
