// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"os"
	"path/filepath"

	metaextractpdflib "universal-extractor/internal/preprocessors/meta-extractors/meta-extract-pdflib"
)

// DocumentInfo is the preview shown before extraction.
// It is decorative: every field degrades to its zero value instead of failing.
type DocumentInfo struct {
	Name       string `json:"name"`
	Format     string `json:"format"`
	Size       int64  `json:"size"`
	PageCount  int    `json:"page_count,omitempty"`
	PDFVersion string `json:"pdf_version,omitempty"`
}

// Describe gathers preview information for a file without extracting its text
func Describe(filePath string) DocumentInfo {
	format := DetectFormat(filePath)
	info := DocumentInfo{
		Name:   filepath.Base(filePath),
		Format: format.String(),
	}

	if stat, err := os.Stat(filePath); err == nil && !stat.IsDir() {
		info.Size = stat.Size()
	}

	if format == Pdf {
		// A partial result still carries whatever was read before the failure
		if meta, _ := metaextractpdflib.ExtractMetadata(filePath); meta != nil {
			info.PageCount = meta.PageCount
			info.PDFVersion = meta.Version
		}
	}

	return info
}
