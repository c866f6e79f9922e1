// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metaextractpdflib

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// headerProbeSize is how much of the file is scanned for the %PDF- header
const headerProbeSize = 1024

var headerPattern = regexp.MustCompile(`%PDF-(\d+\.\d+)`)

// Metadata represents the PDF facts shown in a document preview
type Metadata struct {
	Filename  string
	FileSize  int64
	Version   string
	PageCount int
}

// ExtractMetadata reads the header version and asks pdfcpu for the page count
func ExtractMetadata(filePath string) (*Metadata, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("file error: %w", err)
	}

	metadata := &Metadata{
		Filename: filepath.Base(filePath),
		FileSize: fileInfo.Size(),
	}

	version, err := readVersion(filePath)
	if err != nil {
		return metadata, err
	}
	metadata.Version = version

	ctx, err := api.ReadContextFile(filePath)
	if err != nil {
		return metadata, fmt.Errorf("error reading PDF structure: %w", err)
	}
	metadata.PageCount = ctx.PageCount

	return metadata, nil
}

func readVersion(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, headerProbeSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	head = head[:n]

	if !bytes.Contains(head, []byte("%PDF-")) {
		return "", fmt.Errorf("missing %%PDF- header")
	}
	if matches := headerPattern.FindSubmatch(head); len(matches) >= 2 {
		return string(matches[1]), nil
	}
	return "Unknown", nil
}
