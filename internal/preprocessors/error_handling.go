// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorType represents the class of a reading failure
type ErrorType string

const (
	ErrorTypeUnsupportedFormat  ErrorType = "unsupported_format"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeMalformedContainer ErrorType = "malformed_container"
	ErrorTypeFileSize           ErrorType = "file_size"
)

// Sentinel errors for errors.Is checks
var (
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrNotFound           = errors.New("file not found")
	ErrMalformedContainer = errors.New("malformed container")
	ErrFileTooLarge       = errors.New("file too large")
)

// ReadError describes why a file could not be turned into text
type ReadError struct {
	FilePath  string
	Format    SupportedFormat
	ErrorType ErrorType
	Cause     error
}

// Error implements the error interface
func (re *ReadError) Error() string {
	msg := fmt.Sprintf("reading %s failed (format=%s, error=%s)", re.FilePath, re.Format, re.ErrorType)
	if re.Cause != nil {
		msg += ": " + re.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (re *ReadError) Unwrap() error {
	return re.Cause
}

// Is matches the sentinel that corresponds to the error type
func (re *ReadError) Is(target error) bool {
	return sentinelFor(re.ErrorType) == target
}

func sentinelFor(t ErrorType) error {
	switch t {
	case ErrorTypeUnsupportedFormat:
		return ErrUnsupportedFormat
	case ErrorTypeNotFound:
		return ErrNotFound
	case ErrorTypeMalformedContainer:
		return ErrMalformedContainer
	case ErrorTypeFileSize:
		return ErrFileTooLarge
	}
	return nil
}

func newReadError(filePath string, format SupportedFormat, errorType ErrorType, cause error) *ReadError {
	return &ReadError{
		FilePath:  filePath,
		Format:    format,
		ErrorType: errorType,
		Cause:     cause,
	}
}

// classifyStatError turns a stat/open failure into a NotFound read error.
// Permission failures count as not found: the path is not a readable file either way.
func classifyStatError(filePath string, format SupportedFormat, err error) *ReadError {
	if err == nil {
		err = fs.ErrNotExist
	}
	return newReadError(filePath, format, ErrorTypeNotFound, err)
}

// GetErrorType returns the ErrorType carried by err, or "" when err is not a ReadError
func GetErrorType(err error) ErrorType {
	var re *ReadError
	if errors.As(err, &re) {
		return re.ErrorType
	}
	return ""
}
