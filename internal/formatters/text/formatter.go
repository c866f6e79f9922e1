// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"universal-extractor/internal/formatters"

	"github.com/fatih/color"
)

// Formatter writes one token per line.
// A single result renders as the bare token list, which is the persisted file format.
// Several results get a header per source and definition.
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"cyan":   color.New(color.FgCyan, color.Bold),
			"yellow": color.New(color.FgYellow),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "One match per line, joined with the platform line separator"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(results []formatters.Result, options formatters.FormatterOptions) (string, error) {
	sep := options.LineSeparator
	if sep == "" {
		sep = formatters.LineSeparator()
	}

	if len(results) == 1 {
		return strings.Join(results[0].Matches, sep), nil
	}

	var builder strings.Builder
	for i, result := range results {
		if i > 0 {
			builder.WriteString(sep)
		}
		builder.WriteString(f.paint(options, "cyan", fmt.Sprintf("== %s (%s) ==", result.Source, result.Definition)))
		builder.WriteString(sep)
		if len(result.Matches) == 0 {
			builder.WriteString(f.paint(options, "yellow", "No matching data found."))
			builder.WriteString(sep)
			continue
		}
		for _, match := range result.Matches {
			builder.WriteString(match)
			builder.WriteString(sep)
		}
	}
	return builder.String(), nil
}

func (f *Formatter) paint(options formatters.FormatterOptions, name, s string) string {
	if options.NoColor {
		return s
	}
	return f.colors[name].Sprint(s)
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
