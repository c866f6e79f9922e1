// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textextractmarkuplib

import (
	"bytes"
	"fmt"
	"html"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// blockBoundary matches closing block tags and line breaks. A newline is appended after each one
// so that text from adjacent blocks is never glued into a single token once the tags are gone.
var blockBoundary = regexp.MustCompile(`(?i)(</(?:p|div|li|tr|td|th|h[1-6]|table|ul|ol|dl|dt|dd|section|article|header|footer|blockquote|pre|title)\s*>|<br\s*/?>|<hr\s*/?>)`)

var stripPolicy = bluemonday.StrictPolicy()

// StripHTML removes every tag from an HTML document and returns its visible text with entities decoded
func StripHTML(src string) string {
	withBreaks := blockBoundary.ReplaceAllString(src, "$1\n")
	return html.UnescapeString(stripPolicy.Sanitize(withBreaks))
}

// StripMarkdown renders Markdown to HTML and then strips it to text
func StripMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return StripHTML(buf.String()), nil
}
