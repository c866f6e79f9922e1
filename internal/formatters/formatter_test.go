// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"universal-extractor/internal/formatters"
	_ "universal-extractor/internal/formatters/csv"
	_ "universal-extractor/internal/formatters/json"
	_ "universal-extractor/internal/formatters/text"
	_ "universal-extractor/internal/formatters/yaml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestedFileName(t *testing.T) {
	tests := []struct {
		source     string
		definition string
		ext        string
		want       string
	}{
		{"/data/report.pdf", "E-mail address", "", "report_E-mail_address.txt"},
		{"notes.v2.docx", "Phone number", ".txt", "notes.v2_Phone_number.txt"},
		{"scan.odt", "IPv4 addresses", ".json", "scan_IPv4_addresses.json"},
		{"bank.rtf", "BIC/SWIFT", "", "bank_BIC-SWIFT.txt"},
		{"README", "MD5", "", "README_MD5.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatters.SuggestedFileName(tt.source, tt.definition, tt.ext))
		})
	}
}

func TestLineSeparator(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, "\r\n", formatters.LineSeparator())
	} else {
		assert.Equal(t, "\n", formatters.LineSeparator())
	}
}

func TestTextFormat_SingleResult(t *testing.T) {
	out, err := formatters.Export("text", []formatters.Result{
		{Source: "a.txt", Definition: "Dates", Matches: []string{"2024-01-01", "2024-03-01"}},
	}, formatters.FormatterOptions{NoColor: true, LineSeparator: "\r\n"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01\r\n2024-03-01", out)
}

func TestTextFormat_EmptyResultIsEmptyFile(t *testing.T) {
	out, err := formatters.Export("text", []formatters.Result{
		{Source: "a.txt", Definition: "Dates"},
	}, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestTextFormat_SeveralResults(t *testing.T) {
	out, err := formatters.Export("text", []formatters.Result{
		{Source: "a.txt", Definition: "Dates", Matches: []string{"2024-01-01"}},
		{Source: "b.txt", Definition: "Dates"},
	}, formatters.FormatterOptions{NoColor: true, LineSeparator: "\n"})
	require.NoError(t, err)
	assert.Equal(t, "== a.txt (Dates) ==\n2024-01-01\n\n== b.txt (Dates) ==\nNo matching data found.\n", out)
}

func TestJSONFormat(t *testing.T) {
	out, err := formatters.Export("json", []formatters.Result{
		{Source: "a.txt", Definition: "IBAN"},
	}, formatters.FormatterOptions{Compact: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"source":"a.txt","definition":"IBAN","count":0,"matches":[]}]}`, out)
}

func TestYAMLFormat(t *testing.T) {
	out, err := formatters.Export("yaml", []formatters.Result{
		{Source: "a.txt", Definition: "MD5", Matches: []string{"abc"}},
	}, formatters.FormatterOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, "definition: MD5")
	assert.Contains(t, out, "- abc")
}

func TestCSVFormat_EscapesAndSanitizes(t *testing.T) {
	out, err := formatters.Export("csv", []formatters.Result{
		{Source: "/tmp/in.txt", Definition: "Social network handles", Matches: []string{"@gopher", "a,b"}},
	}, formatters.FormatterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Filename,Definition,Match\nin.txt,Social network handles,'@gopher\nin.txt,Social network handles,\"a,b\"", out)
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := formatters.Export("sarif", nil, formatters.FormatterOptions{})
	assert.Error(t, err)
	assert.Equal(t, []string{"csv", "json", "text", "yaml"}, formatters.List())
}

func TestGetFormatInfo(t *testing.T) {
	info := formatters.GetFormatInfo("json")
	assert.Equal(t, "application/json", info.MimeType)
	assert.Equal(t, ".json", info.Extension)
	assert.Empty(t, formatters.GetFormatInfo("nope").Name)
}

func TestWriteFile_CreatesDirectoryAndKeepsUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "result.txt")
	require.NoError(t, formatters.WriteFile(path, "café@exemple.fr"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "café@exemple.fr", string(data))
}
