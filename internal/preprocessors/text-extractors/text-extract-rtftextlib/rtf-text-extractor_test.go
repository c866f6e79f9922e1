// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textextractrtftextlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		rtf  string
		want string
	}{
		{"paragraphs", `{\rtf1\ansi Hello\par World}`, "Hello\nWorld"},
		{"line and tab", `{\rtf1 a\line b\tab c}`, "a\nb\tc"},
		{"escaped characters", `{\rtf1 a\{b\}c\\d}`, `a{b}c\d`},
		{"font table skipped", `{\rtf1{\fonttbl{\f0 Arial;}{\f1 Times;}}\f0 Body}`, "Body"},
		{"ignorable destination", `{\rtf1{\*\unknownthing hidden}shown}`, "shown"},
		{"header skipped", `{\rtf1{\header Secret}Body}`, "Body"},
		{"formatting group kept", `{\rtf1 plain {\b bold} text}`, "plain bold text"},
		{"hex escape cp1252", `{\rtf1\ansi\ansicpg1252 Caf\'e9 \'80}`, "Café €"},
		{"hex escape cp1251", `{\rtf1\ansi\ansicpg1251 \'cf\'f0\'e8\'e2\'e5\'f2}`, "Привет"},
		{"unicode with fallback", `{\rtf1\uc1\u8364?5}`, "€5"},
		{"unicode without fallback", `{\rtf1\uc0\u233 x}`, "éx"},
		{"surrogate pair", `{\rtf1\uc1\u-10179?\u-8704? end}`, "😀 end"},
		{"unpaired high surrogate", `{\rtf1\uc1 a\u-10179?b}`, "a\uFFFDb"},
		{"high surrogate at end", `{\rtf1\uc1 a\u-10179?}`, "a\uFFFD"},
		{"non-breaking space", `{\rtf1 a\~b}`, "a\u00a0b"},
		{"binary payload", `{\rtf1 a\bin3 xyzb}`, "ab"},
		{"utf8 bom", "\xef\xbb\xbf{\\rtf1 ok}", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Decode([]byte(tt.rtf))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_CodePage(t *testing.T) {
	_, cp, err := Decode([]byte(`{\rtf1\ansi Hello}`))
	require.NoError(t, err)
	assert.Equal(t, 1252, cp)

	_, cp, err = Decode([]byte(`{\rtf1\ansi\ansicpg1251 x}`))
	require.NoError(t, err)
	assert.Equal(t, 1251, cp)

	// Unknown code pages keep the default
	_, cp, err = Decode([]byte(`{\rtf1\ansi\ansicpg9999 x}`))
	require.NoError(t, err)
	assert.Equal(t, 1252, cp)
}

func TestDecode_Errors(t *testing.T) {
	_, _, err := Decode([]byte("plain text"))
	assert.ErrorIs(t, err, ErrNotRTF)

	_, _, err = Decode([]byte(`{\rtf1 a\'4`))
	assert.Error(t, err)

	_, _, err = Decode([]byte(`{\rtf1 a\'zz}`))
	assert.Error(t, err)
}

func TestDecode_BinLengthPastEnd(t *testing.T) {
	for _, rtf := range []string{
		`{\rtf1 hello \bin9223372036854775807 world}`,
		`{\rtf1 hello \bin500 world}`,
	} {
		var got string
		require.NotPanics(t, func() {
			var err error
			got, _, err = Decode([]byte(rtf))
			require.NoError(t, err)
		})
		assert.Equal(t, "hello ", got)
	}
}

func TestExtractText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.rtf")
	require.NoError(t, os.WriteFile(path, []byte(`{\rtf1\ansi one two\par three}`), 0o600))

	content, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "memo.rtf", content.Filename)
	assert.Equal(t, "one two\nthree", content.Text)
	assert.Equal(t, 3, content.WordCount)
	assert.Equal(t, 2, content.LineCount)

	_, err = ExtractText(filepath.Join(t.TempDir(), "missing.rtf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
