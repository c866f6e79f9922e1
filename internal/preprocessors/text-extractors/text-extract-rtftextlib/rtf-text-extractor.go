// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textextractrtftextlib

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// ErrNotRTF is returned when the data does not open with an {\rtf group
var ErrNotRTF = errors.New("missing {\\rtf header")

// TextContent represents the extracted text content from an RTF document
type TextContent struct {
	Filename  string
	Text      string
	CodePage  int
	WordCount int
	CharCount int
	LineCount int
}

const defaultCodePage = 1252

// codePages maps \ansicpg values to decoders
var codePages = map[int]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	10000: charmap.Macintosh,
	65001: unicode.UTF8,
}

// skippedDestinations hold document furniture rather than visible body text
var skippedDestinations = map[string]bool{
	"fonttbl":            true,
	"colortbl":           true,
	"stylesheet":         true,
	"info":               true,
	"pict":               true,
	"object":             true,
	"fldinst":            true,
	"listtable":          true,
	"listoverridetable":  true,
	"revtbl":             true,
	"rsidtbl":            true,
	"generator":          true,
	"xmlnstbl":           true,
	"themedata":          true,
	"colorschememapping": true,
	"datastore":          true,
	"latentstyles":       true,
	"header":             true,
	"headerl":            true,
	"headerr":            true,
	"headerf":            true,
	"footer":             true,
	"footerl":            true,
	"footerr":            true,
	"footerf":            true,
}

// symbolWords are control words that stand for a single visible character
var symbolWords = map[string]string{
	"par":       "\n",
	"line":      "\n",
	"sect":      "\n",
	"page":      "\n",
	"row":       "\n",
	"tab":       "\t",
	"cell":      "\t",
	"emdash":    "—",
	"endash":    "–",
	"emspace":   " ",
	"enspace":   " ",
	"qmspace":   " ",
	"bullet":    "•",
	"lquote":    "‘",
	"rquote":    "’",
	"ldblquote": "“",
	"rdblquote": "”",
}

// ExtractText decodes an RTF file into its visible text
func ExtractText(filePath string) (*TextContent, error) {
	content := &TextContent{
		Filename: filepath.Base(filePath),
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return content, fmt.Errorf("error reading file: %w", err)
	}

	text, codePage, err := Decode(data)
	if err != nil {
		return content, err
	}

	content.Text = text
	content.CodePage = codePage
	content.WordCount = len(strings.Fields(text))
	content.CharCount = len(text)
	content.LineCount = strings.Count(text, "\n") + 1
	return content, nil
}

// groupState is the per-group parser state that RTF scopes with braces
type groupState struct {
	skip    bool
	ucSkip  int
	ignores bool // the group started with \*
}

type decoder struct {
	data     []byte
	pos      int
	out      strings.Builder
	pending  []byte // raw bytes awaiting code page decoding
	codePage int
	enc      encoding.Encoding

	stack      []groupState
	state      groupState
	skipChars  int  // fallback characters still to drop after \uN
	highSurr   rune // pending UTF-16 high surrogate
	groupFirst bool // next token is the first inside a new group
}

// Decode converts RTF data into plain text and reports the effective ANSI code page
func Decode(data []byte) (string, int, error) {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte(`{\rtf`)) {
		return "", 0, ErrNotRTF
	}

	d := &decoder{
		data:     trimmed,
		codePage: defaultCodePage,
		enc:      codePages[defaultCodePage],
		state:    groupState{ucSkip: 1},
	}
	if err := d.run(); err != nil {
		return "", d.codePage, err
	}
	d.flush()
	d.dropSurrogate()
	return d.out.String(), d.codePage, nil
}

func (d *decoder) run() error {
	for d.pos < len(d.data) {
		c := d.data[d.pos]
		switch c {
		case '{':
			d.pos++
			d.flush()
			d.stack = append(d.stack, d.state)
			d.state.ignores = false
			d.groupFirst = true
			continue
		case '}':
			d.pos++
			d.flush()
			if len(d.stack) == 0 {
				return fmt.Errorf("unbalanced closing brace at offset %d", d.pos-1)
			}
			d.state = d.stack[len(d.stack)-1]
			d.stack = d.stack[:len(d.stack)-1]
			d.skipChars = 0
			if len(d.stack) == 0 {
				// End of the document group; trailing bytes are ignored
				return nil
			}
		case '\\':
			if err := d.control(); err != nil {
				return err
			}
		case '\r', '\n':
			d.pos++
		default:
			d.pos++
			d.groupFirst = false
			d.emitByte(c)
		}
	}
	d.flush()
	return nil
}

// control handles a backslash sequence
func (d *decoder) control() error {
	d.pos++
	if d.pos >= len(d.data) {
		return nil
	}
	first := d.groupFirst
	d.groupFirst = false

	c := d.data[d.pos]
	switch {
	case isLetter(c):
		word, param, hasParam := d.readWord()
		d.handleWord(word, param, hasParam, first)
	case c == '\'':
		d.pos++
		if d.pos+2 > len(d.data) {
			return fmt.Errorf("truncated hex escape at offset %d", d.pos)
		}
		b, err := strconv.ParseUint(string(d.data[d.pos:d.pos+2]), 16, 8)
		if err != nil {
			return fmt.Errorf("invalid hex escape at offset %d: %w", d.pos, err)
		}
		d.pos += 2
		d.emitByte(byte(b))
	case c == '*':
		d.pos++
		d.state.ignores = true
	case c == '\r' || c == '\n':
		d.pos++
		d.emitString("\n")
	default:
		d.pos++
		switch c {
		case '~':
			d.emitSymbol(" ")
		case '_':
			d.emitSymbol("‑")
		case '-', '|', ':':
			// optional hyphen and index markers are not visible
		default:
			d.emitByte(c)
		}
	}
	return nil
}

func (d *decoder) readWord() (string, int, bool) {
	start := d.pos
	for d.pos < len(d.data) && isLetter(d.data[d.pos]) {
		d.pos++
	}
	word := string(d.data[start:d.pos])

	paramStart := d.pos
	if d.pos < len(d.data) && d.data[d.pos] == '-' {
		d.pos++
	}
	for d.pos < len(d.data) && d.data[d.pos] >= '0' && d.data[d.pos] <= '9' {
		d.pos++
	}
	param, hasParam := 0, false
	if d.pos > paramStart {
		if n, err := strconv.Atoi(string(d.data[paramStart:d.pos])); err == nil {
			param, hasParam = n, true
		} else {
			d.pos = paramStart
		}
	}

	// A single space delimits the control word and is not part of the text
	if d.pos < len(d.data) && d.data[d.pos] == ' ' {
		d.pos++
	}
	return word, param, hasParam
}

func (d *decoder) handleWord(word string, param int, hasParam bool, groupFirst bool) {
	// Destinations only open at the start of a group; \* marks any unknown one as ignorable
	if d.state.ignores || (groupFirst && skippedDestinations[word]) {
		d.state.skip = true
	}

	switch word {
	case "ansicpg":
		if hasParam {
			d.setCodePage(param)
		}
		return
	case "uc":
		if hasParam && param >= 0 {
			d.state.ucSkip = param
		}
		return
	case "u":
		if hasParam {
			d.emitUnicode(param)
		}
		return
	case "bin":
		// Binary payloads are never text
		if hasParam && param > 0 {
			if param > len(d.data)-d.pos {
				param = len(d.data) - d.pos
			}
			d.pos += param
		}
		return
	}

	if sym, ok := symbolWords[word]; ok {
		d.emitSymbol(sym)
	}
}

func (d *decoder) setCodePage(cp int) {
	d.flush()
	if enc, ok := codePages[cp]; ok {
		d.codePage = cp
		d.enc = enc
	}
}

func (d *decoder) emitByte(b byte) {
	if d.skipChars > 0 {
		d.skipChars--
		return
	}
	if d.state.skip {
		return
	}
	d.pending = append(d.pending, b)
}

func (d *decoder) emitSymbol(s string) {
	if d.skipChars > 0 {
		d.skipChars--
		return
	}
	d.emitString(s)
}

func (d *decoder) emitString(s string) {
	if d.state.skip {
		return
	}
	d.flush()
	d.dropSurrogate()
	d.out.WriteString(s)
}

func (d *decoder) emitUnicode(param int) {
	if param < 0 {
		param += 65536
	}
	r := rune(param)
	d.skipChars = d.state.ucSkip

	if d.state.skip {
		return
	}
	d.flush()

	switch {
	case utf16.IsSurrogate(r) && r < 0xDC00:
		d.dropSurrogate()
		d.highSurr = r
		return
	case utf16.IsSurrogate(r) && d.highSurr != 0:
		r = utf16.DecodeRune(d.highSurr, r)
		d.highSurr = 0
	default:
		d.dropSurrogate()
	}
	d.out.WriteRune(r)
}

// dropSurrogate replaces a high surrogate that never got its low half
func (d *decoder) dropSurrogate() {
	if d.highSurr != 0 {
		d.out.WriteRune(utf8.RuneError)
		d.highSurr = 0
	}
}

// flush decodes buffered code page bytes into the output
func (d *decoder) flush() {
	if len(d.pending) == 0 {
		return
	}
	d.dropSurrogate()
	decoded, err := d.enc.NewDecoder().Bytes(d.pending)
	if err != nil {
		decoded = bytes.ToValidUTF8(d.pending, []byte("�"))
	}
	d.out.Write(decoded)
	d.pending = d.pending[:0]
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
