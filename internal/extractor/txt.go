package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// sniffLen is how much of a file is inspected to decide whether it is text.
const sniffLen = 512

// byteOrderMarks maps a leading BOM to the encoding that reads past it.
var byteOrderMarks = []struct {
	mark []byte
	enc  encoding.Encoding
}{
	{[]byte{0xEF, 0xBB, 0xBF}, unicode.UTF8BOM},
	{[]byte{0xFF, 0xFE}, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{[]byte{0xFE, 0xFF}, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
}

func ExtractTXT(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty text file")
	}

	decoded, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text file: %w", err)
	}

	text := normalizeLines(decoded)
	if text == "" {
		return "", fmt.Errorf("no text could be extracted from file")
	}
	return text, nil
}

// decodeText returns data as UTF-8. BOM-marked files use their encoding; other
// invalid UTF-8 is assumed to be Windows-1252, the usual export encoding of
// accounting software.
func decodeText(data []byte) (string, error) {
	var enc encoding.Encoding = encoding.Nop
	for _, bom := range byteOrderMarks {
		if bytes.HasPrefix(data, bom.mark) {
			enc = bom.enc
			break
		}
	}
	if enc == encoding.Nop && !utf8.Valid(data) {
		enc = charmap.Windows1252
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// normalizeLines unifies line endings, drops NUL bytes and blank lines, and
// trims each remaining line.
func normalizeLines(text string) string {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\x00", "").Replace(text)

	kept := make([]string, 0, strings.Count(text, "\n")+1)
	for line := range strings.Lines(text) {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// ValidateTXT rejects data that looks binary. Files with a UTF-16 byte order
// mark are accepted as is; multi-byte UTF-8 counts as printable.
func ValidateTXT(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty file")
	}
	if bytes.HasPrefix(data, byteOrderMarks[1].mark) || bytes.HasPrefix(data, byteOrderMarks[2].mark) {
		return nil
	}

	sample := data[:min(len(data), sniffLen)]
	utf8Text := utf8.Valid(data)

	printable := 0
	for _, b := range sample {
		if isPrintable(b) || (utf8Text && b >= utf8.RuneSelf) {
			printable++
		}
	}

	if printable*5 < len(sample)*4 {
		return fmt.Errorf("file does not appear to be valid text")
	}
	return nil
}

func isPrintable(b byte) bool {
	return (b >= ' ' && b <= '~') || b == '\t' || b == '\n' || b == '\r'
}
