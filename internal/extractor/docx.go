package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

const docxBodyPart = "word/document.xml"

func ExtractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX as ZIP: %w", err)
	}

	part, err := archive.Open(docxBodyPart)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("document.xml not found in DOCX")
	}
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer part.Close()

	text, err := wordText(part)
	if err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("no text could be extracted from DOCX")
	}
	return text, nil
}

// wordText walks the WordprocessingML body in document order. Paragraphs end
// in a newline; table rows become one line with cells separated by tabs, since
// invoices usually keep their line items in tables.
func wordText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out       strings.Builder
		para      strings.Builder
		cellParas []string
		rowCells  []string
		inRun     bool
		inText    bool
		cellDepth int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				// Tab stops in paragraph properties share the name.
				if inRun {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					para.WriteByte('\n')
				}
			case "tc":
				cellDepth++
				cellParas = cellParas[:0]
			}
		case xml.CharData:
			if inText {
				para.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "r":
				inRun = false
			case "t":
				inText = false
			case "p":
				if cellDepth > 0 {
					cellParas = append(cellParas, para.String())
				} else {
					out.WriteString(para.String())
					out.WriteByte('\n')
				}
				para.Reset()
			case "tc":
				cellDepth--
				rowCells = append(rowCells, strings.Join(cellParas, " "))
			case "tr":
				out.WriteString(strings.Join(rowCells, "\t"))
				out.WriteByte('\n')
				rowCells = rowCells[:0]
			}
		}
	}

	return strings.TrimSpace(out.String()), nil
}
