package parser

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrUnreadablePDF means a PDF parsed but had neither text nor images to read.
var ErrUnreadablePDF = errors.New("pdf has no readable text")

const maxPDFPages = 200

func init() {
	// pdfcpu otherwise writes a config dir under the user's home on first use
	api.DisableConfigDir()
}

func pdfConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// extractPDF reads each page's text layer and falls back to the vision model
// for pages that only carry images, such as scans.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	dir, err := os.MkdirTemp("", "docdesk-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inFile := filepath.Join(dir, "upload.pdf")
	if err := os.WriteFile(inFile, data, 0o600); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}

	pageCount, err := api.PageCountFile(inFile)
	if err != nil {
		return "", fmt.Errorf("%w: invalid pdf: %v", ErrInvalidPayload, err)
	}
	if pageCount > maxPDFPages {
		return "", fmt.Errorf("%w: %d pages exceeds the %d page limit", ErrUnreadablePDF, pageCount, maxPDFPages)
	}

	var pages []string
	sawImages := false
	for pageNr := 1; pageNr <= pageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, images, err := readPDFPage(inFile, dir, pageNr)
		if err != nil {
			return "", err
		}
		if text != "" {
			pages = append(pages, text)
			continue
		}
		if len(images) == 0 {
			continue
		}
		sawImages = true
		if e.vision == nil {
			continue
		}
		for _, img := range images {
			read, err := e.vision.ReadImage(ctx, img)
			if err != nil {
				return "", fmt.Errorf("read page %d: %w", pageNr, err)
			}
			if read = strings.TrimSpace(read); read != "" {
				pages = append(pages, read)
			}
		}
	}

	if len(pages) == 0 {
		if sawImages && e.vision == nil {
			return "", fmt.Errorf("%w: pdf pages are scanned images", ErrNoVision)
		}
		return "", ErrUnreadablePDF
	}
	return strings.Join(pages, "\n\n"), nil
}

// readPDFPage returns the page's text and its images as data URLs.
func readPDFPage(inFile, dir string, pageNr int) (string, []string, error) {
	selected := []string{strconv.Itoa(pageNr)}

	contentDir := filepath.Join(dir, "content", strconv.Itoa(pageNr))
	if err := os.MkdirAll(contentDir, 0o700); err != nil {
		return "", nil, err
	}
	if err := api.ExtractContentFile(inFile, contentDir, selected, pdfConfig()); err != nil {
		return "", nil, fmt.Errorf("%w: page %d content: %v", ErrInvalidPayload, pageNr, err)
	}
	streams, err := readDir(contentDir)
	if err != nil {
		return "", nil, err
	}
	var text strings.Builder
	for _, s := range streams {
		text.WriteString(contentText(s.data))
	}
	if t := strings.TrimSpace(text.String()); t != "" {
		return t, nil, nil
	}

	imageDir := filepath.Join(dir, "images", strconv.Itoa(pageNr))
	if err := os.MkdirAll(imageDir, 0o700); err != nil {
		return "", nil, err
	}
	if err := api.ExtractImagesFile(inFile, imageDir, selected, pdfConfig()); err != nil {
		return "", nil, fmt.Errorf("%w: page %d images: %v", ErrInvalidPayload, pageNr, err)
	}
	files, err := readDir(imageDir)
	if err != nil {
		return "", nil, err
	}
	images := make([]string, 0, len(files))
	for _, f := range files {
		mimeType := mime.TypeByExtension(filepath.Ext(f.name))
		if !strings.HasPrefix(mimeType, "image/") {
			mimeType = "image/png"
		}
		images = append(images, "data:"+mimeType+";base64,"+base64.StdEncoding.EncodeToString(f.data))
	}
	return "", images, nil
}

type dirFile struct {
	name string
	data []byte
}

func readDir(dir string) ([]dirFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var files []dirFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, dirFile{name: entry.Name(), data: data})
	}
	return files, nil
}

// contentText pulls the strings shown by text operators out of a decoded
// page content stream. Glyphs from embedded CID fonts are not mapped back to
// text; such pages read as empty and go through the vision model instead.
func contentText(stream []byte) string {
	var out strings.Builder
	var operands []string

	newline := func() {
		if s := out.String(); s != "" && !strings.HasSuffix(s, "\n") {
			out.WriteByte('\n')
		}
	}

	for i := 0; i < len(stream); {
		c := stream[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := literalString(stream, i)
			operands = append(operands, s)
			i = next
		case c == '<' && i+1 < len(stream) && stream[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(stream) && stream[i+1] == '>':
			i += 2
		case c == '<':
			end := bytes.IndexByte(stream[i:], '>')
			if end < 0 {
				return out.String()
			}
			if s, ok := hexString(stream[i+1 : i+end]); ok {
				operands = append(operands, s)
			}
			i += end + 1
		case c == '[' || c == ']' || c == '{' || c == '}':
			i++
		case c == '/':
			i++
			for i < len(stream) && !isPDFSpace(stream[i]) && !isPDFDelimiter(stream[i]) {
				i++
			}
		default:
			start := i
			for i < len(stream) && !isPDFSpace(stream[i]) && !isPDFDelimiter(stream[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			token := string(stream[start:i])
			switch token {
			case "Tj", "TJ":
				out.WriteString(strings.Join(operands, ""))
			case "'", "\"":
				newline()
				out.WriteString(strings.Join(operands, ""))
			case "Td", "TD", "T*", "Tm", "ET":
				newline()
			case "ID":
				// inline image data runs until EI
				end := bytes.Index(stream[i:], []byte("EI"))
				if end < 0 {
					return out.String()
				}
				i += end + 2
			}
			if !isNumber(token) {
				operands = operands[:0]
			}
		}
	}
	return out.String()
}

func literalString(stream []byte, start int) (string, int) {
	var buf []byte
	depth := 0
	i := start
	for i < len(stream) {
		c := stream[i]
		switch c {
		case '(':
			depth++
			if depth > 1 {
				buf = append(buf, c)
			}
		case ')':
			depth--
			if depth == 0 {
				return decodePDFBytes(buf), i + 1
			}
			buf = append(buf, c)
		case '\\':
			i++
			if i >= len(stream) {
				break
			}
			switch e := stream[i]; e {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := 0
					n := 0
					for n < 3 && i < len(stream) && stream[i] >= '0' && stream[i] <= '7' {
						v = v*8 + int(stream[i]-'0')
						i++
						n++
					}
					buf = append(buf, byte(v))
					continue
				}
				buf = append(buf, e)
			}
		default:
			buf = append(buf, c)
		}
		i++
	}
	return decodePDFBytes(buf), i
}

func hexString(b []byte) (string, bool) {
	digits := bytes.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, b)
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw := make([]byte, hex.DecodedLen(len(digits)))
	if _, err := hex.Decode(raw, digits); err != nil {
		return "", false
	}
	for _, c := range raw {
		if c < 0x20 && c != '\n' && c != '\t' {
			return "", false
		}
	}
	return decodePDFBytes(raw), true
}

// decodePDFBytes treats non UTF-8 strings as Latin-1, which covers the
// WinAnsi range of the standard fonts.
func decodePDFBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isNumber(token string) bool {
	_, err := strconv.ParseFloat(token, 64)
	return err == nil
}
