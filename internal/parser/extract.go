// Package parser turns uploaded files into plain text for question answering.
package parser

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

var (
	// ErrInvalidPayload means the upload is not a base64 data URL.
	ErrInvalidPayload = errors.New("file must be a base64 data URL")

	// ErrUnsupportedType means no extractor handles the upload's MIME type.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNoVision means an image was uploaded but no vision model is configured.
	ErrNoVision = errors.New("image extraction is not configured")
)

// ImageReader reads the text in an image passed as a data URL.
type ImageReader interface {
	ReadImage(ctx context.Context, dataURL string) (string, error)
}

// DataURL is a decoded "data:<mime>;base64,<payload>" upload.
type DataURL struct {
	MIMEType string
	Params   map[string]string
	Data     []byte
}

// ParseDataURL decodes s. Only base64-encoded data URLs are accepted.
func ParseDataURL(s string) (DataURL, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return DataURL{}, ErrInvalidPayload
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURL{}, ErrInvalidPayload
	}
	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return DataURL{}, ErrInvalidPayload
	}

	d := DataURL{MIMEType: "text/plain", Params: map[string]string{}}
	if mediaType != "" {
		mt, params, err := mime.ParseMediaType(mediaType)
		if err != nil {
			return DataURL{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		d.MIMEType, d.Params = mt, params
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURL{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	d.Data = data
	return d, nil
}

// Extractor dispatches an upload to the extractor for its MIME type.
type Extractor struct {
	vision ImageReader
}

// NewExtractor creates an extractor. vision may be nil, in which case images are rejected.
func NewExtractor(vision ImageReader) *Extractor {
	return &Extractor{vision: vision}
}

// Extract returns the plain text of the upload in payload.
func (e *Extractor) Extract(ctx context.Context, payload string) (string, error) {
	d, err := ParseDataURL(payload)
	if err != nil {
		return "", err
	}

	switch {
	case strings.HasPrefix(d.MIMEType, "image/"):
		if e.vision == nil {
			return "", ErrNoVision
		}
		return e.vision.ReadImage(ctx, payload)
	case d.MIMEType == "application/pdf":
		return e.extractPDF(ctx, d.Data)
	case d.MIMEType == "text/html" || d.MIMEType == "application/xhtml+xml":
		return extractHTML(d.Data)
	case d.MIMEType == "text/markdown" || d.MIMEType == "text/x-markdown":
		text, err := decodeText(d.Data)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(ParseMarkdown(text).Content), nil
	case strings.HasPrefix(d.MIMEType, "text/") || d.MIMEType == "application/json":
		text, err := decodeText(d.Data)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, d.MIMEType)
	}
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedType)
	}
	return string(data), nil
}

func extractHTML(data []byte) (string, error) {
	// Relative links need a base URL; uploads have none
	base := &url.URL{Scheme: "file", Path: "/upload.html"}
	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return "", fmt.Errorf("extract html: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if article.Title != "" && !strings.HasPrefix(text, article.Title) {
		text = article.Title + "\n\n" + text
	}
	return text, nil
}
