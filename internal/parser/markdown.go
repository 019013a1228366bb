package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterFence = "---"

var headingRegex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// MarkdownDoc is a Markdown file split into frontmatter and body.
type MarkdownDoc struct {
	Frontmatter map[string]any
	Title       string
	Content     string
}

// ParseMarkdown separates YAML frontmatter from the body.
// Malformed frontmatter is dropped rather than failing the document.
func ParseMarkdown(content string) *MarkdownDoc {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	doc := &MarkdownDoc{Frontmatter: map[string]any{}, Content: content}

	if block, body, ok := splitFrontmatter(content); ok {
		doc.Content = body
		if yaml.Unmarshal([]byte(block), &doc.Frontmatter) != nil || doc.Frontmatter == nil {
			doc.Frontmatter = map[string]any{}
		}
	}

	if title, _ := doc.Frontmatter["title"].(string); title != "" {
		doc.Title = title
	} else if m := headingRegex.FindStringSubmatch(doc.Content); m != nil {
		doc.Title = strings.TrimSpace(m[1])
	}
	return doc
}

// splitFrontmatter cuts a leading "---" fenced block off content.
// ok is false when content does not open with a closed block.
func splitFrontmatter(content string) (block, body string, ok bool) {
	rest, found := strings.CutPrefix(content, frontmatterFence+"\n")
	if !found {
		return "", content, false
	}
	block, after, found := strings.Cut(rest, "\n"+frontmatterFence)
	if !found {
		return "", content, false
	}
	// The body starts on the line after the closing fence.
	_, body, _ = strings.Cut(after, "\n")
	return block, body, true
}
