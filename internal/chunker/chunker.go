// Package chunker splits raw document text into bounded, heading-aware
// passages ready for embedding. Splitting is pure: no IO, no clock, no
// stored state.
package chunker

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

// DefaultMaxPassageSize is the default passage size ceiling in characters.
const DefaultMaxPassageSize = 4000

// PreviewWords is the number of words kept in a passage preview.
const PreviewWords = 100

// Splitter turns one document's text into passages.
type Splitter struct {
	maxSize int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithMaxPassageSize sets the passage size ceiling in characters.
func WithMaxPassageSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{maxSize: DefaultMaxPassageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split chunks a document's raw content into passages. The leading YAML
// frontmatter block is dropped first. An empty body yields no passages;
// callers treat that as nothing to index, not an error.
//
// A body within the size ceiling becomes a single passage prefixed with
// a synthesized title header. Larger bodies split at "## " heading
// boundaries, and any section still over the ceiling splits again at
// blank-line paragraph boundaries. A single paragraph over the ceiling
// is kept whole as one oversize passage rather than cut mid-paragraph.
func (s *Splitter) Split(path, title, content string) []domain.Passage {
	body := strings.TrimSpace(StripFrontmatter(content))
	if body == "" {
		return nil
	}

	if len(body) <= s.maxSize {
		text := fmt.Sprintf("# %s\n\n%s", title, body)
		return []domain.Passage{newPassage(path, 0, "", text)}
	}

	var passages []domain.Passage
	position := 0
	for _, sec := range splitSections(body) {
		parts := splitParagraphs(sec.text, s.maxSize)
		for i, part := range parts {
			label := sec.label
			if label != "" && len(parts) > 1 {
				label = fmt.Sprintf("%s (part %d)", sec.label, i+1)
			}
			passages = append(passages, newPassage(path, position, label, part))
			position++
		}
	}
	return passages
}

func newPassage(path string, position int, section, text string) domain.Passage {
	return domain.Passage{
		ID:           uuid.New().String(),
		DocumentPath: path,
		Position:     position,
		Section:      section,
		Content:      text,
		Preview:      Preview(text),
	}
}

// section is a heading-delimited region of the body.
type section struct {
	label string
	text  string
}

// splitSections cuts the body at level-two heading lines. Text before
// the first heading forms an unlabelled preamble. Heading lines inside
// fenced code blocks are not boundaries.
func splitSections(body string) []section {
	lines := strings.Split(body, "\n")

	var sections []section
	var current []string
	label := ""
	inFence := false

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			sections = append(sections, section{label: label, text: text})
		}
		current = current[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(line, "## ") {
			flush()
			label = strings.TrimSpace(strings.TrimPrefix(line, "## "))
		}
		current = append(current, line)
	}
	flush()

	return sections
}

// splitParagraphs greedily packs blank-line separated paragraphs into
// parts no larger than maxSize. A lone paragraph over the limit is
// returned whole.
func splitParagraphs(text string, maxSize int) []string {
	if len(text) <= maxSize {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")

	var parts []string
	var buf strings.Builder
	for _, para := range paragraphs {
		if para == "" {
			continue
		}
		// +2 accounts for the separating blank line.
		if buf.Len() > 0 && buf.Len()+len(para)+2 > maxSize {
			parts = append(parts, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}
	if buf.Len() > 0 {
		parts = append(parts, strings.TrimSpace(buf.String()))
	}
	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// StripFrontmatter drops a leading YAML frontmatter block ("---" fence
// on the first line through the next "---" line). Content without a
// complete block is returned unchanged.
func StripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---\n") && content != "---" {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "---" || trimmed == "..." {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return content
}

// Title extracts a document title from the first level-one heading, or
// derives one from the filename.
func Title(content, path string) string {
	body := StripFrontmatter(content)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// Preview renders a passage excerpt: markdown formatting stripped, cut
// to PreviewWords words, with an ellipsis marking truncation.
func Preview(text string) string {
	words := strings.Fields(stripMarkdown(text))
	if len(words) <= PreviewWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:PreviewWords], " ") + "..."
}

// Markdown stripping patterns, simplified to the common cases.
var (
	codeBlockRe    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe   = regexp.MustCompile("`[^`]+`")
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe   = regexp.MustCompile(`(?m)^>\s*`)
	hrRe           = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkerRe   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedListRe = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
)

// stripMarkdown removes common markdown formatting for plain text previews.
func stripMarkdown(content string) string {
	content = codeBlockRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "")
	content = imageRe.ReplaceAllString(content, "")

	// Convert links [text](url) to just text
	content = linkRe.ReplaceAllString(content, "$1")

	content = headingRe.ReplaceAllString(content, "")

	// Remove bold/italic markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	content = strings.ReplaceAll(content, "_", " ")

	content = blockquoteRe.ReplaceAllString(content, "")
	content = hrRe.ReplaceAllString(content, "")
	content = listMarkerRe.ReplaceAllString(content, "")
	content = numberedListRe.ReplaceAllString(content, "")

	return strings.TrimSpace(content)
}
