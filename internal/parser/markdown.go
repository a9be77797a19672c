// Package parser provides Markdown parsing, link extraction, code-block
// extraction, and semantic chunking for crawled documents.
package parser

import (
	"bufio"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed Markdown page.
type Document struct {
	// Frontmatter metadata (YAML), when the page carried any.
	Frontmatter map[string]any

	// Title from frontmatter or the first h1.
	Title string

	// Content after frontmatter removal.
	Content string

	// Sections split by heading.
	Sections []Section
}

// Section is a heading and the content beneath it.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // heading text
	Path    string // breadcrumb like "## Setup > ### Install"
	Content string
}

// Link is an outbound hyperlink found in document content.
type Link struct {
	Text string
	URL  string
}

// CodeBlock is a fenced code block with surrounding context.
type CodeBlock struct {
	Language string
	Code     string
	// Context is the text immediately preceding the block, used to
	// prompt the LLM summarizer.
	Context string
}

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	h1Re       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	mdLinkRe   = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)
	bareLinkRe = regexp.MustCompile(`(?m)(?:^|\s)(https?://[^\s<>")\]]+)`)
	fenceRe    = regexp.MustCompile("(?ms)^```([a-zA-Z0-9_+-]*)[ \t]*\n(.*?)^```[ \t]*$")
)

// Parse parses Markdown content into structured form. YAML frontmatter
// errors are tolerated; the document just has no metadata then.
func Parse(content string) *Document {
	doc := &Document{Frontmatter: make(map[string]any)}

	remaining := content
	if strings.HasPrefix(content, "---\n") {
		if endIdx := strings.Index(content[4:], "\n---"); endIdx > 0 {
			raw := content[4 : 4+endIdx]
			remaining = strings.TrimPrefix(content[4+endIdx+4:], "\n")
			if err := yaml.Unmarshal([]byte(raw), &doc.Frontmatter); err != nil {
				doc.Frontmatter = make(map[string]any)
			}
		}
	}

	doc.Content = remaining
	doc.Title = extractTitle(doc.Frontmatter, remaining)
	doc.Sections = parseSections(remaining)
	return doc
}

func extractTitle(fm map[string]any, content string) string {
	if title, ok := fm["title"].(string); ok && title != "" {
		return title
	}
	if match := h1Re.FindStringSubmatch(content); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

func parseSections(content string) []Section {
	var sections []Section
	var currentPath []string
	var currentLevels []int

	var current *Section
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(body.String())
			sections = append(sections, *current)
			body.Reset()
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if match := headingRe.FindStringSubmatch(line); len(match) > 0 {
			flush()

			level := len(match[1])
			heading := strings.TrimSpace(match[2])

			for len(currentLevels) > 0 && currentLevels[len(currentLevels)-1] >= level {
				currentPath = currentPath[:len(currentPath)-1]
				currentLevels = currentLevels[:len(currentLevels)-1]
			}
			currentPath = append(currentPath, match[1]+" "+heading)
			currentLevels = append(currentLevels, level)

			current = &Section{
				Level:   level,
				Heading: heading,
				Path:    strings.Join(currentPath, " > "),
			}
		} else if current != nil {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	return sections
}

// ExtractLinks finds Markdown links and bare URLs in content,
// deduplicated in order of first appearance.
func ExtractLinks(content string) []Link {
	var links []Link
	seen := make(map[string]bool)

	for _, m := range mdLinkRe.FindAllStringSubmatch(content, -1) {
		u := strings.TrimSpace(m[2])
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		links = append(links, Link{Text: strings.TrimSpace(m[1]), URL: u})
	}

	for _, m := range bareLinkRe.FindAllStringSubmatch(content, -1) {
		u := strings.TrimRight(strings.TrimSpace(m[1]), ".,;")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		links = append(links, Link{URL: u})
	}

	return links
}

// IsLinkCollection reports whether content reads as a flat list of
// hyperlinks rather than prose: at least minLinks links and the bulk of
// its non-blank lines carrying one.
func IsLinkCollection(content string, minLinks int) bool {
	links := ExtractLinks(content)
	if len(links) < minLinks {
		return false
	}

	lines := 0
	linkLines := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines++
		if mdLinkRe.MatchString(line) || bareLinkRe.MatchString(line) {
			linkLines++
		}
	}
	return lines > 0 && linkLines*2 >= lines
}

// ExtractCodeBlocks finds fenced code blocks of at least minLength
// characters, with up to 300 characters of preceding text as context.
func ExtractCodeBlocks(content string, minLength int) []CodeBlock {
	var blocks []CodeBlock

	for _, loc := range fenceRe.FindAllStringSubmatchIndex(content, -1) {
		lang := content[loc[2]:loc[3]]
		code := strings.TrimRight(content[loc[4]:loc[5]], "\n")
		if len(code) < minLength {
			continue
		}

		ctxStart := loc[0] - 300
		if ctxStart < 0 {
			ctxStart = 0
		}
		blocks = append(blocks, CodeBlock{
			Language: lang,
			Code:     code,
			Context:  strings.TrimSpace(content[ctxStart:loc[0]]),
		})
	}

	return blocks
}

// WordCount counts whitespace-separated words in content.
func WordCount(content string) int {
	return len(strings.Fields(content))
}
