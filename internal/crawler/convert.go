package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// convertHTML parses an HTML body and renders it as markdown-flavored
// text, returning the page title and the absolute outbound links.
func convertHTML(baseURL string, body []byte) (title, markdown string, links []string) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		// Unparseable HTML degrades to raw text
		return "", string(body), nil
	}

	base, _ := url.Parse(baseURL)

	var sb strings.Builder
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "footer", "iframe", "svg":
				return

			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return

			case "h1", "h2", "h3", "h4", "h5", "h6":
				level := int(n.Data[1] - '0')
				sb.WriteString("\n\n")
				sb.WriteString(strings.Repeat("#", level))
				sb.WriteString(" ")
				sb.WriteString(nodeText(n))
				sb.WriteString("\n\n")
				return

			case "pre":
				sb.WriteString("\n\n```\n")
				sb.WriteString(strings.TrimRight(nodeText(n), "\n"))
				sb.WriteString("\n```\n\n")
				return

			case "p", "div", "section", "article", "tr":
				defer sb.WriteString("\n\n")

			case "br":
				sb.WriteString("\n")

			case "li":
				sb.WriteString("\n- ")

			case "a":
				href := attr(n, "href")
				text := strings.TrimSpace(nodeText(n))
				if abs := resolveLink(base, href); abs != "" {
					if !seen[abs] {
						seen[abs] = true
						links = append(links, abs)
					}
					if text != "" {
						fmt.Fprintf(&sb, "[%s](%s)", text, abs)
						return
					}
				}

			case "code":
				// Inline code; <pre><code> is handled by the pre case
				sb.WriteString("`")
				sb.WriteString(nodeText(n))
				sb.WriteString("`")
				return
			}
		}

		if n.Type == html.TextNode {
			text := collapseSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, tidyMarkdown(sb.String()), links
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// resolveLink makes href absolute against base, keeping only http(s).
func resolveLink(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tidyMarkdown collapses runs of blank lines left behind by block
// element handling.
func tidyMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
