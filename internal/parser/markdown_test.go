package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	doc := Parse(`---
title: Install Guide
tags: [setup, docs]
---

# Heading

Body text.`)

	assert.Equal(t, "Install Guide", doc.Title)
	assert.Equal(t, "Install Guide", doc.Frontmatter["title"])
	assert.False(t, strings.Contains(doc.Content, "title:"))
	assert.True(t, strings.HasPrefix(doc.Content, "# Heading"))
}

func TestParseBrokenFrontmatterTolerated(t *testing.T) {
	doc := Parse("---\n\t:::not yaml\n---\n\n# Title\n\nText.")
	assert.Empty(t, doc.Frontmatter)
	assert.Equal(t, "Title", doc.Title)
}

func TestParseSectionsBuildPaths(t *testing.T) {
	doc := Parse(`# Guide

Intro.

## Setup

Setup text.

### Install

Install text.

## Usage

Usage text.`)

	require.Len(t, doc.Sections, 4)
	assert.Equal(t, "# Guide", doc.Sections[0].Path)
	assert.Equal(t, "# Guide > ## Setup", doc.Sections[1].Path)
	assert.Equal(t, "# Guide > ## Setup > ### Install", doc.Sections[2].Path)
	// Sibling heading pops the deeper level off the breadcrumb.
	assert.Equal(t, "# Guide > ## Usage", doc.Sections[3].Path)
	assert.Equal(t, "Install text.", doc.Sections[2].Content)
}

func TestExtractLinks(t *testing.T) {
	content := `See [Usage](https://docs.test/usage) and [API](https://docs.test/api).
Bare link: https://docs.test/extra.
Duplicate: [Usage again](https://docs.test/usage)`

	links := ExtractLinks(content)
	require.Len(t, links, 3)
	assert.Equal(t, Link{Text: "Usage", URL: "https://docs.test/usage"}, links[0])
	assert.Equal(t, Link{Text: "API", URL: "https://docs.test/api"}, links[1])
	// Bare URL keeps no text and loses trailing punctuation.
	assert.Equal(t, Link{URL: "https://docs.test/extra"}, links[2])
}

func TestIsLinkCollection(t *testing.T) {
	collection := `# Links

- [A](https://docs.test/a)
- [B](https://docs.test/b)
- [C](https://docs.test/c)
- [D](https://docs.test/d)`
	assert.True(t, IsLinkCollection(collection, 3))

	prose := `# Article

This is a long article that happens to mention https://docs.test/a once.

It has many paragraphs of plain prose.

And several more lines without any links at all.

Plus a closing line.`
	assert.False(t, IsLinkCollection(prose, 1))

	assert.False(t, IsLinkCollection("- [A](https://docs.test/a)", 3), "below minimum link count")
}

func TestExtractCodeBlocks(t *testing.T) {
	content := "Install it like this:\n\n```bash\nnpm install my-package --save-dev\n```\n\nshort one:\n\n```go\nx := 1\n```\n"

	blocks := ExtractCodeBlocks(content, 20)
	require.Len(t, blocks, 1)
	assert.Equal(t, "bash", blocks[0].Language)
	assert.Equal(t, "npm install my-package --save-dev", blocks[0].Code)
	assert.Contains(t, blocks[0].Context, "Install it like this:")
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 4, WordCount("  one two\nthree\tfour "))
}
