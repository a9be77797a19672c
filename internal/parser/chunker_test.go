package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() ChunkConfig {
	return ChunkConfig{
		Threshold:  100,
		TargetSize: 80,
		MinSize:    20,
		MaxSize:    120,
		Overlap:    0,
	}
}

func TestChunkShortDocumentStaysWhole(t *testing.T) {
	doc := Parse("# Title\n\nShort content.")
	chunks := ChunkDocument(doc, DefaultChunkConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, doc.Content, chunks[0].Content)
}

func TestChunkBySectionsCarriesHeadingPath(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Guide\n\n")
	b.WriteString(strings.Repeat("Intro sentence with some words. ", 3))
	b.WriteString("\n\n## Setup\n\n")
	b.WriteString(strings.Repeat("Setup sentence with some words. ", 3))
	b.WriteString("\n")

	doc := Parse(b.String())
	chunks := ChunkDocument(doc, testConfig())
	require.GreaterOrEqual(t, len(chunks), 2)

	assert.Equal(t, "# Guide", chunks[0].HeadingPath)
	found := false
	for _, c := range chunks {
		if c.HeadingPath == "# Guide > ## Setup" {
			found = true
		}
	}
	assert.True(t, found, "setup section keeps its breadcrumb")

	for i, c := range chunks {
		assert.Equal(t, i, c.Position, "positions are sequential")
	}
}

func TestChunkOversizedParagraphSplitsAtSentences(t *testing.T) {
	para := strings.Repeat("This sentence is reasonably long and ends cleanly. ", 10)
	doc := &Document{Content: para}

	cfg := testConfig()
	chunks := ChunkDocument(doc, cfg)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), cfg.MaxSize+cfg.TargetSize,
			"sentence packing keeps chunks near the target")
		assert.True(t, strings.HasSuffix(strings.TrimSpace(c.Content), "."),
			"splits land on sentence boundaries")
	}
}

func TestChunkOverlap(t *testing.T) {
	first := strings.Repeat("alpha ", 30)  // ~180 chars
	second := strings.Repeat("omega ", 30) // distinct words

	cfg := testConfig()
	cfg.Overlap = 30
	doc := &Document{Content: first + "\n\n" + second}
	chunks := ChunkDocument(doc, cfg)
	require.Greater(t, len(chunks), 1)

	// Each later chunk starts with the tail of its predecessor.
	assert.Contains(t, chunks[len(chunks)-1].Content, "alpha",
		"overlap carries words across the boundary")
}

func TestChunkEmptySectionsSkipped(t *testing.T) {
	content := "# A\n\n## B\n\n" + strings.Repeat("Real content here. ", 10)
	doc := Parse(content)
	chunks := ChunkDocument(doc, testConfig())
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c.Content))
	}
}
