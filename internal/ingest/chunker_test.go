package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(ch byte, n int) string {
	return strings.Repeat(string(ch), n)
}

func TestChunkPages_Empty(t *testing.T) {
	assert.Empty(t, ChunkPages(nil, "kharif", DefaultChunkConfig()))
	assert.Empty(t, ChunkPages([]string{"", "   "}, "kharif", DefaultChunkConfig()))
}

func TestChunkPages_SingleShortPage(t *testing.T) {
	chunks := ChunkPages([]string{"Sow wheat in early November."}, "rabi", DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "rabi-0", chunks[0].ID)
	assert.Equal(t, "rabi", chunks[0].Source)
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 1, chunks[0].PageEnd)
	assert.Equal(t, "Sow wheat in early November.", chunks[0].Text)
}

func TestChunkPages_OverlapInvariant(t *testing.T) {
	cfg := ChunkConfig{TargetChars: 200, Overlap: 30}

	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, line(byte('a'+i), 50))
	}
	page := strings.Join(lines, "\n")

	chunks := ChunkPages([]string{page}, "kharif", cfg)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		next := chunks[i].Text
		require.GreaterOrEqual(t, len(prev), cfg.Overlap)
		require.GreaterOrEqual(t, len(next), cfg.Overlap)
		assert.Equal(t, prev[len(prev)-cfg.Overlap:], next[:cfg.Overlap],
			"chunk %d must start with the tail of chunk %d", i, i-1)
	}
}

func TestChunkPages_OverlapInvariantAtLineBoundary(t *testing.T) {
	cfg := ChunkConfig{TargetChars: 200, Overlap: 30}

	// The second line is sized so the first chunk's overlap tail starts
	// with the newline between the lines.
	page := strings.Join([]string{line('a', 170), line('b', 29), line('c', 170), line('d', 50)}, "\n")

	chunks := ChunkPages([]string{page}, "kharif", cfg)
	require.GreaterOrEqual(t, len(chunks), 3)
	assert.True(t, strings.HasPrefix(chunks[1].Text, "\n"+line('b', 29)))

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		next := chunks[i].Text
		assert.Equal(t, prev[len(prev)-cfg.Overlap:], next[:cfg.Overlap],
			"chunk %d must start with the tail of chunk %d", i, i-1)
	}
}

func TestChunkPages_MultipleChunksOnOnePage(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, line(byte('a'+i%26), 50))
	}
	page := strings.Join(lines, "\n")

	chunks := ChunkPages([]string{page}, "kharif", DefaultChunkConfig())
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, 1, c.PageStart, "chunk %d", i)
		assert.Equal(t, 1, c.PageEnd, "chunk %d", i)
	}
}

func TestChunkPages_StableIDs(t *testing.T) {
	cfg := ChunkConfig{TargetChars: 100, Overlap: 10}
	page := strings.Join([]string{line('a', 60), line('b', 60), line('c', 60)}, "\n")

	chunks := ChunkPages([]string{page}, "zaid", cfg)
	require.GreaterOrEqual(t, len(chunks), 2)
	for i, c := range chunks {
		assert.Equal(t, "zaid-"+string(rune('0'+i)), c.ID)
	}
}

func TestChunkPages_ParagraphBoundaryCut(t *testing.T) {
	cfg := ChunkConfig{TargetChars: 900, Overlap: 0}

	para1 := line('a', 600)
	para2 := line('b', 100)
	page := para1 + "\n\n" + para2

	chunks := ChunkPages([]string{page}, "kharif", cfg)

	// 600 chars exceed 60% of the target, so the blank line cuts the chunk.
	require.Len(t, chunks, 2)
	assert.Equal(t, para1, chunks[0].Text)
	assert.Equal(t, para2, chunks[1].Text)
}

func TestChunkPages_HeadingDetection(t *testing.T) {
	page := "SOWING SCHEDULE\nWheat should be sown between November 1 and November 20."
	chunks := ChunkPages([]string{page}, "rabi", DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "SOWING SCHEDULE", chunks[0].Heading)

	page = "the schedule is as follows\nWheat should be sown in November."
	chunks = ChunkPages([]string{page}, "rabi", DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Heading)
}

func TestChunkPages_BlankPageCountedInPageRange(t *testing.T) {
	pages := []string{
		"Kharif paddy needs standing water during tillering.",
		"",
		"Drain fields one week before harvest.",
	}

	chunks := ChunkPages(pages, "kharif", DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 3, chunks[0].PageEnd)
	assert.NotContains(t, chunks[0].Text, "\n\n")
}

func TestChunkPages_HeadingDropsCarriedOverlap(t *testing.T) {
	cfg := ChunkConfig{TargetChars: 100, Overlap: 20}
	page := line('a', 110) + "\nIRRIGATION\nApply water at crown root stage."

	chunks := ChunkPages([]string{page}, "rabi", cfg)

	require.Len(t, chunks, 2)
	assert.Equal(t, line('a', 110), chunks[0].Text)
	// The heading starts a new section, so the previous chunk's tail is
	// discarded instead of being prepended.
	assert.Equal(t, "IRRIGATION\nApply water at crown root stage.", chunks[1].Text)
	assert.Equal(t, "IRRIGATION", chunks[1].Heading)
	assert.Equal(t, 1, chunks[1].PageStart)
}

func TestChunkPages_NoTrailingSeedOnlyChunk(t *testing.T) {
	cfg := ChunkConfig{TargetChars: 100, Overlap: 20}
	// A single line that triggers the cut exactly once leaves only the
	// overlap seed in the buffer at the end of input.
	chunks := ChunkPages([]string{line('a', 120)}, "kharif", cfg)

	require.Len(t, chunks, 1)
	assert.Equal(t, line('a', 120), chunks[0].Text)
}
