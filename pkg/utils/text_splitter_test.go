package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("hello world", 100, 10)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitText_OverlapPreserved(t *testing.T) {
	text := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	chunks := SplitText(text, 60, 20)

	assert.True(t, len(chunks) >= 2)
	// The tail of chunk N must reappear at the head of chunk N+1.
	tail := chunks[0][len(chunks[0])-20:]
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestSplitText_NoDataLost(t *testing.T) {
	text := strings.Repeat("abcdefghij", 100)
	chunks := SplitText(text, 150, 30)

	// Stitching the chunks back together (dropping overlaps) must recover
	// the original text.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		if len(c) > 30 {
			rebuilt.WriteString(c[30:])
		}
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitText_NonASCIIBoundariesCountRunes(t *testing.T) {
	text := strings.Repeat("क", 4000) // 4,000 chars, 12,000 bytes

	chunks := SplitText(text, 1500, 200)

	assert.True(t, len(chunks) >= 2)
	// Chunk boundaries are counted in characters, and no boundary may cut
	// through a multi-byte rune.
	assert.Equal(t, 1500, utf8.RuneCountInString(chunks[0]))
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
	}
}

func TestSplitText_OverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := SplitText(text, 20, 30)

	// Degenerate config must still terminate and cover the whole text.
	assert.NotEmpty(t, chunks)
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, 100)
}
