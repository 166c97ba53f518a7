package internal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunkerValidation(t *testing.T) {
	for _, tc := range []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 11},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChunker(tc.size, tc.overlap)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	c, err := NewChunker(10, 3)
	require.NoError(t, err)
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Chunk(NewDocument("empty.txt", "")))
}

func TestSplitBasicWindows(t *testing.T) {
	c, err := NewChunker(5, 2)
	require.NoError(t, err)

	windows := c.Split("abcdefghij")
	require.Len(t, windows, 3)

	assert.Equal(t, Window{Text: "abcde", Offset: 0}, windows[0])
	assert.Equal(t, Window{Text: "defgh", Offset: 3}, windows[1])
	assert.Equal(t, Window{Text: "ghij", Offset: 6}, windows[2])
}

func TestSplitShorterThanSize(t *testing.T) {
	c, err := NewChunker(500, 50)
	require.NoError(t, err)

	windows := c.Split("Team burnout after back-to-back meetings.")
	require.Len(t, windows, 1)
	assert.Equal(t, "Team burnout after back-to-back meetings.", windows[0].Text)
}

func TestSplitDoesNotBreakRunes(t *testing.T) {
	c, err := NewChunker(3, 1)
	require.NoError(t, err)

	windows := c.Split("äöüßéñ")
	require.Len(t, windows, 3)
	assert.Equal(t, "äöü", windows[0].Text)
	assert.Equal(t, "üßé", windows[1].Text)
	assert.Equal(t, "éñ", windows[2].Text)
}

func expectedChunkCount(length, size, overlap int) int {
	if length == 0 {
		return 0
	}
	if length <= size {
		return 1
	}
	step := size - overlap
	return (length - overlap + step - 1) / step
}

func TestChunkCoverageAndCount(t *testing.T) {
	base := "The quarterly planning meeting ran long again; nobody had time for lunch. "
	for _, tc := range []struct {
		size, overlap int
		length        int
	}{
		{10, 0, 95},
		{10, 3, 95},
		{7, 6, 40},
		{500, 50, 1200},
		{500, 50, 450},
		{50, 10, 51},
		{4, 1, 1},
	} {
		text := strings.Repeat(base, tc.length/len(base)+1)[:tc.length]

		c, err := NewChunker(tc.size, tc.overlap)
		require.NoError(t, err)

		chunks := c.Chunk(NewDocument("notes.txt", text))
		assert.Len(t, chunks, expectedChunkCount(tc.length, tc.size, tc.overlap),
			"size=%d overlap=%d length=%d", tc.size, tc.overlap, tc.length)

		var rebuilt strings.Builder
		for i, ch := range chunks {
			assert.LessOrEqual(t, len([]rune(ch.Text)), tc.size)
			assert.Equal(t, i, ch.Index)
			if i == 0 {
				rebuilt.WriteString(ch.Text)
				continue
			}
			rebuilt.WriteString(string([]rune(ch.Text)[tc.overlap:]))
		}
		assert.Equal(t, text, rebuilt.String())
		assert.Equal(t, text, ReconstructText(chunks))
	}
}

func TestChunkDeterministic(t *testing.T) {
	c, err := NewChunker(16, 4)
	require.NoError(t, err)

	doc := NewDocument("standup.txt", "Standup moved to 9:30. Alice raised concerns about the release date.")
	first := c.Chunk(doc)
	second := c.Chunk(doc)
	assert.Equal(t, first, second)
}

func TestChunkCarriesProvenance(t *testing.T) {
	c, err := NewChunker(8, 2)
	require.NoError(t, err)

	doc := NewDocument("retro.txt", "Retro went well overall")
	for _, ch := range c.Chunk(doc) {
		assert.Equal(t, doc.ID, ch.DocumentID)
		assert.Equal(t, "retro.txt", ch.Source)
		assert.True(t, strings.HasPrefix(ch.ID, doc.ID+":"))
	}
}

func TestDocumentIDContentAddressed(t *testing.T) {
	a := NewDocument("a.txt", "hello")
	b := NewDocument("a.txt", "hello")
	c := NewDocument("a.txt", "hello!")
	d := NewDocument("b.txt", "hello")

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.NotEqual(t, a.ID, d.ID)
}
