package transformers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
)

func TestNewSegmenter_UnknownStrategy(t *testing.T) {
	_, err := NewSegmenter(config.SegmentationConfig{Strategy: "semantic"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestFixedSegmenter(t *testing.T) {
	seg, err := NewSegmenter(config.SegmentationConfig{Strategy: "fixed", MaxChars: 10, Overlap: 2})
	require.NoError(t, err)

	text := strings.Repeat("abcdefgh", 3) // 24 chars
	segments := seg.Segment(text)

	require.NotEmpty(t, segments)
	for _, s := range segments {
		assert.LessOrEqual(t, len(s), 10)
	}
	// Consecutive windows share the configured overlap.
	assert.Equal(t, segments[0][8:], segments[1][:2])
}

func TestFixedSegmenter_EmptyText(t *testing.T) {
	seg, err := NewSegmenter(config.SegmentationConfig{Strategy: "fixed"})
	require.NoError(t, err)
	assert.Empty(t, seg.Segment(""))
}

func TestFixedSegmenter_ShortText(t *testing.T) {
	seg, err := NewSegmenter(config.SegmentationConfig{Strategy: "fixed", MaxChars: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, seg.Segment("short"))
}

func TestSentenceSegmenter(t *testing.T) {
	seg, err := NewSegmenter(config.SegmentationConfig{Strategy: "sentence", MaxChars: 30})
	require.NoError(t, err)

	segments := seg.Segment("First sentence. Second one! Third sentence here? Fourth.")
	require.NotEmpty(t, segments)

	for _, s := range segments {
		assert.NotEmpty(t, s)
	}
	// Sentences are never cut mid-way.
	assert.Equal(t, "First sentence. Second one!", segments[0])
}

func TestSentenceSegmenter_LongSentenceStandsAlone(t *testing.T) {
	seg, err := NewSegmenter(config.SegmentationConfig{Strategy: "sentence", MaxChars: 10})
	require.NoError(t, err)

	segments := seg.Segment("This sentence is much longer than the limit. Ok.")
	require.Len(t, segments, 2)
	assert.Equal(t, "This sentence is much longer than the limit.", segments[0])
	assert.Equal(t, "Ok.", segments[1])
}

func TestParagraphSegmenter(t *testing.T) {
	seg, err := NewSegmenter(config.SegmentationConfig{Strategy: "paragraph"})
	require.NoError(t, err)

	segments := seg.Segment("first paragraph\nstill first\n\nsecond paragraph\n\n\nthird")
	assert.Equal(t, []string{"first paragraph\nstill first", "second paragraph", "third"}, segments)
}
