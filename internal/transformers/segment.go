package transformers

import (
	"fmt"
	"strings"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
)

// A Segmenter cuts document text into embeddable spans.
type Segmenter interface {
	Segment(text string) []string
}

// DefaultMaxChars is the default segment length in characters.
const DefaultMaxChars = 1000

// DefaultOverlap is the default overlap for the fixed segmenter.
const DefaultOverlap = 200

// NewSegmenter builds the segmenter named by the configuration.
// An empty strategy selects fixed-size segmentation.
func NewSegmenter(cfg config.SegmentationConfig) (Segmenter, error) {
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	switch cfg.Strategy {
	case "fixed", "":
		overlap := cfg.Overlap
		if overlap < 0 {
			overlap = 0
		}
		if overlap >= maxChars {
			overlap = maxChars / 4
		}
		return &fixedSegmenter{maxChars: maxChars, overlap: overlap}, nil
	case "sentence":
		return &sentenceSegmenter{maxChars: maxChars}, nil
	case "paragraph":
		return &paragraphSegmenter{}, nil
	default:
		return nil, fmt.Errorf("%w: segmentation strategy %q", domain.ErrUnsupportedType, cfg.Strategy)
	}
}

// fixedSegmenter cuts text into fixed-size windows with overlap.
type fixedSegmenter struct {
	maxChars int
	overlap  int
}

func (s *fixedSegmenter) Segment(text string) []string {
	if text == "" {
		return nil
	}

	length := len(text)
	estimated := (length / (s.maxChars - s.overlap)) + 1
	segments := make([]string, 0, estimated)

	start := 0
	for start < length {
		end := start + s.maxChars
		if end > length {
			end = length
		}
		segments = append(segments, text[start:end])

		start += s.maxChars - s.overlap
		if s.maxChars <= s.overlap {
			break
		}
	}
	return segments
}

// sentenceSegmenter packs whole sentences into segments up to maxChars.
// A single sentence longer than maxChars becomes its own segment.
type sentenceSegmenter struct {
	maxChars int
}

func (s *sentenceSegmenter) Segment(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var segments []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > s.maxChars {
			segments = append(segments, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}

// splitSentences breaks text at terminal punctuation followed by
// whitespace. Good enough for mail bodies; not a linguistic parser.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// paragraphSegmenter splits text on blank lines.
type paragraphSegmenter struct{}

func (s *paragraphSegmenter) Segment(text string) []string {
	var segments []string
	for _, para := range strings.Split(text, "\n\n") {
		if p := strings.TrimSpace(para); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
