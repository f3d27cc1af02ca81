// Package markup splits status text into renderable segments.
//
// Entity offsets are Unicode code point indices into the status text, which
// is the convention of the upstream API. The text is therefore scanned as
// runes, never as bytes.
package markup

import "sort"

// Kind identifies what a segment renders as.
type Kind string

const (
	KindText    Kind = "text"
	KindURL     Kind = "url"
	KindMention Kind = "mention"
	KindHashTag Kind = "hashtag"
	KindMedia   Kind = "media"
)

// Segment is one renderable piece of a status.
type Segment struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Span is a positional annotation over the source text. Start and End form
// a half-open range.
type Span struct {
	Kind  Kind
	Text  string
	Start int
	End   int
}

// Annotate walks the spans in ascending start order and interleaves them
// with the plain text between them.
//
// A span starting before the cursor (overlapping the previous span) still
// emits its annotation but no plain-text gap. Upstream entities do not
// overlap, so this only matters for malformed input.
func Annotate(text string, spans []Span) []Segment {
	runes := []rune(text)

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	segments := make([]Segment, 0, 2*len(sorted)+1)
	start := 0
	for _, span := range sorted {
		spanStart := clamp(span.Start, len(runes))
		if spanStart > start {
			segments = append(segments, Segment{Kind: KindText, Text: string(runes[start:spanStart])})
		}
		segments = append(segments, Segment{Kind: span.Kind, Text: span.Text})
		start = clamp(span.End, len(runes))
	}
	if start < len(runes) {
		segments = append(segments, Segment{Kind: KindText, Text: string(runes[start:])})
	}
	return segments
}

// PlainText concatenates segment texts in order.
func PlainText(segments []Segment) string {
	n := 0
	for _, s := range segments {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range segments {
		b = append(b, s.Text...)
	}
	return string(b)
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
