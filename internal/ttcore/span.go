package ttcore

import "fmt"

// Span identifies a half-open range [Start,End) of rune offsets within a
// piece of parsed source text.  It is attached to syntax errors so that
// tooling can highlight the offending text.
type Span struct {
	start int
	end   int
}

// NewSpan constructs a span over [start,end).
func NewSpan(start, end int) Span {
	return Span{start, end}
}

// Start returns the (inclusive) start offset of this span.
func (s Span) Start() int { return s.start }

// End returns the (exclusive) end offset of this span.
func (s Span) End() int { return s.end }

// String implements fmt.Stringer.
func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.start, s.end)
}
