package lazy

import (
	"fmt"
	"io"
)

// Range is a byte range within the archive.
type Range struct {
	Offset uint32
	Size   uint32

	// Inclusive is true if Size is one less than the extent, see Options.LegacyRangeSize.
	Inclusive bool
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int64 {
	if r.Inclusive {
		return int64(r.Size) + 1
	}

	return int64(r.Size)
}

// End returns the exclusive end offset.
func (r Range) End() int64 {
	return int64(r.Offset) + r.Len()
}

// HTTPHeader returns the value of the HTTP Range header that requests exactly this range.
func (r Range) HTTPHeader() string {
	return fmt.Sprintf("bytes=%d-%d", r.Offset, r.End()-1)
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Offset, r.End())
}

// RangeOf returns the byte range that must be fetched and passed to Extract for the named entry.
//
// The range starts at the entry's local header and ends where the next entry's local header starts (by offset, not by
// central directory order), or at the central directory for the last entry. It therefore includes the local header,
// the compressed data, and a trailing data descriptor if there is one.
func (a *Archive) RangeOf(name string) (Range, error) {
	idx := a.index()
	e, ok := idx.lookup(name)
	if !ok {
		return Range{}, fmt.Errorf("resolve range: %w: %q", ErrNotFound, name)
	}

	start, end := e.LocalHeaderOffset, a.eocd.CDOffset
	switch next, hasNext, found := idx.nextOffset(start); {
	case !found:
		a.rangeFallbacks.Add(1)
		if a.opts.Logger != nil {
			a.opts.Logger.Printf("offset %d of %q not found in offset list; using central directory offset %d as end", start, name, end)
		}
	case hasNext:
		end = next
	}

	if end <= start {
		return Range{}, fmt.Errorf("resolve range %q: %w", name, &IOError{
			Op:  fmt.Sprintf("local header offset %d is not before end offset %d", start, end),
			Err: io.ErrUnexpectedEOF,
		})
	}

	if a.opts.LegacyRangeSize {
		return Range{Offset: start, Size: end - start - 1, Inclusive: true}, nil
	}

	return Range{Offset: start, Size: end - start}, nil
}
