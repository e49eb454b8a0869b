// Package lazy reads ZIP archives whose bytes are fetched on demand, one range at a time.
//
// The usual sequence is:
//
//	// 1. fetch the last MaxTailSize bytes (or the whole archive if smaller).
//	a, err := lazy.Open(tail, func(opts *lazy.Options) { opts.TailOffset = tailOffset })
//	// 2. fetch the central directory.
//	names, err := a.ParseCentralDirectory(fetch(a.CDRange()))
//	// 3. fetch and decompress an entry.
//	r, err := a.RangeOf(names[0])
//	data, err := a.Extract(names[0], fetch(r))
//
// Nothing in this package performs I/O; every method works on the byte buffers it is given and never blocks.
package lazy

import (
	"archive/zip"
	"fmt"
	"iter"
	"log"
	"sync"
	"sync/atomic"
)

// Options customises Open.
type Options struct {
	// TailOffset is the absolute offset of the first byte of the buffer passed to Open.
	//
	// By default, 0, meaning the buffer is the whole archive or the caller only needs buffer-relative EOCD offsets.
	TailOffset uint32

	// LegacyRangeSize makes RangeOf report one byte less than the extent of the entry, i.e. Range.Size becomes the
	// distance to the inclusive last byte. Range.Len and Range.HTTPHeader still describe the full extent.
	LegacyRangeSize bool

	// Decompressors registers decompressors for compression methods other than Store (0) and Deflate (8).
	//
	// See codec.WithExtendedMethods.
	Decompressors map[uint16]zip.Decompressor

	// VerifyChecksum makes Extract compare the CRC-32 and size of the decompressed data against the central directory,
	// returning ErrChecksum on mismatch.
	VerifyChecksum bool

	// Logger receives diagnostics such as RangeOf falling back to the central directory offset.
	//
	// By default, nothing is logged.
	Logger *log.Logger
}

// Archive is the index of a ZIP archive built from its EOCD record and central directory.
//
// The EOCD record is immutable after Open. The central directory index is replaced atomically by each successful
// ParseCentralDirectory; all other methods are safe for concurrent use.
type Archive struct {
	eocd EOCDRecord
	opts Options

	// mu guards idx.
	mu  sync.RWMutex
	idx *index

	rangeFallbacks atomic.Int64
}

// Open locates and parses the EOCD record in tail, which should contain the end of the archive.
//
// The returned Archive has an empty index until ParseCentralDirectory succeeds.
func Open(tail []byte, optFns ...func(*Options)) (*Archive, error) {
	a := &Archive{}
	for _, fn := range optFns {
		fn(&a.opts)
	}

	eocd, err := findEOCD(tail, a.opts.TailOffset)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err = eocd.validate(); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	a.eocd = eocd
	a.idx = newIndex(nil)
	return a, nil
}

// EOCD returns a copy of the parsed EOCD record.
func (a *Archive) EOCD() EOCDRecord {
	return a.eocd
}

// EOCDRange returns the location of the EOCD record including its comment.
func (a *Archive) EOCDRange() Range {
	return Range{Offset: a.eocd.Offset, Size: a.eocd.Size}
}

// CDRange returns the location of the central directory, to be fetched and passed to ParseCentralDirectory.
func (a *Archive) CDRange() Range {
	return Range{Offset: a.eocd.CDOffset, Size: a.eocd.CDSize}
}

// Len returns the number of indexed entries, including duplicates.
func (a *Archive) Len() int {
	return len(a.index().entries)
}

// Entries returns a copy of all entries in central directory order.
func (a *Archive) Entries() []Entry {
	entries := a.index().entries
	return append(make([]Entry, 0, len(entries)), entries...)
}

// All iterates over all entries in central directory order.
func (a *Archive) All() iter.Seq2[int, Entry] {
	entries := a.index().entries
	return func(yield func(int, Entry) bool) {
		for i, e := range entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Entry returns the entry with the given name.
//
// If several entries share the name, the last one in central directory order is returned.
func (a *Archive) Entry(name string) (Entry, error) {
	e, ok := a.index().lookup(name)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return *e, nil
}

// Stats are counters exposed for diagnostics.
type Stats struct {
	// RangeFallbacks is the number of times RangeOf could not find an entry's offset in the sorted offset list and
	// used the central directory offset as the end of the range instead.
	RangeFallbacks int64
}

// Stats returns the current counters.
func (a *Archive) Stats() Stats {
	return Stats{RangeFallbacks: a.rangeFallbacks.Load()}
}

func (a *Archive) index() *index {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.idx
}
