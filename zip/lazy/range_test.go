package lazy

import (
	"archive/zip"
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchive_RangeOf(t *testing.T) {
	hello := storedFile("hello.txt", "Hello")
	archive := buildArchive(hello)
	a, _ := openAll(t, archive)

	// 30-byte header, 9-byte name, 5 bytes of data, then the central directory.
	r := mustRangeOf(t, a, "hello.txt")
	assert.Equal(t, Range{Offset: 0, Size: 44}, r)
	assert.Equal(t, int64(44), r.Len())
	assert.Equal(t, int64(a.EOCD().CDOffset), r.End())
	assert.Equal(t, "bytes=0-43", r.HTTPHeader())
	assert.Equal(t, "[0, 44)", r.String())

	_, err := a.RangeOf("missing.txt")
	assert.ErrorIsf(t, err, ErrNotFound, "RangeOf(missing.txt) error = %v, want %v", err, ErrNotFound)
}

func TestArchive_RangeOf_Legacy(t *testing.T) {
	archive := buildArchive(storedFile("hello.txt", "Hello"), storedFile("world.txt", "World!"))
	a, _ := openAll(t, archive, func(opts *Options) { opts.LegacyRangeSize = true })

	r := mustRangeOf(t, a, "hello.txt")
	assert.Equal(t, Range{Offset: 0, Size: 43, Inclusive: true}, r)
	assert.Equal(t, int64(44), r.Len())
	assert.Equal(t, "bytes=0-43", r.HTTPHeader())

	r = mustRangeOf(t, a, "world.txt")
	assert.Equal(t, Range{Offset: 44, Size: 44, Inclusive: true}, r)
	assert.Equal(t, int64(a.EOCD().CDOffset), r.End())

	// Len still covers the whole entry so Extract works the same in both modes.
	data, err := a.Extract("world.txt", slice(archive, r))
	assert.NoErrorf(t, err, "Extract(world.txt) error = %v", err)
	assert.Equal(t, "World!", string(data))
}

func TestArchive_RangeOf_UnsortedOffsets(t *testing.T) {
	a1, b1, c1 := storedFile("a.txt", "aaaa"), storedFile("b.txt", "bbbbbbbb"), storedFile("c.txt", "c")

	// local headers are a, b, c; the central directory lists them as c, a, b.
	var buf bytes.Buffer
	offsets := map[string]uint32{}
	for _, f := range []testFile{a1, b1, c1} {
		offsets[f.name] = uint32(buf.Len())
		buf.Write(f.localHeader())
	}
	cdOffset := uint32(buf.Len())
	var cd []byte
	for _, f := range []testFile{c1, a1, b1} {
		cd = append(cd, f.cdHeader(offsets[f.name])...)
	}
	buf.Write(cd)
	buf.Write(eocdRecord(0, 0, 3, uint32(len(cd)), cdOffset, ""))
	archive := buf.Bytes()

	a, names := openAll(t, archive)
	assert.Equal(t, []string{"c.txt", "a.txt", "b.txt"}, names)

	tests := []struct {
		name string
		want Range
		data string
	}{
		{name: "a.txt", want: Range{Offset: offsets["a.txt"], Size: offsets["b.txt"] - offsets["a.txt"]}, data: "aaaa"},
		{name: "b.txt", want: Range{Offset: offsets["b.txt"], Size: offsets["c.txt"] - offsets["b.txt"]}, data: "bbbbbbbb"},
		{name: "c.txt", want: Range{Offset: offsets["c.txt"], Size: cdOffset - offsets["c.txt"]}, data: "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustRangeOf(t, a, tt.name)
			assert.Equal(t, tt.want, r)

			data, err := a.Extract(tt.name, slice(archive, r))
			assert.NoErrorf(t, err, "Extract(%s) error = %v", tt.name, err)
			assert.Equal(t, tt.data, string(data))
		})
	}

	assert.Equal(t, Stats{}, a.Stats())
}

func TestArchive_RangeOf_SharedOffset(t *testing.T) {
	f, g := storedFile("f.txt", "shared"), storedFile("g.txt", "next")
	lf := f.localHeader()
	cd := append(append(f.cdHeader(0), f.cdHeader(0)...), g.cdHeader(uint32(len(lf)))...)
	// the second central directory record points at the same local header under another name.
	copy(cd[cdfhLen+len(f.name)+cdfhLen:], "F.txt")

	archive := append(append([]byte{}, lf...), g.localHeader()...)
	cdOffset := uint32(len(archive))
	archive = append(archive, cd...)
	archive = append(archive, eocdRecord(0, 0, 3, uint32(len(cd)), cdOffset, "")...)

	a, names := openAll(t, archive)
	assert.Equal(t, []string{"f.txt", "F.txt", "g.txt"}, names)
	assert.Equal(t, Range{Offset: 0, Size: uint32(len(lf))}, mustRangeOf(t, a, "f.txt"))
	assert.Equal(t, Range{Offset: 0, Size: uint32(len(lf))}, mustRangeOf(t, a, "F.txt"))
}

func TestArchive_RangeOf_Fallback(t *testing.T) {
	var logs bytes.Buffer
	archive := buildArchive(storedFile("a.txt", "a"), storedFile("b.txt", "b"))
	a, _ := openAll(t, archive, func(opts *Options) { opts.Logger = log.New(&logs, "", 0) })

	// drop a.txt from the offset list to simulate an inconsistent index.
	idx := a.index()
	a.idx = &index{entries: idx.entries, byName: idx.byName, offsets: idx.offsets[1:]}

	r := mustRangeOf(t, a, "a.txt")
	assert.Equal(t, Range{Offset: 0, Size: a.EOCD().CDOffset}, r)
	assert.Equal(t, Stats{RangeFallbacks: 1}, a.Stats())
	assert.Contains(t, logs.String(), `offset 0 of "a.txt" not found in offset list`)

	// b.txt is still found normally.
	mustRangeOf(t, a, "b.txt")
	assert.Equal(t, Stats{RangeFallbacks: 1}, a.Stats())
}

func TestArchive_RangeOf_FromZipWriter(t *testing.T) {
	files := []zipFile{
		{name: "stored.txt", method: zip.Store, content: []byte("stored content")},
		{name: "deflated.txt", method: zip.Deflate, content: bytes.Repeat([]byte("deflate me "), 500)},
		{name: "empty.txt", method: zip.Deflate},
		{name: "last.bin", method: zip.Store, content: []byte{0, 1, 2, 3}},
	}
	archive := writeZip(t, "archive comment", files...)
	a, names := openAll(t, archive)
	assert.Len(t, names, len(files))

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	assert.NoErrorf(t, err, "zip.NewReader(...) error = %v", err)

	var end int64
	for i, f := range files {
		r := mustRangeOf(t, a, f.name)

		offset, err := zr.File[i].DataOffset()
		assert.NoErrorf(t, err, "DataOffset() error = %v", err)
		assert.Lessf(t, int64(r.Offset), offset, "range of %s must start before its data", f.name)
		assert.Equal(t, end, int64(r.Offset))
		end = r.End()

		data, err := a.Extract(f.name, slice(archive, r))
		assert.NoErrorf(t, err, "Extract(%s) error = %v", f.name, err)
		assert.Equal(t, len(f.content), len(data))
		assert.Truef(t, bytes.Equal(f.content, data), "Extract(%s) returned different content", f.name)
	}

	assert.Equal(t, int64(a.EOCD().CDOffset), end)
}
