package lazy

import (
	"archive/zip"
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name      string
		tail      []byte
		optFns    []func(*Options)
		want      EOCDRecord
		eocdRange Range
		cdRange   Range
	}{
		{
			name: "minimal",
			tail: eocdRecord(0, 0, 1, 46, 100, ""),
			want: EOCDRecord{
				CDCountOnDisk: 1,
				CDCount:       1,
				CDSize:        46,
				CDOffset:      100,
				Size:          22,
			},
			eocdRange: Range{Offset: 0, Size: 22},
			cdRange:   Range{Offset: 100, Size: 46},
		},
		{
			name: "with comment",
			tail: eocdRecord(0, 0, 1, 46, 100, "hello"),
			want: EOCDRecord{
				CDCountOnDisk: 1,
				CDCount:       1,
				CDSize:        46,
				CDOffset:      100,
				Comment:       "hello",
				Size:          27,
			},
			eocdRange: Range{Offset: 0, Size: 27},
			cdRange:   Range{Offset: 100, Size: 46},
		},
		{
			name: "leading bytes",
			tail: append(bytes.Repeat([]byte{0xaa}, 10), eocdRecord(0, 0, 2, 92, 3, "")...),
			want: EOCDRecord{
				CDCountOnDisk: 2,
				CDCount:       2,
				CDSize:        92,
				CDOffset:      3,
				Offset:        10,
				Size:          22,
			},
			eocdRange: Range{Offset: 10, Size: 22},
			cdRange:   Range{Offset: 3, Size: 92},
		},
		{
			name:   "tail offset",
			tail:   append(bytes.Repeat([]byte{0xaa}, 10), eocdRecord(0, 0, 1, 46, 1000, "")...),
			optFns: []func(*Options){func(opts *Options) { opts.TailOffset = 2000 }},
			want: EOCDRecord{
				CDCountOnDisk: 1,
				CDCount:       1,
				CDSize:        46,
				CDOffset:      1000,
				Offset:        2010,
				Size:          22,
			},
			eocdRange: Range{Offset: 2010, Size: 22},
			cdRange:   Range{Offset: 1000, Size: 46},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Open(tt.tail, tt.optFns...)
			if !assert.NoErrorf(t, err, "Open(...) error = %v", err) {
				return
			}

			assert.Equal(t, tt.want, a.EOCD())
			assert.Equal(t, tt.eocdRange, a.EOCDRange())
			assert.Equal(t, tt.cdRange, a.CDRange())
			assert.Equal(t, 0, a.Len())
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	// signature at index 0 followed by more than the maximum comment length.
	outOfWindow := append(eocdRecord(0, 0, 0, 0, 0, ""), make([]byte, maxCommentLen+1)...)

	// a declared comment length of 10 but only 3 bytes follow.
	truncated := append(eocdRecord(0, 0, 0, 0, 0, ""), 'a', 'b', 'c')
	truncated[20] = 10

	tests := []struct {
		name string
		tail []byte
		want error
	}{
		{name: "empty", tail: nil, want: ErrTooShort},
		{name: "21 bytes", tail: make([]byte, 21), want: ErrTooShort},
		{name: "no signature", tail: make([]byte, 1024), want: ErrSignatureNotFound},
		{name: "signature outside scan window", tail: outOfWindow, want: ErrSignatureNotFound},
		{name: "truncated comment", tail: truncated, want: ErrIO},
		{name: "disk number", tail: eocdRecord(1, 0, 1, 46, 100, ""), want: ErrSpannedUnsupported},
		{name: "central directory disk", tail: eocdRecord(0, 2, 1, 46, 100, ""), want: ErrSpannedUnsupported},
		{name: "zip64 disk number", tail: eocdRecord(0xffff, 0, 1, 46, 100, ""), want: ErrZip64Unsupported},
		{name: "zip64 central directory disk", tail: eocdRecord(0, 0xffff, 1, 46, 100, ""), want: ErrZip64Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Open(tt.tail)
			assert.ErrorIsf(t, err, tt.want, "Open(...) error = %v, want %v", err, tt.want)
			assert.Nil(t, a)
		})
	}
}

func TestOpen_MaxComment(t *testing.T) {
	comment := string(bytes.Repeat([]byte{'z'}, maxCommentLen))
	tail := append([]byte{1, 2, 3}, eocdRecord(0, 0, 0, 0, 3, comment)...)
	assert.Equal(t, MaxTailSize+3, len(tail))

	a, err := Open(tail)
	if assert.NoErrorf(t, err, "Open(...) error = %v", err) {
		assert.Equal(t, uint32(3), a.EOCD().Offset)
		assert.Equal(t, uint32(MaxTailSize), a.EOCD().Size)
	}
}

func TestOpen_WithComment(t *testing.T) {
	alphabet := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	tests := []struct {
		commentLength int
	}{
		{commentLength: 0},
		{commentLength: 8 * 1024},
		{commentLength: 32 * 1024},
		{commentLength: maxCommentLen},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			comment := make([]byte, tt.commentLength)
			for i := range comment {
				comment[i] = alphabet[rand.IntN(len(alphabet))]
			}

			archive := writeZip(t, string(comment),
				zipFile{name: "a.txt", method: zip.Store, content: []byte("hello, world!")},
				zipFile{name: "b.txt", method: zip.Deflate, content: bytes.Repeat([]byte("b"), 1000)})

			// only hand over the tail the way a ranged fetch would.
			start := max(0, len(archive)-MaxTailSize)
			a, err := Open(archive[start:], func(opts *Options) { opts.TailOffset = uint32(start) })
			if !assert.NoErrorf(t, err, "Open(...) error = %v", err) {
				return
			}

			r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
			assert.NoErrorf(t, err, "zip.NewReader(...) error = %v", err)

			eocd := a.EOCD()
			assert.Equal(t, uint16(2), eocd.CDCount)
			assert.Equal(t, string(comment), eocd.Comment)
			assert.Equal(t, r.Comment, eocd.Comment)
			assert.Equal(t, uint32(len(archive)), eocd.Offset+eocd.Size)
			assert.Equal(t, int64(eocd.Offset), a.CDRange().End())
		})
	}
}
