package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// ReaderAtFetcher implements Fetcher over an io.ReaderAt of known size such as a local file.
type ReaderAtFetcher struct {
	r    io.ReaderAt
	size int64
}

// NewReaderAt returns a Fetcher that reads from r, which has the given size.
func NewReaderAt(r io.ReaderAt, size int64) *ReaderAtFetcher {
	return &ReaderAtFetcher{r: r, size: size}
}

// Bytes returns a Fetcher over an in-memory archive.
func Bytes(b []byte) *ReaderAtFetcher {
	return &ReaderAtFetcher{r: bytes.NewReader(b), size: int64(len(b))}
}

// File is a ReaderAtFetcher that owns its file.
type File struct {
	*ReaderAtFetcher
	f *os.File
}

// OpenFile opens the named file for ranged reads. Caller is responsible for closing the File.
func OpenFile(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat file error: %w", err)
	}

	return &File{ReaderAtFetcher: NewReaderAt(f, fi.Size()), f: f}, nil
}

func (f *File) Close() error {
	return f.f.Close()
}

// Size returns the size given to NewReaderAt.
func (f *ReaderAtFetcher) Size() int64 {
	return f.size
}

func (f *ReaderAtFetcher) FetchRange(ctx context.Context, off, n int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if off < 0 || n < 0 || off+n > f.size {
		return nil, fmt.Errorf("%w: range [%d, %d) outside of size %d", ErrShortRead, off, off+n, f.size)
	}

	b := make([]byte, n)
	if _, err := f.r.ReadAt(b, off); err != nil && !(err == io.EOF && off+n == f.size) {
		return nil, fmt.Errorf("read at %d error: %w", off, err)
	}

	return b, nil
}

func (f *ReaderAtFetcher) FetchTail(ctx context.Context, n int64) ([]byte, int64, error) {
	off := max(0, f.size-n)
	b, err := f.FetchRange(ctx, off, f.size-off)
	return b, off, err
}
