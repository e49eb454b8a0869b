// Package codec provides decompressors for ZIP compression methods beyond Store and Deflate.
package codec

import (
	"archive/zip"
	"io"

	"github.com/katutoshi/zip-partial-loader/zip/lazy"
)

// Compression methods from APPNOTE.TXT section 4.4.5.
const (
	Bzip2 uint16 = 12
	Zstd  uint16 = 93
	Xz    uint16 = 95
)

// Codec has methods to create decompressor/decoder for a single ZIP compression method.
type Codec interface {
	// Method returns the ZIP compression method handled by this codec.
	Method() uint16
	// NewDecoder creates a decoder to decompress contents from the given io.Reader.
	NewDecoder(src io.Reader) (io.ReadCloser, error)
}

// Extended returns all codecs in this package.
func Extended() []Codec {
	return []Codec{Bzip2Codec{}, ZstdCodec{}, XzCodec{}}
}

// WithExtendedMethods registers bzip2, zstd, and xz with lazy.Options.Decompressors.
func WithExtendedMethods() func(*lazy.Options) {
	return WithCodecs(Extended()...)
}

// WithCodecs registers the given codecs with lazy.Options.Decompressors, replacing existing ones for the same
// methods.
func WithCodecs(codecs ...Codec) func(*lazy.Options) {
	return func(opts *lazy.Options) {
		if opts.Decompressors == nil {
			opts.Decompressors = make(map[uint16]zip.Decompressor, len(codecs))
		}

		for _, c := range codecs {
			opts.Decompressors[c.Method()] = Decompressor(c)
		}
	}
}

// Decompressor adapts the Codec to zip.Decompressor.
//
// zip.Decompressor cannot return an error, so an error from Codec.NewDecoder is returned by the first Read instead.
func Decompressor(c Codec) zip.Decompressor {
	return func(r io.Reader) io.ReadCloser {
		rc, err := c.NewDecoder(r)
		if err != nil {
			return errReadCloser{err}
		}

		return rc
	}
}

type errReadCloser struct {
	err error
}

func (e errReadCloser) Read([]byte) (int, error) {
	return 0, e.err
}

func (e errReadCloser) Close() error {
	return nil
}
