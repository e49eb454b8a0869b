package lazy

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
)

// maxPrealloc caps how much Extract trusts the declared uncompressed size when allocating its output buffer.
const maxPrealloc = 64 << 20

// Extract validates and decompresses the named entry from data, which must be the bytes at RangeOf(name).
//
// The local file header is cross-validated against the central directory on name, CRC-32, encryption flag, and both
// sizes; if general purpose flag bit 3 is set, the CRC-32 and sizes are read from the last 12 bytes of data instead of
// the local file header. Any disagreement returns a MismatchError.
//
// Store (0) and Deflate (8) are always supported. Other methods need Options.Decompressors, otherwise an
// UnsupportedMethodError is returned.
func (a *Archive) Extract(name string, data []byte) ([]byte, error) {
	e, ok := a.index().lookup(name)
	if !ok {
		return nil, fmt.Errorf("extract %q: %w", name, ErrNotFound)
	}

	out, err := a.extract(e, data)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", name, err)
	}

	return out, nil
}

func (a *Archive) extract(e *Entry, data []byte) ([]byte, error) {
	var (
		r = bytes.NewReader(data)
		b [lfhLen]byte
	)

	if err := readFixed(r, b[:], "read local file header"); err != nil {
		return nil, err
	}

	fh, err := unmarshalLocalFileHeader(b, r.Read)
	if err != nil {
		return nil, err
	}

	if fh.Flags&flagDataDescriptor != 0 {
		if len(data) < fh.dataOffset+dataDescriptorLen {
			return nil, &IOError{
				Op:  fmt.Sprintf("read data descriptor: need at least %d bytes, got %d", fh.dataOffset+dataDescriptorLen, len(data)),
				Err: io.ErrUnexpectedEOF,
			}
		}

		dd := data[len(data)-dataDescriptorLen:]
		fh.CRC32 = binary.LittleEndian.Uint32(dd[0:4])
		fh.CompressedSize = binary.LittleEndian.Uint32(dd[4:8])
		fh.UncompressedSize = binary.LittleEndian.Uint32(dd[8:12])
	}

	if err = crossValidate(e, &fh); err != nil {
		return nil, err
	}

	if e.IsEncrypted {
		return nil, ErrEncrypted
	}

	end := fh.dataOffset + int(fh.CompressedSize)
	if end > len(data) {
		return nil, &IOError{
			Op:  fmt.Sprintf("read compressed data: need %d bytes, got %d", end, len(data)),
			Err: io.ErrUnexpectedEOF,
		}
	}

	out, err := a.decompress(fh.Method, data[fh.dataOffset:end], fh.UncompressedSize)
	if err != nil {
		return nil, err
	}

	if a.opts.VerifyChecksum {
		if n := uint64(len(out)); n != e.UncompressedSize64 {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrChecksum, e.UncompressedSize64, n)
		}
		if sum := crc32.ChecksumIEEE(out); sum != e.CRC32 {
			return nil, fmt.Errorf("%w: expected CRC-32 0x%08x, got 0x%08x", ErrChecksum, e.CRC32, sum)
		}
	}

	return out, nil
}

// crossValidate collects every mismatch after the local file header has been amended by its data descriptor.
func crossValidate(e *Entry, fh *localFileHeader) error {
	var mismatches []Mismatch
	if fh.Name != e.Name {
		mismatches = append(mismatches, Mismatch{Field: "name", CD: e.Name, Local: fh.Name})
	}
	if fh.CRC32 != e.CRC32 {
		mismatches = append(mismatches, Mismatch{Field: "crc32", CD: e.CRC32, Local: fh.CRC32})
	}
	if encrypted := fh.Flags&flagEncrypted != 0; encrypted != e.IsEncrypted {
		mismatches = append(mismatches, Mismatch{Field: "encrypted", CD: e.IsEncrypted, Local: encrypted})
	}
	if fh.CompressedSize != e.CompressedSize {
		mismatches = append(mismatches, Mismatch{Field: "compressed size", CD: e.CompressedSize, Local: fh.CompressedSize})
	}
	if fh.UncompressedSize != e.UncompressedSize {
		mismatches = append(mismatches, Mismatch{Field: "uncompressed size", CD: e.UncompressedSize, Local: fh.UncompressedSize})
	}

	if len(mismatches) != 0 {
		return &MismatchError{Name: e.Name, Mismatches: mismatches}
	}

	return nil
}

func (a *Archive) decompress(method uint16, compressed []byte, size uint32) ([]byte, error) {
	var rc io.ReadCloser
	switch method {
	case zip.Store:
		return bytes.Clone(compressed), nil
	case zip.Deflate:
		rc = flate.NewReader(bytes.NewReader(compressed))
	default:
		fn, ok := a.opts.Decompressors[method]
		if !ok || fn == nil {
			return nil, &UnsupportedMethodError{Method: method}
		}

		rc = fn(bytes.NewReader(compressed))
	}
	defer rc.Close()

	buf := bytes.NewBuffer(make([]byte, 0, min(int(size), maxPrealloc)))
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, &IOError{Op: fmt.Sprintf("decompress method %d", method), Err: err}
	}

	return buf.Bytes(), nil
}
