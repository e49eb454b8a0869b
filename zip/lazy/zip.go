package lazy

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	lfhSig  = 0x04034b50
	cdfhSig = 0x02014b50
	eocdSig = 0x06054b50

	lfhLen  = 30
	cdfhLen = 46
	eocdLen = 22

	// dataDescriptorLen is the CRC-32, compressed size and uncompressed size at the very end of the entry.
	// the optional 0x08074b50 signature precedes them, so they are always the last 12 bytes.
	dataDescriptorLen = 12

	maxCommentLen = 0xffff
)

const (
	flagEncrypted      = 1 << 0
	flagDataDescriptor = 1 << 3
	flagUTF8           = 1 << 11
)

var (
	lfhSigBytes  = putUint32(lfhSig)
	cdfhSigBytes = putUint32(cdfhSig)
	eocdSigBytes = putUint32(eocdSig)
)

func putUint32(v uint32) (b []byte) {
	b = make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Entry is a parsed central directory file header.
//
// The deprecated 32-bit size fields of the embedded zip.FileHeader are populated along with their 64-bit
// counterparts since ZIP64 is never supported.
type Entry struct {
	zip.FileHeader

	DiskNumberStart   uint16
	InternalAttrs     uint16
	LocalHeaderOffset uint32

	// RawName is the file name exactly as stored.
	RawName []byte
	// IsUTF8 is general purpose flag bit 11; if false, RawName was decoded as Shift-JIS.
	IsUTF8 bool
	// IsEncrypted is general purpose flag bit 0.
	IsEncrypted bool
}

// HasDataDescriptor returns true if general purpose flag bit 3 is set.
func (e *Entry) HasDataDescriptor() bool {
	return e.Flags&flagDataDescriptor != 0
}

// IsDir returns true if the entry names a directory.
func (e *Entry) IsDir() bool {
	return len(e.Name) != 0 && e.Name[len(e.Name)-1] == '/'
}

// unmarshalCDFileHeader decodes the 46-byte slice as an Entry.
// read will always be called to retrieve the variable-size part of the header. if there is no variable-size part, read
// will be passed an empty slice.
func unmarshalCDFileHeader(b [cdfhLen]byte, read func(b []byte) (int, error)) (e Entry, err error) {
	data := &struct {
		Signature         uint32
		CreatorVersion    uint16
		ReaderVersion     uint16
		Flags             uint16
		Method            uint16
		ModifiedTime      uint16
		ModifiedDate      uint16
		CRC32             uint32
		CompressedSize    uint32
		UncompressedSize  uint32
		FileNameLength    uint16
		ExtraFieldLength  uint16
		FileCommentLength uint16
		DiskNumber        uint16
		InternalAttrs     uint16
		ExternalAttrs     uint32
		Offset            uint32
	}{}

	if !bytes.Equal(cdfhSigBytes, b[:4]) {
		return e, fmt.Errorf("%w: got 0x%x, expected 0x%x", ErrInvalidSignature, b[:4], cdfhSigBytes)
	}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return e, &IOError{Op: "unmarshal central directory file header", Err: err}
	}

	e = Entry{
		FileHeader: zip.FileHeader{
			CreatorVersion:     data.CreatorVersion,
			ReaderVersion:      data.ReaderVersion,
			Flags:              data.Flags,
			Method:             data.Method,
			ModifiedTime:       data.ModifiedTime,
			ModifiedDate:       data.ModifiedDate,
			CRC32:              data.CRC32,
			CompressedSize:     data.CompressedSize,
			UncompressedSize:   data.UncompressedSize,
			CompressedSize64:   uint64(data.CompressedSize),
			UncompressedSize64: uint64(data.UncompressedSize),
			ExternalAttrs:      data.ExternalAttrs,
		},
		DiskNumberStart:   data.DiskNumber,
		InternalAttrs:     data.InternalAttrs,
		LocalHeaderOffset: data.Offset,
		IsUTF8:            data.Flags&flagUTF8 != 0,
		IsEncrypted:       data.Flags&flagEncrypted != 0,
	}
	e.Modified = msDosTimeToTime(e.ModifiedDate, e.ModifiedTime)
	e.NonUTF8 = !e.IsUTF8

	n, m, k := int(data.FileNameLength), int(data.ExtraFieldLength), int(data.FileCommentLength)
	nmk := make([]byte, n+m+k)
	if err = readVariable(read, nmk, "read central directory file name, extra field and comment"); err != nil {
		return e, err
	}

	e.RawName, e.Extra, e.Comment = nmk[:n], nmk[n:n+m], string(nmk[n+m:])
	if e.Name, err = DecodeFileName(e.RawName, e.IsUTF8); err != nil {
		return e, err
	}

	return e, nil
}

// localFileHeader contains the local file header fields that are cross-validated against the central directory.
type localFileHeader struct {
	Flags            uint16
	Method           uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Name             string

	// dataOffset is where the compressed data starts, relative to the local file header's signature.
	dataOffset int
}

// unmarshalLocalFileHeader decodes the 30-byte slice as a localFileHeader.
// read will always be called to retrieve the variable-size part of the header. the extra field is read but not kept.
func unmarshalLocalFileHeader(b [lfhLen]byte, read func(b []byte) (int, error)) (fh localFileHeader, err error) {
	data := &struct {
		Signature        uint32
		ReaderVersion    uint16
		Flags            uint16
		Method           uint16
		ModifiedTime     uint16
		ModifiedDate     uint16
		CRC32            uint32
		CompressedSize   uint32
		UncompressedSize uint32
		FileNameLength   uint16
		ExtraFieldLength uint16
	}{}

	if !bytes.Equal(lfhSigBytes, b[:4]) {
		return fh, fmt.Errorf("%w: mismatched signature, got 0x%x, expected 0x%x", ErrUnmatchHeader, b[:4], lfhSigBytes)
	}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return fh, &IOError{Op: "unmarshal local file header", Err: err}
	}

	fh = localFileHeader{
		Flags:            data.Flags,
		Method:           data.Method,
		CRC32:            data.CRC32,
		CompressedSize:   data.CompressedSize,
		UncompressedSize: data.UncompressedSize,
	}

	n, m := int(data.FileNameLength), int(data.ExtraFieldLength)
	nm := make([]byte, n+m)
	if err = readVariable(read, nm, "read local file name and extra field"); err != nil {
		return fh, err
	}

	fh.dataOffset = lfhLen + n + m
	if fh.Name, err = DecodeFileName(nm[:n], data.Flags&flagUTF8 != 0); err != nil {
		return fh, err
	}

	return fh, nil
}

// readFixed is io.ReadFull that reports a short read, including an empty one, as an IOError.
func readFixed(r io.Reader, b []byte, op string) error {
	if _, err := io.ReadFull(r, b); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return &IOError{Op: op, Err: err}
	}

	return nil
}

func readVariable(read func(b []byte) (int, error), b []byte, op string) error {
	switch readN, err := read(b); {
	case err != nil && !errors.Is(err, io.EOF):
		return &IOError{Op: op, Err: err}
	case readN < len(b):
		return &IOError{Op: op, Err: fmt.Errorf("insufficient read: expected %d bytes, got %d: %w", len(b), readN, io.ErrUnexpectedEOF)}
	default:
		return nil
	}
}

// msDosTimeToTime converts an MS-DOS date and time into a time.Time.
// The resolution is 2s.
// See: https://learn.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-dosdatetimetofiletime
//
// taken from https://go.dev/src/archive/zip/struct.go.
func msDosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		// date bits 0-4: day of month; 5-8: month; 9-15: years since 1980
		int(dosDate>>9+1980),
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),

		// time bits 0-4: second/2; 5-10: minute; 11-15: hour
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f*2),
		0, // nanoseconds

		time.UTC,
	)
}
