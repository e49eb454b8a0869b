package lazy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// MaxTailSize is the number of trailing bytes that is guaranteed to contain the EOCD record: the fixed 22 bytes plus
// the longest possible comment.
//
// Fetch this many bytes from the end of the archive (or the whole archive if it is smaller) and pass them to Open.
const MaxTailSize = eocdLen + maxCommentLen

// EOCDRecord models the end of central directory record of a ZIP file.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type EOCDRecord struct {
	// DiskNumber is number of this disk (or 0xffff for ZIP64).
	DiskNumber uint16
	// CDDisk is disk where central directory starts (or 0xffff for ZIP64).
	CDDisk uint16
	// CDCountOnDisk is the number of central directory records on this disk.
	CDCountOnDisk uint16
	// CDCount is the total number of central directory records.
	CDCount uint16
	// CDSize is size of central directory in bytes.
	CDSize uint32
	// CDOffset is offset of start of central directory, relative to start of archive.
	CDOffset uint32
	// Comment is the comment section of the EOCD.
	Comment string

	// Offset is where the EOCD signature was found, i.e. Options.TailOffset plus the index into the buffer.
	Offset uint32
	// Size is 22 plus the comment length.
	Size uint32
}

// findEOCD searches the given tail backwards for the EOCD record.
//
// Only the last 22+65535 candidate positions are considered, so a tail that ends with an unrelated 64 KiB of data
// will not be searched further.
func findEOCD(tail []byte, tailOffset uint32) (r EOCDRecord, err error) {
	if len(tail) < eocdLen {
		return r, fmt.Errorf("%w: need at least %d bytes, got %d", ErrTooShort, eocdLen, len(tail))
	}

	last := len(tail) - eocdLen
	lowest := max(0, last-maxCommentLen)
	i := bytes.LastIndex(tail[lowest:last+len(eocdSigBytes)], eocdSigBytes)
	if i == -1 {
		return r, ErrSignatureNotFound
	}
	i += lowest

	if uint64(tailOffset)+uint64(i) > math.MaxUint32 {
		return r, fmt.Errorf("%w: EOCD offset %d exceeds 32 bits", ErrZip64Unsupported, uint64(tailOffset)+uint64(i))
	}

	if r, err = unmarshalEOCDRecord(([eocdLen]byte)(tail[i:i+eocdLen]), bytes.NewReader(tail[i+eocdLen:]).Read); err != nil {
		return r, err
	}

	r.Offset = tailOffset + uint32(i)
	r.Size = eocdLen + uint32(len(r.Comment))
	return r, nil
}

// unmarshalEOCDRecord decodes the 22-byte slice as a EOCDRecord.
// read will always be called to retrieve the variable-size part of the header. if there is no variable-size part, read
// will be passed an empty slice.
func unmarshalEOCDRecord(b [eocdLen]byte, read func(b []byte) (int, error)) (r EOCDRecord, err error) {
	data := &struct {
		Signature     uint32
		DiskNumber    uint16
		CDDisk        uint16
		CDCountOnDisk uint16
		CDCount       uint16
		CDSize        uint32
		CDOffset      uint32
		CommentLength uint16
	}{}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return r, &IOError{Op: "unmarshal EOCD record", Err: err}
	}

	r = EOCDRecord{
		DiskNumber:    data.DiskNumber,
		CDDisk:        data.CDDisk,
		CDCountOnDisk: data.CDCountOnDisk,
		CDCount:       data.CDCount,
		CDSize:        data.CDSize,
		CDOffset:      data.CDOffset,
	}

	comment := make([]byte, data.CommentLength)
	if err = readVariable(read, comment, "read EOCD comment"); err != nil {
		return r, err
	}
	r.Comment = string(comment)

	return r, nil
}

// validate rejects the multi-disk and ZIP64 archives.
func (r *EOCDRecord) validate() error {
	switch {
	case r.DiskNumber == 0xffff || r.CDDisk == 0xffff:
		return fmt.Errorf("%w: disk number %d, central directory disk %d", ErrZip64Unsupported, r.DiskNumber, r.CDDisk)
	case r.DiskNumber != 0 || r.CDDisk != 0:
		return fmt.Errorf("%w: disk number %d, central directory disk %d", ErrSpannedUnsupported, r.DiskNumber, r.CDDisk)
	default:
		return nil
	}
}
