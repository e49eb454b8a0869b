package lazy

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testFile describes an entry for the hand-made archives used in tests.
//
// data is written as-is after the local file header, so it must already be compressed according to method.
type testFile struct {
	name    string
	rawName []byte
	flags   uint16
	method  uint16
	data    []byte
	crc     uint32
	usize   uint32

	// cdCRC overrides the central directory CRC-32 if non-zero.
	cdCRC uint32
}

func storedFile(name, content string) testFile {
	return testFile{
		name:   name,
		flags:  flagUTF8,
		method: zip.Store,
		data:   []byte(content),
		crc:    crc32.ChecksumIEEE([]byte(content)),
		usize:  uint32(len(content)),
	}
}

func (f testFile) nameBytes() []byte {
	if f.rawName != nil {
		return f.rawName
	}

	return []byte(f.name)
}

// localHeader returns the local file header followed by data, then the data descriptor if flag bit 3 is set.
func (f testFile) localHeader() []byte {
	crc, csize, usize := f.crc, uint32(len(f.data)), f.usize
	if f.flags&flagDataDescriptor != 0 {
		crc, csize, usize = 0, 0, 0
	}

	b := binary.LittleEndian.AppendUint32(nil, lfhSig)
	b = binary.LittleEndian.AppendUint16(b, 20)
	b = binary.LittleEndian.AppendUint16(b, f.flags)
	b = binary.LittleEndian.AppendUint16(b, f.method)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, 0x21)
	b = binary.LittleEndian.AppendUint32(b, crc)
	b = binary.LittleEndian.AppendUint32(b, csize)
	b = binary.LittleEndian.AppendUint32(b, usize)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(f.nameBytes())))
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = append(b, f.nameBytes()...)
	b = append(b, f.data...)

	if f.flags&flagDataDescriptor != 0 {
		b = binary.LittleEndian.AppendUint32(b, 0x08074b50)
		b = binary.LittleEndian.AppendUint32(b, f.crc)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(f.data)))
		b = binary.LittleEndian.AppendUint32(b, f.usize)
	}

	return b
}

func (f testFile) cdHeader(offset uint32) []byte {
	crc := f.crc
	if f.cdCRC != 0 {
		crc = f.cdCRC
	}

	b := binary.LittleEndian.AppendUint32(nil, cdfhSig)
	b = binary.LittleEndian.AppendUint16(b, 20)
	b = binary.LittleEndian.AppendUint16(b, 20)
	b = binary.LittleEndian.AppendUint16(b, f.flags)
	b = binary.LittleEndian.AppendUint16(b, f.method)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, 0x21)
	b = binary.LittleEndian.AppendUint32(b, crc)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(f.data)))
	b = binary.LittleEndian.AppendUint32(b, f.usize)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(f.nameBytes())))
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint32(b, offset)
	b = append(b, f.nameBytes()...)
	return b
}

func eocdRecord(diskNumber, cdDisk, count uint16, cdSize, cdOffset uint32, comment string) []byte {
	b := binary.LittleEndian.AppendUint32(nil, eocdSig)
	b = binary.LittleEndian.AppendUint16(b, diskNumber)
	b = binary.LittleEndian.AppendUint16(b, cdDisk)
	b = binary.LittleEndian.AppendUint16(b, count)
	b = binary.LittleEndian.AppendUint16(b, count)
	b = binary.LittleEndian.AppendUint32(b, cdSize)
	b = binary.LittleEndian.AppendUint32(b, cdOffset)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(comment)))
	b = append(b, comment...)
	return b
}

// buildArchive lays out the local file headers back to back followed by the central directory in the same order and
// the EOCD record.
func buildArchive(files ...testFile) []byte {
	var (
		buf     bytes.Buffer
		cd      bytes.Buffer
		offsets = make([]uint32, len(files))
	)

	for i, f := range files {
		offsets[i] = uint32(buf.Len())
		buf.Write(f.localHeader())
	}

	cdOffset := uint32(buf.Len())
	for i, f := range files {
		cd.Write(f.cdHeader(offsets[i]))
	}

	buf.Write(cd.Bytes())
	buf.Write(eocdRecord(0, 0, uint16(len(files)), uint32(cd.Len()), cdOffset, ""))
	return buf.Bytes()
}

// zipFile is a file written with archive/zip.
type zipFile struct {
	name    string
	method  uint16
	content []byte
}

// writeZip uses archive/zip, which always writes data descriptors for regular files.
func writeZip(t *testing.T, comment string, files ...zipFile) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.name, Method: f.method})
		assert.NoErrorf(t, err, "CreateHeader(%s) error = %v", f.name, err)
		_, err = io.Copy(fw, bytes.NewReader(f.content))
		assert.NoErrorf(t, err, "Write(%s) error = %v", f.name, err)
	}

	if comment != "" {
		assert.NoError(t, w.SetComment(comment))
	}
	assert.NoError(t, w.Close())

	return buf.Bytes()
}

// openAll opens the whole archive and parses its central directory.
func openAll(t *testing.T, archive []byte, optFns ...func(*Options)) (*Archive, []string) {
	t.Helper()

	a, err := Open(archive, optFns...)
	if !assert.NoErrorf(t, err, "Open(...) error = %v", err) {
		t.FailNow()
	}

	cdr := a.CDRange()
	names, err := a.ParseCentralDirectory(archive[cdr.Offset:cdr.End()])
	if !assert.NoErrorf(t, err, "ParseCentralDirectory(...) error = %v", err) {
		t.FailNow()
	}

	return a, names
}

// slice returns the bytes at r.
func slice(archive []byte, r Range) []byte {
	return archive[r.Offset:r.End()]
}
