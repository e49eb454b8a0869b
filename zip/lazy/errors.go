package lazy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTooShort is returned by Open if the buffer is shorter than the fixed part of the EOCD record.
	ErrTooShort = errors.New("buffer too short to contain EOCD record")
	// ErrSignatureNotFound is returned by Open if no EOCD signature exists within the scan window.
	ErrSignatureNotFound = errors.New("EOCD signature not found")
	// ErrSpannedUnsupported is returned by Open if the archive spans multiple disks.
	ErrSpannedUnsupported = errors.New("multi-disk archives are not supported")
	// ErrZip64Unsupported is returned by Open if the EOCD record carries ZIP64 markers.
	ErrZip64Unsupported = errors.New("ZIP64 archives are not supported")

	// ErrIO is matched by every IOError, i.e. reads past the end of a buffer.
	ErrIO = errors.New("i/o error")

	// ErrInvalidSignature is returned by Archive.ParseCentralDirectory if a central directory file header does not
	// start with the expected signature.
	ErrInvalidSignature = errors.New("invalid central directory file header signature")

	// ErrFilenameConversion is returned if a file name cannot be decoded losslessly.
	ErrFilenameConversion = errors.New("file name conversion error")
	// ErrInvalidUTF8 accompanies ErrFilenameConversion for names flagged as UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
	// ErrInvalidShiftJIS accompanies ErrFilenameConversion for names not flagged as UTF-8.
	ErrInvalidShiftJIS = errors.New("invalid Shift-JIS")

	// ErrNotFound is returned if there is no entry with the requested name.
	ErrNotFound = errors.New("entry not found")
	// ErrUnmatchHeader is returned by Archive.Extract if the local file header is missing or disagrees with the
	// central directory. See MismatchError for details on the disagreement.
	ErrUnmatchHeader = errors.New("local file header does not match central directory")
	// ErrEncrypted is returned by Archive.Extract for encrypted entries.
	ErrEncrypted = errors.New("entry is encrypted")
	// ErrUnsupportedCompressionMethod is matched by every UnsupportedMethodError.
	ErrUnsupportedCompressionMethod = errors.New("unsupported compression method")

	// ErrChecksum is returned by Archive.Extract only if Options.VerifyChecksum is enabled.
	ErrChecksum = errors.New("checksum mismatch")
)

// IOError is returned when a fixed or length-prefixed field would be read past the end of its buffer.
type IOError struct {
	// Op describes what was being read.
	Op string
	// Err is usually io.ErrUnexpectedEOF.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// UnsupportedMethodError is returned by Archive.Extract for compression methods that have no decompressor.
type UnsupportedMethodError struct {
	Method uint16
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported compression method %d", e.Method)
}

func (e *UnsupportedMethodError) Is(target error) bool {
	return target == ErrUnsupportedCompressionMethod
}

// Mismatch is one field that differs between the central directory and the local file header.
type Mismatch struct {
	Field string
	// CD is the value from the central directory.
	CD any
	// Local is the value from the local file header (or its data descriptor).
	Local any
}

// MismatchError carries every field that failed cross-validation in Archive.Extract.
//
// MismatchError matches ErrUnmatchHeader with errors.Is.
type MismatchError struct {
	Name       string
	Mismatches []Mismatch
}

func (e *MismatchError) Error() string {
	parts := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		parts[i] = fmt.Sprintf("%s (central directory %v, local %v)", m.Field, m.CD, m.Local)
	}

	return fmt.Sprintf("%v: %s", ErrUnmatchHeader, strings.Join(parts, ", "))
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrUnmatchHeader
}
