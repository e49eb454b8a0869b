package lazy

import (
	"bytes"
	"fmt"
)

// ParseCentralDirectory parses exactly EOCDRecord.CDCount file headers from cd and returns their names in central
// directory order.
//
// cd should be the bytes at CDRange. Any error aborts the whole parse and leaves the previously parsed index, if any,
// unchanged. On success, the index is replaced so that calling ParseCentralDirectory twice with the same bytes is a
// no-op.
func (a *Archive) ParseCentralDirectory(cd []byte) ([]string, error) {
	var (
		r       = bytes.NewReader(cd)
		n       = int(a.eocd.CDCount)
		entries = make([]Entry, 0, n)
		names   = make([]string, 0, n)
		b       [cdfhLen]byte
	)

	for i := range n {
		if err := readFixed(r, b[:], "read central directory file header"); err != nil {
			return nil, fmt.Errorf("parse central directory: file header %d/%d: %w", i+1, n, err)
		}

		e, err := unmarshalCDFileHeader(b, r.Read)
		if err != nil {
			return nil, fmt.Errorf("parse central directory: file header %d/%d: %w", i+1, n, err)
		}

		entries = append(entries, e)
		names = append(names, e.Name)
	}

	idx := newIndex(entries)

	a.mu.Lock()
	a.idx = idx
	a.mu.Unlock()

	return names, nil
}
