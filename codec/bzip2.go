package codec

import (
	"io"

	"github.com/dsnet/compress/bzip2"
)

// Bzip2Codec implements Codec for method 12.
type Bzip2Codec struct{}

var _ Codec = Bzip2Codec{}

func (c Bzip2Codec) Method() uint16 {
	return Bzip2
}

func (c Bzip2Codec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	r, err := bzip2.NewReader(src, nil)
	if err != nil {
		return nil, err
	}

	return r, nil
}
