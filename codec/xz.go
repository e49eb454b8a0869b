package codec

import (
	"io"

	"github.com/ulikunitz/xz"
)

// XzCodec implements Codec for method 95.
type XzCodec struct {
}

var _ Codec = XzCodec{}

func (c XzCodec) Method() uint16 {
	return Xz
}

func (c XzCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	r, err := xz.NewReader(src)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(r), nil
}
