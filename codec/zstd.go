package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdCodec implements Codec for method 93.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

func (c ZstdCodec) Method() uint16 {
	return Zstd
}

func (c ZstdCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}

	return &zstdDecoder{dec}, nil
}

type zstdDecoder struct {
	*zstd.Decoder
}

func (d *zstdDecoder) Close() error {
	d.Decoder.Close()
	return nil
}
