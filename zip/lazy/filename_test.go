package lazy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeFileName(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		isUTF8 bool
		want   string
		err    error
	}{
		{name: "ascii as utf-8", raw: []byte("dir/a.txt"), isUTF8: true, want: "dir/a.txt"},
		{name: "ascii as shift-jis", raw: []byte("dir/a.txt"), want: "dir/a.txt"},
		{name: "utf-8", raw: []byte("日本語.txt"), isUTF8: true, want: "日本語.txt"},
		{name: "shift-jis hiragana", raw: []byte{0x82, 0xa0}, want: "あ"},
		{name: "shift-jis kanji", raw: []byte{0x93, 0xfa, 0x96, 0x7b, '.', 't', 'x', 't'}, want: "日本.txt"},
		{name: "shift-jis halfwidth katakana", raw: []byte{0xb1}, want: "ｱ"},
		{name: "shift-jis first user-defined", raw: []byte{0xf0, 0x40}, want: "\ue000"},
		{name: "shift-jis last user-defined", raw: []byte{0xf9, 0xfc}, want: "\ue757"},
		{name: "shift-jis user-defined after 0x7f", raw: []byte{0xf0, 0x80}, want: "\ue03f"},
		{name: "shift-jis kanji and user-defined", raw: []byte{0x93, 0xfa, 0xf0, 0x41, 0x96, 0x7b, '.', 't', 'x', 't'}, want: "日\ue001本.txt"},
		{name: "empty", raw: []byte{}, want: ""},
		{name: "invalid utf-8", raw: []byte{'a', 0xff, 'b'}, isUTF8: true, err: ErrInvalidUTF8},
		{name: "truncated utf-8", raw: []byte{0xe6, 0x97}, isUTF8: true, err: ErrInvalidUTF8},
		{name: "invalid shift-jis", raw: []byte{0xff}, err: ErrInvalidShiftJIS},
		{name: "invalid user-defined trail byte", raw: []byte{0xf0, 0x20}, err: ErrInvalidShiftJIS},
		{name: "invalid after user-defined", raw: []byte{0xf0, 0x40, 0xff}, err: ErrInvalidShiftJIS},
		{name: "truncated user-defined", raw: []byte{'a', 0xf0}, err: ErrInvalidShiftJIS},
		{name: "truncated shift-jis", raw: []byte{'a', 0x82}, err: ErrInvalidShiftJIS},
		{name: "shift-jis bytes flagged utf-8", raw: []byte{0x82, 0xa0}, isUTF8: true, err: ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFileName(tt.raw, tt.isUTF8)
			if tt.err != nil {
				assert.ErrorIsf(t, err, tt.err, "DecodeFileName(%q) error = %v, want %v", tt.raw, err, tt.err)
				assert.ErrorIsf(t, err, ErrFilenameConversion, "DecodeFileName(%q) error = %v, want %v", tt.raw, err, ErrFilenameConversion)
				return
			}

			assert.NoErrorf(t, err, "DecodeFileName(%q) error = %v", tt.raw, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
