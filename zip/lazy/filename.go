package lazy

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// DecodeFileName converts the raw file name bytes of a ZIP header to a string.
//
// If isUTF8 is true (general purpose flag bit 11 is set), raw must be valid UTF-8. Otherwise, raw is decoded as
// Shift-JIS. Decoding never substitutes replacement characters: any invalid or unmapped sequence returns an error
// matching ErrFilenameConversion.
func DecodeFileName(raw []byte, isUTF8 bool) (string, error) {
	if isUTF8 {
		b, _, err := transform.Bytes(encoding.UTF8Validator, raw)
		if err != nil {
			return "", fmt.Errorf("%w: %w %q", ErrFilenameConversion, ErrInvalidUTF8, raw)
		}

		return string(b), nil
	}

	// user-defined characters (lead bytes 0xF0-0xF9) map to the Private Use Area the way Windows code page 932 maps
	// them. x/text does not know about them, so the runs in between are decoded separately.
	var sb strings.Builder
	start := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if !isShiftJISLead(c) {
			continue
		}

		if i+1 < len(raw) {
			if r, ok := shiftJISUserDefined(c, raw[i+1]); ok {
				if err := decodeShiftJIS(&sb, raw[start:i]); err != nil {
					return "", fmt.Errorf("%w: %w %q", ErrFilenameConversion, err, raw)
				}

				sb.WriteRune(r)
				start = i + 2
			}
		}

		i++
	}

	if err := decodeShiftJIS(&sb, raw[start:]); err != nil {
		return "", fmt.Errorf("%w: %w %q", ErrFilenameConversion, err, raw)
	}

	return sb.String(), nil
}

func isShiftJISLead(c byte) bool {
	return (0x81 <= c && c <= 0x9f) || (0xe0 <= c && c <= 0xfc)
}

// shiftJISUserDefined returns the Private Use Area rune (U+E000-U+E757) of a user-defined character.
func shiftJISUserDefined(lead, trail byte) (rune, bool) {
	if lead < 0xf0 || lead > 0xf9 || trail < 0x40 || trail == 0x7f || trail > 0xfc {
		return 0, false
	}

	off := 0x40
	if trail > 0x7f {
		off = 0x41
	}

	return 0xe000 + rune(int(lead-0xf0)*188+int(trail)-off), true
}

func decodeShiftJIS(sb *strings.Builder, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}

	// the x/text decoder writes utf8.RuneError in place of invalid sequences instead of failing, and no valid
	// Shift-JIS sequence maps to U+FFFD.
	b, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil || bytes.ContainsRune(b, utf8.RuneError) {
		return ErrInvalidShiftJIS
	}

	sb.Write(b)
	return nil
}
