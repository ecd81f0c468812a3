package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// Encoding selects how raw source bytes are decoded.
type Encoding string

const (
	// EncodingAuto keeps valid UTF-8 and decodes anything else as
	// Windows-1252, the superset of Latin-1 that IMDb exports use.
	EncodingAuto   Encoding = "auto"
	EncodingLatin1 Encoding = "latin1"
	EncodingUTF8   Encoding = "utf-8"
)

// ParseEncoding validates a configured encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EncodingAuto, nil
	case "latin1", "latin-1", "iso-8859-1":
		return EncodingLatin1, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	default:
		return "", eris.Errorf("normalize: unsupported encoding %q", s)
	}
}

// Decode converts raw file bytes to UTF-8 according to enc.
func Decode(raw []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingLatin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		return out, eris.Wrap(err, "normalize: decode latin1")
	case EncodingUTF8:
		if !utf8.Valid(raw) {
			return nil, eris.New("normalize: invalid utf-8")
		}
		return raw, nil
	default:
		if utf8.Valid(raw) {
			return raw, nil
		}
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		return out, eris.Wrap(err, "normalize: decode windows-1252")
	}
}
