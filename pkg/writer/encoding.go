package writer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/fluxo/csv-writer/pkg/errs"
)

// lookupEncoding maps an encoding name to its codec. Short names such as
// utf8, utf16le and latin1 are accepted next to any WHATWG label.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		name = defaultEncoding
	}

	normalized := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	switch normalized {
	case "utf8":
		return unicode.UTF8, nil
	case "utf16le", "ucs2":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case "latin1", "binary", "iso88591":
		return charmap.ISO8859_1, nil
	case "ascii", "usascii":
		// htmlindex resolves these labels to windows-1252
		return asciiEncoding{charmap.Windows1252}, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errs.Configuration("encoding", "unsupported encoding %q", name)
	}
	return enc, nil
}

// encodeText converts text into bytes of the given encoding. Text that the
// encoding cannot represent is rejected rather than substituted.
func encodeText(enc encoding.Encoding, name string, text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, errs.Configuration("encoding", "record text is not valid UTF-8")
	}
	if _, ok := enc.(asciiEncoding); ok {
		for i := 0; i < len(text); i++ {
			if text[i] >= utf8.RuneSelf {
				r, _ := utf8.DecodeRuneInString(text[i:])
				return nil, errs.Configuration("encoding", "cannot represent %q in %s", r, name)
			}
		}
	}
	data, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, errs.Configuration("encoding", "cannot represent records in %s: %v", name, err)
	}
	return data, nil
}

// asciiEncoding restricts its codec to 7-bit text
type asciiEncoding struct {
	encoding.Encoding
}
