package csvfile

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectAndDecode sniffs the file's encoding, strips any byte order mark, and
// returns UTF-8 bytes plus the detected encoding name. Supplier exports come
// in UTF-8 (with or without BOM), UTF-16 from spreadsheet tools, and Latin-1
// from older ERP systems; anything that is not valid UTF-8 and carries no BOM
// is read as Latin-1, which cannot fail since every byte value is defined.
func DetectAndDecode(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return data, "utf-8", nil
	}

	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom", nil
	case bytes.HasPrefix(data, bomUTF16LE):
		decoded, err := decodeAll(data, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		if err != nil {
			return nil, "", fmt.Errorf("decode utf-16le: %w", err)
		}
		return decoded, "utf-16le", nil
	case bytes.HasPrefix(data, bomUTF16BE):
		decoded, err := decodeAll(data, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
		if err != nil {
			return nil, "", fmt.Errorf("decode utf-16be: %w", err)
		}
		return decoded, "utf-16be", nil
	}

	if utf8.Valid(data) {
		return data, "utf-8", nil
	}

	decoded, err := decodeAll(data, charmap.ISO8859_1.NewDecoder())
	if err != nil {
		return nil, "", fmt.Errorf("decode latin-1: %w", err)
	}
	return decoded, "latin-1", nil
}

func decodeAll(data []byte, t transform.Transformer) ([]byte, error) {
	return io.ReadAll(transform.NewReader(bytes.NewReader(data), t))
}
