package csvfile

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCommaSeparated(t *testing.T) {
	data := []byte("sku,name,price,stock\nA1,Widget,9.99,10\nB2,Gadget,4.50,3\n")

	rs, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rs.Headers) != 4 || rs.Headers[0] != "sku" {
		t.Fatalf("headers = %v", rs.Headers)
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rs.Rows))
	}
	if rs.Rows[0]["name"] != "Widget" || rs.Rows[1]["price"] != "4.50" {
		t.Fatalf("rows = %v", rs.Rows)
	}
}

func TestParseSniffsSemicolonDelimiter(t *testing.T) {
	data := []byte("sku;name;price;stock\nA1;Widget;9,99;10\n")

	rs, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rs.Headers) != 4 {
		t.Fatalf("headers = %v, want 4 columns", rs.Headers)
	}
	if rs.Rows[0]["price"] != "9,99" {
		t.Fatalf("price = %q", rs.Rows[0]["price"])
	}
}

func TestParseSniffsTabDelimiter(t *testing.T) {
	data := []byte("sku\tname\nA1\tWidget\n")

	rs, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rs.Rows[0]["name"] != "Widget" {
		t.Fatalf("rows = %v", rs.Rows)
	}
}

func TestParseStripsUTF8BOMFromHeader(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("sku,name\nA1,Widget\n")...)

	rs, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rs.Headers[0] != "sku" {
		t.Fatalf("header = %q, want bare sku", rs.Headers[0])
	}
	if rs.Rows[0]["sku"] != "A1" {
		t.Fatalf("rows = %v", rs.Rows)
	}
}

func TestParseDecodesUTF16LE(t *testing.T) {
	text := "sku,name\nA1,Widget\n"
	data := []byte{0xFF, 0xFE}
	for _, r := range text {
		data = append(data, byte(r), 0x00)
	}

	rs, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rs.Rows[0]["name"] != "Widget" {
		t.Fatalf("rows = %v", rs.Rows)
	}
}

func TestParseDecodesLatin1(t *testing.T) {
	data := []byte("sku,name\nA1,Caf\xe9\n")

	rs, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rs.Rows[0]["name"] != "Café" {
		t.Fatalf("name = %q, want Café", rs.Rows[0]["name"])
	}
}

func TestParsePadsAndTruncatesRaggedRows(t *testing.T) {
	data := []byte("sku,name,price\nA1,Widget\nB2,Gadget,4.50,extra\n")

	rs, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rs.Rows[0]["price"] != "" {
		t.Fatalf("short row price = %q, want empty pad", rs.Rows[0]["price"])
	}
	if _, ok := rs.Rows[1]["extra"]; ok {
		t.Fatal("long row must be truncated to the header width")
	}
	if rs.Rows[1]["price"] != "4.50" {
		t.Fatalf("long row price = %q", rs.Rows[1]["price"])
	}
}

func TestParseEmptyFile(t *testing.T) {
	if _, err := Parse(nil, 0); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if _, err := Parse([]byte(""), 0); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile for empty bytes, got %v", err)
	}
}

func TestParseEnforcesRowLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("sku,name\n")
	for i := 0; i < 5; i++ {
		sb.WriteString("A,W\n")
	}

	if _, err := Parse([]byte(sb.String()), 4); !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
	if _, err := Parse([]byte(sb.String()), 5); err != nil {
		t.Fatalf("limit equal to row count must pass, got %v", err)
	}
}

func TestDetectAndDecodeNames(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"plain utf-8", []byte("abc"), "utf-8"},
		{"utf-8 bom", []byte{0xEF, 0xBB, 0xBF, 'a'}, "utf-8-bom"},
		{"utf-16le", []byte{0xFF, 0xFE, 'a', 0x00}, "utf-16le"},
		{"utf-16be", []byte{0xFE, 0xFF, 0x00, 'a'}, "utf-16be"},
		{"latin-1 fallback", []byte{'a', 0xe9}, "latin-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, enc, err := DetectAndDecode(tc.data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if enc != tc.want {
				t.Fatalf("encoding = %q, want %q", enc, tc.want)
			}
			if len(decoded) == 0 {
				t.Fatal("decoded output is empty")
			}
		})
	}
}
