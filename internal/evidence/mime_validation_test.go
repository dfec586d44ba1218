package evidence

import (
	"bytes"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
)

var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00,
}

func TestInspectAcceptsAllowedContent(t *testing.T) {
	large := strings.Repeat("contract clause ", 400)
	cases := []struct {
		name    string
		content []byte
		want    string
	}{
		{"png", pngHeader, "image/png"},
		{"pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"), "application/pdf"},
		{"text", []byte("Invoice 42 was paid late."), "text/plain"},
		{"text past sniff window", []byte(large), "text/plain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Inspect(bytes.NewReader(tc.content), 1<<20)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MimeType != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.MimeType)
			}
			if got.Size != int64(len(tc.content)) {
				t.Fatalf("expected size %d, got %d", len(tc.content), got.Size)
			}
			digest, _ := Hash(bytes.NewReader(tc.content))
			if got.ContentHash != digest {
				t.Fatalf("hash mismatch: %s vs %s", got.ContentHash, digest)
			}
		})
	}
}

func TestInspectRejects(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
		max     int64
	}{
		{"empty", nil, 1024},
		{"binary", []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff}, 1024},
		{"zip archive", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), 1024},
		{"too large", []byte(strings.Repeat("a", 100)), 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Inspect(bytes.NewReader(tc.content), tc.max)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestInspectUnreadable(t *testing.T) {
	if _, err := Inspect(failingReader{}, 1024); !pkgerrors.IsCode(err, pkgerrors.CodeHashingFailed) {
		t.Fatalf("expected hashing failure, got %v", err)
	}
}

func TestIsAllowedMime(t *testing.T) {
	if !IsAllowedMime("text/plain; charset=utf-8") {
		t.Fatalf("expected text/plain with charset to be allowed")
	}
	if !IsAllowedMime("Application/PDF") {
		t.Fatalf("expected case-insensitive match")
	}
	if IsAllowedMime("application/zip") || IsAllowedMime("") {
		t.Fatalf("expected zip and empty to be refused")
	}
	if len(AllowedMimeTypes()) != 9 {
		t.Fatalf("expected nine allowed types, got %d", len(AllowedMimeTypes()))
	}
}
