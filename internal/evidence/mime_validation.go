package evidence

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches the amount of content mimetype inspects by default.
const sniffLen = 3072

type mimeGroup string

const (
	mimeGroupDocuments mimeGroup = "documents"
	mimeGroupImages    mimeGroup = "images"
	mimeGroupVideos    mimeGroup = "videos"
	mimeGroupAudio     mimeGroup = "audio"
	mimeGroupText      mimeGroup = "plain text"
)

var mimeGroupOrder = []mimeGroup{
	mimeGroupDocuments,
	mimeGroupImages,
	mimeGroupVideos,
	mimeGroupAudio,
	mimeGroupText,
}

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupDocuments: {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
	mimeGroupImages: {"image/jpeg", "image/png", "image/gif"},
	mimeGroupVideos: {"video/mp4"},
	mimeGroupAudio:  {"audio/mpeg"},
	mimeGroupText:   {"text/plain"},
}

var allowedMimeDescription = buildMimeDescription()

// Inspection is what the service learns from an uploaded file's content.
type Inspection struct {
	MimeType    string
	Size        int64
	ContentHash string
}

// Inspect sniffs the media type from content, enforces the allow list and the
// size limit, and hashes the full stream.
func Inspect(r io.Reader, maxBytes int64) (Inspection, error) {
	if r == nil {
		return Inspection{}, pkgerrors.New(pkgerrors.CodeValidation, "evidence file is required")
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Inspection{}, pkgerrors.Wrap(pkgerrors.CodeHashingFailed, err, "read evidence content")
	}
	header = header[:n]
	if n == 0 {
		return Inspection{}, pkgerrors.New(pkgerrors.CodeValidation, "evidence file is empty")
	}

	mediaType, ok := allowedMime(mimetype.Detect(header))
	if !ok {
		return Inspection{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file type not allowed; upload %s", allowedMimeDescription))
	}

	remaining := maxBytes + 1 - int64(n)
	if remaining < 0 {
		remaining = 0
	}
	counter := &countingReader{r: io.MultiReader(bytes.NewReader(header), io.LimitReader(r, remaining))}
	digest, err := Hash(counter)
	if err != nil {
		return Inspection{}, err
	}
	if counter.n > maxBytes {
		return Inspection{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("evidence file exceeds %d bytes", maxBytes))
	}

	return Inspection{MimeType: mediaType, Size: counter.n, ContentHash: digest}, nil
}

// AllowedMimeTypes lists every accepted media type.
func AllowedMimeTypes() []string {
	out := make([]string, 0, 9)
	for _, group := range mimeGroupOrder {
		out = append(out, mimeGroupTypes[group]...)
	}
	return out
}

// IsAllowedMime reports whether a declared media type is on the allow list.
// Parameters such as charset are ignored.
func IsAllowedMime(value string) bool {
	mediaType, err := baseMediaType(value)
	if err != nil {
		return false
	}
	for _, allowed := range AllowedMimeTypes() {
		if allowed == mediaType {
			return true
		}
	}
	return false
}

func allowedMime(detected *mimetype.MIME) (string, bool) {
	if detected == nil {
		return "", false
	}
	for _, allowed := range AllowedMimeTypes() {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}

func baseMediaType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

func buildMimeDescription() string {
	names := make([]string, 0, len(mimeGroupOrder))
	for _, group := range mimeGroupOrder {
		names = append(names, string(group))
	}
	return humanReadableList(names)
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
