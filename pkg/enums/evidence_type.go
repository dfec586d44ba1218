package enums

import (
	"fmt"
	"strings"
)

// EvidenceType classifies submitted evidence.
type EvidenceType string

const (
	EvidenceTypeDocument EvidenceType = "Document"
	EvidenceTypeImage    EvidenceType = "Image"
	EvidenceTypeVideo    EvidenceType = "Video"
	EvidenceTypeAudio    EvidenceType = "Audio"
	EvidenceTypeText     EvidenceType = "Text"
)

var validEvidenceTypes = []EvidenceType{
	EvidenceTypeDocument,
	EvidenceTypeImage,
	EvidenceTypeVideo,
	EvidenceTypeAudio,
	EvidenceTypeText,
}

// String implements fmt.Stringer.
func (e EvidenceType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EvidenceType.
func (e EvidenceType) IsValid() bool {
	for _, candidate := range validEvidenceTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// EvidenceTypeForMime infers the evidence type from a media type.
func EvidenceTypeForMime(mediaType string) EvidenceType {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return EvidenceTypeImage
	case strings.HasPrefix(mediaType, "video/"):
		return EvidenceTypeVideo
	case strings.HasPrefix(mediaType, "audio/"):
		return EvidenceTypeAudio
	case mediaType == "text/plain":
		return EvidenceTypeText
	default:
		return EvidenceTypeDocument
	}
}

// ParseEvidenceType converts raw input into an EvidenceType.
func ParseEvidenceType(value string) (EvidenceType, error) {
	for _, candidate := range validEvidenceTypes {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid evidence type %q", value)
}
