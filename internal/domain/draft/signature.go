package draft

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotImage is returned when a captured signature file is not an image
var ErrNotImage = errors.New("signature file is not an image")

// Signature is the requester's signature image, used as visual proof on the
// approval email and exported documents. A draft holds at most one.
type Signature struct {
	EncodedData string `json:"encoded_data"`
	MimeType    string `json:"mime_type"`
}

// CaptureSignature validates that data is an image and encodes it to base64.
// The declared content type, when present, must also be an image type.
func CaptureSignature(data []byte, declaredType string) (*Signature, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrNotImage)
	}
	if declaredType != "" && !strings.HasPrefix(declaredType, "image/") {
		return nil, fmt.Errorf("%w: declared type %s", ErrNotImage, declaredType)
	}

	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return nil, fmt.Errorf("%w: detected type %s", ErrNotImage, sniffed)
	}

	return &Signature{
		EncodedData: base64.StdEncoding.EncodeToString(data),
		MimeType:    sniffed,
	}, nil
}
