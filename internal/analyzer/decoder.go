package analyzer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "go-face-palette/internal/errors"
	"go-face-palette/internal/logger"

	"github.com/sirupsen/logrus"
)

// defaultMaxPixels bounds the decoded image area
const defaultMaxPixels = 50_000_000

type imageDecoder struct {
	maxPixels int
}

// NewImageDecoder creates a decoder for base64 and raw encoded images
func NewImageDecoder() ImageDecoder {
	return &imageDecoder{maxPixels: defaultMaxPixels}
}

// Decode accepts base64 image data, optionally prefixed with a data URI
// header such as "data:image/jpeg;base64,"
func (d *imageDecoder) Decode(payload string) (*PixelBuffer, error) {
	body, mediaType := stripDataURI(strings.TrimSpace(payload))
	if body == "" {
		return nil, apperrors.NewDecodeError("Invalid image data: empty payload", nil)
	}

	data, err := decodeBase64(body)
	if err != nil {
		return nil, apperrors.NewDecodeError("Invalid image data: malformed base64", err)
	}

	buf, err := d.DecodeBytes(data)
	if err != nil {
		return nil, err
	}

	if mediaType != "" && !strings.HasSuffix(mediaType, "/"+buf.Format) {
		logger.WithFields(logrus.Fields{
			"declared": mediaType,
			"decoded":  buf.Format,
		}).Debug("Image format differs from data URI media type")
	}
	return buf, nil
}

// DecodeBytes decodes an already binary image payload
func (d *imageDecoder) DecodeBytes(data []byte) (*PixelBuffer, error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecodeError("Invalid image data: empty payload", nil)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("Invalid image data: unrecognized format", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperrors.NewDecodeError(
			fmt.Sprintf("Invalid image data: zero dimensions %dx%d", cfg.Width, cfg.Height), nil)
	}
	if cfg.Width*cfg.Height > d.maxPixels {
		return nil, apperrors.NewDecodeError(
			fmt.Sprintf("Invalid image data: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, d.maxPixels), nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("Invalid image data: decode failed", err)
	}
	if img.Bounds().Empty() {
		return nil, apperrors.NewDecodeError("Invalid image data: zero dimensions", nil)
	}

	buf := NewPixelBuffer(img)
	buf.Format = format
	return buf, nil
}

// stripDataURI removes a "data:<type>;base64," header and returns the
// remaining body together with the declared media type
func stripDataURI(payload string) (string, string) {
	if !strings.HasPrefix(payload, "data:") {
		return payload, ""
	}
	header, body, found := strings.Cut(payload, ",")
	if !found {
		return "", ""
	}
	mediaType := strings.TrimPrefix(header, "data:")
	mediaType, _, _ = strings.Cut(mediaType, ";")
	return body, mediaType
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, s)

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
