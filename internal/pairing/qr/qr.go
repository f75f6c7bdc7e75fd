// Package qr renders the scannable pairing URL as a PNG QR code.
package qr

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Encoder turns content into a PNG image.
type Encoder interface {
	Encode(content string) ([]byte, error)
}

// PNGEncoder encodes with skip2/go-qrcode at medium error correction.
type PNGEncoder struct {
	Size int
}

// NewPNGEncoder returns an encoder producing size x size images; size <= 0 means 300.
func NewPNGEncoder(size int) *PNGEncoder {
	if size <= 0 {
		size = 300
	}
	return &PNGEncoder{Size: size}
}

// Encode returns the PNG bytes of a QR code holding content.
func (e *PNGEncoder) Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr: empty content")
	}
	png, err := qrcode.Encode(content, qrcode.Medium, e.Size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	return png, nil
}

// PairURL fills the URL template (one %s) with code.
func PairURL(template, code string) string {
	return fmt.Sprintf(template, code)
}
