package repository

import (
	"context"
	"errors"

	"jagx-bot/internal/pairing/domain"
)

// ErrCorruptRecord is returned by Load when a record file exists but cannot be decoded.
var ErrCorruptRecord = errors.New("pairing record is corrupt")

// Repository defines persistence for the single pairing slot and its QR image.
type Repository interface {
	// Load returns the current record, or nil if none has been issued.
	Load(ctx context.Context) (*domain.Record, error)
	// Save overwrites the current record.
	Save(ctx context.Context, r *domain.Record) error
	// LoadQR returns the QR image bytes, or nil if not generated yet.
	LoadQR(ctx context.Context) ([]byte, error)
	// SaveQR overwrites the QR image.
	SaveQR(ctx context.Context, png []byte) error
	// HasQR reports whether a QR image exists.
	HasQR(ctx context.Context) (bool, error)
}
