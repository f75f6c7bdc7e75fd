package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"jagx-bot/internal/pairing/domain"
)

// fileRecord is the on-disk JSON shape: {code, expires (epoch ms), paired, userPhone}.
type fileRecord struct {
	Code      string `json:"code"`
	Expires   int64  `json:"expires"`
	Paired    bool   `json:"paired"`
	UserPhone string `json:"userPhone,omitempty"`
}

// FileRepository stores the pairing record as a JSON document and the QR as a PNG file.
// Both survive restarts. Writes go through a temp file and rename so a crash never leaves a torn record.
type FileRepository struct {
	recordPath string
	qrPath     string
}

// NewFileRepository returns a repository writing to recordPath and qrPath, creating their directories.
func NewFileRepository(recordPath, qrPath string) (*FileRepository, error) {
	for _, dir := range []string{filepath.Dir(recordPath), filepath.Dir(qrPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("pairing: create data dir: %w", err)
		}
	}
	return &FileRepository{recordPath: recordPath, qrPath: qrPath}, nil
}

// Load returns the current record, nil if the file does not exist, or ErrCorruptRecord if it cannot be decoded.
func (r *FileRepository) Load(ctx context.Context) (*domain.Record, error) {
	raw, err := os.ReadFile(r.recordPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var fr fileRecord
	if err := json.Unmarshal(raw, &fr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if fr.Code == "" {
		return nil, ErrCorruptRecord
	}
	return &domain.Record{
		Code:      fr.Code,
		ExpiresAt: time.UnixMilli(fr.Expires).UTC(),
		Paired:    fr.Paired,
		UserPhone: fr.UserPhone,
	}, nil
}

// Save writes the record as indented JSON.
func (r *FileRepository) Save(ctx context.Context, rec *domain.Record) error {
	if rec == nil {
		return errors.New("pairing: nil record")
	}
	raw, err := json.MarshalIndent(fileRecord{
		Code:      rec.Code,
		Expires:   rec.ExpiresAt.UnixMilli(),
		Paired:    rec.Paired,
		UserPhone: rec.UserPhone,
	}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(r.recordPath, raw)
}

// LoadQR returns the QR bytes or nil if the image has not been generated.
func (r *FileRepository) LoadQR(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(r.qrPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// SaveQR writes the QR image.
func (r *FileRepository) SaveQR(ctx context.Context, png []byte) error {
	return writeFileAtomic(r.qrPath, png)
}

// HasQR reports whether the QR image file exists.
func (r *FileRepository) HasQR(ctx context.Context) (bool, error) {
	_, err := os.Stat(r.qrPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
