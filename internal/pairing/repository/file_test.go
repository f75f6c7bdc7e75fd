package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jagx-bot/internal/pairing/domain"
)

func newTestRepo(t *testing.T) (*FileRepository, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	repo, err := NewFileRepository(filepath.Join(dir, "auto-pair.json"), filepath.Join(dir, "auto-pair-qr.png"))
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	return repo, dir
}

func TestFileRepository_LoadMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	rec, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec != nil {
		t.Errorf("Load = %+v, want nil", rec)
	}
}

func TestFileRepository_SaveAndLoad(t *testing.T) {
	repo, dir := newTestRepo(t)
	ctx := context.Background()
	exp := time.UnixMilli(1_700_086_400_000).UTC()

	want := &domain.Record{Code: "JagX4821", ExpiresAt: exp, Paired: true, UserPhone: "+1555"}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "auto-pair.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("record file is not JSON: %v", err)
	}
	if doc["code"] != "JagX4821" || doc["paired"] != true || doc["userPhone"] != "+1555" {
		t.Errorf("unexpected document: %v", doc)
	}
	if doc["expires"] != float64(1_700_086_400_000) {
		t.Errorf("expires = %v, want epoch ms", doc["expires"])
	}
}

func TestFileRepository_UnpairedOmitsPhone(t *testing.T) {
	repo, dir := newTestRepo(t)
	if err := repo.Save(context.Background(), &domain.Record{Code: "JagX1234", ExpiresAt: time.Now()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, "auto-pair.json"))
	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)
	if _, ok := doc["userPhone"]; ok {
		t.Error("userPhone should be omitted before verification")
	}
}

func TestFileRepository_Corrupt(t *testing.T) {
	repo, dir := newTestRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "auto-pair.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := repo.Load(context.Background())
	if !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("Load err = %v, want ErrCorruptRecord", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "auto-pair.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = repo.Load(context.Background())
	if !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("Load of empty object err = %v, want ErrCorruptRecord", err)
	}
}

func TestFileRepository_QR(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	has, err := repo.HasQR(ctx)
	if err != nil || has {
		t.Fatalf("HasQR = %v, %v; want false, nil", has, err)
	}
	b, err := repo.LoadQR(ctx)
	if err != nil || b != nil {
		t.Fatalf("LoadQR = %v, %v; want nil, nil", b, err)
	}

	png := []byte{0x89, 'P', 'N', 'G'}
	if err := repo.SaveQR(ctx, png); err != nil {
		t.Fatalf("SaveQR: %v", err)
	}
	has, err = repo.HasQR(ctx)
	if err != nil || !has {
		t.Fatalf("HasQR = %v, %v; want true, nil", has, err)
	}
	b, err = repo.LoadQR(ctx)
	if err != nil {
		t.Fatalf("LoadQR: %v", err)
	}
	if string(b) != string(png) {
		t.Errorf("LoadQR = %v, want %v", b, png)
	}
}

func TestFileRepository_NoTempFilesLeft(t *testing.T) {
	repo, dir := newTestRepo(t)
	for i := 0; i < 3; i++ {
		if err := repo.Save(context.Background(), &domain.Record{Code: "JagX1234", ExpiresAt: time.Now()}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("data dir has %d entries, want only auto-pair.json", len(entries))
	}
}
