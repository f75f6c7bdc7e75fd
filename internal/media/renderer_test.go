package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePNG(t *testing.T, raw []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func hasDarkPixel(img image.Image, rect image.Rectangle) bool {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a > 0x8000 && r < 0x4000 && g < 0x4000 && b < 0x4000 {
				return true
			}
		}
	}
	return false
}

func writeTemplate(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImageRenderer_MemeBlankCanvas(t *testing.T) {
	r := NewImageRenderer(t.TempDir())
	raw, err := r.Meme(context.Background(), "Top", "Bottom")
	require.NoError(t, err)

	img := decodePNG(t, raw)
	assert.Equal(t, blankMeme, img.Bounds())
	assert.True(t, hasDarkPixel(img, image.Rect(memeTextX, memeTopY, memeTextX+60, memeTopY+14)), "top text drawn")
	assert.True(t, hasDarkPixel(img, image.Rect(memeTextX, memeBottomY, memeTextX+60, memeBottomY+14)), "bottom text drawn")
	assert.False(t, hasDarkPixel(img, image.Rect(0, 100, 400, 200)), "middle left blank")
}

func TestImageRenderer_MemeUsesTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, MemeTemplate, 500, 400)
	r := NewImageRenderer(dir)

	raw, err := r.Meme(context.Background(), "Top", "")
	require.NoError(t, err)
	img := decodePNG(t, raw)
	assert.Equal(t, image.Rect(0, 0, 500, 400), img.Bounds())
	assert.False(t, hasDarkPixel(img, image.Rect(memeTextX, memeBottomY, 400, memeBottomY+14)), "empty bottom not drawn")
}

func TestImageRenderer_MemeEmpty(t *testing.T) {
	r := NewImageRenderer("")
	_, err := r.Meme(context.Background(), "", "")
	assert.True(t, errors.Is(err, ErrEmptyText))
}

func TestImageRenderer_StickerCentered(t *testing.T) {
	r := NewImageRenderer("")
	raw, err := r.Sticker(context.Background(), "hi")
	require.NoError(t, err)

	img := decodePNG(t, raw)
	assert.Equal(t, blankSticker, img.Bounds())
	mid := blankSticker.Dx() / 2
	assert.True(t, hasDarkPixel(img, image.Rect(mid-10, stickerTextY, mid+10, stickerTextY+14)), "text near center")
	assert.False(t, hasDarkPixel(img, image.Rect(0, stickerTextY, 40, stickerTextY+14)), "left edge blank")

	_, err = r.Sticker(context.Background(), "")
	assert.True(t, errors.Is(err, ErrEmptyText))
}

func TestImageRenderer_BadTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StickerTemplate), []byte("not an image"), 0o600))
	r := NewImageRenderer(dir)
	_, err := r.Sticker(context.Background(), "x")
	assert.Error(t, err)
}

func TestImageRenderer_AIImage(t *testing.T) {
	r := NewImageRenderer(t.TempDir())
	raw, err := r.AIImage(context.Background(), "a cat")
	require.NoError(t, err)
	img := decodePNG(t, raw)
	r0, g0, b0, _ := img.At(0, 0).RGBA()
	want := color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}
	wr, wg, wb, _ := want.RGBA()
	assert.Equal(t, []uint32{wr, wg, wb}, []uint32{r0, g0, b0})

	dir := t.TempDir()
	placeholder := []byte("\x89PNG\r\n\x1a\nplaceholder")
	require.NoError(t, os.WriteFile(filepath.Join(dir, AIPlaceholder), placeholder, 0o600))
	raw, err = NewImageRenderer(dir).AIImage(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, placeholder, raw)
}

func TestImageRenderer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewImageRenderer("").Meme(ctx, "a", "b")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFit(t *testing.T) {
	r := NewImageRenderer("")
	long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	got := fit(r.face, long, 70)
	assert.Equal(t, 10, len(got), "7px glyphs fit 10 per 70px")
	assert.Equal(t, "short", fit(r.face, "short", 360))
}
