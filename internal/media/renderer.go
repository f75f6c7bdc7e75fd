// Package media renders meme, sticker and placeholder images for the bot.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Asset file names looked up in the assets directory.
const (
	MemeTemplate    = "meme-template.png"
	StickerTemplate = "sticker-template.png"
	AIPlaceholder   = "ai-generated-image.png"
)

const (
	memeTextX     = 20
	memeTopY      = 20
	memeBottomY   = 260
	memeTextWidth = 360
	stickerTextY  = 80
)

var (
	blankMeme    = image.Rect(0, 0, 400, 300)
	blankSticker = image.Rect(0, 0, 320, 160)
)

// ErrEmptyText is returned when there is nothing to draw.
var ErrEmptyText = errors.New("media: text must not be empty")

// Renderer produces PNG images for the media commands.
type Renderer interface {
	Meme(ctx context.Context, top, bottom string) ([]byte, error)
	Sticker(ctx context.Context, text string) ([]byte, error)
	AIImage(ctx context.Context, prompt string) ([]byte, error)
}

// ImageRenderer draws text with the basic bitmap font onto templates from AssetsDir.
// A missing template falls back to a blank canvas.
type ImageRenderer struct {
	AssetsDir string
	face      font.Face
}

// NewImageRenderer returns a renderer reading templates from assetsDir.
func NewImageRenderer(assetsDir string) *ImageRenderer {
	return &ImageRenderer{AssetsDir: assetsDir, face: basicfont.Face7x13}
}

// Meme draws top at (20,20) and bottom at (20,260), each clipped to 360px.
func (r *ImageRenderer) Meme(ctx context.Context, top, bottom string) ([]byte, error) {
	if top == "" && bottom == "" {
		return nil, ErrEmptyText
	}
	canvas, err := r.canvas(MemeTemplate, blankMeme, color.White)
	if err != nil {
		return nil, err
	}
	r.drawText(canvas, fit(r.face, top, memeTextWidth), memeTextX, memeTopY)
	r.drawText(canvas, fit(r.face, bottom, memeTextWidth), memeTextX, memeBottomY)
	return encode(ctx, canvas)
}

// Sticker draws text horizontally centered at y=80.
func (r *ImageRenderer) Sticker(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	canvas, err := r.canvas(StickerTemplate, blankSticker, color.Transparent)
	if err != nil {
		return nil, err
	}
	width := canvas.Bounds().Dx()
	text = fit(r.face, text, width)
	x := (width - font.MeasureString(r.face, text).Round()) / 2
	r.drawText(canvas, text, canvas.Bounds().Min.X+x, stickerTextY)
	return encode(ctx, canvas)
}

// AIImage returns the placeholder image. The prompt is accepted but not used.
func (r *ImageRenderer) AIImage(ctx context.Context, _ string) ([]byte, error) {
	if r.AssetsDir != "" {
		raw, err := os.ReadFile(r.assetPath(AIPlaceholder))
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("media: read placeholder: %w", err)
		}
	}
	canvas := blankCanvas(blankMeme, color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff})
	r.drawText(canvas, "AI generated image (demo)", memeTextX, blankMeme.Dy()/2)
	return encode(ctx, canvas)
}

func (r *ImageRenderer) assetPath(name string) string {
	return filepath.Join(r.AssetsDir, name)
}

func (r *ImageRenderer) canvas(name string, blank image.Rectangle, bg color.Color) (*image.RGBA, error) {
	if r.AssetsDir == "" {
		return blankCanvas(blank, bg), nil
	}
	f, err := os.Open(r.assetPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return blankCanvas(blank, bg), nil
	}
	if err != nil {
		return nil, fmt.Errorf("media: open template: %w", err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("media: decode %s: %w", name, err)
	}
	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)
	return canvas, nil
}

func blankCanvas(bounds image.Rectangle, bg color.Color) *image.RGBA {
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return canvas
}

// drawText writes text with its top-left corner at (x, y), black over a white shadow.
func (r *ImageRenderer) drawText(dst draw.Image, text string, x, y int) {
	if text == "" {
		return
	}
	baseline := y + r.face.Metrics().Ascent.Ceil()
	shadow := &font.Drawer{Dst: dst, Src: image.White, Face: r.face, Dot: fixed.P(x+1, baseline+1)}
	shadow.DrawString(text)
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: r.face, Dot: fixed.P(x, baseline)}
	d.DrawString(text)
}

// fit trims text until it is at most width pixels wide.
func fit(face font.Face, text string, width int) string {
	runes := []rune(text)
	for len(runes) > 0 && font.MeasureString(face, string(runes)).Round() > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

func encode(ctx context.Context, img image.Image) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("media: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
