package preview

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const captionSize = 14

// drawCaption writes text in the top-left corner over a dark strip.
func drawCaption(img *image.RGBA, text string) error {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: captionSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return fmt.Errorf("new face: %w", err)
	}
	defer func() { _ = face.Close() }()

	m := face.Metrics()
	lineH := (m.Ascent + m.Descent).Ceil()
	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	width := d.MeasureString(text).Ceil()

	strip := image.Rect(0, 0, min(img.Bounds().Dx(), width+12), lineH+8)
	draw.Draw(img, strip, image.Black, image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{X: fixed.I(6), Y: fixed.I(4) + m.Ascent}
	d.DrawString(text)
	return nil
}
