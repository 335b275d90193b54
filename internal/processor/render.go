package processor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// overlay is one word replacement to paint: the box of the original word
// and the text that goes in its place.
type overlay struct {
	Box  image.Rectangle
	Text string
}

// renderOverlays paints each overlay over a copy of the image: the word's
// box is filled with a blanking color and the replacement text is drawn on
// top of it. The fill and text colors are picked from the box's average
// luminance so light text on dark panels stays light.
func renderOverlays(src image.Image, overlays []overlay) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	face := basicfont.Face7x13

	for _, o := range overlays {
		box := o.Box.Intersect(bounds)
		if box.Empty() {
			continue
		}

		fill, ink := contrastColors(src, box)
		draw.Draw(dst, box, &image.Uniform{fill}, image.Point{}, draw.Src)

		drawer := &font.Drawer{
			Dst:  dst,
			Src:  &image.Uniform{ink},
			Face: face,
			// Baseline sits a descender's height above the box bottom so
			// the glyphs land inside the blanked area.
			Dot: fixed.P(box.Min.X, box.Max.Y-face.Descent),
		}
		drawer.DrawString(o.Text)
	}

	return dst
}

// contrastColors picks the blanking fill and the text color for a word box
// from the box's average luminance: dark panels are blanked dark and get
// light text, everything else is blanked white with black text.
func contrastColors(img image.Image, box image.Rectangle) (fill, ink color.Color) {
	var total float64
	pixels := float64(box.Dx() * box.Dy())
	if pixels == 0 {
		return color.White, color.Black
	}

	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma on 8-bit channels
			total += 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}

	if total/pixels < 128 {
		return color.Black, color.White
	}
	return color.White, color.Black
}
