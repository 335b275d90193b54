package processor

import (
	"image"
	"image/color"
	"testing"
)

func uniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderOverlays_BlanksWordBox(t *testing.T) {
	src := uniformImage(60, 30, color.RGBA{R: 200, G: 50, B: 50, A: 255})
	out := renderOverlays(src, []overlay{
		{Box: image.Rect(5, 5, 55, 20), Text: "hi"},
	})

	// Inside the box the original color is gone.
	r, g, b, _ := out.At(30, 12).RGBA()
	if r>>8 == 200 && g>>8 == 50 && b>>8 == 50 {
		t.Error("word box was not repainted")
	}

	// Outside the box the image is untouched.
	r, g, b, _ = out.At(58, 28).RGBA()
	if r>>8 != 200 || g>>8 != 50 || b>>8 != 50 {
		t.Error("pixels outside the word box changed")
	}
}

func TestRenderOverlays_DoesNotMutateSource(t *testing.T) {
	src := uniformImage(40, 20, color.White)
	renderOverlays(src, []overlay{{Box: image.Rect(0, 0, 40, 20), Text: "x"}})

	r, g, b, _ := src.At(10, 10).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Error("source image was mutated")
	}
}

func TestRenderOverlays_BoxOutsideBounds(t *testing.T) {
	src := uniformImage(20, 20, color.White)
	out := renderOverlays(src, []overlay{
		{Box: image.Rect(100, 100, 140, 120), Text: "offscreen"},
	})
	if out.Bounds() != src.Bounds() {
		t.Errorf("unexpected output bounds %v", out.Bounds())
	}
}

func TestContrastColors(t *testing.T) {
	dark := uniformImage(10, 10, color.Black)
	fill, ink := contrastColors(dark, dark.Bounds())
	if fill != color.Black || ink != color.White {
		t.Error("expected light text on a dark panel")
	}

	light := uniformImage(10, 10, color.White)
	fill, ink = contrastColors(light, light.Bounds())
	if fill != color.White || ink != color.Black {
		t.Error("expected dark text on a light panel")
	}
}
