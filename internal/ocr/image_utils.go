package ocr

import (
	"image"
	"image/color"
)

// cropNRGBA returns the bounding box of all pixels with non-zero alpha,
// matching the original's scanline crop: subtitle bitmaps are placed on an
// oversized transparent canvas, and OCR accuracy improves sharply once the
// surrounding transparent margin is removed.
func cropNRGBA(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	x1, y1, x2, y2 := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	found := false
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			found = true
			if x < x1 {
				x1 = x
			}
			if x > x2 {
				x2 = x
			}
			if y < y1 {
				y1 = y
			}
			if y > y2 {
				y2 = y
			}
		}
	}
	if !found {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	out := image.NewNRGBA(image.Rect(0, 0, x2+1-x1, y2+1-y1))
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			out.SetNRGBA(x-x1, y-y1, img.NRGBAAt(x, y))
		}
	}
	return out
}

// processNRGBA converts a cropped bitmap to single-channel grayscale text
// on a white background: fully transparent pixels become white, everything
// else becomes its inverted luma. This is the exact rule the original
// applies to both its RGBA (VobSub) and gray+alpha (PGS) bitmap sources,
// generalized here to one NRGBA pixel format for both decoders.
func processNRGBA(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := img.NRGBAAt(x, y)
			if px.A == 0 {
				out.SetGray(x, y, color.Gray{Y: 255})
				continue
			}
			luma := luminance(px.R, px.G, px.B)
			out.SetGray(x, y, color.Gray{Y: 255 - luma})
		}
	}
	return out
}

func luminance(r, g, b uint8) uint8 {
	// ITU-R BT.601 luma weights, matching image.Color.ToGray's coefficients
	// closely enough for thresholding OCR input.
	v := (299*int(r) + 587*int(g) + 114*int(b)) / 1000
	if v > 255 {
		v = 255
	}
	return uint8(v)
}
