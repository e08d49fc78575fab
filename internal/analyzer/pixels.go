package analyzer

import (
	"image"
	"image/draw"
)

// PixelBuffer is a decoded image in RGB channel order, 3 bytes per pixel,
// row-major. It is not modified after decoding.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
	// Format is the codec name reported by image.Decode ("png", "jpeg", ...)
	Format string
}

// RegionPixelSet holds the RGB samples that fall inside one facial region
type RegionPixelSet [][3]uint8

// NewPixelBuffer converts any image into an RGB pixel buffer. Palette,
// greyscale and alpha images are flattened to three channels; alpha is dropped.
func NewPixelBuffer(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}

	pix := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		out := pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			out[x*3] = row[x*4]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+2]
		}
	}

	return &PixelBuffer{Width: w, Height: h, Pix: pix}
}

// At returns the RGB sample at (x, y)
func (b *PixelBuffer) At(x, y int) [3]uint8 {
	i := (y*b.Width + x) * 3
	return [3]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2]}
}

// Image returns an opaque NRGBA copy for encoders and detectors
func (b *PixelBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+3, j+4 {
		img.Pix[j] = b.Pix[i]
		img.Pix[j+1] = b.Pix[i+1]
		img.Pix[j+2] = b.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
