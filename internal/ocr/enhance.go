package ocr

import (
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	"image/png"
	"os"

	"github.com/rotisserie/eris"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// Adaptive threshold window and offset.
const (
	enhanceBlock  = 11
	enhanceOffset = 5
)

// Enhance converts img to grayscale and applies an inverted adaptive mean
// threshold: a pixel darker than its local mean minus enhanceOffset becomes
// white, everything else black.
func Enhance(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			gray.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}

	// integral[(y+1)*(w+1)+(x+1)] is the sum of gray over [0,x]x[0,y].
	stride := w + 1
	integral := make([]int64, stride*(h+1))
	for y := range h {
		var row int64
		for x := range w {
			row += int64(gray.Pix[y*gray.Stride+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + row
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	r := enhanceBlock / 2
	for y := range h {
		y0, y1 := max(y-r, 0), min(y+r+1, h)
		for x := range w {
			x0, x1 := max(x-r, 0), min(x+r+1, w)
			sum := integral[y1*stride+x1] - integral[y0*stride+x1] - integral[y1*stride+x0] + integral[y0*stride+x0]
			mean := float64(sum) / float64((x1-x0)*(y1-y0))
			if float64(gray.Pix[y*gray.Stride+x]) <= mean-enhanceOffset {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// enhanceFile decodes the image at path, enhances it and writes the result
// to a temporary PNG whose path is returned. The caller removes it.
func enhanceFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: open image %s", path)
	}
	img, _, err := image.Decode(f)
	f.Close() //nolint:errcheck
	if err != nil {
		return "", eris.Wrapf(err, "ocr: decode image %s", path)
	}

	tmp, err := os.CreateTemp("", "rfq-enhanced-*.png")
	if err != nil {
		return "", eris.Wrap(err, "ocr: create enhanced image")
	}
	if err := png.Encode(tmp, Enhance(img)); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", eris.Wrap(err, "ocr: encode enhanced image")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", eris.Wrap(err, "ocr: write enhanced image")
	}
	return tmp.Name(), nil
}
