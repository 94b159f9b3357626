package classify

import (
	"bytes"
	"image"
	"image/color"

	// register codecs for benchmark sample formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// decodeGray decodes image bytes into a grayscale raster.
func decodeGray(data []byte) (*image.Gray, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray, nil
}

// laplacianVariance measures edge response: the variance of the absolute
// 4-neighbor Laplacian over the interior pixels. Low variance means a blurry
// or featureless image.
func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	n := 0
	var sum, sumSq float64
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			c := float64(gray.GrayAt(x, y).Y)
			up := float64(gray.GrayAt(x, y-1).Y)
			down := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			v := up + down + left + right - 4*c
			if v < 0 {
				v = -v
			}
			sum += v
			sumSq += v * v
			n++
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
