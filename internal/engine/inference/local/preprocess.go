package local

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// preprocess decodes an image, resizes it to width x height and returns
// float32 pixels scaled to [0,1] in the requested layout.
func preprocess(data []byte, width, height int64, l layout) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	b := resized.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	out := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			rgb := [3]float32{
				float32(r) / 65535.0,
				float32(g) / 65535.0,
				float32(bl) / 65535.0,
			}

			px := y*w + x
			for c, v := range rgb {
				if l == nhwc {
					out[px*3+c] = v
				} else {
					out[c*plane+px] = v
				}
			}
		}
	}
	return out, nil
}
