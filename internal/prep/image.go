package prep

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"golang.org/x/image/draw"

	// Decoder registration for the scan formats we recompress.
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// recompressImage re-encodes the image at src as a JPEG at dest, downscaling
// to MaxDimension on the longest side and lowering quality in steps until the
// result fits MaxBytes or the quality floor is reached. Returns the encoded
// size. The source file is left in place.
func (p *Preprocessor) recompressImage(src, dest string) (int64, error) {
	const op = "recompressImage"

	f, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to open %s: %w", op, src, err)
	}
	img, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to decode %s: %w", op, src, err)
	}

	scaled := p.downscale(img)
	flattened := flattenAlpha(scaled)

	var encoded []byte
	quality := p.Quality
	for {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: quality}); err != nil {
			return 0, fmt.Errorf("%s: failed to encode %s: %w", op, src, err)
		}
		encoded = buf.Bytes()

		if int64(len(encoded)) <= p.MaxBytes || quality <= MinQuality {
			break
		}
		quality = lowerQuality(quality)
	}

	if int64(len(encoded)) > p.MaxBytes {
		p.log.Warn().
			Str("file", src).
			Str("format", format).
			Int("quality", quality).
			Int("size", len(encoded)).
			Msg("Could not recompress below size limit, keeping best effort")
	}

	if err := os.WriteFile(dest, encoded, 0644); err != nil {
		return 0, fmt.Errorf("%s: failed to write %s: %w", op, dest, err)
	}
	return int64(len(encoded)), nil
}

// lowerQuality steps down one rung on the quality ladder, stopping
// exactly at MinQuality so the floor itself is always attempted.
func lowerQuality(q int) int {
	q -= QualityStep
	if q < MinQuality {
		q = MinQuality
	}
	return q
}

// downscale shrinks img so its longest side is at most MaxDimension,
// preserving aspect ratio. Smaller images pass through untouched.
func (p *Preprocessor) downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= p.MaxDimension && h <= p.MaxDimension {
		return img
	}

	newW, newH := w, h
	if w >= h {
		newW = p.MaxDimension
		newH = h * p.MaxDimension / w
	} else {
		newH = p.MaxDimension
		newW = w * p.MaxDimension / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// flattenAlpha composites img over a white background. JPEG has no alpha
// channel, and scans with transparency should read as paper, not black.
func flattenAlpha(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}
