// Package compositor stacks prize images into a single reward image and
// produces the pixelated teaser shown before a prize is claimed.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TeaserGrid is the number of cells per side of an obscured teaser
const TeaserGrid = 30

// ErrNoArtifact is returned when there is nothing to compose
var ErrNoArtifact = errors.New("compositor: no images to compose")

// Compose stacks srcs top to bottom in order, left-aligned. The canvas is as
// wide as the widest source and as tall as all sources together; uncovered
// pixels are opaque black.
func Compose(srcs []image.Image) (*image.RGBA, error) {
	width, height := 0, 0
	for _, src := range srcs {
		if src == nil {
			continue
		}
		b := src.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}
	if width == 0 || height == 0 {
		return nil, ErrNoArtifact
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	y := 0
	for _, src := range srcs {
		if src == nil {
			continue
		}
		b := src.Bounds()
		draw.Draw(dst, image.Rect(0, y, b.Dx(), y+b.Dy()), src, b.Min, draw.Over)
		y += b.Dy()
	}
	return dst, nil
}

// DecodeAll decodes every path on fsys. Files that are missing or cannot be
// decoded are skipped and reported in skipped.
func DecodeAll(fsys afero.Fs, paths []string) (images []image.Image, skipped []error) {
	for _, p := range paths {
		img, err := decodeFile(fsys, p)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		images = append(images, img)
	}
	return images, skipped
}

func decodeFile(fsys afero.Fs, path string) (image.Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Obscure blurs img by shrinking it to a TeaserGrid square and blows it back
// up with nearest-neighbour sampling. The result has the bounds of img.
func Obscure(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if b.Empty() {
		return out
	}

	small := image.NewRGBA(image.Rect(0, 0, TeaserGrid, TeaserGrid))
	draw.BiLinear.Scale(small, small.Bounds(), img, b, draw.Src, nil)
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
	return out
}

// Encode writes img in the format implied by the file name's extension.
// Unknown extensions and webp, which has no encoder, are written as png.
func Encode(w io.Writer, img image.Image, name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case ".gif":
		return gif.Encode(w, img, nil)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, nil)
	default:
		return png.Encode(w, img)
	}
}
