package framediff

import (
	"fmt"
	"image"
	"math"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Scale is the linear reduction applied before comparing frames.
const Scale = 8

// Thumbnail is a downsampled frame with channel values in [0,1].
type Thumbnail struct {
	Width  int
	Height int
	pix    []float64
}

// GridSize returns the downsampled dimensions for a frame of the given size.
func GridSize(width, height int) (int, int) {
	w := int(math.Round(float64(width) / Scale))
	h := int(math.Round(float64(height) / Scale))
	return max(w, 1), max(h, 1)
}

// Shrink downsamples img onto a width x height grid.
func Shrink(img image.Image, width, height int) Thumbnail {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	thumb := Thumbnail{Width: width, Height: height, pix: make([]float64, 0, width*height*3)}
	for i := 0; i < len(dst.Pix); i += 4 {
		thumb.pix = append(thumb.pix,
			float64(dst.Pix[i])/255,
			float64(dst.Pix[i+1])/255,
			float64(dst.Pix[i+2])/255,
		)
	}
	return thumb
}

// Difference returns the sum of absolute differences between a and b
// normalized by the number of samples. Both thumbnails must share a grid.
func Difference(a, b Thumbnail) (float64, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, fmt.Errorf("thumbnail size mismatch: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	var sum float64
	for i := range a.pix {
		sum += math.Abs(a.pix[i] - b.pix[i])
	}
	return sum / float64(a.Width*a.Height*3), nil
}

// ComputeSAD loads the frames at paths, in the given order, and returns one
// score per frame. The first score is always 0; each later score compares the
// frame with its predecessor. The grid is sized from the first frame.
func ComputeSAD(paths []string) ([]float64, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	scores := make([]float64, len(paths))
	var (
		prev          Thumbnail
		width, height int
	)
	for i, path := range paths {
		img, err := decode(path)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			bounds := img.Bounds()
			width, height = GridSize(bounds.Dx(), bounds.Dy())
		}
		thumb := Shrink(img, width, height)
		if i > 0 {
			score, err := Difference(thumb, prev)
			if err != nil {
				return nil, fmt.Errorf("frame %s: %w", path, err)
			}
			scores[i] = score
		}
		prev = thumb
	}
	return scores, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer func() { _ = f.Close() }()
	img, err := bmp.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return img, nil
}
