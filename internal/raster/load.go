package raster

import (
	"fmt"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/tiff" // register TIFF decoder alongside imaging's formats
)

// Load reads and decodes a raster image from a file path.
// Missing files, undecodable data, and zero-area images all report
// ErrInvalidInput so the caller can classify the failure without inspecting
// the message.
func Load(path string) (*Image, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, path, err)
	}

	img := FromImage(src)
	if img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("%w: %s: zero-area image", ErrInvalidInput, path)
	}
	return img, nil
}
