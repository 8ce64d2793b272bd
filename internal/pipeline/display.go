package pipeline

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DisplaySink receives intermediate and final pipeline images. The original
// harness popped up windows; the sink abstraction keeps the pipeline headless
// in tests while still allowing artifacts to be inspected.
type DisplaySink interface {
	Publish(name string, img image.Image) error
}

// NullSink discards everything.
type NullSink struct{}

// Publish implements DisplaySink.
func (NullSink) Publish(string, image.Image) error { return nil }

// DirSink writes each published image as a PNG into a directory.
type DirSink struct {
	Dir string
}

// Publish implements DisplaySink.
func (d DirSink) Publish(name string, img image.Image) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(d.Dir, name+".png")
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	return nil
}
