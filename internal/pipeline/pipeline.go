// Package pipeline drives images through edge detection, contour extraction,
// quadrilateral selection, and rectification, collecting per-input results.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"page-scanner/internal/contour"
	"page-scanner/internal/edge"
	"page-scanner/internal/fixture"
	"page-scanner/internal/page"
	"page-scanner/internal/raster"
)

// FailureKind classifies a per-input failure for reporting.
type FailureKind string

// Failure kinds. FailureNone marks a successful run.
const (
	FailureNone        FailureKind = ""
	FailureInvalid     FailureKind = "invalid_input"
	FailureNoCandidate FailureKind = "no_candidate"
	FailureDegenerate  FailureKind = "degenerate_homography"
	FailureOther       FailureKind = "error"
)

// Result records the outcome of one input.
type Result struct {
	Name         string
	ContourCount int
	Quad         *page.Quad
	OutputWidth  int
	OutputHeight int
	Failure      FailureKind
	Err          error
}

// OK reports whether the input was processed successfully.
func (r Result) OK() bool { return r.Failure == FailureNone }

// Summary aggregates a batch run. Individual failures never abort a run, so
// Total == Succeeded + Failed always holds.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []Result
}

// Runner executes the detection pipeline with a fixed configuration.
// Each input is processed to completion before the next begins; stages share
// no mutable state.
type Runner struct {
	cfg  Config
	log  zerolog.Logger
	sink DisplaySink
}

// NewRunner builds a Runner. A nil sink is replaced by NullSink.
func NewRunner(cfg Config, logger zerolog.Logger, sink DisplaySink) *Runner {
	if sink == nil {
		sink = NullSink{}
	}
	return &Runner{cfg: cfg, log: logger, sink: sink}
}

// Process runs the full stage chain on an in-memory image.
func (r *Runner) Process(img *raster.Image, name string) Result {
	res := Result{Name: name}

	edges, err := edge.Detect(img, r.cfg.Edge)
	if err != nil {
		return r.fail(res, err)
	}
	r.publish(name+"_edges", edges.ToImage())

	contours := contour.FindExternal(edges)
	res.ContourCount = len(contours)

	quad, err := page.SelectQuad(contours, img.Width, img.Height, r.cfg.Selector)
	if err != nil {
		return r.fail(res, err)
	}
	res.Quad = &quad

	rectified, _, err := page.Rectify(img, quad, r.cfg.OutputWidth, r.cfg.OutputHeight)
	if err != nil {
		return r.fail(res, err)
	}
	res.OutputWidth = rectified.Width
	res.OutputHeight = rectified.Height
	r.publish(name+"_rectified", rectified.ToImage())

	r.log.Info().
		Str("input", name).
		Int("contours", res.ContourCount).
		Int("width", res.OutputWidth).
		Int("height", res.OutputHeight).
		Msg("page rectified")
	return res
}

// RunFile loads one image from disk and processes it. Load failures are
// recorded as invalid input, not returned.
func (r *Runner) RunFile(path string) Result {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	img, err := raster.Load(path)
	if err != nil {
		return r.fail(Result{Name: name}, err)
	}
	return r.Process(img, name)
}

// RunDir processes every image in dir in name order. An empty or missing
// directory is first populated with the synthetic fixtures. Per-input
// failures are recorded and the run continues.
func (r *Runner) RunDir(dir string) (Summary, error) {
	paths, err := listImages(dir)
	if err != nil && !os.IsNotExist(err) {
		return Summary{}, fmt.Errorf("read fixture dir: %w", err)
	}

	if len(paths) == 0 {
		r.log.Info().Str("dir", dir).Msg("no test images found, generating fixtures")
		fixtures, genErr := fixture.Generate(dir)
		if genErr != nil {
			return Summary{}, genErr
		}
		for _, f := range fixtures {
			paths = append(paths, f.Path)
		}
	}

	var sum Summary
	for _, p := range paths {
		res := r.RunFile(p)
		sum.Results = append(sum.Results, res)
		sum.Total++
		if res.OK() {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}

	r.log.Info().
		Int("total", sum.Total).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Msg("batch complete")
	return sum, nil
}

// fail classifies err, logs it, and records it on the result.
func (r *Runner) fail(res Result, err error) Result {
	res.Err = err
	res.Failure = Classify(err)
	r.log.Warn().
		Str("input", res.Name).
		Str("kind", string(res.Failure)).
		Err(err).
		Msg("input failed")
	return res
}

// publish hands an intermediate image to the sink. Sink failures are logged
// but never fail the input; the sink is a diagnostic side channel.
func (r *Runner) publish(name string, img image.Image) {
	if err := r.sink.Publish(name, img); err != nil {
		r.log.Warn().Str("artifact", name).Err(err).Msg("display sink failed")
	}
}

// Classify maps an error to its failure kind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, raster.ErrInvalidInput):
		return FailureInvalid
	case errors.Is(err, page.ErrNoCandidate):
		return FailureNoCandidate
	case errors.Is(err, page.ErrDegenerateHomography):
		return FailureDegenerate
	default:
		return FailureOther
	}
}

// listImages returns the image files directly under dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp", ".gif":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
