package pipeline

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"page-scanner/internal/fixture"
	"page-scanner/internal/page"
	"page-scanner/internal/raster"
	"page-scanner/pkg/geometry"
)

// Detection accuracy bounds for the synthetic fixtures: every recovered
// boundary must match the ground-truth area within 5%, and the axis-aligned
// scenario must recover each corner within 3 pixels. The edge detector
// responds just outside the 2-pixel outline, which stays inside both bounds.
const (
	cornerTolerance   = 3.0
	areaToleranceFrac = 0.05
)

func testRunner(cfg Config) *Runner {
	return NewRunner(cfg, zerolog.Nop(), nil)
}

func TestRunDir_GeneratesAndProcessesFixtures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cases")
	runner := testRunner(DefaultConfig())

	sum, err := runner.RunDir(dir)
	if err != nil {
		t.Fatalf("RunDir failed: %v", err)
	}
	if sum.Total != 3 || sum.Succeeded != 3 || sum.Failed != 0 {
		t.Fatalf("summary %+v, want 3 successes", sum)
	}

	// Regenerate into a second directory purely to get the ground truth
	// keyed by the file names RunDir reports.
	truth := map[string]page.Quad{}
	fixtures, err := fixture.Generate(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range fixtures {
		name := filepath.Base(f.Path)
		truth[name[:len(name)-len(filepath.Ext(name))]] = f.Truth
	}

	for _, res := range sum.Results {
		if !res.OK() {
			t.Errorf("%s failed: %v", res.Name, res.Err)
			continue
		}
		want, ok := truth[res.Name]
		if !ok {
			t.Errorf("no ground truth for %s", res.Name)
			continue
		}

		if strings.Contains(res.Name, "perfect_rectangle") {
			for i := 0; i < 4; i++ {
				if d := res.Quad[i].Distance(want[i]); d > cornerTolerance {
					t.Errorf("%s corner %d off by %.1f px: got %v, want %v",
						res.Name, i, d, res.Quad[i], want[i])
				}
			}
		}

		gotArea := res.Quad.Area()
		wantArea := want.Area()
		if math.Abs(gotArea-wantArea) > areaToleranceFrac*wantArea {
			t.Errorf("%s area %.0f deviates more than %.0f%% from %.0f",
				res.Name, gotArea, areaToleranceFrac*100, wantArea)
		}

		// The recovered boundary must still enclose the page center.
		center := geometry.Centroid(want.Points())
		if !geometry.PointInPolygon(center, res.Quad.Points()) {
			t.Errorf("%s quad %v does not contain the page center %v",
				res.Name, res.Quad, center)
		}

		if res.OutputWidth < 1 || res.OutputHeight < 1 {
			t.Errorf("%s rectified to %dx%d", res.Name, res.OutputWidth, res.OutputHeight)
		}
	}
}

func TestRunDir_ContinuesPastCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := fixture.Generate(dir); err != nil {
		t.Fatal(err)
	}
	// Sorts before the fixtures so the failure happens first.
	corrupt := filepath.Join(dir, "aa_corrupt.jpg")
	if err := os.WriteFile(corrupt, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, err := testRunner(DefaultConfig()).RunDir(dir)
	if err != nil {
		t.Fatalf("RunDir failed: %v", err)
	}
	if sum.Total != 4 || sum.Succeeded != 3 || sum.Failed != 1 {
		t.Fatalf("summary %+v, want 4 total with 1 failure", sum)
	}

	first := sum.Results[0]
	if first.Failure != FailureInvalid {
		t.Errorf("corrupt input classified as %q, want %q", first.Failure, FailureInvalid)
	}
	if !errors.Is(first.Err, raster.ErrInvalidInput) {
		t.Errorf("corrupt input error = %v", first.Err)
	}
}

func TestRunDir_FixedOutputSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputWidth = 200
	cfg.OutputHeight = 280

	sum, err := testRunner(cfg).RunDir(filepath.Join(t.TempDir(), "cases"))
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range sum.Results {
		if !res.OK() {
			t.Errorf("%s failed: %v", res.Name, res.Err)
			continue
		}
		if res.OutputWidth != 200 || res.OutputHeight != 280 {
			t.Errorf("%s rectified to %dx%d, want 200x280", res.Name, res.OutputWidth, res.OutputHeight)
		}
	}
}

func TestRunFile_Missing(t *testing.T) {
	res := testRunner(DefaultConfig()).RunFile(filepath.Join(t.TempDir(), "nope.jpg"))
	if res.OK() || res.Failure != FailureInvalid {
		t.Errorf("missing file result %+v", res)
	}
}

func TestProcess_BlankImage(t *testing.T) {
	img := raster.NewRGB(100, 100)
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	res := testRunner(DefaultConfig()).Process(img, "blank")
	if res.Failure != FailureNoCandidate {
		t.Errorf("blank image classified as %q, want %q", res.Failure, FailureNoCandidate)
	}
	if !errors.Is(res.Err, page.ErrNoCandidate) {
		t.Errorf("blank image error = %v", res.Err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{nil, FailureNone},
		{raster.ErrInvalidInput, FailureInvalid},
		{page.ErrNoCandidate, FailureNoCandidate},
		{page.ErrDegenerateHomography, FailureDegenerate},
		{errors.New("boom"), FailureOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDirSink_WritesArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	runner := NewRunner(DefaultConfig(), zerolog.Nop(), DirSink{Dir: dir})

	fixtures, err := fixture.Generate(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	res := runner.RunFile(fixtures[0].Path)
	if !res.OK() {
		t.Fatalf("fixture run failed: %v", res.Err)
	}

	for _, suffix := range []string{"_edges.png", "_rectified.png"} {
		path := filepath.Join(dir, res.Name+suffix)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact %s missing: %v", path, err)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "edge:\n  lowThreshold: 40\noutputWidth: 320\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Edge.LowThreshold != 40 {
		t.Errorf("lowThreshold = %v, want 40", cfg.Edge.LowThreshold)
	}
	if cfg.OutputWidth != 320 {
		t.Errorf("outputWidth = %d, want 320", cfg.OutputWidth)
	}
	// Values the file does not name keep their defaults.
	if cfg.Edge.HighThreshold != 150 || cfg.Edge.SmoothKernelSize != 5 || cfg.Edge.GapCloseRadius != 2 {
		t.Errorf("defaults not preserved: %+v", cfg.Edge)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file should error")
	}
}
