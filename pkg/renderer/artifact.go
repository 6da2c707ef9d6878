package renderer

import (
	"bytes"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/visualtest/pkg/errors"
)

// artifact is the output of one render.
type artifact interface {
	// save writes the artifact, creating parent directories.
	save(path string) error

	// compare returns the number of differing units (pixels or lines)
	// against the file at path. A missing file yields NOT_FOUND.
	compare(path string, threshold uint8) (int, error)
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create directory for %s", path)
	}
	return nil
}

func missingReference(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeNotFound, err, "reference %s", path)
	}
	return nil
}

// =============================================================================
// Raster
// =============================================================================

type rasterArtifact struct {
	img *image.NRGBA
}

func (a rasterArtifact) save(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := imaging.Save(a.img, path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "save %s", path)
	}
	return nil
}

func (a rasterArtifact) compare(path string, threshold uint8) (int, error) {
	if err := missingReference(path); err != nil {
		return 0, err
	}
	ref, err := imaging.Open(path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStyleLoad, err, "could not open reference image %s", path)
	}
	return countPixelDiff(a.img, imaging.Clone(ref), threshold), nil
}

// countPixelDiff counts pixels where any channel differs by more than
// threshold. Images of different size differ in every pixel of the larger.
func countPixelDiff(a, b *image.NRGBA, threshold uint8) int {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return max(ab.Dx()*ab.Dy(), bb.Dx()*bb.Dy())
	}
	diff := 0
	for y := 0; y < ab.Dy(); y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+ab.Dx()*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+bb.Dx()*4]
		for x := 0; x < len(ra); x += 4 {
			for c := 0; c < 4; c++ {
				d := int(ra[x+c]) - int(rb[x+c])
				if d < 0 {
					d = -d
				}
				if d > int(threshold) {
					diff++
					break
				}
			}
		}
	}
	return diff
}

// =============================================================================
// Text
// =============================================================================

type textArtifact struct {
	data []byte
}

func (a textArtifact) save(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, a.data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "save %s", path)
	}
	return nil
}

// compare counts differing lines; the threshold does not apply to text.
func (a textArtifact) compare(path string, _ uint8) (int, error) {
	if err := missingReference(path); err != nil {
		return 0, err
	}
	ref, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStyleLoad, err, "could not open reference %s", path)
	}
	return countLineDiff(a.data, ref), nil
}

func countLineDiff(a, b []byte) int {
	la := bytes.Split(bytes.TrimRight(a, "\n"), []byte("\n"))
	lb := bytes.Split(bytes.TrimRight(b, "\n"), []byte("\n"))
	diff := 0
	for i := 0; i < max(len(la), len(lb)); i++ {
		if i >= len(la) || i >= len(lb) || !bytes.Equal(la[i], lb[i]) {
			diff++
		}
	}
	return diff
}
