// Package dataset reads the GTSRB training tree: one directory per class named
// by its zero-padded id, each holding a semicolon-separated GT-<class>.csv
// annotation file and the images it references.
package dataset

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"trafficsigns/imageprocessor"
	"trafficsigns/logging"
	"trafficsigns/types"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Result holds the loaded samples as index-aligned sequences. Position i of
// every slice describes the same sample.
type Result struct {
	Images    []gocv.Mat
	Dims      []types.Dims
	ROIs      []types.ROI
	Labels    []string
	Filenames []string

	// Classes and Tracks record where each sample came from
	Classes []int
	Tracks  []int
}

// Len returns the number of loaded samples
func (r *Result) Len() int {
	return len(r.Filenames)
}

// Sample returns the annotation side of sample i
func (r *Result) Sample(i int) types.Sample {
	return types.Sample{
		Class:    r.Classes[i],
		Track:    r.Tracks[i],
		Filename: r.Filenames[i],
		Dims:     r.Dims[i],
		ROI:      r.ROIs[i],
		Label:    r.Labels[i],
	}
}

// Close releases the decoded images. The sequences keep their length so the
// annotations stay readable.
func (r *Result) Close() {
	for i := range r.Images {
		r.Images[i].Close()
	}
}

func (r *Result) append(class, track int, img gocv.Mat, a Annotation) {
	r.Images = append(r.Images, img)
	r.Dims = append(r.Dims, a.Dims)
	r.ROIs = append(r.ROIs, a.ROI)
	r.Labels = append(r.Labels, a.Label)
	r.Filenames = append(r.Filenames, a.Filename)
	r.Classes = append(r.Classes, class)
	r.Tracks = append(r.Tracks, track)
}

// Loader reads classes from a dataset root
type Loader struct {
	// Registry decodes image files; a default registry is used when nil
	Registry *imageprocessor.ImageLoaderRegistry

	// VerifyDims rejects rows whose declared width and height differ from
	// the decoded image
	VerifyDims bool
}

// NewLoader creates a loader with the default image registry
func NewLoader() *Loader {
	return &Loader{Registry: imageprocessor.NewImageLoaderRegistry()}
}

// Load reads the selected tracks of classes under root with a default loader
func Load(root string, classes []int, tracks TrackFilter) (*Result, error) {
	return NewLoader().Load(root, classes, tracks)
}

// Load reads every class in order, keeping rows whose track id is selected for
// that class. Samples of one class are contiguous and in annotation order. On
// any failure nothing is returned and all decoded images are released.
func (l *Loader) Load(root string, classes []int, tracks TrackFilter) (*Result, error) {
	for _, class := range classes {
		if _, ok := tracks[class]; !ok {
			return nil, errors.Wrapf(ErrMissingKey, "class %d", class)
		}
	}
	registry := l.Registry
	if registry == nil {
		registry = imageprocessor.NewImageLoaderRegistry()
	}

	result := &Result{}
	for _, class := range classes {
		if err := l.loadClass(registry, result, root, class, tracks); err != nil {
			result.Close()
			return nil, err
		}
	}
	return result, nil
}

// loadClass appends the selected samples of one class. The annotation file is
// closed before returning.
func (l *Loader) loadClass(registry *imageprocessor.ImageLoaderRegistry, result *Result, root string, class int, tracks TrackFilter) (err error) {
	dir := filepath.Join(root, ClassDir(class))
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return errors.Wrapf(ErrNotFound, "class %d: directory %s", class, dir)
	}

	gtPath := filepath.Join(dir, AnnotationFile(class))
	f, err := os.Open(gtPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "class %d: annotation file %s", class, gtPath)
		}
		return errors.Wrapf(err, "class %d: open %s", class, gtPath)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	reader, err := NewAnnotationReader(f)
	if err != nil {
		return errors.WithMessagef(err, "class %d: %s", class, gtPath)
	}

	kept, skipped := 0, 0
	for {
		a, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.WithMessagef(err, "class %d", class)
		}

		track, err := TrackID(a.Filename)
		if err != nil {
			return errors.WithMessagef(err, "class %d row %d", class, a.Row)
		}
		if !tracks.Accepts(class, track) {
			skipped++
			continue
		}

		img, err := l.decode(registry, filepath.Join(dir, a.Filename), class, a)
		if err != nil {
			return err
		}
		result.append(class, track, img, a)
		kept++
	}

	logging.DebugLog("Loaded class %d: %d samples kept, %d outside track filter", class, kept, skipped)
	return nil
}

// decode loads the image of one annotation row. On error the returned mat is
// empty and owns nothing.
func (l *Loader) decode(registry *imageprocessor.ImageLoaderRegistry, path string, class int, a Annotation) (gocv.Mat, error) {
	if !registry.CanLoadFile(a.Filename) {
		return gocv.Mat{}, errors.Wrapf(ErrFormat, "class %d row %d: %s is not an image file (supported: %s)",
			class, a.Row, a.Filename, strings.Join(imageprocessor.GetSupportedExtensions(), " "))
	}

	img, err := registry.LoadImage(path)
	if err != nil {
		img.Close()
		if errors.Is(err, os.ErrNotExist) {
			return gocv.Mat{}, errors.Wrapf(ErrNotFound, "class %d row %d: image %s", class, a.Row, a.Filename)
		}
		return gocv.Mat{}, errors.Wrapf(ErrFormat, "class %d row %d: image %s: %v", class, a.Row, a.Filename, err)
	}

	if l.VerifyDims && (img.Cols() != a.Dims.Width || img.Rows() != a.Dims.Height) {
		w, h := img.Cols(), img.Rows()
		img.Close()
		return gocv.Mat{}, errors.Wrapf(ErrFormat, "class %d row %d: image %s is %dx%d, annotation declares %dx%d",
			class, a.Row, a.Filename, w, h, a.Dims.Width, a.Dims.Height)
	}
	return img, nil
}
