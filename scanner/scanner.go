package scanner

import (
	"context"
	"database/sql"
	"fmt"
	"runtime/debug"

	"trafficsigns/database"
	"trafficsigns/dataset"
	"trafficsigns/imageprocessor"
	"trafficsigns/logging"
	"trafficsigns/types"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// IndexDataset loads the selected samples, preprocesses each one and stores its
// features. A load failure aborts before anything is stored. Failures of single
// samples do not stop the run; they are returned together once every sample
// has been tried. ctx is checked between samples.
func IndexDataset(ctx context.Context, db *sql.DB, options IndexOptions) (*IndexSummary, error) {
	loader := dataset.NewLoader()
	loader.VerifyDims = options.VerifyDims

	if options.DebugMode {
		logging.DebugLog("Loading classes %v from %s", options.Classes, options.Root)
	}
	result, err := loader.Load(options.Root, options.Classes, options.Tracks)
	if err != nil {
		return nil, errors.WithMessage(err, "load dataset")
	}
	defer result.Close()

	pre := imageprocessor.NewPreprocessor()
	if options.TargetWidth > 0 {
		pre.TargetWidth = options.TargetWidth
	}
	if options.TargetHeight > 0 {
		pre.TargetHeight = options.TargetHeight
	}

	if options.Progress != nil {
		PrintStartupInfo(options.Progress, result.Len(), options)
	}
	tracker := NewProgressTracker(result.Len(), options.Progress)

	var combined error
	for i := 0; i < result.Len(); i++ {
		if err := ctx.Err(); err != nil {
			summary := tracker.Stop()
			return &summary, multierr.Append(combined, err)
		}

		res := processAndStoreSample(db, pre, result.Images[i], result.Sample(i), options)
		if !res.Success {
			combined = multierr.Append(combined, res.Error)
		}
		tracker.Record(res)
	}

	summary := tracker.Stop()
	if options.Progress != nil {
		PrintCompletionStats(options.Progress, summary)
	}
	return &summary, combined
}

// processAndStoreSample preprocesses a single sample and stores it in the database
func processAndStoreSample(db *sql.DB, pre imageprocessor.Preprocessor, img gocv.Mat, sample types.Sample, options IndexOptions) (result SampleResult) {
	result = SampleResult{
		Class:    sample.Class,
		Filename: sample.Filename,
	}

	if skipResult := checkAndSkipIfIndexed(db, sample, options); skipResult != nil {
		return *skipResult
	}

	features, err := preprocessSafely(pre, img, sample)
	if err != nil {
		result.Error = err
		return result
	}

	rows, cols := features.Dims()
	info := types.SampleInfo{
		Sample:      sample,
		FeatureRows: rows,
		FeatureCols: cols,
		Features:    flatten(features),
	}
	if err := database.StoreSample(db, info, options.ForceRewrite); err != nil {
		result.Error = fmt.Errorf("cannot store data for class %d %s: %w", sample.Class, sample.Filename, err)
		return result
	}

	result.Success = true
	return result
}

// preprocessSafely runs the preprocessor, turning a panic raised inside the
// OpenCV bindings into an error for this sample
func preprocessSafely(pre imageprocessor.Preprocessor, img gocv.Mat, sample types.Sample) (features *mat.Dense, err error) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := debug.Stack()
			logging.LogError("Panic during preprocessing: %v, class %d %s\nStack trace: %s",
				r, sample.Class, sample.Filename, string(stackTrace))
			features, err = nil, fmt.Errorf("panic during preprocessing of %s: %v", sample.Filename, r)
		}
	}()

	dense, err := pre.Preprocess(img, sample.ROI)
	if err != nil {
		return nil, fmt.Errorf("preprocess class %d %s: %w", sample.Class, sample.Filename, err)
	}
	return dense, nil
}

// flatten returns the values of m in row-major order
func flatten(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		out = append(out, mat.Row(nil, r, m)...)
	}
	return out
}
