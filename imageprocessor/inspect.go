package imageprocessor

import (
	"trafficsigns/types"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// InspectNormalizeScale is the divisor used by Inspect. It is half of
// NormalizeScale, so Stages.Normalized spans roughly [-1, 1] while Preprocess
// spans [-0.5, 0.5]. Feature pipelines must use Preprocess.
const InspectNormalizeScale = NormalizeScale / 2

// Stages holds every intermediate of the preprocessing chain for display
type Stages struct {
	Original   gocv.Mat
	Cropped    gocv.Mat
	Scaled     gocv.Mat // float64 in [0, 1]
	Red        *mat.Dense
	Equalized  *mat.Dense
	CDF        []float64
	Normalized *mat.Dense
}

// Close releases the mats held by the stages
func (s *Stages) Close() {
	s.Original.Close()
	s.Cropped.Close()
	s.Scaled.Close()
}

// Inspect runs the default preprocessor and keeps every intermediate
func Inspect(img gocv.Mat, roi types.ROI) (*Stages, error) {
	return NewPreprocessor().Inspect(img, roi)
}

// Inspect runs the preprocessing chain and keeps every intermediate. The
// normalization divides by InspectNormalizeScale instead of NormalizeScale.
func (p Preprocessor) Inspect(img gocv.Mat, roi types.ROI) (*Stages, error) {
	if err := p.validate(img, roi); err != nil {
		return nil, err
	}

	region := cropRegion(img, roi)
	defer region.Close()

	stages := &Stages{
		Original: img.Clone(),
		Cropped:  region.Clone(),
	}
	stages.Scaled = p.scale(stages.Cropped)
	stages.Red = channelToDense(stages.Scaled, redChannel)
	eq, cdf, err := Equalize(stages.Red)
	if err != nil {
		stages.Close()
		return nil, err
	}
	stages.Equalized, stages.CDF = eq, cdf
	stages.Normalized = Normalize(stages.Equalized, InspectNormalizeScale)

	return stages, nil
}
