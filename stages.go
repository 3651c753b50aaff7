package main

import (
	"fmt"

	"trafficsigns/imageprocessor"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// writeStages writes each stage next to prefix and returns the written paths
func writeStages(prefix string, s *imageprocessor.Stages) ([]string, error) {
	original, err := rgbToBGR(s.Original)
	if err != nil {
		return nil, err
	}
	defer original.Close()

	cropped, err := rgbToBGR(s.Cropped)
	if err != nil {
		return nil, err
	}
	defer cropped.Close()

	scaled8 := gocv.NewMat()
	defer scaled8.Close()
	s.Scaled.ConvertToWithParams(&scaled8, gocv.MatTypeCV8UC3, 255, 0)
	scaled, err := rgbToBGR(scaled8)
	if err != nil {
		return nil, err
	}
	defer scaled.Close()

	stages := []struct {
		name string
		img  gocv.Mat
	}{
		{"original", original},
		{"cropped", cropped},
		{"scaled", scaled},
		{"red", denseToGray(s.Red)},
		{"equalized", denseToGray(s.Equalized)},
		{"normalized", denseToGray(s.Normalized)},
	}
	defer func() {
		for _, st := range stages[3:] {
			st.img.Close()
		}
	}()

	var written []string
	for _, st := range stages {
		path := fmt.Sprintf("%s_%s.png", prefix, st.name)
		if !gocv.IMWrite(path, st.img) {
			return written, errors.Errorf("failed to write %s", path)
		}
		written = append(written, path)
	}
	return written, nil
}

func rgbToBGR(m gocv.Mat) (gocv.Mat, error) {
	out := gocv.NewMat()
	gocv.CvtColor(m, &out, gocv.ColorRGBToBGR)
	if out.Empty() {
		out.Close()
		return gocv.NewMat(), errors.New("failed to convert stage to BGR")
	}
	return out, nil
}

// denseToGray stretches m over [0, 255] into an 8-bit single-channel mat
func denseToGray(m *mat.Dense) gocv.Mat {
	rows, cols := m.Dims()
	values := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		values = append(values, mat.Row(nil, r, m)...)
	}
	lo, hi := floats.Min(values), floats.Max(values)

	out := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for i, v := range values {
		level := 0.0
		if hi > lo {
			level = (v - lo) / (hi - lo) * 255
		}
		out.SetUCharAt(i/cols, i%cols, uint8(level+0.5))
	}
	return out
}
