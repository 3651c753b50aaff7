package dataset

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"trafficsigns/types"

	"github.com/pkg/errors"
)

const (
	annotationDelimiter = ';'
	annotationColumns   = 8
)

// Annotation is one parsed row of a class annotation file
type Annotation struct {
	Row      int // 1-based line number, the header is row 1
	Filename string
	Dims     types.Dims
	ROI      types.ROI
	Label    string
}

// AnnotationReader reads GT-<class>.csv rows in file order
type AnnotationReader struct {
	r   *csv.Reader
	row int
}

// NewAnnotationReader wraps r and consumes the header row
func NewAnnotationReader(r io.Reader) (*AnnotationReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = annotationDelimiter
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, errors.Wrap(ErrFormat, "annotation file has no header row")
		}
		return nil, errors.Wrapf(ErrFormat, "header row: %v", err)
	}
	return &AnnotationReader{r: cr, row: 1}, nil
}

// Next returns the next annotation, or io.EOF after the last row
func (a *AnnotationReader) Next() (Annotation, error) {
	record, err := a.r.Read()
	if err == io.EOF {
		return Annotation{}, io.EOF
	}
	a.row++
	if err != nil {
		return Annotation{}, errors.Wrapf(ErrFormat, "row %d: %v", a.row, err)
	}
	return parseAnnotation(record, a.row)
}

func parseAnnotation(record []string, row int) (Annotation, error) {
	if len(record) < annotationColumns {
		return Annotation{}, errors.Wrapf(ErrFormat, "row %d: %d columns, need %d", row, len(record), annotationColumns)
	}

	var nums [6]int
	for i := range nums {
		v, err := strconv.Atoi(strings.TrimSpace(record[i+1]))
		if err != nil {
			return Annotation{}, errors.Wrapf(ErrFormat, "row %d (%s): column %d is not an integer: %q",
				row, record[0], i+1, record[i+1])
		}
		nums[i] = v
	}

	return Annotation{
		Row:      row,
		Filename: record[0],
		Dims:     types.Dims{Width: nums[0], Height: nums[1]},
		ROI: types.ROI{
			P1: types.Point{X: nums[2], Y: nums[3]},
			P2: types.Point{X: nums[4], Y: nums[5]},
		},
		Label: record[7],
	}, nil
}
