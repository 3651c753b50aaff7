package types

// Dims is the declared size of a full source image as recorded in its
// annotation row
type Dims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Point is one corner of a region of interest
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ROI delimits the sign within its image. The first coordinate of each corner
// is used as the row bound when cropping.
type ROI struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// Sample is one loaded annotation row without its decoded raster
type Sample struct {
	Class    int    `json:"class"`
	Track    int    `json:"track"`
	Filename string `json:"filename"`
	Dims     Dims   `json:"dims"`
	ROI      ROI    `json:"roi"`
	Label    string `json:"label"`
}

// SampleInfo holds an indexed sample and its preprocessed features
type SampleInfo struct {
	ID          int64     `json:"id"`
	Sample      Sample    `json:"sample"`
	FeatureRows int       `json:"feature_rows"`
	FeatureCols int       `json:"feature_cols"`
	Features    []float64 `json:"features"`
	CreatedAt   string    `json:"created_at"`
}

// IndexStats summarizes the contents of the sample index
type IndexStats struct {
	TotalSamples int
	Classes      int
	PerClass     map[int]int
}
