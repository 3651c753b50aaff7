package scanner

import (
	"io"
	"sync"
	"time"

	"trafficsigns/dataset"
)

// IndexOptions defines the options for indexing a dataset
type IndexOptions struct {
	Root         string
	Classes      []int
	Tracks       dataset.TrackFilter
	TargetWidth  int
	TargetHeight int
	ForceRewrite bool
	VerifyDims   bool
	DebugMode    bool

	// Progress receives the periodic progress line; nothing is printed when nil
	Progress io.Writer
}

// SampleResult holds the result of indexing one sample
type SampleResult struct {
	Class    int
	Filename string
	Success  bool
	Skipped  bool
	Error    error
}

// IndexSummary is the outcome of an IndexDataset run
type IndexSummary struct {
	Total     int
	Processed int
	Skipped   int
	Errors    int
	PerClass  map[int]int
	Elapsed   time.Duration
}

// ProgressTracker tracks progress of the index operation
type ProgressTracker struct {
	processed int
	skipped   int
	errors    int
	perClass  map[int]int
	total     int
	started   time.Time
	out       io.Writer
	ticker    *time.Ticker
	done      chan struct{}
	exited    chan struct{}
	mu        sync.Mutex
}
