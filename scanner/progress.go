package scanner

import (
	"fmt"
	"io"
	"time"

	"trafficsigns/logging"
)

const progressInterval = 500 * time.Millisecond

// NewProgressTracker initializes the progress tracker. When out is non-nil a
// goroutine rewrites the progress line on it until Stop is called.
func NewProgressTracker(total int, out io.Writer) *ProgressTracker {
	tracker := &ProgressTracker{
		total:    total,
		perClass: make(map[int]int),
		started:  time.Now(),
		out:      out,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}

	if out != nil {
		tracker.ticker = time.NewTicker(progressInterval)
		go tracker.displayProgress()
	}

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	defer close(p.exited)
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			p.printLine()
			p.mu.Unlock()
		}
	}
}

func (p *ProgressTracker) printLine() {
	if p.errors > 0 {
		fmt.Fprintf(p.out, "\rProgress: %d/%d (Skipped: %d, Errors: %d)", p.processed, p.total, p.skipped, p.errors)
	} else {
		fmt.Fprintf(p.out, "\rProgress: %d/%d (Skipped: %d)", p.processed, p.total, p.skipped)
	}
}

// Record updates the tracker state with the result of one sample
func (p *ProgressTracker) Record(result SampleResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	switch {
	case result.Skipped:
		p.skipped++
		return
	case !result.Success:
		p.errors++
		msg := ""
		if result.Error != nil {
			msg = result.Error.Error()
		}
		logging.LogSampleProcessed(result.Class, result.Filename, false, msg)
		return
	default:
		logging.LogSampleProcessed(result.Class, result.Filename, true, "")
	}
	p.perClass[result.Class]++
}

// Stop ends the progress tracking and returns the final counts
func (p *ProgressTracker) Stop() IndexSummary {
	if p.ticker != nil {
		p.ticker.Stop()
		close(p.done)
		<-p.exited
		p.ticker = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.printLine()
		fmt.Fprintln(p.out)
	}

	perClass := make(map[int]int, len(p.perClass))
	for class, n := range p.perClass {
		perClass[class] = n
	}
	return IndexSummary{
		Total:     p.total,
		Processed: p.processed,
		Skipped:   p.skipped,
		Errors:    p.errors,
		PerClass:  perClass,
		Elapsed:   time.Since(p.started),
	}
}

// PrintStartupInfo displays information about the run before starting
func PrintStartupInfo(w io.Writer, total int, options IndexOptions) {
	fmt.Fprintf(w, "Starting sample indexing...\nSamples to process: %d from %d classes\n", total, len(options.Classes))
	fmt.Fprintf(w, "Target size: %dx%d\n", options.TargetWidth, options.TargetHeight)
	fmt.Fprintf(w, "Force rewrite mode: %v\n", options.ForceRewrite)

	if options.DebugMode {
		fmt.Fprintf(w, "Debug mode: enabled\n")
		logging.DebugLog("Indexing %d samples from %s", total, options.Root)
	}
}

// PrintCompletionStats displays statistics after the run
func PrintCompletionStats(w io.Writer, summary IndexSummary) {
	logging.DebugLog("Indexing completed in %v. Processed: %d, Skipped: %d, Errors: %d",
		summary.Elapsed, summary.Processed, summary.Skipped, summary.Errors)

	fmt.Fprintln(w, "Indexing complete.")
	fmt.Fprintf(w, "Processed %d samples in %v.\n", summary.Processed, summary.Elapsed.Round(time.Millisecond))
	if summary.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d samples already in the index.\n", summary.Skipped)
	}

	if summary.Errors > 0 {
		fmt.Fprintf(w, "Encountered %d errors during indexing.\n", summary.Errors)
		fmt.Fprintln(w, "Check the log file for details.")
	}
}
