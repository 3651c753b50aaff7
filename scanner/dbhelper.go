package scanner

import (
	"database/sql"
	"fmt"

	"trafficsigns/database"
	"trafficsigns/logging"
	"trafficsigns/types"
)

// checkAndSkipIfIndexed returns a result when the sample is already stored and
// must not be rewritten, or nil when it has to be processed
func checkAndSkipIfIndexed(db *sql.DB, sample types.Sample, options IndexOptions) *SampleResult {
	if options.ForceRewrite {
		return nil
	}

	exists, err := database.CheckSampleExists(db, sample.Class, sample.Filename)
	if err != nil {
		return &SampleResult{
			Class:    sample.Class,
			Filename: sample.Filename,
			Error:    fmt.Errorf("database error for %s: %w", sample.Filename, err),
		}
	}

	if exists {
		if options.DebugMode {
			logging.DebugLog("Skipping indexed sample: class %d %s", sample.Class, sample.Filename)
		}
		return &SampleResult{
			Class:    sample.Class,
			Filename: sample.Filename,
			Success:  true,
			Skipped:  true,
		}
	}

	return nil
}
