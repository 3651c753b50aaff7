package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"trafficsigns/config"
	"trafficsigns/database"
	"trafficsigns/dataset"
	"trafficsigns/imageprocessor"
	"trafficsigns/logging"
	"trafficsigns/scanner"
	"trafficsigns/utils"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the --config file over the defaults, then applies any flag
// set on the command line
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet(flagDebug) {
		cfg.Debug = c.Bool(flagDebug)
	}
	if c.IsSet(flagLogFile) {
		cfg.LogFile = c.String(flagLogFile)
	}
	if c.IsSet(flagRoot) {
		cfg.DatasetRoot = c.String(flagRoot)
	}
	if c.IsSet(flagClasses) {
		classes, err := utils.ParseClasses(c.String(flagClasses))
		if err != nil {
			return nil, err
		}
		cfg.Classes = classes
	}
	if c.IsSet(flagTracks) {
		tracks, err := utils.ParseTracks(c.String(flagTracks))
		if err != nil {
			return nil, err
		}
		cfg.Tracks = tracks
	}
	if c.IsSet(flagSize) {
		w, h, err := utils.ParseTargetSize(c.String(flagSize))
		if err != nil {
			return nil, err
		}
		cfg.TargetWidth, cfg.TargetHeight = w, h
	}
	if c.IsSet(flagDatabase) {
		cfg.DatabasePath = c.String(flagDatabase)
	}
	if c.IsSet(flagForce) {
		cfg.Force = c.Bool(flagForce)
	}
	if c.IsSet(flagVerifyDims) {
		cfg.VerifyDims = c.Bool(flagVerifyDims)
	}

	// classes default to every class with a track list
	if len(cfg.Classes) == 0 {
		cfg.Classes = cfg.TrackedClasses()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAction loads the selected samples and prints how many each class kept
func LoadAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if len(cfg.Classes) == 0 {
		return errors.New("no classes selected (use --classes and --tracks)")
	}

	loader := dataset.NewLoader()
	loader.VerifyDims = cfg.VerifyDims

	startTime := time.Now()
	result, err := loader.Load(cfg.DatasetRoot, cfg.Classes, cfg.TrackFilter())
	if err != nil {
		return err
	}
	defer result.Close()

	perClass := make(map[int]int)
	for _, class := range result.Classes {
		perClass[class]++
	}
	w := c.App.Writer
	for _, class := range cfg.Classes {
		fmt.Fprintf(w, "class %05d: %d samples (tracks %v)\n", class, perClass[class], cfg.TrackFilter().Tracks(class))
	}
	fmt.Fprintf(w, "Loaded %d samples in %v.\n", result.Len(), time.Since(startTime).Round(time.Millisecond))
	return nil
}

// IndexAction preprocesses the selected samples into the sample index
func IndexAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if len(cfg.Classes) == 0 {
		return errors.New("no classes selected (use --classes and --tracks)")
	}

	db, err := openIndex(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	options := scanner.IndexOptions{
		Root:         cfg.DatasetRoot,
		Classes:      cfg.Classes,
		Tracks:       cfg.TrackFilter(),
		TargetWidth:  cfg.TargetWidth,
		TargetHeight: cfg.TargetHeight,
		ForceRewrite: cfg.Force,
		VerifyDims:   cfg.VerifyDims,
		DebugMode:    cfg.Debug,
		Progress:     c.App.Writer,
	}
	summary, err := scanner.IndexDataset(c.Context, db, options)
	if err != nil {
		logging.LogError("Indexing finished with errors: %v", err)
		if summary == nil {
			return err
		}
		return errors.Errorf("%d of %d samples failed: %v", summary.Errors, summary.Total, err)
	}

	fmt.Fprintf(c.App.Writer, "Database: %s\n", cfg.DatabasePath)
	return nil
}

// StatsAction prints the per-class counts of the sample index
func StatsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		return errors.Wrapf(err, "sample index %s", cfg.DatabasePath)
	}
	db, err := database.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := database.GetIndexStats(db)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "- Total samples: %d\n", stats.TotalSamples)
	fmt.Fprintf(w, "- Classes: %d\n", stats.Classes)
	classes := make([]int, 0, len(stats.PerClass))
	for class := range stats.PerClass {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	for _, class := range classes {
		fmt.Fprintf(w, "  class %05d: %d\n", class, stats.PerClass[class])
	}
	return nil
}

// InspectAction writes the preprocessing stages of one sample as PNG files
func InspectAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	class := c.Int(flagClass)
	filename := c.String(flagFilename)
	if !imageprocessor.IsImageFile(filename) {
		return errors.Wrapf(dataset.ErrFormat, "%s is not an image file (supported: %s)",
			filename, strings.Join(imageprocessor.GetSupportedExtensions(), " "))
	}
	track, err := dataset.TrackID(filename)
	if err != nil {
		return err
	}

	// load only the sample's track
	tracks := dataset.NewTrackFilter(map[int][]int{class: {track}})
	result, err := dataset.Load(cfg.DatasetRoot, []int{class}, tracks)
	if err != nil {
		return err
	}
	defer result.Close()

	idx := -1
	for i, name := range result.Filenames {
		if name == filename {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Wrapf(dataset.ErrNotFound, "class %d has no annotation for %s", class, filename)
	}

	pre := imageprocessor.Preprocessor{TargetWidth: cfg.TargetWidth, TargetHeight: cfg.TargetHeight}
	stages, err := pre.Inspect(result.Images[idx], result.ROIs[idx])
	if err != nil {
		return errors.WithMessagef(err, "class %d %s", class, filename)
	}
	defer stages.Close()

	outDir := c.String(flagOut)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	prefix := filepath.Join(outDir, fmt.Sprintf("%05d_%s", class, trimExt(filename)))
	written, err := writeStages(prefix, stages)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintln(c.App.Writer, path)
	}
	return nil
}

// openIndex initializes the database, retrying while another process holds it
func openIndex(path string) (*sql.DB, error) {
	const maxRetries = 3
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db, err := database.InitDatabase(path)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if i < maxRetries-1 {
			logging.LogWarning("Error initializing database (attempt %d/%d): %v - retrying...", i+1, maxRetries, err)
			time.Sleep(time.Second * time.Duration(i+1))
		}
	}
	return nil, errors.Wrapf(lastErr, "initializing database after %d attempts", maxRetries)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
