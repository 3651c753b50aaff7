package main

import (
	"context"
	"fmt"
	"os"

	"trafficsigns/logging"
	"trafficsigns/signalhandler"
	"trafficsigns/utils"

	"github.com/urfave/cli/v2"
)

const (
	// Global flags.
	flagConfig  = "config"
	flagDebug   = "debug"
	flagLogFile = "logfile"

	// Dataset selection flags.
	flagRoot    = "root"
	flagClasses = "classes"
	flagTracks  = "tracks"

	// Index flags.
	flagDatabase   = "database"
	flagSize       = "size"
	flagForce      = "force"
	flagVerifyDims = "verify-dims"

	// Inspect flags.
	flagClass    = "class"
	flagFilename = "filename"
	flagOut      = "out"
)

func main() {
	// Set up proper signal handling
	ctx, stop := signalhandler.SetupHandler(context.Background())
	defer stop()

	app := newApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	selectionFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  flagRoot,
			Usage: "dataset root holding one directory per class",
		},
		&cli.StringFlag{
			Name:  flagClasses,
			Usage: "comma-separated class ids, e.g. 0,1,14",
		},
		&cli.StringFlag{
			Name:  flagTracks,
			Usage: "per-class track ids, e.g. 0:1,2;14:0",
		},
		&cli.BoolFlag{
			Name:  flagVerifyDims,
			Usage: "reject samples whose decoded size differs from the annotation",
		},
	}
	databaseFlag := &cli.StringFlag{
		Name:  flagDatabase,
		Usage: fmt.Sprintf("path to the sample index (default: %s)", utils.GetDefaultDatabasePath()),
	}

	return &cli.App{
		Name:  "trafficsigns",
		Usage: "load, preprocess and index GTSRB traffic sign samples",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagConfig,
				Usage: "JSON configuration file; flags override its values",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "write logs to this file instead of stderr",
			},
		},
		Before: setupLogging,
		After: func(c *cli.Context) error {
			logging.CloseLogger()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "load the selected samples and print per-class counts",
				Flags:  selectionFlags,
				Action: LoadAction,
			},
			{
				Name:  "index",
				Usage: "preprocess the selected samples and store their features",
				Flags: append([]cli.Flag{
					databaseFlag,
					&cli.StringFlag{
						Name:  flagSize,
						Usage: "feature size as WIDTHxHEIGHT",
					},
					&cli.BoolFlag{
						Name:  flagForce,
						Usage: "rewrite samples that are already indexed",
					},
				}, selectionFlags...),
				Action: IndexAction,
			},
			{
				Name:   "stats",
				Usage:  "summarize the sample index",
				Flags:  []cli.Flag{databaseFlag},
				Action: StatsAction,
			},
			{
				Name:      "inspect",
				Usage:     "write every preprocessing stage of one sample as PNG",
				UsageText: "trafficsigns inspect --root DIR --class N --filename 00001_00000.ppm [--out DIR]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagRoot,
						Usage: "dataset root holding one directory per class",
					},
					&cli.IntFlag{
						Name:     flagClass,
						Usage:    "class of the sample",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagFilename,
						Usage:    "image filename as listed in the annotation file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagOut,
						Usage: "directory for the stage images",
						Value: ".",
					},
					&cli.StringFlag{
						Name:  flagSize,
						Usage: "feature size as WIDTHxHEIGHT",
					},
				},
				Action: InspectAction,
			},
		},
	}
}

// setupLogging routes the logger before any command runs
func setupLogging(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if cfg.LogFile != "" {
		if err := logging.SetupLogger(cfg.LogFile, cfg.Debug); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup logging: %v\n", err)
		} else if cfg.Debug {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", cfg.LogFile)
		}
		return nil
	}
	if cfg.Debug {
		logging.SetOutput(os.Stderr, true)
	}
	return nil
}
