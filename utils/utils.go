package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// GetDefaultDatabasePath returns the default path for the database file
func GetDefaultDatabasePath() string {
	// Get the executable path
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "samples.db"
	}

	// Return the default database path next to the executable
	return filepath.Join(filepath.Dir(exePath), "samples.db")
}

// ParseClasses parses a comma-separated list of class ids such as "0,1,14"
func ParseClasses(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var classes []int
	for _, part := range strings.Split(s, ",") {
		id, err := parseID(part)
		if err != nil {
			return nil, fmt.Errorf("invalid class %q: %v", part, err)
		}
		classes = append(classes, id)
	}
	return classes, nil
}

// ParseTracks parses per-class track lists in the form "0:1,2;14:0". A class
// followed by a colon and nothing else selects no tracks.
func ParseTracks(s string) (map[int][]int, error) {
	tracks := make(map[int][]int)
	s = strings.TrimSpace(s)
	if s == "" {
		return tracks, nil
	}

	for _, entry := range strings.Split(s, ";") {
		classPart, idsPart, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid track entry %q, want CLASS:TRACK[,TRACK...]", entry)
		}
		class, err := parseID(classPart)
		if err != nil {
			return nil, fmt.Errorf("invalid class in %q: %v", entry, err)
		}
		if _, dup := tracks[class]; dup {
			return nil, fmt.Errorf("class %d has more than one track entry", class)
		}

		ids := []int{}
		if strings.TrimSpace(idsPart) != "" {
			for _, part := range strings.Split(idsPart, ",") {
				id, err := parseID(part)
				if err != nil {
					return nil, fmt.Errorf("invalid track in %q: %v", entry, err)
				}
				ids = append(ids, id)
			}
		}
		tracks[class] = ids
	}
	return tracks, nil
}

// ParseTargetSize parses a WIDTHxHEIGHT size such as "20x20"
func ParseTargetSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid width in size %q", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid height in size %q", s)
	}
	return width, height, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("negative id %d", id)
	}
	return id, nil
}
