package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// trackPrefixLen is the number of leading filename characters naming the track
const trackPrefixLen = 5

// TrackFilter maps a class to the set of track ids to load for it
type TrackFilter map[int]map[int]bool

// NewTrackFilter builds a filter from per-class track lists
func NewTrackFilter(tracks map[int][]int) TrackFilter {
	f := make(TrackFilter, len(tracks))
	for class, ids := range tracks {
		set := make(map[int]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		f[class] = set
	}
	return f
}

// Accepts reports whether track is selected for class
func (f TrackFilter) Accepts(class, track int) bool {
	return f[class][track]
}

// Tracks returns the sorted track ids selected for class
func (f TrackFilter) Tracks(class int) []int {
	ids := make([]int, 0, len(f[class]))
	for id, ok := range f[class] {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// ClassDir returns the directory name of a class, zero-padded to five digits
func ClassDir(class int) string {
	return fmt.Sprintf("%05d", class)
}

// AnnotationFile returns the annotation file name of a class
func AnnotationFile(class int) string {
	return "GT-" + ClassDir(class) + ".csv"
}

// TrackID returns the integer value of the first five characters of filename
func TrackID(filename string) (int, error) {
	if len(filename) < trackPrefixLen {
		return 0, errors.Wrapf(ErrFormat, "filename %q shorter than %d characters", filename, trackPrefixLen)
	}
	id, err := strconv.Atoi(strings.TrimSpace(filename[:trackPrefixLen]))
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "filename %q has no numeric track prefix", filename)
	}
	return id, nil
}
