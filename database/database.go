package database

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"time"

	"trafficsigns/logging"
	"trafficsigns/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create table if it doesn't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class_id INTEGER NOT NULL,
		track INTEGER NOT NULL,
		filename TEXT NOT NULL,
		width INTEGER,
		height INTEGER,
		roi_x1 INTEGER,
		roi_y1 INTEGER,
		roi_x2 INTEGER,
		roi_y2 INTEGER,
		label TEXT,
		feature_rows INTEGER,
		feature_cols INTEGER,
		features BLOB,
		created_at TEXT,
		UNIQUE(class_id, filename)
	);
	CREATE INDEX IF NOT EXISTS idx_class ON samples(class_id);
	CREATE INDEX IF NOT EXISTS idx_class_track ON samples(class_id, track);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, err
	}

	logging.DebugLog("Sample index ready at %s", dbPath)
	return db, nil
}

// OpenDatabase opens an existing database connection
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// CheckSampleExists checks if a sample is already indexed
func CheckSampleExists(db *sql.DB, classID int, filename string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM samples WHERE class_id = ? AND filename = ?", classID, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("database error for class %d %s: %v", classID, filename, err)
	}
	return count > 0, nil
}

// StoreSample stores a sample and its features in the database
func StoreSample(db *sql.DB, info types.SampleInfo, forceRewrite bool) error {
	now := time.Now().Format(time.RFC3339)

	blob, err := EncodeFeatures(info.Features)
	if err != nil {
		return fmt.Errorf("cannot encode features for %s: %v", info.Sample.Filename, err)
	}

	verb := "INSERT OR IGNORE"
	if forceRewrite {
		verb = "INSERT OR REPLACE"
	}
	stmt, err := db.Prepare(verb + ` INTO samples (
		class_id, track, filename, width, height, roi_x1, roi_y1, roi_x2, roi_y2,
		label, feature_rows, feature_cols, features, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %v", info.Sample.Filename, err)
	}
	defer stmt.Close()

	s := info.Sample
	_, err = stmt.Exec(
		s.Class,
		s.Track,
		s.Filename,
		s.Dims.Width,
		s.Dims.Height,
		s.ROI.P1.X,
		s.ROI.P1.Y,
		s.ROI.P2.X,
		s.ROI.P2.Y,
		s.Label,
		info.FeatureRows,
		info.FeatureCols,
		blob,
		now,
	)
	if err != nil {
		return fmt.Errorf("cannot insert data for %s: %v", s.Filename, err)
	}

	return nil
}

// QuerySamples returns the indexed samples of a class in insertion order.
// A negative classID returns every sample.
func QuerySamples(db *sql.DB, classID int) ([]types.SampleInfo, error) {
	query := `SELECT id, class_id, track, filename, width, height, roi_x1, roi_y1, roi_x2, roi_y2,
		label, feature_rows, feature_cols, features, created_at FROM samples`
	var args []interface{}
	if classID >= 0 {
		query += " WHERE class_id = ?"
		args = append(args, classID)
	}
	query += " ORDER BY id"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %v", err)
	}
	defer rows.Close()

	var out []types.SampleInfo
	for rows.Next() {
		var info types.SampleInfo
		var blob []byte
		s := &info.Sample
		err := rows.Scan(&info.ID, &s.Class, &s.Track, &s.Filename, &s.Dims.Width, &s.Dims.Height,
			&s.ROI.P1.X, &s.ROI.P1.Y, &s.ROI.P2.X, &s.ROI.P2.Y, &s.Label,
			&info.FeatureRows, &info.FeatureCols, &blob, &info.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %v", err)
		}
		info.Features, err = DecodeFeatures(blob)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %v", s.Filename, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// GetIndexStats retrieves statistics about indexed samples
func GetIndexStats(db *sql.DB) (*types.IndexStats, error) {
	stats := &types.IndexStats{PerClass: make(map[int]int)}

	rows, err := db.Query("SELECT class_id, COUNT(*) FROM samples GROUP BY class_id ORDER BY class_id")
	if err != nil {
		return nil, fmt.Errorf("failed to get class counts: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var class, count int
		if err := rows.Scan(&class, &count); err != nil {
			return nil, fmt.Errorf("failed to scan class count: %v", err)
		}
		stats.PerClass[class] = count
		stats.TotalSamples += count
		stats.Classes++
	}
	return stats, rows.Err()
}

// EncodeFeatures serializes a feature vector as little-endian float64 values
func EncodeFeatures(features []float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, features); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFeatures is the inverse of EncodeFeatures
func DecodeFeatures(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("feature blob length %d is not a multiple of 8", len(blob))
	}
	features := make([]float64, len(blob)/8)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, features); err != nil {
		return nil, err
	}
	return features, nil
}
