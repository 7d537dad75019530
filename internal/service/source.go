package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/photomap/internal/photo"
)

// Source supplies the upstream photo records.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]photo.RawRecord, error)
}

// Saver is a Source that can also persist a replacement dataset.
type Saver interface {
	Save(ctx context.Context, records []photo.Record) error
}

// FileSource reads records from a JSON or YAML array on disk.
type FileSource struct {
	Path string
}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.Path))
	return ext == ".yaml" || ext == ".yml"
}

// Load decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]photo.RawRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read photos: %w", err)
	}
	return DecodeRecords(data, s.isYAML())
}

// Save writes records as JSON or YAML depending on the file extension.
func (s *FileSource) Save(ctx context.Context, records []photo.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(records)
	} else {
		data, err = json.MarshalIndent(records, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}
	return os.WriteFile(s.Path, data, 0644)
}

// DecodeRecords parses a JSON or YAML array of raw records.
func DecodeRecords(data []byte, isYAML bool) ([]photo.RawRecord, error) {
	var raws []photo.RawRecord
	var err error
	if isYAML {
		err = yaml.Unmarshal(data, &raws)
	} else {
		err = json.Unmarshal(data, &raws)
	}
	if err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	if raws == nil {
		raws = []photo.RawRecord{}
	}
	return raws, nil
}

// DuckDBSource reads records from the photos table, ordered by seq.
type DuckDBSource struct {
	DB *sql.DB
}

// NewDuckDBSource returns a source over db, creating the table if needed.
func NewDuckDBSource(ctx context.Context, db *sql.DB) (*DuckDBSource, error) {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS photos "+photosColumns); err != nil {
		return nil, fmt.Errorf("create photos table: %w", err)
	}
	return &DuckDBSource{DB: db}, nil
}

// seq carries no key constraint: Import rewrites every seq in one transaction.
const photosColumns = `(
	seq INTEGER NOT NULL,
	longitude DOUBLE,
	latitude DOUBLE,
	url VARCHAR NOT NULL,
	blur_placeholder VARCHAR,
	width INTEGER,
	height INTEGER
)`

func (s *DuckDBSource) Name() string { return "duckdb:photos" }

// Load reads all rows; NULL coordinates come back as absent.
func (s *DuckDBSource) Load(ctx context.Context) ([]photo.RawRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT longitude, latitude, url,
		COALESCE(blur_placeholder, ''), COALESCE(width, 0), COALESCE(height, 0)
		FROM photos ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	raws := []photo.RawRecord{}
	for rows.Next() {
		var (
			lon, lat sql.NullFloat64
			r        photo.RawRecord
		)
		if err := rows.Scan(&lon, &lat, &r.URL, &r.BlurPlaceholder, &r.Width, &r.Height); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		if lon.Valid {
			r.Longitude = &lon.Float64
		}
		if lat.Valid {
			r.Latitude = &lat.Float64
		}
		raws = append(raws, r)
	}
	return raws, rows.Err()
}

// Save replaces the table contents with records.
func (s *DuckDBSource) Save(ctx context.Context, records []photo.Record) error {
	raws := make([]photo.RawRecord, len(records))
	for i := range records {
		r := records[i]
		raws[i] = photo.RawRecord{
			Longitude: &r.Longitude, Latitude: &r.Latitude,
			URL: r.URL, BlurPlaceholder: r.BlurPlaceholder,
			Width: r.Width, Height: r.Height,
		}
	}
	return s.Import(ctx, raws)
}

// Import replaces the table contents with upstream records as-is, keeping
// absent coordinates as NULL. The table is rebuilt rather than cleared so
// tables created with an older schema lose their key constraint too.
func (s *DuckDBSource) Import(ctx context.Context, raws []photo.RawRecord) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "CREATE OR REPLACE TABLE photos "+photosColumns); err != nil {
		return fmt.Errorf("clear photos: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO photos
		(seq, longitude, latitude, url, blur_placeholder, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range raws {
		if _, err := stmt.ExecContext(ctx, i, nullFloat(r.Longitude), nullFloat(r.Latitude),
			r.URL, r.BlurPlaceholder, r.Width, r.Height); err != nil {
			return fmt.Errorf("insert photo %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
