// Package photo turns geotagged photo records into renderable map features.
package photo

import (
	"errors"
	"fmt"
)

// ErrMissingCoordinates is returned by FromRaw when a record has no position.
var ErrMissingCoordinates = errors.New("photo record has no coordinates")

// Record is one geotagged photo. Coordinates are required.
type Record struct {
	Longitude       float64 `json:"longitude" yaml:"longitude" minimum:"-180" maximum:"180" doc:"Longitude in degrees" example:"116.38"`
	Latitude        float64 `json:"latitude" yaml:"latitude" minimum:"-90" maximum:"90" doc:"Latitude in degrees" example:"39.9"`
	URL             string  `json:"url" yaml:"url" required:"true" doc:"Full image URL" example:"https://example.com/a.jpg"`
	BlurPlaceholder string  `json:"blurPlaceholder,omitempty" yaml:"blurPlaceholder" doc:"Blur placeholder data URL shown while the image loads"`
	Width           int     `json:"width" yaml:"width" minimum:"0" doc:"Image width in pixels" example:"100"`
	Height          int     `json:"height" yaml:"height" minimum:"0" doc:"Image height in pixels" example:"200"`
}

// RawRecord is a record as delivered by upstream data, where the position
// may be missing.
type RawRecord struct {
	Longitude       *float64 `json:"longitude" yaml:"longitude"`
	Latitude        *float64 `json:"latitude" yaml:"latitude"`
	URL             string   `json:"url" yaml:"url"`
	BlurPlaceholder string   `json:"blurPlaceholder" yaml:"blurPlaceholder"`
	Width           int      `json:"width" yaml:"width"`
	Height          int      `json:"height" yaml:"height"`
}

// FromRaw converts an upstream record, rejecting ones without coordinates.
func FromRaw(raw RawRecord) (Record, error) {
	if raw.Longitude == nil || raw.Latitude == nil {
		return Record{}, fmt.Errorf("%w: %q", ErrMissingCoordinates, raw.URL)
	}
	return Record{
		Longitude:       *raw.Longitude,
		Latitude:        *raw.Latitude,
		URL:             raw.URL,
		BlurPlaceholder: raw.BlurPlaceholder,
		Width:           raw.Width,
		Height:          raw.Height,
	}, nil
}

// FromRawAll converts records in order, dropping the ones without
// coordinates. The dropped records are returned alongside for reporting.
func FromRawAll(raws []RawRecord) (records []Record, dropped []RawRecord) {
	records = make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := FromRaw(raw)
		if err != nil {
			dropped = append(dropped, raw)
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// Dataset is one version of the photo collection. A nil *Dataset means the
// collection has not been loaded yet.
type Dataset struct {
	Version uint64
	Records []Record
}

// Len returns the number of records, treating a nil dataset as empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}
