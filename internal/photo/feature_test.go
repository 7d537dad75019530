package photo

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{Longitude: 116.38, Latitude: 39.9, URL: "a.jpg", Width: 100, Height: 200},
		{Longitude: 121.47, Latitude: 31.23, URL: "b.jpg", Width: 50, Height: 50},
	}
}

func TestBuildNilMeansNotLoaded(t *testing.T) {
	assert.Nil(t, Build(nil))
}

func TestBuildKeepsOrderAndIndex(t *testing.T) {
	records := sampleRecords()
	fc := Build(records)
	require.NotNil(t, fc)
	require.Equal(t, len(records), fc.Len())

	for i, f := range fc.Features {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, orb.Point{records[i].Longitude, records[i].Latitude}, f.Point)
		assert.Equal(t, records[i].URL, f.Attributes.URL)
		assert.Equal(t, records[i].Width, f.Attributes.Width)
		assert.Equal(t, records[i].Height, f.Attributes.Height)
	}
}

func TestBuildEmpty(t *testing.T) {
	fc := Build([]Record{})
	require.NotNil(t, fc)
	assert.Equal(t, 0, fc.Len())
}

func TestGeoJSONRoundTripThroughHitFeature(t *testing.T) {
	fc := Build(sampleRecords())
	data, err := json.Marshal(fc.GeoJSON())
	require.NoError(t, err)

	parsed, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, parsed.Features, 2)

	f, ok := FeatureFromGeoJSON(parsed.Features[1])
	require.True(t, ok)
	assert.Equal(t, fc.Features[1], f)
}

func TestFeatureFromGeoJSONRejectsNonPoint(t *testing.T) {
	line := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	_, ok := FeatureFromGeoJSON(line)
	assert.False(t, ok)

	_, ok = FeatureFromGeoJSON(nil)
	assert.False(t, ok)
}

func TestBuilderMemoizesOnDatasetIdentity(t *testing.T) {
	var b Builder
	ds := &Dataset{Version: 1, Records: sampleRecords()}

	first := b.Build(ds)
	second := b.Build(ds)
	assert.Same(t, first, second)
	assert.Equal(t, 1, b.Builds())

	next := &Dataset{Version: 2, Records: sampleRecords()[:1]}
	third := b.Build(next)
	assert.NotSame(t, first, third)
	assert.Equal(t, 1, third.Len())
	assert.Equal(t, 2, b.Builds())

	assert.Nil(t, b.Build(nil))
}

func TestFromRawAll(t *testing.T) {
	lon, lat := 10.0, 20.0
	records, dropped := FromRawAll([]RawRecord{
		{Longitude: &lon, Latitude: &lat, URL: "ok.jpg"},
		{Latitude: &lat, URL: "nolon.jpg"},
	})
	require.Len(t, records, 1)
	require.Len(t, dropped, 1)
	assert.Equal(t, "ok.jpg", records[0].URL)

	_, err := FromRaw(dropped[0])
	assert.True(t, errors.Is(err, ErrMissingCoordinates))
}
