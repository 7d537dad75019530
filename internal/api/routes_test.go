package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/photomap/internal/humastar"
	"github.com/joeblew999/photomap/internal/logging"
	"github.com/joeblew999/photomap/internal/mapview"
	"github.com/joeblew999/photomap/internal/photo"
	"github.com/joeblew999/photomap/internal/service"
	"github.com/joeblew999/photomap/internal/style"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *service.PhotoService) {
	t.Helper()
	photos := service.NewPhotoService(nil, service.NewEventBus(), logging.Discard(), nil)
	cfg := huma.DefaultConfig("test", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, humastar.LinkTransformer(Links))
	_, api := humatest.New(t, cfg)
	huma.AutoRegister(api, NewAPIHandler(&Services{Photos: photos}))
	NewInfoHandler("test", "file", func() int { return 0 }).RegisterRoutes(api)
	return api, photos
}

func seed(t *testing.T, photos *service.PhotoService, n int) {
	t.Helper()
	records := make([]photo.Record, n)
	for i := range records {
		records[i] = photo.Record{Longitude: float64(i), Latitude: float64(i), URL: "https://example.com/p.jpg", Width: 10, Height: 10}
	}
	_, err := photos.Replace(context.Background(), records)
	require.NoError(t, err)
}

func TestHealthReportsLoaded(t *testing.T) {
	api, photos := newTestAPI(t)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"loaded":false`)
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/photos>; rel="photos"`)

	seed(t, photos, 1)
	assert.Contains(t, api.Get("/health").Body.String(), `"loaded":true`)
}

func TestPhotosNotLoaded(t *testing.T) {
	api, _ := newTestAPI(t)
	assert.Equal(t, http.StatusServiceUnavailable, api.Get("/api/v1/photos").Code)
	assert.Equal(t, http.StatusServiceUnavailable, api.Get("/api/v1/photos/features").Code)
}

func TestPhotosPagination(t *testing.T) {
	api, photos := newTestAPI(t)
	seed(t, photos, 5)

	resp := api.Get("/api/v1/photos?offset=2&limit=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var body humastar.PageBody[photo.Record]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Total)
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 2.0, body.Data[0].Longitude)

	links := resp.Header().Values("Link")
	assert.Contains(t, links, `</api/v1/photos?offset=4&limit=2>; rel="next"`)
	assert.Contains(t, links, `</api/v1/photos?offset=0&limit=2>; rel="prev"`)
}

func TestPutPhotosValidates(t *testing.T) {
	api, photos := newTestAPI(t)

	resp := api.Put("/api/v1/photos", []map[string]any{
		{"longitude": 200, "latitude": 0, "url": "x.jpg", "width": 1, "height": 1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Nil(t, photos.Dataset())

	resp = api.Put("/api/v1/photos", []photo.Record{{Longitude: 2.35, Latitude: 48.85, URL: "p.jpg", Width: 1, Height: 1}})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"count":1`)
	assert.Equal(t, 1, photos.Dataset().Len())
}

func TestFeaturesGeoJSON(t *testing.T) {
	api, photos := newTestAPI(t)
	seed(t, photos, 2)

	resp := api.Get("/api/v1/photos/features")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/geo+json", resp.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         any            `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, 1.0, fc.Features[1].Properties[photo.PropIndex])
}

func TestMapSurface(t *testing.T) {
	api, photos := newTestAPI(t)

	var surf mapview.Surface
	resp := api.Get("/api/v1/map?theme=dark&width=390")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &surf))
	assert.Equal(t, style.DarkStyle, surf.Style)
	assert.Equal(t, style.MobileZoom, surf.Camera.Zoom)
	assert.Nil(t, surf.Source)
	assert.Empty(t, surf.Layers)

	seed(t, photos, 3)
	resp = api.Get("/api/v1/map?viewport=desktop&width=390")
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &surf))
	assert.Equal(t, style.DesktopZoom, surf.Camera.Zoom)
	assert.Equal(t, style.LightStyle, surf.Style)
	assert.Len(t, surf.Layers, 3)
	assert.ElementsMatch(t, []string{string(style.HitTargetLayer), string(style.PointLayer)}, surf.InteractiveLayerIDs)
}

func TestInfo(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/api/v1/info")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"photomap"`)
}
