// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/photomap/internal/humastar"
	"github.com/joeblew999/photomap/internal/mapview"
	"github.com/joeblew999/photomap/internal/photo"
	"github.com/joeblew999/photomap/internal/service"
	"github.com/joeblew999/photomap/internal/style"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Photos *service.PhotoService
}

// Types

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
	Loaded  bool   `json:"loaded" doc:"Whether the photo dataset is available"`
}

type PhotosInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Index of the first photo"`
	Limit  int `query:"limit" minimum:"1" maximum:"1000" default:"100" doc:"Page size"`
}

type PhotosOutput struct {
	Body humastar.PageBody[photo.Record]
}

type ReplacePhotosInput struct {
	Body []photo.Record
}

type ReplacedBody struct {
	Version uint64 `json:"version" doc:"Dataset version after the replacement"`
	Count   int    `json:"count" doc:"Number of photos"`
	Message string `json:"message" doc:"Result message"`
}

type FeaturesOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type MapInput struct {
	Theme    string `query:"theme" doc:"Color scheme (light or dark); empty while unresolved"`
	Viewport string `query:"viewport" doc:"Viewport class (mobile or desktop); takes precedence over width"`
	Width    int    `query:"width" minimum:"0" doc:"Viewport width in CSS pixels, classified when viewport is empty"`
	Locale   string `query:"locale" doc:"Viewer locale" example:"zh"`
}

type MapOutput struct {
	Body mapview.Surface
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc      *Services
	features photo.Builder
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterPhotos registers the photo dataset routes.
func (h *APIHandler) RegisterPhotos(api huma.API) {
	huma.Get(api, "/api/v1/photos", h.GetPhotos, huma.OperationTags("photos"))
	huma.Put(api, "/api/v1/photos", h.PutPhotos, huma.OperationTags("photos"))
	huma.Get(api, "/api/v1/photos/features", h.GetFeatures, huma.OperationTags("photos"))
}

// RegisterMap registers the map surface route.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
}

// Handlers

func (h *APIHandler) dataset() *photo.Dataset {
	if h.svc == nil || h.svc.Photos == nil {
		return nil
	}
	return h.svc.Photos.Dataset()
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{
		Status: "ok", Version: "1.0.0", Loaded: h.dataset() != nil,
	}}, nil
}

func (h *APIHandler) GetPhotos(ctx context.Context, input *PhotosInput) (*PhotosOutput, error) {
	if h.svc == nil || h.svc.Photos == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	records, total, err := h.svc.Photos.Page(input.Offset, input.Limit)
	if errors.Is(err, service.ErrNotLoaded) {
		return nil, huma.Error503ServiceUnavailable("photos not loaded yet")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list photos", err)
	}
	return &PhotosOutput{Body: humastar.PageBody[photo.Record]{
		Total: total, Offset: input.Offset, Limit: input.Limit, Data: records,
	}}, nil
}

func (h *APIHandler) PutPhotos(ctx context.Context, input *ReplacePhotosInput) (*struct{ Body ReplacedBody }, error) {
	if h.svc == nil || h.svc.Photos == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	ds, err := h.svc.Photos.Replace(ctx, input.Body)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to store photos", err)
	}
	return &struct{ Body ReplacedBody }{Body: ReplacedBody{
		Version: ds.Version, Count: ds.Len(), Message: "Photos replaced",
	}}, nil
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *struct{}) (*FeaturesOutput, error) {
	fc := h.features.Build(h.dataset())
	if fc == nil {
		return nil, huma.Error503ServiceUnavailable("photos not loaded yet")
	}
	data, err := fc.GeoJSON().MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to encode features", err)
	}
	return &FeaturesOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *MapInput) (*MapOutput, error) {
	env := mapview.Environment{
		Theme:    style.ParseTheme(input.Theme),
		Viewport: style.ParseViewport(input.Viewport),
		Locale:   input.Locale,
	}
	if env.Viewport == "" && input.Width > 0 {
		env.Viewport = style.ClassifyWidth(input.Width)
	}
	return &MapOutput{Body: mapview.Describe(env, h.features.Build(h.dataset()))}, nil
}
