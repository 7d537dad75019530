package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	version string
	store   string
	photos  func() int
}

// NewInfoHandler reports version, the configured photo store and a live
// photo count.
func NewInfoHandler(version, store string, photos func() int) *InfoHandler {
	return &InfoHandler{version: version, store: store, photos: photos}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Store    string   `json:"store" doc:"Photo store" example:"file"`
	Photos   int      `json:"photos" doc:"Photos in the current dataset, -1 while loading"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	count := -1
	if h.photos != nil {
		count = h.photos()
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "photomap",
		Version:  h.version,
		Store:    h.store,
		Photos:   count,
		Features: []string{"geojson", "datastar", "duckdb", "metrics"},
	}}, nil
}
