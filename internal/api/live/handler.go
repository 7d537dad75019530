// Package live contains Datastar SSE handlers for the map viewer page.
//
// The page posts its signals (session id, theme, width, locale, clicks) and
// receives back signal patches, the popup fragment, and custom DOM events
// that reconfigure the MapLibre map.
package live

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/photomap/internal/humastar"
	"github.com/joeblew999/photomap/internal/service"
	"github.com/joeblew999/photomap/internal/viewer"
)

// Custom DOM events dispatched to the page.
const (
	EventSurface         = "photomap-surface"
	EventPopup           = "photomap-popup"
	EventLanguageControl = "photomap-language-control"
)

// PopupSelector is the element the popup fragment is patched into.
const PopupSelector = "#photo-popup"

// Handler serves the viewer session routes.
type Handler struct {
	humastar.Handler
	sessions *viewer.Store
	bus      *service.EventBus
	log      *slog.Logger
}

// NewHandler creates the viewer handler.
func NewHandler(sessions *viewer.Store, bus *service.EventBus, h humastar.Handler, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Handler: h, sessions: sessions, bus: bus, log: log}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/viewer/sessions", h.CreateSession, huma.OperationTags("viewer"))
	huma.Delete(api, "/api/v1/viewer/sessions/{id}", h.DeleteSession, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/ready", h.Ready, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/click", h.Click, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/popup/close", h.ClosePopup, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/env", h.Env, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/events", h.Events, huma.OperationTags("viewer"))
}

// session parses the signals and looks up the session they name.
func (h *Handler) session(input *humastar.SignalsInput) (*viewer.Session, humastar.Signals, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, nil, err
	}
	s, err := h.lookup(signals.String(SignalSession))
	if err != nil {
		return nil, nil, err
	}
	return s, signals, nil
}

func (h *Handler) lookup(id string) (*viewer.Session, error) {
	if id == "" {
		return nil, huma.Error400BadRequest("session signal is required")
	}
	s, err := h.sessions.Get(id)
	if errors.Is(err, viewer.ErrSessionNotFound) {
		return nil, huma.Error404NotFound("viewer session not found")
	}
	return s, err
}

func (h *Handler) CreateSession(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	s := h.sessions.Create(EnvironmentFrom(signals), VarsFrom(signals))
	h.log.Debug("viewer session created", "session", s.ID, "env", s.Environment())

	surface := s.Surface()
	u := viewer.Update{Surface: &surface, Vars: s.Vars()}
	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{SignalSession: s.ID})
		h.write(sse, u)
	}), nil
}

type DeleteSessionInput struct {
	ID string `path:"id" doc:"Viewer session id"`
}

func (h *Handler) DeleteSession(ctx context.Context, input *DeleteSessionInput) (*huma.StreamResponse, error) {
	u, err := h.sessions.Delete(input.ID)
	if errors.Is(err, viewer.ErrSessionNotFound) {
		return nil, huma.Error404NotFound("viewer session not found")
	}
	if err != nil {
		return nil, err
	}
	h.log.Debug("viewer session closed", "session", input.ID)
	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{SignalSession: ""})
		h.write(sse, u)
	}), nil
}

func (h *Handler) Ready(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	s, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	id := signals.String(SignalSurfaceID)
	if id == "" {
		return nil, huma.Error400BadRequest("surfaceId signal is required")
	}
	u := s.SurfaceReady(id)
	return h.Stream(func(sse humastar.SSE) { h.write(sse, u) }), nil
}

func (h *Handler) Click(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	s, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	var u viewer.Update
	if signals.Has(SignalHits) {
		hits, err := HitsFrom(signals)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid hits: " + err.Error())
		}
		u = s.Click(hits)
	} else {
		u = s.ClickAt(ClickPoint(signals), signals.Float(SignalZoom))
	}
	return h.Stream(func(sse humastar.SSE) { h.write(sse, u) }), nil
}

func (h *Handler) ClosePopup(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	s, _, err := h.session(input)
	if err != nil {
		return nil, err
	}
	u := s.ClosePopup()
	return h.Stream(func(sse humastar.SSE) { h.write(sse, u) }), nil
}

// Env applies theme, viewport and locale changes in that order. Signals the
// page did not send leave their part of the environment alone.
func (h *Handler) Env(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	s, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	cur, next := s.Environment(), EnvironmentFrom(signals)

	var u viewer.Update
	if signals.Has(SignalTheme) && next.Theme != cur.Theme {
		u = u.Merge(s.SetTheme(next.Theme))
	}
	if next.Viewport != "" {
		u = u.Merge(s.SetViewport(next.Viewport))
	}
	if signals.Has(SignalLocale) && next.Locale != cur.Locale {
		u = u.Merge(s.SetLocale(next.Locale))
	}
	return h.Stream(func(sse humastar.SSE) { h.write(sse, u) }), nil
}
