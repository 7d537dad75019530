package live

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/photomap/internal/humastar"
	"github.com/joeblew999/photomap/internal/mapview"
	"github.com/joeblew999/photomap/internal/selection"
	"github.com/joeblew999/photomap/internal/service"
	"github.com/joeblew999/photomap/internal/viewer"
)

type EventsInput struct {
	Session string `query:"session" required:"true" doc:"Viewer session id"`
}

// Events streams dataset changes to one session until the client goes
// away or the session is closed.
func (h *Handler) Events(ctx context.Context, input *EventsInput) (*huma.StreamResponse, error) {
	s, err := h.lookup(input.Session)
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)

		// The dataset may have changed between session creation and
		// subscription.
		h.write(sse, s.SetDataset(h.sessions.Dataset()))

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.Done():
				return
			case ev := <-ch:
				if ev.Resource != service.ResourcePhotos {
					continue
				}
				h.write(sse, s.SetDataset(h.sessions.Dataset()))
				sse.Event("resource-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"version":  ev.Version,
				})
			}
		}
	}), nil
}

// write renders an update: surface and language control as custom events,
// the popup as a fragment plus its placement event, variables as signals.
func (h *Handler) write(sse humastar.SSE, u viewer.Update) {
	if u.Empty() {
		return
	}
	if u.Vars != nil {
		sse.Signals(VarSignals(u.Vars))
	}
	if u.Surface != nil {
		sse.Event(EventSurface, u.Surface)
	}
	if u.PopupChanged {
		h.writePopup(sse, u.Popup)
	}
	if u.AttachLanguageControl {
		sse.Event(EventLanguageControl, map[string]any{"locale": mapview.LanguageControlLocale})
	}
}

// writePopup replaces the whole container so the patch is never empty.
func (h *Handler) writePopup(sse humastar.SSE, p *selection.Popup) {
	sse.Replace(`<div id="photo-popup">`+h.Render("popup", p)+`</div>`, PopupSelector)
	sse.Event(EventPopup, p)
}
