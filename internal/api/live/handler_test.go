package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/photomap/internal/humastar"
	"github.com/joeblew999/photomap/internal/logging"
	"github.com/joeblew999/photomap/internal/photo"
	"github.com/joeblew999/photomap/internal/service"
	"github.com/joeblew999/photomap/internal/templates"
	"github.com/joeblew999/photomap/internal/viewer"
)

type fixture struct {
	mux      *http.ServeMux
	photos   *service.PhotoService
	sessions *viewer.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	renderer, err := templates.Default()
	require.NoError(t, err)

	photos := service.NewPhotoService(nil, service.NewEventBus(), logging.Discard(), nil)
	sessions := viewer.NewStore(photos, nil)

	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("test", "1.0.0"))
	NewHandler(sessions, photos.Bus(), humastar.Handler{Renderer: renderer}, logging.Discard()).RegisterRoutes(api)
	return &fixture{mux: mux, photos: photos, sessions: sessions}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) only(t *testing.T) *viewer.Session {
	t.Helper()
	var got *viewer.Session
	f.sessions.Each(func(s *viewer.Session) { got = s })
	require.NotNil(t, got)
	return got
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	_, err := f.photos.Replace(context.Background(), []photo.Record{
		{Longitude: 116.38, Latitude: 39.9, URL: "https://example.com/a.jpg", Width: 100, Height: 200},
		{Longitude: 121.47, Latitude: 31.23, URL: "https://example.com/b.jpg", Width: 50, Height: 50},
	})
	require.NoError(t, err)
}

func TestCreateSessionStreamsSessionAndSurface(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/viewer/sessions",
		`{"theme":"dark","width":390,"locale":"en","cssBackground":"#ffffff","cssForeground":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	s := f.only(t)
	out := rec.Body.String()
	assert.Contains(t, out, "datastar-patch-signals")
	assert.Contains(t, out, s.ID)
	assert.Contains(t, out, EventSurface)
	assert.Contains(t, out, "#0b0f17", "dark palette background")

	env := s.Environment()
	assert.Equal(t, "dark", string(env.Theme))
	assert.Equal(t, "mobile", string(env.Viewport))
}

func TestClickOpensAndClosesPopup(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.do(t, http.MethodPost, "/api/v1/viewer/sessions", `{"theme":"light","width":1280}`)
	s := f.only(t)

	rec := f.do(t, http.MethodPost, "/api/v1/viewer/click",
		`{"session":"`+s.ID+`","lng":121.47,"lat":31.23,"zoom":6}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com/b.jpg")
	p, open := s.Popup()
	require.True(t, open)
	assert.Equal(t, 1, p.Index)

	rec = f.do(t, http.MethodPost, "/api/v1/viewer/popup/close", `{"session":"`+s.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), EventPopup)
	_, open = s.Popup()
	assert.False(t, open)
}

func TestClickWithReportedHits(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/viewer/sessions", `{}`)
	s := f.only(t)

	body := `{"session":"` + s.ID + `","hits":[
		{"layer":"road-label","feature":{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}},
		{"layer":"photo-point","feature":{"type":"Feature","geometry":{"type":"Point","coordinates":[2.35,48.85]},
		 "properties":{"index":0,"url":"https://example.com/p.jpg","width":640,"height":480}}}]}`
	rec := f.do(t, http.MethodPost, "/api/v1/viewer/click", body)
	require.Equal(t, http.StatusOK, rec.Code)
	p, open := s.Popup()
	require.True(t, open)
	assert.Equal(t, "https://example.com/p.jpg", p.URL)
	assert.Equal(t, 640, p.Width)

	rec = f.do(t, http.MethodPost, "/api/v1/viewer/click", `{"session":"`+s.ID+`","hits":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, open = s.Popup()
	assert.False(t, open)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/v1/viewer/click", `{"session":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/viewer/click", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/viewer/click", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/v1/viewer/sessions/nope", "").Code)
}

func TestReadyAttachesLanguageControlOnce(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/viewer/sessions", `{"locale":"zh"}`)
	s := f.only(t)

	rec := f.do(t, http.MethodPost, "/api/v1/viewer/ready", `{"session":"`+s.ID+`","surfaceId":"m1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), EventLanguageControl)

	rec = f.do(t, http.MethodPost, "/api/v1/viewer/env", `{"session":"`+s.ID+`","locale":"zh"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), EventLanguageControl)

	assert.Equal(t, http.StatusBadRequest,
		f.do(t, http.MethodPost, "/api/v1/viewer/ready", `{"session":"`+s.ID+`"}`).Code)
}

func TestEnvThemeChangeAndDeleteRestoreVars(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/viewer/sessions", `{"theme":"light","cssBackground":"#abcdef"}`)
	s := f.only(t)

	rec := f.do(t, http.MethodPost, "/api/v1/viewer/env", `{"session":"`+s.ID+`","theme":"dark"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#0b0f17")
	assert.Contains(t, rec.Body.String(), "dark-matter")

	rec = f.do(t, http.MethodDelete, "/api/v1/viewer/sessions/"+s.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#abcdef")
	assert.Equal(t, 0, f.sessions.Len())
}

func TestEnvChangeKeepsOpenPopup(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.do(t, http.MethodPost, "/api/v1/viewer/sessions", `{"theme":"light","width":1280}`)
	s := f.only(t)
	f.do(t, http.MethodPost, "/api/v1/viewer/click", `{"session":"`+s.ID+`","lng":121.47,"lat":31.23,"zoom":6}`)

	rec := f.do(t, http.MethodPost, "/api/v1/viewer/env", `{"session":"`+s.ID+`","theme":"dark","width":390}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, EventSurface)
	assert.Contains(t, out, EventPopup)
	assert.Contains(t, out, "https://example.com/b.jpg")
	_, open := s.Popup()
	assert.True(t, open)
}

func TestEventsStreamDatasetChanges(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/viewer/sessions", `{}`)
	s := f.only(t)
	assert.Nil(t, s.Surface().Source)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/viewer/events?session="+s.ID, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.mux.ServeHTTP(rec, req)
	}()

	assert.Eventually(t, func() bool {
		f.load(t)
		return s.Surface().Source != nil
	}, 2*time.Second, 20*time.Millisecond)

	_, err := f.sessions.Delete(s.ID)
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events stream did not end with the session")
	}
	assert.Contains(t, rec.Body.String(), EventSurface)
}
