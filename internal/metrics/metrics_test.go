package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.Click(true)
	c.Click(false)
	c.Click(false)
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()
	c.Dataset(12, 3)
	c.LanguageControlAttached()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Clicks.WithLabelValues("selected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Clicks.WithLabelValues("cleared")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Sessions))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.DatasetRecords))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.DroppedRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LanguageControls))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "photomap_clicks_total")
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Click(true)
	c.SessionOpened()
	c.SessionClosed()
	c.Dataset(1, 0)
	c.LanguageControlAttached()
	assert.NotNil(t, c.Handler())
}

func TestNewTwiceOnSameRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.NoError(t, err)
}
