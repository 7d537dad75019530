package humastar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalsAccessors(t *testing.T) {
	s, err := ParseSignals([]byte(`{"session":"abc","zoom":4.5,"width":390,"ready":true,
		"hits":[{"layer":"photo-point"}]}`))
	require.NoError(t, err)

	assert.Equal(t, "abc", s.String("session"))
	assert.Equal(t, "", s.String("zoom"))
	assert.Equal(t, 4.5, s.Float("zoom"))
	assert.Equal(t, 390, s.Int("width"))
	assert.True(t, s.Has("hits"))
	assert.False(t, s.Has("missing"))

	var hits []struct {
		Layer string `json:"layer"`
	}
	require.NoError(t, s.Decode("hits", &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "photo-point", hits[0].Layer)
}

func TestSignalsInputMustParse(t *testing.T) {
	in := &SignalsInput{RawBody: []byte("not json")}
	_, err := in.MustParse()
	assert.Error(t, err)
}

func TestPaginationLinks(t *testing.T) {
	p := PageBody[int]{Total: 25, Offset: 10, Limit: 10}
	links := p.PaginationLinks("/api/v1/photos")
	assert.Equal(t, []string{
		`</api/v1/photos?offset=0&limit=10>; rel="first"`,
		`</api/v1/photos?offset=0&limit=10>; rel="prev"`,
		`</api/v1/photos?offset=20&limit=10>; rel="next"`,
		`</api/v1/photos?offset=20&limit=10>; rel="last"`,
	}, links)

	assert.Nil(t, PageBody[int]{Total: 3}.PaginationLinks("/x"))

	empty := PageBody[int]{Limit: 5}
	assert.Contains(t, empty.PaginationLinks("/x"), `</x?offset=0&limit=5>; rel="last"`)
}
