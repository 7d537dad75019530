package envsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/photomap/internal/style"
)

func TestApplyDarkThenReleaseRestoresExactValues(t *testing.T) {
	vars := NewMapVars(map[string]string{
		BackgroundVar: "rgb(1, 2, 3)",
		ForegroundVar: "tomato",
		"--accent":    "teal",
	})
	before := vars.Snapshot()

	s := New(vars)
	p := s.Apply(style.Dark)
	assert.Equal(t, DarkPalette, p)
	bg, _ := vars.Get(BackgroundVar)
	assert.Equal(t, DarkPalette.Background, bg)

	s.Release()
	assert.Equal(t, before, vars.Snapshot())
}

func TestThemeChangeRestoresBeforeReapplying(t *testing.T) {
	vars := NewMapVars(map[string]string{BackgroundVar: "white", ForegroundVar: "black"})
	s := New(vars)

	s.Apply(style.Dark)
	s.Apply(style.Light)
	fg, _ := vars.Get(ForegroundVar)
	assert.Equal(t, LightPalette.Foreground, fg)

	// The recorded values are the originals, not the dark palette.
	s.Release()
	assert.Equal(t, map[string]string{BackgroundVar: "white", ForegroundVar: "black"}, vars.Snapshot())
}

func TestAbsentVariablesAreRemovedOnRelease(t *testing.T) {
	vars := NewMapVars(nil)
	s := New(vars)

	s.Apply(style.Dark)
	require.Len(t, vars.Snapshot(), 2)

	s.Release()
	assert.Empty(t, vars.Snapshot())
}

func TestUnresolvedThemeUsesLightPalette(t *testing.T) {
	assert.Equal(t, LightPalette, PaletteFor(""))
	assert.Equal(t, LightPalette, PaletteFor(style.ParseTheme("unknown")))

	s := New(NewMapVars(nil))
	assert.Equal(t, LightPalette, s.Apply(""))
}

func TestReleaseIsIdempotent(t *testing.T) {
	vars := NewMapVars(map[string]string{BackgroundVar: "a"})
	s := New(vars)
	s.Release()

	s.Apply(style.Dark)
	s.Release()
	vars.Set(BackgroundVar, "changed later")
	s.Release()

	bg, _ := vars.Get(BackgroundVar)
	assert.Equal(t, "changed later", bg)
	_, active := s.Active()
	assert.False(t, active)
}
