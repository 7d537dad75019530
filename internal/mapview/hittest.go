package mapview

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/joeblew999/photomap/internal/photo"
	"github.com/joeblew999/photomap/internal/selection"
	"github.com/joeblew999/photomap/internal/style"
)

// TileSize is the MapLibre tile size the zoom levels refer to.
const TileSize = 512

// worldMeters is the width of the Web Mercator plane.
var worldMeters = 2 * math.Pi * orb.EarthRadius

// MetersPerPixel returns the Web Mercator resolution at zoom.
func MetersPerPixel(zoom float64) float64 {
	return worldMeters / (TileSize * math.Pow(2, zoom))
}

// PixelDistance is the on-screen distance between a and b at zoom.
func PixelDistance(a, b orb.Point, zoom float64) float64 {
	ma := project.WGS84.ToMercator(a)
	mb := project.WGS84.ToMercator(b)

	dx := math.Abs(ma[0] - mb[0])
	if dx > worldMeters/2 {
		dx = worldMeters - dx
	}
	dy := ma[1] - mb[1]
	return math.Hypot(dx, dy) / MetersPerPixel(zoom)
}

// HitTest reports the photo features under a click at zoom, in the order
// the map would: point layer above hit-target layer, and within a layer
// later features above earlier ones.
func HitTest(fc *photo.FeatureCollection, click orb.Point, zoom float64) []selection.Hit {
	if fc.Len() == 0 {
		return nil
	}
	pointR := style.ResolveRadius(style.PointLayer, zoom)
	hitR := style.ResolveRadius(style.HitTargetLayer, zoom)

	var onPoint, onTarget []photo.Feature
	for _, f := range fc.Features {
		d := PixelDistance(f.Point, click, zoom)
		if d <= pointR {
			onPoint = append(onPoint, f)
		}
		if d <= hitR {
			onTarget = append(onTarget, f)
		}
	}

	byTopMost := func(fs []photo.Feature) {
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Index > fs[j].Index })
	}
	byTopMost(onPoint)
	byTopMost(onTarget)

	hits := make([]selection.Hit, 0, len(onPoint)+len(onTarget))
	for _, f := range onPoint {
		hits = append(hits, selection.Hit{LayerID: string(style.PointLayer), Feature: f.GeoJSON()})
	}
	for _, f := range onTarget {
		hits = append(hits, selection.Hit{LayerID: string(style.HitTargetLayer), Feature: f.GeoJSON()})
	}
	return hits
}
