package style

// MapLibre style expressions. Each builder returns a JSON-encodable value
// that the page passes straight into a layer's paint properties.

// ColorRampExpression interpolates the ramp over the feature "index"
// property for a dataset of the given size.
func ColorRampExpression(r Ramp, datasetSize int) []any {
	return []any{
		"interpolate", []any{"linear"}, []any{"get", "index"},
		0, Hex(r.Start),
		DomainMax(datasetSize), Hex(r.End),
	}
}

// RadiusExpression interpolates the layer's radius over the map zoom.
func RadiusExpression(l Layer) []any {
	expr := []any{"interpolate", []any{"linear"}, []any{"zoom"}}
	for _, s := range RadiusStops[l] {
		expr = append(expr, s.Zoom, s.Radius)
	}
	return expr
}

// Paint returns the circle paint for one of the photo layers.
func Paint(l Layer, datasetSize int) map[string]any {
	switch l {
	case HitTargetLayer:
		return map[string]any{
			"circle-radius":  RadiusExpression(l),
			"circle-color":   "#000000",
			"circle-opacity": 0,
		}
	case GlowLayer:
		return map[string]any{
			"circle-radius":  RadiusExpression(l),
			"circle-color":   ColorRampExpression(GlowRamp, datasetSize),
			"circle-opacity": 0.35,
			"circle-blur":    1,
		}
	case PointLayer:
		return map[string]any{
			"circle-radius":       RadiusExpression(l),
			"circle-color":        ColorRampExpression(PointRamp, datasetSize),
			"circle-stroke-width": 1,
			"circle-stroke-color": "#ffffff",
		}
	}
	return nil
}
