package api

// Links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var Links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/photos>; rel="photos"`,
		`</api/v1/map>; rel="map"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/photos>; rel="photos"`,
	},
	"/api/v1/photos": {
		`</api/v1/photos/features>; rel="features"`,
		`</api/v1/map>; rel="map"`,
	},
	"/api/v1/photos/features": {
		`</api/v1/photos>; rel="collection"`,
	},
	"/api/v1/map": {
		`</api/v1/photos/features>; rel="features"`,
		`</viewer>; rel="viewer"`,
	},
}
