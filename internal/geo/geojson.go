package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNoSiteLocation is returned when a site carries no reference latitude/longitude.
var ErrNoSiteLocation = errors.New("site has no reference latitude/longitude")

// SiteFeature builds a GeoJSON Point feature for a site reference location.
// Latitude and longitude are sexagesimal quadruples as stored in the document.
func SiteFeature(name string, lat, lon []int, elevation *float64) (*geojson.Feature, error) {
	if lat == nil || lon == nil {
		return nil, ErrNoSiteLocation
	}

	latDD, err := SexagesimalToDecimal(lat)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lonDD, err := SexagesimalToDecimal(lon)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}

	f := geojson.NewFeature(orb.Point{lonDD, latDD}) // [Lon, Lat]
	f.Properties["name"] = name
	f.Properties["ref_latitude"] = lat
	f.Properties["ref_longitude"] = lon
	if elevation != nil {
		f.Properties["ref_elevation"] = *elevation
	}

	return f, nil
}
