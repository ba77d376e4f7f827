package georef

import (
	"encoding/json"

	"github.com/woozymasta/bimgeo/internal/document"
)

// CRSInfo reports the fields of a projected CRS; nil means absent.
type CRSInfo struct {
	Name          *string `json:"name"`
	GeodeticDatum *string `json:"geodetic_datum"`
	VerticalDatum *string `json:"vertical_datum"`
	MapProjection *string `json:"map_projection"`
	MapZone       *string `json:"map_zone"`
	MapUnit       *string `json:"map_unit"`
}

func (c *CRSInfo) any() bool {
	return c.Name != nil || c.GeodeticDatum != nil || c.VerticalDatum != nil ||
		c.MapProjection != nil || c.MapZone != nil || c.MapUnit != nil
}

// MapConversionInfo reports the transform fields of a map conversion.
type MapConversionInfo struct {
	Eastings         *float64 `json:"eastings"`
	Northings        *float64 `json:"northings"`
	OrthogonalHeight *float64 `json:"orthogonal_height"`
	Scale            *float64 `json:"scale"`
	XAxisAbscissa    *float64 `json:"x_axis_abscissa"`
	XAxisOrdinate    *float64 `json:"x_axis_ordinate"`
}

func (m *MapConversionInfo) any() bool {
	return m.Eastings != nil || m.Northings != nil || m.OrthogonalHeight != nil ||
		m.Scale != nil || m.XAxisAbscissa != nil || m.XAxisOrdinate != nil
}

// ContextInfo names the geometric context a writer call used.
type ContextInfo struct {
	Identifier *string `json:"identifier"`
	Type       *string `json:"type"`
}

// SiteUpdate reports the site reference values of a writer call.
type SiteUpdate struct {
	RefLatitude  []int    `json:"ref_latitude"`
	RefLongitude []int    `json:"ref_longitude"`
	RefElevation *float64 `json:"ref_elevation"`
}

// Actions lists the mutations a writer call performed.
type Actions struct {
	CreatedCRS           bool `json:"created_crs"`
	CreatedMapConversion bool `json:"created_map_conversion"`
	UpdatedMapConversion bool `json:"updated_map_conversion"`
	Overwrote            bool `json:"overwrote"`
	UpdatedSite          bool `json:"updated_site"`
	WroteFile            bool `json:"wrote_file"`
}

// Outcome is the writer report. Failures serialize as
// {"success": false, "error": ..., "warnings": [...]}.
type Outcome struct {
	Err           error              `json:"-"`
	CRS           *CRSInfo           `json:"crs"`
	MapConversion *MapConversionInfo `json:"map_conversion"`
	ContextUsed   *ContextInfo       `json:"context_used"`
	Site          *SiteUpdate        `json:"site"`
	ProjUsed      *string            `json:"proj_used"`
	Actions       *Actions           `json:"actions"`
	Error         string             `json:"error,omitempty"`
	Message       string             `json:"message,omitempty"`
	Warnings      []string           `json:"warnings"`
	Success       bool               `json:"success"`
	Georeferenced bool               `json:"georeferenced"`
}

type failure struct {
	Error    string   `json:"error"`
	Warnings []string `json:"warnings"`
	Success  bool     `json:"success"`
}

// Failed reports a call rejected before the writer ran, such as
// parameters that could not be decoded.
func Failed(err error) *Outcome {
	return &Outcome{Err: err, Error: err.Error(), Warnings: []string{}}
}

// MarshalJSON implements json.Marshaler.
func (o Outcome) MarshalJSON() ([]byte, error) {
	warnings := o.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	if !o.Success {
		return json.Marshal(failure{Success: false, Error: o.Error, Warnings: warnings})
	}

	type plain Outcome
	p := plain(o)
	p.Warnings = warnings
	return json.Marshal(p)
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func crsInfo(crs *document.ProjectedCRS) *CRSInfo {
	info := &CRSInfo{}
	if crs == nil {
		return info
	}
	info.Name = optString(crs.Name)
	info.GeodeticDatum = optString(crs.GeodeticDatum)
	info.VerticalDatum = optString(crs.VerticalDatum)
	info.MapProjection = optString(crs.MapProjection)
	info.MapZone = optString(crs.MapZone)
	if crs.MapUnit != nil {
		info.MapUnit = optString(crs.MapUnit.Name)
	}
	return info
}

func mapConversionInfo(op *document.CoordinateOperation) *MapConversionInfo {
	return &MapConversionInfo{
		Eastings:         copyFloat(op.Eastings),
		Northings:        copyFloat(op.Northings),
		OrthogonalHeight: copyFloat(op.OrthogonalHeight),
		Scale:            copyFloat(op.Scale),
		XAxisAbscissa:    copyFloat(op.XAxisAbscissa),
		XAxisOrdinate:    copyFloat(op.XAxisOrdinate),
	}
}

func contextInfo(c *document.GeometricContext) *ContextInfo {
	return &ContextInfo{
		Identifier: optString(c.Identifier),
		Type:       optString(c.Type),
	}
}
