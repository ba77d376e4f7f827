// Package georef establishes and queries the georeferencing metadata of a
// building-model document: the projected CRS, the map conversion from the
// local geometric context to that CRS, and the geodetic site reference.
package georef

import (
	"context"
	"fmt"

	"github.com/woozymasta/bimgeo/internal/document"
	"github.com/woozymasta/bimgeo/internal/geo"
)

// Mode selects how the CRS is declared.
type Mode string

const (
	ModeEPSG   Mode = "epsg"
	ModeCustom Mode = "custom"
)

// Defaults applied when the caller leaves fields out.
const (
	DefaultContextFilter = "Model"
	DefaultDatum         = "WGS84"
	DefaultProjection    = "TransverseMercator"
	DefaultScale         = 1.0
	DefaultHeight        = 0.0
)

// Params is the writer input. Field names follow the remote operation parameters.
type Params struct {
	Eastings            *float64 `json:"eastings,omitempty"`
	Northings           *float64 `json:"northings,omitempty"`
	OrthogonalHeight    *float64 `json:"orthogonal_height,omitempty"`
	Scale               *float64 `json:"scale,omitempty"`
	XAxisAbscissa       *float64 `json:"x_axis_abscissa,omitempty"`
	XAxisOrdinate       *float64 `json:"x_axis_ordinate,omitempty"`
	TrueNorthAzimuthDeg *float64 `json:"true_north_azimuth_deg,omitempty"`

	// nil uses the default filter, an empty string disables filtering
	ContextFilter *string `json:"context_filter,omitempty"`
	ContextIndex  *int    `json:"context_index,omitempty"`

	SiteRefLatitude    []int    `json:"site_ref_latitude,omitempty"`  // [deg, min, sec, millionth]
	SiteRefLongitude   []int    `json:"site_ref_longitude,omitempty"` // [deg, min, sec, millionth]
	SiteRefElevation   *float64 `json:"site_ref_elevation,omitempty"`
	SiteRefLatitudeDD  *float64 `json:"site_ref_latitude_dd,omitempty"`
	SiteRefLongitudeDD *float64 `json:"site_ref_longitude_dd,omitempty"`

	Mode          Mode   `json:"crs_mode"`
	CRSName       string `json:"crs_name,omitempty"`
	GeodeticDatum string `json:"geodetic_datum,omitempty"`
	MapProjection string `json:"map_projection,omitempty"`
	MapZone       string `json:"map_zone,omitempty"`
	VerticalDatum string `json:"vertical_datum,omitempty"`
	MapUnit       string `json:"map_unit,omitempty"`
	WritePath     string `json:"write_path,omitempty"`
	EPSG          int    `json:"epsg,omitempty"`
	Overwrite     bool   `json:"overwrite,omitempty"`
	DryRun        bool   `json:"dry_run,omitempty"`
}

// Projector is the external capability turning WGS84 geodetic coordinates
// into eastings/northings of an EPSG grid.
type Projector interface {
	ProjectGeodeticToPlanar(ctx context.Context, lat, lon float64, epsg int) (easting, northing float64, err error)
}

// Source is the read side of the document store.
type Source interface {
	Projects() []*document.Project
	Contexts() []*document.GeometricContext
	Context(id document.EntityID) (*document.GeometricContext, error)
	CRS(id document.EntityID) (*document.ProjectedCRS, error)
	CoordinateOperations(contextID document.EntityID) ([]*document.CoordinateOperation, error)
	ActiveConversion(contextID document.EntityID) (*document.CoordinateOperation, bool)
	Sites() []*document.Site
}

// Store is the document store the writer mutates.
type Store interface {
	Source
	CreateCRS(crs document.ProjectedCRS) (*document.ProjectedCRS, error)
	CreateMapConversion(op document.CoordinateOperation) (*document.CoordinateOperation, error)
	ReplaceMapConversion(op document.CoordinateOperation) (*document.CoordinateOperation, error)
	Remove(id document.EntityID) error
	SetSiteReference(id document.EntityID, ref document.SiteReference) error
	Write(path string) error
}

// validateSite checks caller supplied sexagesimal site references.
func validateSite(params *Params) error {
	if params.SiteRefLatitude != nil {
		if err := geo.ValidateSexagesimal(params.SiteRefLatitude); err != nil {
			return fmt.Errorf("%w: site_ref_latitude: %w", ErrInvalidSexagesimal, err)
		}
	}
	if params.SiteRefLongitude != nil {
		if err := geo.ValidateSexagesimal(params.SiteRefLongitude); err != nil {
			return fmt.Errorf("%w: site_ref_longitude: %w", ErrInvalidSexagesimal, err)
		}
	}
	return nil
}
