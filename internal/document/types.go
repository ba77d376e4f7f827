// Package document holds the building-model document store: typed, linked
// entity records with create, query, remove and serialize operations.
package document

// EntityID identifies a record inside one document.
type EntityID int64

// OperationType tags a coordinate operation record.
type OperationType string

const (
	OperationMapConversion  OperationType = "MapConversion"
	OperationRigidOperation OperationType = "RigidOperation"
)

// Placement is an axis placement; only its location is modeled.
type Placement struct {
	Location []float64 `yaml:"location,omitempty" json:"location,omitempty"`
}

// Project is the root record listing the representation contexts.
type Project struct {
	Name     string     `yaml:"name,omitempty" json:"name,omitempty"`
	Contexts []EntityID `yaml:"contexts,omitempty" json:"contexts,omitempty"`
	ID       EntityID   `yaml:"id" json:"id"`
}

// GeometricContext is a named coordinate space geometry is expressed in.
type GeometricContext struct {
	WorldCoordinateSystem *Placement `yaml:"world_coordinate_system,omitempty" json:"world_coordinate_system,omitempty"`
	Identifier            string     `yaml:"identifier,omitempty" json:"identifier,omitempty"`
	Type                  string     `yaml:"type,omitempty" json:"type,omitempty"`
	TrueNorth             []float64  `yaml:"true_north,omitempty" json:"true_north,omitempty"` // direction ratios
	ID                    EntityID   `yaml:"id" json:"id"`
}

// NamedUnit is a unit reference such as the CRS map unit.
type NamedUnit struct {
	Name string `yaml:"name" json:"name"`
}

// ProjectedCRS describes the target coordinate reference system.
type ProjectedCRS struct {
	MapUnit       *NamedUnit `yaml:"map_unit,omitempty" json:"map_unit,omitempty"`
	Name          string     `yaml:"name" json:"name"`
	GeodeticDatum string     `yaml:"geodetic_datum,omitempty" json:"geodetic_datum,omitempty"`
	VerticalDatum string     `yaml:"vertical_datum,omitempty" json:"vertical_datum,omitempty"`
	MapProjection string     `yaml:"map_projection,omitempty" json:"map_projection,omitempty"`
	MapZone       string     `yaml:"map_zone,omitempty" json:"map_zone,omitempty"`
	ID            EntityID   `yaml:"id" json:"id"`
}

// CoordinateOperation links a source context to a target CRS.
// The transform fields are set for map conversions only.
type CoordinateOperation struct {
	Eastings         *float64      `yaml:"eastings,omitempty" json:"eastings,omitempty"`
	Northings        *float64      `yaml:"northings,omitempty" json:"northings,omitempty"`
	OrthogonalHeight *float64      `yaml:"orthogonal_height,omitempty" json:"orthogonal_height,omitempty"`
	XAxisAbscissa    *float64      `yaml:"x_axis_abscissa,omitempty" json:"x_axis_abscissa,omitempty"`
	XAxisOrdinate    *float64      `yaml:"x_axis_ordinate,omitempty" json:"x_axis_ordinate,omitempty"`
	Scale            *float64      `yaml:"scale,omitempty" json:"scale,omitempty"`
	Type             OperationType `yaml:"type" json:"type"`
	ID               EntityID      `yaml:"id" json:"id"`
	SourceCRS        EntityID      `yaml:"source_crs" json:"source_crs"`
	TargetCRS        EntityID      `yaml:"target_crs,omitempty" json:"target_crs,omitempty"`
}

// IsMapConversion reports whether the operation is a map conversion.
func (op *CoordinateOperation) IsMapConversion() bool {
	return op.Type == OperationMapConversion
}

// SiteReference holds the geodetic reference fields of a site.
// Nil fields are left untouched by SetSiteReference.
type SiteReference struct {
	Latitude  []int    // [deg, min, sec, millionth]
	Longitude []int    // [deg, min, sec, millionth]
	Elevation *float64 // meters
}

// Site is the site record of the building model.
type Site struct {
	ObjectPlacement *Placement `yaml:"object_placement,omitempty" json:"object_placement,omitempty"`
	RefElevation    *float64   `yaml:"ref_elevation,omitempty" json:"ref_elevation,omitempty"`
	Name            string     `yaml:"name,omitempty" json:"name,omitempty"`
	RefLatitude     []int      `yaml:"ref_latitude,omitempty" json:"ref_latitude,omitempty"`
	RefLongitude    []int      `yaml:"ref_longitude,omitempty" json:"ref_longitude,omitempty"`
	ID              EntityID   `yaml:"id" json:"id"`
}
