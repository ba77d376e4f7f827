package georef

import "errors"

var (
	ErrNoDocument               = errors.New("no document is currently loaded")
	ErrInvalidMode              = errors.New("crs_mode must be 'epsg' or 'custom'")
	ErrMissingEpsg              = errors.New("epsg code required when crs_mode='epsg'")
	ErrMissingCustomFields      = errors.New("missing fields for custom CRS")
	ErrMissingPlanarCoordinates = errors.New("eastings and northings are required (or provide lat/long + EPSG with a projector available)")
	ErrNoContextFound           = errors.New("no geometric representation context found")
	ErrInvalidSexagesimal       = errors.New("invalid sexagesimal site reference")
	ErrIncompleteConstruction   = errors.New("could not create CRS and map conversion")
	ErrInvalidParams            = errors.New("invalid parameters")
)
