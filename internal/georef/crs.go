package georef

import (
	"fmt"
	"strings"

	"github.com/woozymasta/bimgeo/internal/document"
)

// BuildCRS validates the CRS declaration of the writer input and returns the record to create.
//
// EPSG mode needs a code and defaults datum and projection; custom mode needs
// name, datum and projection. The zone is optional in both modes.
func BuildCRS(params *Params) (document.ProjectedCRS, error) {
	crs := document.ProjectedCRS{
		GeodeticDatum: params.GeodeticDatum,
		MapProjection: params.MapProjection,
		MapZone:       params.MapZone,
		VerticalDatum: params.VerticalDatum,
	}
	if params.MapUnit != "" {
		crs.MapUnit = &document.NamedUnit{Name: params.MapUnit}
	}

	switch params.Mode {
	case ModeEPSG:
		if params.EPSG <= 0 {
			return document.ProjectedCRS{}, ErrMissingEpsg
		}
		crs.Name = fmt.Sprintf("EPSG:%d", params.EPSG)
		if crs.GeodeticDatum == "" {
			crs.GeodeticDatum = DefaultDatum
		}
		if crs.MapProjection == "" {
			crs.MapProjection = DefaultProjection
		}

	case ModeCustom:
		var missing []string
		if params.CRSName == "" {
			missing = append(missing, "crs_name")
		}
		if params.GeodeticDatum == "" {
			missing = append(missing, "geodetic_datum")
		}
		if params.MapProjection == "" {
			missing = append(missing, "map_projection")
		}
		if len(missing) > 0 {
			return document.ProjectedCRS{}, fmt.Errorf("%w: %s", ErrMissingCustomFields, strings.Join(missing, ", "))
		}
		crs.Name = params.CRSName

	default:
		return document.ProjectedCRS{}, fmt.Errorf("%w: got %q", ErrInvalidMode, params.Mode)
	}

	return crs, nil
}
