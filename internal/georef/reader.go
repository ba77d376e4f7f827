package georef

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/woozymasta/bimgeo/internal/document"

	"github.com/rs/zerolog/log"
)

var errBadCoordinates = errors.New("malformed coordinates")

// WorldCoordinateSystem reports the origin of a context world coordinate system.
type WorldCoordinateSystem struct {
	Origin []float64 `json:"origin"`
}

// TrueNorth reports the true north direction of a context.
type TrueNorth struct {
	DirectionRatios []float64 `json:"direction_ratios"`
}

// SiteInfo reports the placement and geodetic reference of the first site.
type SiteInfo struct {
	LocalPlacementOrigin []float64 `json:"local_placement_origin"`
	RefLatitude          []int     `json:"ref_latitude"`
	RefLongitude         []int     `json:"ref_longitude"`
	RefElevation         *float64  `json:"ref_elevation"`
}

// OperationEntry is one coordinate operation of a context.
type OperationEntry struct {
	TargetCRS     *CRSInfo           `json:"target_crs"`
	MapConversion *MapConversionInfo `json:"map_conversion"`
	Type          string             `json:"type"`
}

// ContextEntry is the per-context breakdown.
type ContextEntry struct {
	ContextIdentifier      *string          `json:"context_identifier"`
	ContextType            *string          `json:"context_type"`
	WorldOrigin            []float64        `json:"world_origin"`
	TrueNorth              []float64        `json:"true_north"`
	HasCoordinateOperation []OperationEntry `json:"has_coordinate_operation"`
}

// Info is the reader report.
type Info struct {
	CRS                   CRSInfo               `json:"crs"`
	MapConversion         MapConversionInfo     `json:"map_conversion"`
	WorldCoordinateSystem WorldCoordinateSystem `json:"world_coordinate_system"`
	TrueNorth             TrueNorth             `json:"true_north"`
	Site                  SiteInfo              `json:"site"`
	Contexts              []ContextEntry        `json:"contexts,omitempty"`
	Warnings              []string              `json:"warnings"`
	Georeferenced         bool                  `json:"georeferenced"`
}

type reader struct {
	src  Source
	info *Info
}

// QueryGeoreference reconstructs the georeferencing model from whatever
// entities the document holds.
//
// Each extraction step is isolated: a failing step adds a warning and leaves
// its fields nil. An error is returned only when the document itself cannot
// be read.
func QueryGeoreference(src Source, includeContexts bool) (info *Info, err error) {
	if src == nil {
		return nil, ErrNoDocument
	}

	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("query georeference: %v", r)
		}
	}()

	r := &reader{
		src:  src,
		info: &Info{Warnings: []string{}},
	}
	r.readContexts(includeContexts)
	r.readSite()

	r.info.Georeferenced = r.info.CRS.any() && r.info.MapConversion.any()

	log.Debug().
		Bool("georeferenced", r.info.Georeferenced).
		Int("warnings", len(r.info.Warnings)).
		Msg("Georeference queried")

	return r.info, nil
}

// step runs one isolated extraction.
func (r *reader) step(what string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.warn("%s read error: %v", what, p)
		}
	}()
	if err := fn(); err != nil {
		r.warn("%s read error: %v", what, err)
	}
}

func (r *reader) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Debug().Msg(msg)
	r.info.Warnings = append(r.info.Warnings, msg)
}

func (r *reader) readContexts(includeContexts bool) {
	projects := r.src.Projects()
	if len(projects) == 0 {
		r.warn("Project entity was not found.")
		return
	}

	for _, id := range projects[0].Contexts {
		ctx, err := r.src.Context(id)
		if err != nil {
			r.warn("RepresentationContext read error: %v", err)
			continue
		}

		entry := ContextEntry{
			ContextIdentifier:      optString(ctx.Identifier),
			ContextType:            optString(ctx.Type),
			HasCoordinateOperation: []OperationEntry{},
		}

		r.step("WorldCoordinateSystem", func() error {
			if ctx.WorldCoordinateSystem == nil || len(ctx.WorldCoordinateSystem.Location) == 0 {
				return nil
			}
			origin, err := coordinates(ctx.WorldCoordinateSystem.Location, 2, 3)
			if err != nil {
				return err
			}
			r.info.WorldCoordinateSystem.Origin = origin
			entry.WorldOrigin = origin
			return nil
		})

		r.step("TrueNorth", func() error {
			if len(ctx.TrueNorth) == 0 {
				return nil
			}
			ratios, err := coordinates(ctx.TrueNorth, 2, 3)
			if err != nil {
				return err
			}
			r.info.TrueNorth.DirectionRatios = ratios
			entry.TrueNorth = ratios
			return nil
		})

		r.step("HasCoordinateOperation", func() error {
			ops, err := r.src.CoordinateOperations(ctx.ID)
			if err != nil {
				return err
			}
			for _, op := range ops {
				entry.HasCoordinateOperation = append(entry.HasCoordinateOperation, r.readOperation(op))
			}
			return nil
		})

		if includeContexts {
			r.info.Contexts = append(r.info.Contexts, entry)
		}
	}
}

// readOperation extracts the target CRS and, for map conversions, the
// transform. The last operation read wins the flattened summary.
func (r *reader) readOperation(op *document.CoordinateOperation) OperationEntry {
	entry := OperationEntry{Type: string(op.Type)}

	r.step(fmt.Sprintf("TargetCRS of #%d", op.ID), func() error {
		if op.TargetCRS == 0 {
			return nil
		}
		crs, err := r.src.CRS(op.TargetCRS)
		if err != nil {
			return err
		}

		info := crsInfo(crs)
		info.MapUnit = nil
		r.step("MapUnit", func() error {
			if crs.MapUnit != nil {
				info.MapUnit = optString(crs.MapUnit.Name)
			}
			return nil
		})

		r.info.CRS = *info
		summary := *info
		entry.TargetCRS = &summary
		return nil
	})

	if op.IsMapConversion() {
		r.step(fmt.Sprintf("MapConversion #%d", op.ID), func() error {
			mc := mapConversionInfo(op)
			r.info.MapConversion = *mc
			entry.MapConversion = mc
			return nil
		})
	}

	return entry
}

func (r *reader) readSite() {
	sites := r.src.Sites()
	if len(sites) == 0 {
		r.warn("Site was not found.")
		return
	}
	site := sites[0]

	r.step("Site ObjectPlacement", func() error {
		if site.ObjectPlacement == nil || len(site.ObjectPlacement.Location) == 0 {
			return nil
		}
		origin, err := coordinates(site.ObjectPlacement.Location, 2, 3)
		if err != nil {
			return err
		}
		r.info.Site.LocalPlacementOrigin = origin
		return nil
	})

	// quadruples are reported as stored, without inversion or validation
	r.step("Site RefLatitude", func() error {
		r.info.Site.RefLatitude = slices.Clone(site.RefLatitude)
		return nil
	})
	r.step("Site RefLongitude", func() error {
		r.info.Site.RefLongitude = slices.Clone(site.RefLongitude)
		return nil
	})
	r.step("Site RefElevation", func() error {
		r.info.Site.RefElevation = copyFloat(site.RefElevation)
		return nil
	})
}

// coordinates validates and copies a coordinate list.
func coordinates(v []float64, minLen, maxLen int) ([]float64, error) {
	if len(v) < minLen || len(v) > maxLen {
		return nil, fmt.Errorf("%w: %d components", errBadCoordinates, len(v))
	}
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: non-finite component", errBadCoordinates)
		}
	}
	return slices.Clone(v), nil
}
