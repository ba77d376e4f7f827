package georef

import (
	"context"
	"errors"
	"fmt"

	"github.com/woozymasta/bimgeo/internal/document"
	"github.com/woozymasta/bimgeo/internal/geo"

	"github.com/rs/zerolog/log"
)

// Options carries the writer collaborators.
type Options struct {
	// Projector completes missing eastings/northings; nil means unavailable.
	Projector Projector

	// DefaultContextFilter is used when context_filter is left out.
	DefaultContextFilter string
}

type writer struct {
	store    Store
	opts     Options
	params   Params
	warnings []string
	actions  Actions
}

// EstablishGeoreference attaches a projected CRS and a map conversion to the
// selected geometric context of the document, optionally updating the site
// reference and writing the document to disk.
//
// It never fails with a Go error: validation failures come back as an
// Outcome with Success=false and Err set to one of the package sentinels.
// Optional enhancements (projection, record removal on overwrite, site
// update, file write) only add warnings.
func EstablishGeoreference(ctx context.Context, store Store, params Params, opts Options) *Outcome {
	w := &writer{
		store:    store,
		params:   params,
		opts:     opts,
		warnings: []string{},
	}
	return w.run(ctx)
}

func (w *writer) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warn().Msg(msg)
	w.warnings = append(w.warnings, msg)
}

func (w *writer) fail(err error) *Outcome {
	log.Debug().Err(err).Msg("Georeference rejected")
	return &Outcome{
		Err:      err,
		Error:    err.Error(),
		Warnings: w.warnings,
	}
}

func (w *writer) run(ctx context.Context) *Outcome {
	if w.store == nil {
		return w.fail(ErrNoDocument)
	}
	params := &w.params

	// Validating
	crs, err := BuildCRS(params)
	if err != nil {
		return w.fail(err)
	}
	if err := validateSite(params); err != nil {
		return w.fail(err)
	}

	// Projecting
	projUsed := w.completePlanar(ctx)
	if params.Eastings == nil || params.Northings == nil {
		return w.fail(ErrMissingPlanarCoordinates)
	}

	// SelectingContext
	filter := w.opts.DefaultContextFilter
	if filter == "" {
		filter = DefaultContextFilter
	}
	if params.ContextFilter != nil {
		filter = *params.ContextFilter
	}
	gctx, err := SelectContext(w.store.Contexts(), filter, params.ContextIndex)
	if err != nil {
		return w.fail(err)
	}

	log.Debug().
		Int64("context", int64(gctx.ID)).
		Str("type", gctx.Type).
		Str("crs", crs.Name).
		Msg("Georeferencing context")

	// DetectingExisting
	if existing, ok := w.store.ActiveConversion(gctx.ID); ok {
		if !params.Overwrite {
			return w.existing(gctx, existing)
		}
		w.overwrite(existing)
	}

	// BuildingCRS
	crsRec, err := w.store.CreateCRS(crs)
	if err != nil {
		return w.fail(fmt.Errorf("%w: %w", ErrIncompleteConstruction, err))
	}

	// DerivingOrientation
	xa, xo := geo.ResolveXAxis(params.XAxisAbscissa, params.XAxisOrdinate, params.TrueNorthAzimuthDeg)
	scale := DefaultScale
	if params.Scale != nil {
		scale = *params.Scale
	}
	height := DefaultHeight
	if params.OrthogonalHeight != nil {
		height = *params.OrthogonalHeight
	}

	// BuildingMapConversion
	create := w.store.CreateMapConversion
	if w.actions.Overwrote {
		// the new conversion takes over even if the old records could not be removed
		create = w.store.ReplaceMapConversion
	}
	mc, err := create(document.CoordinateOperation{
		SourceCRS:        gctx.ID,
		TargetCRS:        crsRec.ID,
		Eastings:         optFloat(*params.Eastings),
		Northings:        optFloat(*params.Northings),
		OrthogonalHeight: optFloat(height),
		Scale:            optFloat(scale),
		XAxisAbscissa:    optFloat(xa),
		XAxisOrdinate:    optFloat(xo),
	})
	if err != nil {
		// leave no CRS behind without its conversion
		if rmErr := w.store.Remove(crsRec.ID); rmErr != nil {
			log.Error().Err(rmErr).Int64("id", int64(crsRec.ID)).Msg("Failed to roll back CRS")
		}
		return w.fail(fmt.Errorf("%w: %w", ErrIncompleteConstruction, err))
	}
	w.actions.CreatedCRS = true
	w.actions.CreatedMapConversion = true
	w.actions.UpdatedMapConversion = w.actions.Overwrote

	// UpdatingSite
	site := w.updateSite()

	// Persisting
	if params.WritePath != "" && !params.DryRun {
		if err := w.store.Write(params.WritePath); err != nil {
			w.warn("Could not write document to '%s': %v", params.WritePath, err)
		} else {
			w.actions.WroteFile = true
		}
	}

	// Reporting
	log.Info().
		Str("crs", crsRec.Name).
		Int64("map_conversion", int64(mc.ID)).
		Bool("overwrote", w.actions.Overwrote).
		Bool("updated_site", w.actions.UpdatedSite).
		Bool("wrote_file", w.actions.WroteFile).
		Int("warnings", len(w.warnings)).
		Msg("Model georeferenced")

	return &Outcome{
		Success:       true,
		Georeferenced: true,
		CRS:           crsInfo(crsRec),
		MapConversion: mapConversionInfo(mc),
		ContextUsed:   contextInfo(gctx),
		Site:          site,
		ProjUsed:      projUsed,
		Warnings:      w.warnings,
		Actions:       &w.actions,
	}
}

// completePlanar fills missing eastings/northings from decimal degree site
// coordinates using the projector. Explicit values are kept.
func (w *writer) completePlanar(ctx context.Context) *string {
	params := &w.params
	if params.Eastings != nil && params.Northings != nil {
		return nil
	}
	if params.SiteRefLatitudeDD == nil || params.SiteRefLongitudeDD == nil || params.Mode != ModeEPSG {
		return nil
	}
	if w.opts.Projector == nil {
		w.warn("No projector available to compute eastings/northings. Provide eastings/northings manually.")
		return nil
	}

	e, n, err := w.opts.Projector.ProjectGeodeticToPlanar(ctx, *params.SiteRefLatitudeDD, *params.SiteRefLongitudeDD, params.EPSG)
	if err != nil {
		w.warn("Could not convert Lat/Long to E/N: %v. Provide eastings/northings manually.", err)
		return nil
	}

	if params.Eastings == nil {
		params.Eastings = &e
	}
	if params.Northings == nil {
		params.Northings = &n
	}

	used := fmt.Sprintf("EPSG:4326->EPSG:%d", params.EPSG)
	log.Debug().Str("proj", used).Float64("eastings", e).Float64("northings", n).Msg("Planar coordinates projected")
	return &used
}

// existing reports an already georeferenced context without touching it.
func (w *writer) existing(gctx *document.GeometricContext, op *document.CoordinateOperation) *Outcome {
	var crs *document.ProjectedCRS
	if op.TargetCRS != 0 {
		c, err := w.store.CRS(op.TargetCRS)
		if err != nil {
			log.Debug().Err(err).Msg("Existing map conversion has no readable target CRS")
		} else {
			crs = c
		}
	}

	log.Info().
		Int64("map_conversion", int64(op.ID)).
		Int64("context", int64(gctx.ID)).
		Msg("Map conversion already exists, nothing changed")

	return &Outcome{
		Success:       true,
		Georeferenced: true,
		Message:       "MapConversion already exists. Use overwrite=true to replace it.",
		CRS:           crsInfo(crs),
		MapConversion: mapConversionInfo(op),
		ContextUsed:   contextInfo(gctx),
		Warnings:      w.warnings,
		Actions:       &w.actions,
	}
}

// overwrite removes the existing CRS and map conversion. Removal failures
// are reported as warnings and construction goes on.
func (w *writer) overwrite(op *document.CoordinateOperation) {
	w.actions.Overwrote = true

	if op.TargetCRS != 0 {
		if _, err := w.store.CRS(op.TargetCRS); err == nil {
			if err := w.store.Remove(op.TargetCRS); err != nil {
				w.warn("Could not remove the existing CRS; a new one will be created anyway.")
			}
		}
	}

	if err := w.store.Remove(op.ID); err != nil {
		w.warn("Could not remove the existing MapConversion; another one will be created anyway.")
	}
}

// updateSite applies the site reference fields to the first site.
func (w *writer) updateSite() *SiteUpdate {
	params := &w.params

	lat, lon := params.SiteRefLatitude, params.SiteRefLongitude
	if lat == nil && params.SiteRefLatitudeDD != nil {
		lat = geo.DecimalDegreesToSexagesimal(*params.SiteRefLatitudeDD)
	}
	if lon == nil && params.SiteRefLongitudeDD != nil {
		lon = geo.DecimalDegreesToSexagesimal(*params.SiteRefLongitudeDD)
	}
	report := &SiteUpdate{
		RefLatitude:  lat,
		RefLongitude: lon,
		RefElevation: copyFloat(params.SiteRefElevation),
	}

	if lat == nil && lon == nil && params.SiteRefElevation == nil {
		return report
	}

	sites := w.store.Sites()
	if len(sites) == 0 {
		w.warn("No site found; lat/long/elevation were not updated.")
		return report
	}

	err := w.store.SetSiteReference(sites[0].ID, document.SiteReference{
		Latitude:  lat,
		Longitude: lon,
		Elevation: params.SiteRefElevation,
	})
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			w.warn("No site found; lat/long/elevation were not updated.")
		} else {
			w.warn("Could not update site: %v", err)
		}
		return report
	}

	w.actions.UpdatedSite = true
	return report
}
