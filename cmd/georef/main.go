package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/woozymasta/bimgeo/internal/document"
	"github.com/woozymasta/bimgeo/internal/geo"
	"github.com/woozymasta/bimgeo/internal/georef"
	"github.com/woozymasta/bimgeo/internal/logger"
	"github.com/woozymasta/bimgeo/internal/projection"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Set  SetCommand  `command:"set"  description:"Establish the georeference of a document"`
	Info InfoCommand `command:"info" description:"Print the georeference of a document"`
}

// SetCommand writes CRS, map conversion and site reference into a document.
// Optional numbers are strings so an omitted flag stays distinguishable from zero.
type SetCommand struct {
	Input  string `short:"i" long:"in"  description:"Input document (.yaml, .yml or .json)" required:"true"`
	Output string `short:"o" long:"out" description:"Output document. Defaults to the input file"`

	Mode          string `short:"m" long:"crs-mode"       description:"CRS declaration mode" choice:"epsg" choice:"custom" default:"epsg"`
	EPSG          int    `short:"e" long:"epsg"           description:"EPSG code of the projected CRS"`
	CRSName       string `long:"crs-name"                 description:"Custom CRS name"`
	GeodeticDatum string `long:"datum"                    description:"Geodetic datum"`
	MapProjection string `long:"projection"               description:"Map projection"`
	MapZone       string `long:"zone"                     description:"Map zone"`
	VerticalDatum string `long:"vertical-datum"           description:"Vertical datum"`
	MapUnit       string `long:"map-unit"                 description:"Map unit name"`

	Eastings         string `short:"E" long:"eastings"           description:"False origin easting"`
	Northings        string `short:"N" long:"northings"          description:"False origin northing"`
	OrthogonalHeight string `short:"H" long:"height"             description:"Orthogonal height"`
	Scale            string `long:"scale"                        description:"Map scale"`
	XAxisAbscissa    string `long:"x-axis-abscissa"              description:"X axis abscissa"`
	XAxisOrdinate    string `long:"x-axis-ordinate"              description:"X axis ordinate"`
	Azimuth          string `short:"a" long:"true-north-azimuth" description:"True north azimuth in degrees"`

	ContextFilter string `long:"context-filter" description:"Context type to select" default:"Model"`
	ContextIndex  string `long:"context-index"  description:"Index into all contexts in document order; takes precedence over the filter"`

	SiteLat     string        `long:"site-lat-dms"       description:"Site latitude as deg,min,sec,millionth"`
	SiteLon     string        `long:"site-lon-dms"       description:"Site longitude as deg,min,sec,millionth"`
	SiteLatDD   string        `long:"site-lat"           description:"Site latitude in decimal degrees"`
	SiteLonDD   string        `long:"site-lon"           description:"Site longitude in decimal degrees"`
	SiteElev    string        `long:"site-elevation"     description:"Site reference elevation"`
	ProjTimeout time.Duration `long:"proj-timeout"       description:"Projection timeout" default:"2s"`
	NoProjector bool          `long:"no-projector"       description:"Never derive eastings/northings from latitude/longitude"`
	Overwrite   bool          `short:"f" long:"overwrite" description:"Replace an existing map conversion"`
	DryRun      bool          `short:"n" long:"dry-run"   description:"Do not write the document"`
}

// InfoCommand prints the georeferencing info of a document.
type InfoCommand struct {
	Input    string `short:"i" long:"in"       description:"Input document (.yaml, .yml or .json)" required:"true"`
	Contexts bool   `short:"c" long:"contexts" description:"Include the per context breakdown"`
	GeoJSON  bool   `short:"g" long:"geojson"  description:"Print the site location as a GeoJSON feature"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		opts.Logger.Setup()
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// Execute runs the writer and prints its outcome.
func (c *SetCommand) Execute(_ []string) error {
	doc, err := document.Load(c.Input)
	if err != nil {
		log.Error().Err(err).Str("path", c.Input).Msg("Failed to load document")
		return err
	}

	params, err := c.params()
	if err != nil {
		return err
	}

	var projector georef.Projector
	if !c.NoProjector {
		projector = projection.NewWGS84Projector(c.ProjTimeout)
	}

	out := georef.EstablishGeoreference(context.Background(), doc, params, georef.Options{Projector: projector})
	if err := printJSON(out); err != nil {
		return err
	}

	return out.Err
}

func (c *SetCommand) params() (georef.Params, error) {
	params := georef.Params{
		Mode:          georef.Mode(c.Mode),
		EPSG:          c.EPSG,
		CRSName:       c.CRSName,
		GeodeticDatum: c.GeodeticDatum,
		MapProjection: c.MapProjection,
		MapZone:       c.MapZone,
		VerticalDatum: c.VerticalDatum,
		MapUnit:       c.MapUnit,
		ContextFilter: &c.ContextFilter,
		Overwrite:     c.Overwrite,
		DryRun:        c.DryRun,
	}

	if !c.DryRun {
		params.WritePath = c.Output
		if params.WritePath == "" {
			params.WritePath = c.Input
		}
	}

	numbers := []struct {
		dst  **float64
		flag string
		val  string
	}{
		{&params.Eastings, "eastings", c.Eastings},
		{&params.Northings, "northings", c.Northings},
		{&params.OrthogonalHeight, "height", c.OrthogonalHeight},
		{&params.Scale, "scale", c.Scale},
		{&params.XAxisAbscissa, "x-axis-abscissa", c.XAxisAbscissa},
		{&params.XAxisOrdinate, "x-axis-ordinate", c.XAxisOrdinate},
		{&params.TrueNorthAzimuthDeg, "true-north-azimuth", c.Azimuth},
		{&params.SiteRefLatitudeDD, "site-lat", c.SiteLatDD},
		{&params.SiteRefLongitudeDD, "site-lon", c.SiteLonDD},
		{&params.SiteRefElevation, "site-elevation", c.SiteElev},
	}
	for _, n := range numbers {
		v, err := parseFloat(n.flag, n.val)
		if err != nil {
			return params, err
		}
		*n.dst = v
	}

	if c.ContextIndex != "" {
		i, err := strconv.Atoi(c.ContextIndex)
		if err != nil {
			return params, fmt.Errorf("--context-index: %w", err)
		}
		params.ContextIndex = &i
	}

	var err error
	if c.SiteLat != "" {
		if params.SiteRefLatitude, err = geo.ParseSexagesimal(c.SiteLat); err != nil {
			return params, fmt.Errorf("--site-lat-dms: %w", err)
		}
	}
	if c.SiteLon != "" {
		if params.SiteRefLongitude, err = geo.ParseSexagesimal(c.SiteLon); err != nil {
			return params, fmt.Errorf("--site-lon-dms: %w", err)
		}
	}

	return params, nil
}

// Execute prints the georeferencing info or the site feature.
func (c *InfoCommand) Execute(_ []string) error {
	doc, err := document.Load(c.Input)
	if err != nil {
		log.Error().Err(err).Str("path", c.Input).Msg("Failed to load document")
		return err
	}

	if c.GeoJSON {
		if len(doc.Sites()) == 0 {
			return geo.ErrNoSiteLocation
		}
		site := doc.Sites()[0]
		f, err := geo.SiteFeature(site.Name, site.RefLatitude, site.RefLongitude, site.RefElevation)
		if err != nil {
			return err
		}
		return printJSON(f)
	}

	info, err := georef.QueryGeoreference(doc, c.Contexts)
	if err != nil {
		return err
	}
	for _, w := range info.Warnings {
		log.Warn().Msg(w)
	}

	return printJSON(info)
}

func parseFloat(flag, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &v, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
