package georef

import (
	"context"
	"errors"
	"testing"

	"github.com/woozymasta/bimgeo/internal/document"

	"github.com/stretchr/testify/require"
)

var errStub = errors.New("stub failure")

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }
func idx(i int) *int         { return &i }

// newDoc builds a document with one project, one context per type and an
// optional site.
func newDoc(withSite bool, types ...string) *document.Document {
	d := document.New("")
	d.AddProject("Project")
	for _, t := range types {
		d.AddContext(document.GeometricContext{
			Identifier: "Body",
			Type:       t,
			WorldCoordinateSystem: &document.Placement{
				Location: []float64{0, 0, 0},
			},
			TrueNorth: []float64{0, 1},
		})
	}
	if withSite {
		d.AddSite(document.Site{
			Name:            "Site",
			ObjectPlacement: &document.Placement{Location: []float64{1, 2, 3}},
		})
	}
	return d
}

// countingStore records mutations and injects failures.
type countingStore struct {
	*document.Document
	failCreateMap error
	failRemove    error
	failWrite     error
	failCRS       error
	mutations     int
}

func (s *countingStore) CRS(id document.EntityID) (*document.ProjectedCRS, error) {
	if s.failCRS != nil {
		return nil, s.failCRS
	}
	return s.Document.CRS(id)
}

func (s *countingStore) CreateCRS(crs document.ProjectedCRS) (*document.ProjectedCRS, error) {
	s.mutations++
	return s.Document.CreateCRS(crs)
}

func (s *countingStore) CreateMapConversion(op document.CoordinateOperation) (*document.CoordinateOperation, error) {
	if s.failCreateMap != nil {
		return nil, s.failCreateMap
	}
	s.mutations++
	return s.Document.CreateMapConversion(op)
}

func (s *countingStore) ReplaceMapConversion(op document.CoordinateOperation) (*document.CoordinateOperation, error) {
	if s.failCreateMap != nil {
		return nil, s.failCreateMap
	}
	s.mutations++
	return s.Document.ReplaceMapConversion(op)
}

func (s *countingStore) Remove(id document.EntityID) error {
	if s.failRemove != nil {
		return s.failRemove
	}
	s.mutations++
	return s.Document.Remove(id)
}

func (s *countingStore) SetSiteReference(id document.EntityID, ref document.SiteReference) error {
	s.mutations++
	return s.Document.SetSiteReference(id, ref)
}

func (s *countingStore) Write(path string) error {
	if s.failWrite != nil {
		return s.failWrite
	}
	return s.Document.Write(path)
}

// stubProjector returns fixed coordinates or an error.
type stubProjector struct {
	err   error
	e, n  float64
	calls int
}

func (p *stubProjector) ProjectGeodeticToPlanar(_ context.Context, _, _ float64, _ int) (float64, float64, error) {
	p.calls++
	if p.err != nil {
		return 0, 0, p.err
	}
	return p.e, p.n, nil
}

func TestBuildCRS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params Params
		expect document.ProjectedCRS
		err    error
		errMsg string
	}{
		{
			name:   "epsg defaults",
			params: Params{Mode: ModeEPSG, EPSG: 32633},
			expect: document.ProjectedCRS{Name: "EPSG:32633", GeodeticDatum: "WGS84", MapProjection: "TransverseMercator"},
		},
		{
			name:   "epsg with zone",
			params: Params{Mode: ModeEPSG, EPSG: 25832, GeodeticDatum: "ETRS89", MapZone: "32N"},
			expect: document.ProjectedCRS{Name: "EPSG:25832", GeodeticDatum: "ETRS89", MapProjection: "TransverseMercator", MapZone: "32N"},
		},
		{
			name:   "custom",
			params: Params{Mode: ModeCustom, CRSName: "Local Grid", GeodeticDatum: "GDA2020", MapProjection: "LambertConformalConic", MapUnit: "METRE"},
			expect: document.ProjectedCRS{Name: "Local Grid", GeodeticDatum: "GDA2020", MapProjection: "LambertConformalConic", MapUnit: &document.NamedUnit{Name: "METRE"}},
		},
		{name: "bogus mode", params: Params{Mode: "bogus", EPSG: 32633}, err: ErrInvalidMode},
		{name: "missing epsg", params: Params{Mode: ModeEPSG}, err: ErrMissingEpsg},
		{
			name:   "custom missing all",
			params: Params{Mode: ModeCustom},
			err:    ErrMissingCustomFields,
			errMsg: "missing fields for custom CRS: crs_name, geodetic_datum, map_projection",
		},
		{
			name:   "custom missing projection",
			params: Params{Mode: ModeCustom, CRSName: "X", GeodeticDatum: "Y"},
			err:    ErrMissingCustomFields,
			errMsg: "missing fields for custom CRS: map_projection",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			crs, err := BuildCRS(&tc.params)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				if tc.errMsg != "" {
					require.EqualError(t, err, tc.errMsg)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, crs)
		})
	}
}

func TestSelectContext(t *testing.T) {
	t.Parallel()

	d := newDoc(false, "Plan", "Model", "model")
	ctxs := d.Contexts()

	c, err := SelectContext(ctxs, "Model", nil)
	require.NoError(t, err)
	require.Same(t, ctxs[1], c)

	c, err = SelectContext(ctxs, "MODEL", nil)
	require.NoError(t, err)
	require.Same(t, ctxs[1], c)

	// index wins over the filter
	c, err = SelectContext(ctxs, "Model", idx(2))
	require.NoError(t, err)
	require.Same(t, ctxs[2], c)

	// out of range index falls back to the filter
	c, err = SelectContext(ctxs, "Model", idx(7))
	require.NoError(t, err)
	require.Same(t, ctxs[1], c)

	c, err = SelectContext(ctxs, "Sketch", nil)
	require.NoError(t, err)
	require.Same(t, ctxs[0], c)

	c, err = SelectContext(ctxs, "", nil)
	require.NoError(t, err)
	require.Same(t, ctxs[0], c)

	_, err = SelectContext(nil, "Model", idx(0))
	require.ErrorIs(t, err, ErrNoContextFound)
}
