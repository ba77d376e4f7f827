package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/bimgeo/internal/config"
	"github.com/woozymasta/bimgeo/internal/document"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fixedProjector struct{}

func (fixedProjector) ProjectGeodeticToPlanar(_ context.Context, _, _ float64, _ int) (float64, float64, error) {
	return 500000, 4649776, nil
}

func newTestServer(t *testing.T, autosave bool) (*ServerContext, http.Handler, string) {
	t.Helper()

	d := document.New("")
	d.AddProject("Project")
	d.AddContext(document.GeometricContext{Identifier: "Body", Type: "Model"})
	d.AddSite(document.Site{Name: "Site"})

	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, d.Write(path))

	cfg := config.Default()
	cfg.Document = path
	cfg.Autosave = autosave
	f := false
	cfg.Projector.Enabled = &f

	s := NewServerContext(cfg)
	s.Projector = fixedProjector{}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.HandleCommand)
	mux.HandleFunc("/api/georeference", s.HandleInfo)
	mux.HandleFunc("/api/site.geojson", s.HandleSiteGeoJSON)

	return s, RequestLogger(mux), path
}

func post(t *testing.T, h http.Handler, body string) (int, gjson.Result, http.Header) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec.Code, gjson.Parse(rec.Body.String()), rec.Header()
}

func TestGeoreferenceCommand(t *testing.T) {
	t.Parallel()

	_, h, _ := newTestServer(t, false)

	code, res, header := post(t, h, `{"type":"georeference_model","params":{
		"crs_mode":"epsg","epsg":32633,
		"site_ref_latitude_dd":42,"site_ref_longitude_dd":15,"site_ref_elevation":12.5}}`)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, header.Get(RequestIDHeader))
	require.True(t, res.Get("success").Bool(), res.Raw)
	require.Equal(t, "EPSG:4326->EPSG:32633", res.Get("proj_used").String())
	require.Equal(t, 500000.0, res.Get("map_conversion.eastings").Float())
	require.True(t, res.Get("actions.updated_site").Bool())
	require.False(t, res.Get("actions.wrote_file").Bool())

	code, res, _ = post(t, h, `{"type":"get_georeferencing_info","params":{"include_contexts":true}}`)
	require.Equal(t, http.StatusOK, code)
	require.True(t, res.Get("georeferenced").Bool())
	require.Equal(t, 4649776.0, res.Get("map_conversion.northings").Float())
	require.Equal(t, "MapConversion", res.Get("contexts.0.has_coordinate_operation.0.type").String())
	require.Equal(t, int64(42), res.Get("site.ref_latitude.0").Int())

	req := httptest.NewRequest(http.MethodGet, "/api/site.geojson", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	feature := gjson.Parse(rec.Body.String())
	require.Equal(t, "Point", feature.Get("geometry.type").String())
	require.InDelta(t, 15.0, feature.Get("geometry.coordinates.0").Float(), 1e-9)
	require.InDelta(t, 42.0, feature.Get("geometry.coordinates.1").Float(), 1e-9)
}

func TestGeoreferenceCommandErrors(t *testing.T) {
	t.Parallel()

	_, h, _ := newTestServer(t, false)

	code, res, _ := post(t, h, `{"type":"georeference_model","params":{"crs_mode":"bogus"}}`)
	require.Equal(t, http.StatusOK, code)
	require.False(t, res.Get("success").Bool())
	require.Contains(t, res.Get("error").String(), "crs_mode")

	// undecodable writer params come back in the writer failure shape
	for _, params := range []string{
		`{"crs_mode":"epsg","epsg":"x"}`,
		`{"crs_mode":"epsg","bogus_field":1}`,
		`{"crs_mode":"epsg","epsg":32633,"site_ref_latitude":[41.5,53,24,0]}`,
	} {
		code, res, _ = post(t, h, `{"type":"georeference_model","params":`+params+`}`)
		require.Equal(t, http.StatusOK, code, params)
		require.False(t, res.Get("success").Bool(), params)
		require.True(t, res.Get("success").Exists(), params)
		require.True(t, strings.HasPrefix(res.Get("error").String(), "invalid parameters: "), params)
		require.True(t, res.Get("warnings").IsArray(), params)
		require.False(t, res.Get("crs").Exists(), params)
	}

	code, _, _ = post(t, h, `{"type":"get_georeferencing_info","params":{"bogus_field":1}}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, res, _ = post(t, h, `{"type":"explode"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, res.Get("error").String(), "explode")

	code, _, _ = post(t, h, `{not json`)
	require.Equal(t, http.StatusBadRequest, code)

	req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// no site location yet
	req = httptest.NewRequest(http.MethodGet, "/api/site.geojson", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAutosave(t *testing.T) {
	t.Parallel()

	_, h, path := newTestServer(t, true)

	_, res, _ := post(t, h, `{"type":"georeference_model","params":{
		"crs_mode":"epsg","epsg":32633,"eastings":1,"northings":2}}`)
	require.True(t, res.Get("success").Bool(), res.Raw)
	require.True(t, res.Get("actions.wrote_file").Bool())

	d, err := document.Load(path)
	require.NoError(t, err)
	op, ok := d.ActiveConversion(d.Contexts()[0].ID)
	require.True(t, ok)
	require.Equal(t, 1.0, *op.Eastings)

	// second call changes nothing, so nothing is saved
	_, res, _ = post(t, h, `{"type":"georeference_model","params":{
		"crs_mode":"epsg","epsg":32633,"eastings":1,"northings":2}}`)
	require.True(t, res.Get("success").Bool())
	require.False(t, res.Get("actions.wrote_file").Bool())
}

func TestNoDocument(t *testing.T) {
	t.Parallel()

	s, h, _ := newTestServer(t, false)
	s.SetDocument(nil)

	_, res, _ := post(t, h, `{"type":"georeference_model","params":{"crs_mode":"epsg","epsg":32633,"eastings":1,"northings":2}}`)
	require.False(t, res.Get("success").Bool())
	require.Equal(t, "no document is currently loaded", res.Get("error").String())

	req := httptest.NewRequest(http.MethodGet, "/api/georeference", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "no document is currently loaded", gjson.Get(rec.Body.String(), "error").String())
}
