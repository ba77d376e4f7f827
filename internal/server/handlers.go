// Package server exposes the georeferencing operations as named remote
// commands over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/woozymasta/bimgeo/internal/geo"
	"github.com/woozymasta/bimgeo/internal/georef"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// Remote command names.
const (
	CommandGeoreference = "georeference_model"
	CommandInfo         = "get_georeferencing_info"
)

const maxBodySize = 1 << 20

// InfoParams are the parameters of the info command.
type InfoParams struct {
	IncludeContexts bool `json:"include_contexts"`
}

// HandleCommand dispatches a {"type": ..., "params": {...}} command envelope.
func (s *ServerContext) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, "invalid JSON command")
		return
	}

	command := gjson.GetBytes(body, "type").String()
	raw := []byte(gjson.GetBytes(body, "params").Raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	log.Debug().Str("command", command).Int("params_size", len(raw)).Msg("Command received")

	switch command {
	case CommandGeoreference:
		var params georef.Params
		if err := decodeParams(raw, &params); err != nil {
			log.Debug().Err(err).Msg("Georeference params rejected")
			writeJSON(w, http.StatusOK, georef.Failed(fmt.Errorf("%w: %w", georef.ErrInvalidParams, err)))
			return
		}
		writeJSON(w, http.StatusOK, s.Georeference(r, params))

	case CommandInfo:
		var p InfoParams
		if err := decodeParams(raw, &p); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeInfo(w, p.IncludeContexts)

	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown command type: %q", command))
	}
}

// HandleInfo serves the georeferencing info of the open document.
func (s *ServerContext) HandleInfo(w http.ResponseWriter, r *http.Request) {
	include, _ := strconv.ParseBool(r.URL.Query().Get("include_contexts"))
	s.writeInfo(w, include)
}

// HandleSiteGeoJSON serves the site reference location as a GeoJSON feature.
func (s *ServerContext) HandleSiteGeoJSON(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var name string
	var lat, lon []int
	var elev *float64
	doc := s.doc
	if doc != nil && len(doc.Sites()) > 0 {
		site := doc.Sites()[0]
		name, lat, lon, elev = site.Name, site.RefLatitude, site.RefLongitude, site.RefElevation
	}
	s.mu.Unlock()

	if doc == nil {
		writeError(w, http.StatusServiceUnavailable, georef.ErrNoDocument.Error())
		return
	}

	f, err := geo.SiteFeature(name, lat, lon, elev)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, geo.ErrNoSiteLocation) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(f)
}

// Georeference runs the writer against the open document.
func (s *ServerContext) Georeference(r *http.Request, params georef.Params) *georef.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := georef.EstablishGeoreference(r.Context(), s.store(), params, georef.Options{
		Projector:            s.Projector,
		DefaultContextFilter: s.Config.ContextFilter,
	})

	if s.Config.Autosave && out.Success && out.Actions.CreatedMapConversion &&
		params.WritePath == "" && !params.DryRun && s.doc.Path() != "" {
		if err := s.doc.Write(s.doc.Path()); err != nil {
			msg := fmt.Sprintf("Could not autosave document to '%s': %v", s.doc.Path(), err)
			log.Warn().Msg(msg)
			out.Warnings = append(out.Warnings, msg)
		} else {
			out.Actions.WroteFile = true
		}
	}

	return out
}

func (s *ServerContext) writeInfo(w http.ResponseWriter, includeContexts bool) {
	s.mu.Lock()
	info, err := georef.QueryGeoreference(s.store(), includeContexts)
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusOK, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func decodeParams(params []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	// Ignoring error as we cannot handle client disconnects
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
