package server

import (
	"sync"

	"github.com/woozymasta/bimgeo/internal/config"
	"github.com/woozymasta/bimgeo/internal/document"
	"github.com/woozymasta/bimgeo/internal/georef"
	"github.com/woozymasta/bimgeo/internal/projection"

	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
//
// Calls against the open document are serialized by mu; the georeferencing
// core assumes exclusive access for the duration of one call.
type ServerContext struct {
	Config    *config.Config
	Projector georef.Projector
	doc       *document.Document
	mu        sync.Mutex
}

// NewServerContext initializes the context and opens the configured document.
// A document that cannot be loaded is logged and left closed, so calls
// report that no document is loaded.
func NewServerContext(cfg *config.Config) *ServerContext {
	s := &ServerContext{Config: cfg}

	if cfg.Projector.IsEnabled() {
		s.Projector = projection.NewWGS84Projector(cfg.Projector.Timeout)
	} else {
		log.Info().Msg("Projector disabled, eastings/northings must be given explicitly")
	}

	if cfg.Document == "" {
		log.Warn().Msg("No document configured")
		return s
	}

	doc, err := document.Load(cfg.Document)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.Document).Msg("Failed to load document")
		return s
	}
	s.doc = doc

	log.Info().
		Str("path", cfg.Document).
		Str("schema", doc.Schema()).
		Int("contexts", len(doc.Contexts())).
		Msg("Document opened")

	return s
}

// SetDocument replaces the open document.
func (s *ServerContext) SetDocument(doc *document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
}

// store returns the open document, or a nil interface when none is open.
func (s *ServerContext) store() georef.Store {
	if s.doc == nil {
		return nil
	}
	return s.doc
}
