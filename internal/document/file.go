package document

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// documentFile is the serialized form of a Document.
type documentFile struct {
	Schema     string                 `yaml:"schema" json:"schema"`
	Projects   []*Project             `yaml:"projects,omitempty" json:"projects,omitempty"`
	Contexts   []*GeometricContext    `yaml:"contexts,omitempty" json:"contexts,omitempty"`
	CRS        []*ProjectedCRS        `yaml:"projected_crs,omitempty" json:"projected_crs,omitempty"`
	Operations []*CoordinateOperation `yaml:"coordinate_operations,omitempty" json:"coordinate_operations,omitempty"`
	Sites      []*Site                `yaml:"sites,omitempty" json:"sites,omitempty"`
}

type format int

const (
	formatYAML format = iota
	formatJSON
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".json":
		return formatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a document from a YAML or JSON file, chosen by extension.
func Load(path string) (*Document, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw documentFile
	if f == formatJSON {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	d := New(raw.Schema)
	d.projects = raw.Projects
	d.contexts = raw.Contexts
	d.crs = raw.CRS
	d.operations = raw.Operations
	d.sites = raw.Sites
	d.path = path

	if err := d.reindex(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Int("contexts", len(d.contexts)).
		Int("operations", len(d.operations)).
		Int("sites", len(d.sites)).
		Msg("Document loaded")

	return d, nil
}

// Encode writes the document to w in the format matching path's extension.
func (d *Document) Encode(w io.Writer, path string) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	raw := documentFile{
		Schema:     d.schema,
		Projects:   d.projects,
		Contexts:   d.contexts,
		CRS:        d.crs,
		Operations: d.operations,
		Sites:      d.sites,
	}

	if f == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(raw)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return err
	}
	return enc.Close()
}

// Write serializes the document to path, creating parent directories.
func (d *Document) Write(path string) (err error) {
	if _, err := formatOf(path); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
			if err == nil {
				err = closeErr
			}
		}
	}()

	if err := d.Encode(f, path); err != nil {
		return err
	}

	d.path = path
	log.Debug().Str("path", path).Msg("Document written")

	return nil
}
