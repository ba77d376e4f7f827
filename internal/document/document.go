package document

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound          = errors.New("entity not found")
	ErrConversionExists  = errors.New("context already has an active map conversion")
	ErrInvalidReference  = errors.New("invalid entity reference")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrDuplicateID       = errors.New("duplicate entity id")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// DefaultSchema is written into new documents.
const DefaultSchema = "IFC4"

// Document is an in-memory building-model document.
//
// Besides the records it keeps an explicit index from each geometric context
// to its active map conversion, which enforces one active conversion per
// context and makes detection a map lookup.
type Document struct {
	active     map[EntityID]EntityID // context -> map conversion
	path       string
	schema     string
	projects   []*Project
	contexts   []*GeometricContext
	crs        []*ProjectedCRS
	operations []*CoordinateOperation
	sites      []*Site
	nextID     EntityID
}

// New returns an empty document.
func New(schema string) *Document {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Document{
		schema: schema,
		active: make(map[EntityID]EntityID),
		nextID: 1,
	}
}

// Schema returns the document schema tag.
func (d *Document) Schema() string { return d.schema }

// Path returns the file the document was loaded from or last written to.
func (d *Document) Path() string { return d.path }

func (d *Document) allocID() EntityID {
	id := d.nextID
	d.nextID++
	return id
}

// Projects returns the project records in document order.
func (d *Document) Projects() []*Project { return d.projects }

// Contexts returns every geometric context in document order.
func (d *Document) Contexts() []*GeometricContext { return d.contexts }

// Sites returns the site records in document order.
func (d *Document) Sites() []*Site { return d.sites }

// Context returns the geometric context with the given id.
func (d *Document) Context(id EntityID) (*GeometricContext, error) {
	for _, c := range d.contexts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("context #%d: %w", id, ErrNotFound)
}

// CRS returns the projected CRS with the given id.
func (d *Document) CRS(id EntityID) (*ProjectedCRS, error) {
	for _, c := range d.crs {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("projected crs #%d: %w", id, ErrNotFound)
}

// CoordinateOperations returns the operations whose source is the given
// context, in document order.
func (d *Document) CoordinateOperations(contextID EntityID) ([]*CoordinateOperation, error) {
	if _, err := d.Context(contextID); err != nil {
		return nil, err
	}

	var ops []*CoordinateOperation
	for _, op := range d.operations {
		if op.SourceCRS == contextID {
			ops = append(ops, op)
		}
	}

	return ops, nil
}

// ActiveConversion returns the active map conversion of a context.
func (d *Document) ActiveConversion(contextID EntityID) (*CoordinateOperation, bool) {
	id, ok := d.active[contextID]
	if !ok {
		return nil, false
	}
	for _, op := range d.operations {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// AddProject appends a project record.
func (d *Document) AddProject(name string) *Project {
	p := &Project{ID: d.allocID(), Name: name}
	d.projects = append(d.projects, p)
	return p
}

// AddContext appends a geometric context and links it to the first project, if any.
func (d *Document) AddContext(c GeometricContext) *GeometricContext {
	c.ID = d.allocID()
	ctx := &c
	d.contexts = append(d.contexts, ctx)
	if len(d.projects) > 0 {
		d.projects[0].Contexts = append(d.projects[0].Contexts, ctx.ID)
	}
	return ctx
}

// AddSite appends a site record.
func (d *Document) AddSite(s Site) *Site {
	s.ID = d.allocID()
	site := &s
	d.sites = append(d.sites, site)
	return site
}

// CreateCRS stores a new projected CRS record.
func (d *Document) CreateCRS(crs ProjectedCRS) (*ProjectedCRS, error) {
	if crs.Name == "" {
		return nil, fmt.Errorf("%w: projected crs without name", ErrInvalidRecord)
	}

	crs.ID = d.allocID()
	rec := &crs
	d.crs = append(d.crs, rec)

	log.Trace().Int64("id", int64(rec.ID)).Str("name", rec.Name).Msg("Projected CRS created")

	return rec, nil
}

// CreateMapConversion stores a new map conversion and makes it the active
// conversion of its source context. It fails with ErrConversionExists when
// the context already has one.
func (d *Document) CreateMapConversion(op CoordinateOperation) (*CoordinateOperation, error) {
	return d.createMapConversion(op, false)
}

// ReplaceMapConversion stores a new map conversion and makes it the active
// conversion of its source context, whatever conversion was active before.
// The previous conversion is left in the document.
func (d *Document) ReplaceMapConversion(op CoordinateOperation) (*CoordinateOperation, error) {
	return d.createMapConversion(op, true)
}

func (d *Document) createMapConversion(op CoordinateOperation, replace bool) (*CoordinateOperation, error) {
	if _, err := d.Context(op.SourceCRS); err != nil {
		return nil, fmt.Errorf("%w: source: %w", ErrInvalidReference, err)
	}
	if _, err := d.CRS(op.TargetCRS); err != nil {
		return nil, fmt.Errorf("%w: target: %w", ErrInvalidReference, err)
	}
	if op.Eastings == nil || op.Northings == nil {
		return nil, fmt.Errorf("%w: map conversion without eastings/northings", ErrInvalidRecord)
	}
	if existing, ok := d.active[op.SourceCRS]; ok && !replace {
		return nil, fmt.Errorf("%w: #%d", ErrConversionExists, existing)
	}

	op.Type = OperationMapConversion
	op.ID = d.allocID()
	rec := &op
	d.operations = append(d.operations, rec)
	d.active[rec.SourceCRS] = rec.ID

	log.Trace().
		Int64("id", int64(rec.ID)).
		Int64("context", int64(rec.SourceCRS)).
		Int64("crs", int64(rec.TargetCRS)).
		Bool("replace", replace).
		Msg("Map conversion created")

	return rec, nil
}

// Remove deletes the record with the given id. References to it held by
// other records are not cleared.
func (d *Document) Remove(id EntityID) error {
	var ok bool

	if d.operations, ok = removeByID(d.operations, id, func(op *CoordinateOperation) EntityID { return op.ID }); ok {
		var stale []EntityID
		for ctx, opID := range d.active {
			if opID == id {
				stale = append(stale, ctx)
			}
		}
		for _, ctx := range stale {
			delete(d.active, ctx)
			d.indexContext(ctx)
		}
		return nil
	}
	if d.crs, ok = removeByID(d.crs, id, func(c *ProjectedCRS) EntityID { return c.ID }); ok {
		return nil
	}
	if d.sites, ok = removeByID(d.sites, id, func(s *Site) EntityID { return s.ID }); ok {
		return nil
	}
	if d.contexts, ok = removeByID(d.contexts, id, func(c *GeometricContext) EntityID { return c.ID }); ok {
		delete(d.active, id)
		for _, p := range d.projects {
			p.Contexts = slices.DeleteFunc(p.Contexts, func(c EntityID) bool { return c == id })
		}
		return nil
	}
	if d.projects, ok = removeByID(d.projects, id, func(p *Project) EntityID { return p.ID }); ok {
		return nil
	}

	return fmt.Errorf("remove #%d: %w", id, ErrNotFound)
}

// SetSiteReference updates the geodetic reference fields of a site in place.
func (d *Document) SetSiteReference(id EntityID, ref SiteReference) error {
	for _, s := range d.sites {
		if s.ID != id {
			continue
		}
		if ref.Latitude != nil {
			s.RefLatitude = slices.Clone(ref.Latitude)
		}
		if ref.Longitude != nil {
			s.RefLongitude = slices.Clone(ref.Longitude)
		}
		if ref.Elevation != nil {
			v := *ref.Elevation
			s.RefElevation = &v
		}
		return nil
	}
	return fmt.Errorf("site #%d: %w", id, ErrNotFound)
}

// indexContext points the active index of a context at its first map conversion.
func (d *Document) indexContext(contextID EntityID) {
	for _, op := range d.operations {
		if op.SourceCRS == contextID && op.IsMapConversion() {
			d.active[contextID] = op.ID
			return
		}
	}
}

// reindex rebuilds the active conversion index and the id allocator.
func (d *Document) reindex() error {
	d.active = make(map[EntityID]EntityID)
	seen := make(map[EntityID]bool)
	var maxID EntityID

	mark := func(id EntityID) error {
		if id <= 0 {
			return fmt.Errorf("%w: #%d", ErrInvalidRecord, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: #%d", ErrDuplicateID, id)
		}
		seen[id] = true
		maxID = max(maxID, id)
		return nil
	}

	for _, p := range d.projects {
		if err := mark(p.ID); err != nil {
			return err
		}
	}
	for _, c := range d.contexts {
		if err := mark(c.ID); err != nil {
			return err
		}
	}
	for _, c := range d.crs {
		if err := mark(c.ID); err != nil {
			return err
		}
	}
	for _, s := range d.sites {
		if err := mark(s.ID); err != nil {
			return err
		}
	}
	for _, op := range d.operations {
		if err := mark(op.ID); err != nil {
			return err
		}
		if _, ok := d.active[op.SourceCRS]; !ok && op.IsMapConversion() {
			d.active[op.SourceCRS] = op.ID
		}
	}

	d.nextID = maxID + 1
	return nil
}

func removeByID[T any](s []T, id EntityID, idOf func(T) EntityID) ([]T, bool) {
	i := slices.IndexFunc(s, func(v T) bool { return idOf(v) == id })
	if i < 0 {
		return s, false
	}
	return slices.Delete(s, i, i+1), true
}
