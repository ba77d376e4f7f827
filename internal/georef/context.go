package georef

import (
	"strings"

	"github.com/woozymasta/bimgeo/internal/document"
)

// SelectContext picks the geometric context to georeference.
//
// An in-range index wins over the filter. Otherwise the first context whose
// type matches the filter case-insensitively is used, and without a match
// (or filter) the first context in document order.
func SelectContext(contexts []*document.GeometricContext, filter string, index *int) (*document.GeometricContext, error) {
	if len(contexts) == 0 {
		return nil, ErrNoContextFound
	}

	if index != nil && *index >= 0 && *index < len(contexts) {
		return contexts[*index], nil
	}

	if filter != "" {
		for _, c := range contexts {
			if strings.EqualFold(c.Type, filter) {
				return c, nil
			}
		}
	}

	return contexts[0], nil
}
