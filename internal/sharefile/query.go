package sharefile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is returned for $expand or $select elements containing
// characters outside [A-Za-z0-9_/.].
var ErrInvalidQuery = errors.New("sharefile: invalid query element")

// Query holds OData $expand and $select lists.
type Query struct {
	Expand []string
	Select []string
}

// FolderQuery expands Children and selects the fields a folder listing shows.
var FolderQuery = Query{
	Expand: []string{"Children"},
	Select: []string{"Id", "Name", "Children/Id", "Children/Name", "Children/CreationDate"},
}

// Encode renders the query string without a leading "?". OData expects the
// $-prefixed names literally, so elements are validated instead of escaped.
func (q Query) Encode() (string, error) {
	var parts []string

	for _, p := range []struct {
		name  string
		elems []string
	}{
		{"$expand", q.Expand},
		{"$select", q.Select},
	} {
		if len(p.elems) == 0 {
			continue
		}

		for _, e := range p.elems {
			if !validQueryElement(e) {
				return "", fmt.Errorf("%w: %s %q", ErrInvalidQuery, p.name, e)
			}
		}

		parts = append(parts, p.name+"="+strings.Join(p.elems, ","))
	}

	return strings.Join(parts, "&"), nil
}

func validQueryElement(e string) bool {
	if e == "" {
		return false
	}

	for _, r := range e {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '/' || r == '.':
		default:
			return false
		}
	}

	return true
}
