// Package itemid provides a type-safe identifier for ShareFile items.
// It validates ids once at the boundary (CLI arguments, config) so the
// client can splice them into OData paths like Items(id) without escaping.
//
// This is a leaf package with zero external dependencies beyond stdlib.
package itemid

import (
	"encoding"
	"fmt"
	"strings"
)

// Kind classifies an item id by its shape.
type Kind int

// Item kinds. ShareFile folder ids start with "fo", file ids with "fi".
const (
	KindUnknown Kind = iota
	KindFolder
	KindFile
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindFile:
		return "file"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Well-known aliases accepted in place of an id.
const (
	Home       = "home"
	Top        = "top"
	AllShared  = "allshared"
	Favorites  = "favorites"
	Box        = "box"
	Connectors = "connectors"
)

var aliases = map[string]bool{
	Home:       true,
	Top:        true,
	AllShared:  true,
	Favorites:  true,
	Box:        true,
	Connectors: true,
}

// forbidden holds characters that would break out of the Items(...) segment
// or the query string.
const forbidden = "()/?#&'\"\\"

// ID is an opaque ShareFile item identifier. The zero value (ID{})
// represents an absent id.
type ID struct {
	value string
}

// New wraps a raw id without validation. Use it for ids the server returned.
func New(raw string) ID {
	return ID{value: raw}
}

// Parse validates a raw id supplied by a user. Aliases are matched case
// insensitively and normalized to lowercase.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("itemid: empty id")
	}

	if lower := strings.ToLower(raw); aliases[lower] {
		return ID{value: lower}, nil
	}

	if strings.ContainsAny(raw, forbidden) {
		return ID{}, fmt.Errorf("itemid: %q contains a reserved character", raw)
	}

	if strings.IndexFunc(raw, isSpaceOrControl) >= 0 {
		return ID{}, fmt.Errorf("itemid: %q contains whitespace or control characters", raw)
	}

	return ID{value: raw}, nil
}

func isSpaceOrControl(r rune) bool {
	return r <= ' ' || r == 0x7f
}

// String returns the raw id.
func (id ID) String() string {
	return id.value
}

// IsZero reports whether this is the zero-value ID.
func (id ID) IsZero() bool {
	return id.value == ""
}

// Kind reports whether the id names a folder, a file, or an alias.
func (id ID) Kind() Kind {
	switch {
	case aliases[id.value]:
		return KindAlias
	case strings.HasPrefix(id.value, "fo"):
		return KindFolder
	case strings.HasPrefix(id.value, "fi"):
		return KindFile
	default:
		return KindUnknown
	}
}

// PathSegment renders the OData entity segment, e.g. "Items(fo123)".
func (id ID) PathSegment() string {
	return "Items(" + id.value + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the
// zero ID; anything else must pass Parse.
func (id *ID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ID{}
		return nil
	}

	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

var (
	_ fmt.Stringer             = ID{}
	_ encoding.TextMarshaler   = ID{}
	_ encoding.TextUnmarshaler = (*ID)(nil)
)
