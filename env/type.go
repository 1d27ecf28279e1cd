// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package env

import (
	"fmt"
	"path/filepath"
)

// Type identifies the semantic type an environment value decodes to.
type Type int

const (
	// String returns the raw value unchanged.
	String Type = iota

	// Bool accepts the case-insensitive tokens 1/true/yes/on and
	// 0/false/no/off.
	Bool

	// Int parses a base-10 integer.
	Int

	// Float parses a decimal floating point number.
	Float

	// List splits on a separator, trimming whitespace around items.
	List

	// Tuple decodes exactly like List. The tag is kept so bindings can
	// state that the decoded sequence is fixed by convention.
	Tuple

	// Mapping decodes separator-joined key=value pairs.
	Mapping

	// JSON decodes an arbitrary JSON document.
	JSON

	// FilePath returns a cleaned [Path]. No existence check is performed.
	FilePath

	// DatabaseURL decodes a database connection string into a [URL].
	DatabaseURL

	// CacheURL decodes a cache connection string into a [URL].
	CacheURL

	// SearchURL decodes a search backend connection string into a [URL].
	SearchURL

	// MailURL decodes a mail backend connection string into a [URL].
	MailURL
)

var typeNames = map[Type]string{
	String:      "string",
	Bool:        "bool",
	Int:         "int",
	Float:       "float",
	List:        "list",
	Tuple:       "tuple",
	Mapping:     "mapping",
	JSON:        "json",
	FilePath:    "path",
	DatabaseURL: "db_url",
	CacheURL:    "cache_url",
	SearchURL:   "search_url",
	MailURL:     "email_url",
}

// String implements the [fmt.Stringer] interface.
func (t Type) String() string {
	name, ok := typeNames[t]
	if !ok {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return name
}

// Valid reports whether t is one of the recognized type tags.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// InvalidTypeError occurs when a binding names a type tag the
// accessor does not recognize. It is a definition error: it is
// surfaced when the binding is constructed, never at read time.
type InvalidTypeError struct {
	Type Type
}

// Error implements the error interface.
func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid environment type: %s", e.Type)
}

// Path is an abstract filesystem path decoded from the environment.
type Path string

// Join appends elements to the path.
func (p Path) Join(elems ...string) Path {
	return Path(filepath.Join(append([]string{string(p)}, elems...)...))
}

// String implements the [fmt.Stringer] interface.
func (p Path) String() string {
	return string(p)
}

// TypeOf infers the type tag selected by the shape of a default
// value. A nil default selects String. It reports false when no tag
// matches the value's type.
func TypeOf(def any) (Type, bool) {
	switch def.(type) {
	case nil, string:
		return String, true
	case bool:
		return Bool, true
	case int, int32, int64:
		return Int, true
	case float32, float64:
		return Float, true
	case []string:
		return List, true
	case map[string]string:
		return Mapping, true
	case Path:
		return FilePath, true
	}
	return String, false
}
