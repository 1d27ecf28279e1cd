// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package env reads environment variables and decodes them into
// semantic types.
//
// An [Accessor] is built from layered [Source]s and answers typed
// reads. A value absent from every source yields the caller supplied
// default, unmodified. A present value is decoded per its [Type] tag;
// a malformed value is a [DecodeError], never silently defaulted.
package env

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// DecodeError occurs when a present environment value cannot be
// decoded as its declared type.
type DecodeError struct {
	Var   string
	Type  Type
	Cause error
}

// Error implements the error interface.
func (e DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s as %s: %s", e.Var, e.Type, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DecodeError) Unwrap() error {
	return e.Cause
}

// Accessor reads raw environment strings from its sources and decodes
// them. The value table is built once; an Accessor never re-reads the
// process environment after construction unless [Accessor.Load] is
// called with a fresh [Environ] source.
type Accessor struct {
	values map[string]string
}

type mapStore map[string]string

func (s mapStore) Set(name, value string) {
	s[name] = value
}

// New builds an [Accessor] from the given sources, applied in order
// with later sources overriding earlier ones.
func New(srcs ...Source) (*Accessor, error) {
	a := &Accessor{values: make(map[string]string)}
	for _, src := range srcs {
		err := a.Load(src)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Load applies one more source on top of the existing table.
func (a *Accessor) Load(src Source) error {
	return src.Apply(mapStore(a.values))
}

// Lookup reports the raw value of name and whether it is present.
func (a *Accessor) Lookup(name string) (string, bool) {
	v, ok := a.values[name]
	return v, ok
}

type readConfig struct {
	sep string
}

// ReadOption configures a single read.
type ReadOption func(*readConfig)

// WithSeparator overrides the item separator used by the List, Tuple
// and Mapping types. The default is ",".
func WithSeparator(sep string) ReadOption {
	return func(cfg *readConfig) {
		cfg.sep = sep
	}
}

// Read looks up name and decodes it per the given type tag. An absent
// name yields def unmodified.
func (a *Accessor) Read(name string, t Type, def any, opts ...ReadOption) (any, error) {
	cfg := readConfig{sep: ","}
	for _, opt := range opts {
		opt(&cfg)
	}

	raw, ok := a.values[name]
	if !ok {
		return def, nil
	}

	v, err := decode(raw, t, cfg)
	if err != nil {
		return nil, DecodeError{Var: name, Type: t, Cause: err}
	}
	return v, nil
}

var boolTokens = map[string]bool{
	"1":     true,
	"true":  true,
	"yes":   true,
	"on":    true,
	"0":     false,
	"false": false,
	"no":    false,
	"off":   false,
}

func decode(raw string, t Type, cfg readConfig) (any, error) {
	switch t {
	case String:
		return raw, nil
	case Bool:
		b, ok := boolTokens[strings.ToLower(raw)]
		if !ok {
			return nil, fmt.Errorf("unrecognized boolean token: %q", raw)
		}
		return b, nil
	case Int:
		return strconv.Atoi(raw)
	case Float:
		return strconv.ParseFloat(raw, 64)
	case List, Tuple:
		return splitList(raw, cfg.sep), nil
	case Mapping:
		return decodeMapping(raw, cfg.sep)
	case JSON:
		var v any
		err := json.Unmarshal([]byte(raw), &v)
		if err != nil {
			return nil, err
		}
		return v, nil
	case FilePath:
		return Path(filepath.Clean(raw)), nil
	case DatabaseURL, CacheURL, SearchURL, MailURL:
		return ParseURL(raw, t)
	}
	return nil, InvalidTypeError{Type: t}
}

func splitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	items := make([]string, len(parts))
	for i, p := range parts {
		items[i] = strings.TrimSpace(p)
	}
	return items
}

func decodeMapping(raw, sep string) (map[string]string, error) {
	m := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}
	for _, pair := range strings.Split(raw, sep) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed key=value pair: %q", pair)
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return m, nil
}

// String reads a string value.
func (a *Accessor) String(name string, def string) (string, error) {
	v, err := a.Read(name, String, def)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Bool reads a boolean value.
func (a *Accessor) Bool(name string, def bool) (bool, error) {
	v, err := a.Read(name, Bool, def)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Int reads an integer value.
func (a *Accessor) Int(name string, def int) (int, error) {
	v, err := a.Read(name, Int, def)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Float reads a floating point value.
func (a *Accessor) Float(name string, def float64) (float64, error) {
	v, err := a.Read(name, Float, def)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// List reads a separator-joined list.
func (a *Accessor) List(name string, def []string, opts ...ReadOption) ([]string, error) {
	v, err := a.Read(name, List, def, opts...)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.([]string), nil
}

// Tuple reads a separator-joined list into a fresh slice the caller
// owns outright.
func (a *Accessor) Tuple(name string, def []string, opts ...ReadOption) ([]string, error) {
	v, err := a.Read(name, Tuple, def, opts...)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.([]string), nil
}

// Mapping reads separator-joined key=value pairs.
func (a *Accessor) Mapping(name string, def map[string]string, opts ...ReadOption) (map[string]string, error) {
	v, err := a.Read(name, Mapping, def, opts...)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(map[string]string), nil
}

// JSON reads an arbitrary JSON document.
func (a *Accessor) JSON(name string, def any) (any, error) {
	return a.Read(name, JSON, def)
}

// PathValue reads a filesystem path.
func (a *Accessor) PathValue(name string, def Path) (Path, error) {
	v, err := a.Read(name, FilePath, def)
	if err != nil {
		return "", err
	}
	return v.(Path), nil
}

// DatabaseURL reads a database connection record.
func (a *Accessor) DatabaseURL(name string, def URL) (URL, error) {
	return a.readURL(name, DatabaseURL, def)
}

// CacheURL reads a cache connection record.
func (a *Accessor) CacheURL(name string, def URL) (URL, error) {
	return a.readURL(name, CacheURL, def)
}

// SearchURL reads a search backend connection record.
func (a *Accessor) SearchURL(name string, def URL) (URL, error) {
	return a.readURL(name, SearchURL, def)
}

// MailURL reads a mail backend connection record.
func (a *Accessor) MailURL(name string, def URL) (URL, error) {
	return a.readURL(name, MailURL, def)
}

func (a *Accessor) readURL(name string, t Type, def URL) (URL, error) {
	v, err := a.Read(name, t, def)
	if err != nil {
		return URL{}, err
	}
	return v.(URL), nil
}
