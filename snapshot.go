// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// Snapshot is the immutable flat mapping of all resolved options.
// Every key is upper-case and no key maps to [NotGiven].
type Snapshot struct {
	values map[string]any
}

func newSnapshot(values map[string]any) Snapshot {
	return Snapshot{values: values}
}

// Value reports the resolved value of name and whether it is present.
func (s Snapshot) Value(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Keys returns the sorted option names.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of resolved options.
func (s Snapshot) Len() int {
	return len(s.values)
}

// Map returns a fresh shallow copy of the mapping.
func (s Snapshot) Map() map[string]any {
	m := make(map[string]any, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// UnmarshalError occurs when a snapshot cannot be decoded into the
// host's settings type.
type UnmarshalError struct {
	Cause error
}

// Error implements the error interface.
func (e UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal settings snapshot: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e UnmarshalError) Unwrap() error {
	return e.Cause
}

// Unmarshal decodes the snapshot into the host's own settings struct.
// Field names match option names case-insensitively, or explicitly
// through a `settle` struct tag. String values decode into
// [time.Duration] and [encoding.TextUnmarshaler] fields.
func (s Snapshot) Unmarshal(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "settle",
		Result:  v,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	err = dec.Decode(s.values)
	if err != nil {
		return UnmarshalError{Cause: err}
	}
	return nil
}
