// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package env

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/settleconf/settle/internal/try"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store represents a flat name to raw value table.
type Store interface {
	Set(name, value string)
}

// Source defines where an [Accessor] draws raw values from. Sources
// applied later override names set by earlier ones.
type Source interface {
	Apply(Store) error
}

// SourceFunc is a functional implementation of the [Source] interface.
type SourceFunc func(Store) error

// Apply implements the [Source] interface.
func (f SourceFunc) Apply(s Store) error {
	return f(s)
}

// Environ returns a [Source] backed by the environment variables of
// the current process.
func Environ() Source {
	return environSource{environ: os.Environ}
}

type environSource struct {
	environ func() []string
}

// Apply implements the [Source] interface.
func (src environSource) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		store.Set(k, v)
	}
	return nil
}

// FromMap returns a [Source] backed by an explicit table. It is the
// seam tests use instead of mutating the process environment.
func FromMap(values map[string]string) Source {
	return SourceFunc(func(store Store) error {
		for k, v := range values {
			store.Set(k, v)
		}
		return nil
	})
}

// FromDotenv returns a [Source] which reads a flat KEY=VALUE file.
func FromDotenv(path string) Source {
	return SourceFunc(func(store Store) error {
		values, err := godotenv.Read(path)
		if err != nil {
			return err
		}
		for k, v := range values {
			store.Set(k, v)
		}
		return nil
	})
}

// InvalidYamlError occurs if a YAML source does not hold a flat
// mapping of scalar values.
type InvalidYamlError struct {
	Cause error
}

// Error implements the error interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml source: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidYamlError) Unwrap() error {
	return e.Cause
}

// FromYaml returns a [Source] which reads a flat YAML mapping of
// scalar values. The reader is closed if it implements [io.Closer].
func FromYaml(r io.Reader) Source {
	return SourceFunc(func(store Store) (err error) {
		defer try.Close(&err, r)

		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}

		m := make(map[string]any)
		err = yaml.Unmarshal(b, &m)
		if err != nil {
			return InvalidYamlError{Cause: err}
		}

		for k, v := range m {
			switch v.(type) {
			case map[string]any, []any:
				return InvalidYamlError{
					Cause: fmt.Errorf("value for %q is not a scalar", k),
				}
			}
			store.Set(k, fmt.Sprint(v))
		}
		return nil
	})
}
