// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

import (
	"fmt"
	"strings"

	"github.com/settleconf/settle/env"
)

// Binding is the declarative rule mapping an option to an environment
// variable, semantic type and default. The zero Binding is not valid;
// construct one with [Bind].
type Binding struct {
	def          any
	typ          env.Type
	typSet       bool
	name         string
	nameTemplate string
	sep          string

	// computed when the owning profile is built
	variable string
}

// BindOption configures a [Binding].
type BindOption func(*Binding)

// Bind declares an environment binding with the given default. The
// semantic type is inferred from the shape of the default unless
// [BindType] names one; pass [NotGiven] to declare no default.
func Bind(def any, opts ...BindOption) Binding {
	b := Binding{def: def}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// BindType names the semantic type explicitly.
func BindType(t env.Type) BindOption {
	return func(b *Binding) {
		b.typ = t
		b.typSet = true
	}
}

// BindName sets the environment variable name explicitly, bypassing
// the profile prefix.
func BindName(name string) BindOption {
	return func(b *Binding) {
		b.name = name
	}
}

// BindNameTemplate sets the variable name from a template. The
// placeholders {prefix} and {attr} expand to the profile prefix and
// the option name.
func BindNameTemplate(tmpl string) BindOption {
	return func(b *Binding) {
		b.nameTemplate = tmpl
	}
}

// BindSeparator overrides the item separator for list, tuple and
// mapping typed bindings.
func BindSeparator(sep string) BindOption {
	return func(b *Binding) {
		b.sep = sep
	}
}

// finish validates the binding and computes its variable name. Called
// once, at profile build time: an invalid type tag is a definition
// error, never a read-time one.
func (b *Binding) finish(prefix, option string) error {
	if b.typSet {
		if !b.typ.Valid() {
			return env.InvalidTypeError{Type: b.typ}
		}
	} else if !IsNotGiven(b.def) {
		t, ok := env.TypeOf(b.def)
		if !ok {
			return fmt.Errorf("cannot infer an environment type from a %T default", b.def)
		}
		b.typ = t
	} else {
		b.typ = env.String
	}

	switch {
	case b.name != "":
		b.variable = b.name
	case b.nameTemplate != "":
		r := strings.NewReplacer("{prefix}", prefix, "{attr}", option)
		b.variable = r.Replace(b.nameTemplate)
	default:
		b.variable = prefix + option
	}
	return nil
}

// read performs the environment read for this binding. An absent
// variable yields the declared default unmodified.
func (b *Binding) read(a *env.Accessor) (any, error) {
	var opts []env.ReadOption
	if b.sep != "" {
		opts = append(opts, env.WithSeparator(b.sep))
	}
	return a.Read(b.variable, b.typ, b.def, opts...)
}

// Variable returns the environment variable name this binding reads.
// It is empty until the binding is part of a built [Profile].
func (b Binding) Variable() string {
	return b.variable
}
