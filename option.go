// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

import (
	"fmt"
	"sort"
	"strings"
)

type notGiven struct{}

func (notGiven) String() string {
	return "<not given>"
}

// NotGiven is the sentinel distinguishing "no value resolved" from a
// resolved nil. An option still NotGiven at snapshot assembly time is
// dropped from the snapshot unless a dependency required it.
var NotGiven any = notGiven{}

// IsNotGiven reports whether v is the [NotGiven] sentinel.
func IsNotGiven(v any) bool {
	_, ok := v.(notGiven)
	return ok
}

// ResolveFunc computes an option value from other, already resolved
// options reachable through the [Context].
type ResolveFunc func(*Context) (any, error)

// TransformFunc post-processes a raw environment value. raw is
// [NotGiven] when the environment supplied nothing and the binding
// declared no default; the transform decides the true default in that
// case, typically by consulting other options.
type TransformFunc func(ctx *Context, raw any) (any, error)

// PrepareFunc runs once before any option resolves.
type PrepareFunc func(*Context) error

// FinalizeFunc rewrites the assembled settings. It is the one
// extension point allowed to see the whole snapshot; it may also
// return an error to veto it.
type FinalizeFunc func(ctx *Context, settings map[string]any) (map[string]any, error)

// Dependency names another option a resolver needs. A dependency
// without a default that resolves to [NotGiven] fails the whole pass.
type Dependency struct {
	Name       string
	Default    any
	HasDefault bool
}

// Dep declares a required dependency.
func Dep(name string) Dependency {
	return Dependency{Name: strings.ToUpper(name)}
}

// DepDefault declares a dependency which falls back to def when the
// named option resolves to [NotGiven] or is not declared at all.
func DepDefault(name string, def any) Dependency {
	return Dependency{Name: strings.ToUpper(name), Default: def, HasDefault: true}
}

// Option is one declared configuration value. Construct options with
// [Static], [Bound], [Derived] or [Computed].
type Option struct {
	name      string
	value     any
	hasValue  bool
	binding   *Binding
	transform TransformFunc
	resolve   ResolveFunc
	deps      []Dependency
}

// Static declares an option with a plain static value.
func Static(name string, value any) Option {
	return Option{name: name, value: value, hasValue: true}
}

// Bound declares an option read from the environment.
func Bound(name string, b Binding) Option {
	return Option{name: name, binding: &b}
}

// Derived declares an environment-bound option whose raw value is
// post-processed by a transform.
func Derived(name string, b Binding, transform TransformFunc, deps ...Dependency) Option {
	return Option{name: name, binding: &b, transform: transform, deps: deps}
}

// Computed declares an option supplied by a resolver. Dependencies
// are resolved, in declaration order, before the resolver runs.
func Computed(name string, resolve ResolveFunc, deps ...Dependency) Option {
	return Option{name: name, resolve: resolve, deps: deps}
}

// Name returns the (normalized) option name.
func (o Option) Name() string {
	return strings.ToUpper(o.name)
}

// Aspect contributes one slice of the overall option set, plus
// optional prepare and finalize hooks.
type Aspect struct {
	Name     string
	Options  []Option
	Prepare  PrepareFunc
	Finalize FinalizeFunc
}

// BadNameError occurs when an option declares an unusable name.
type BadNameError struct {
	Name string
}

// Error implements the error interface.
func (e BadNameError) Error() string {
	return fmt.Sprintf("invalid option name: %q", e.Name)
}

// DuplicateOptionError occurs when a single aspect declares the same
// option twice. Redeclaring across aspects is shadowing, not an error.
type DuplicateOptionError struct {
	Aspect string
	Name   string
}

// Error implements the error interface.
func (e DuplicateOptionError) Error() string {
	return fmt.Sprintf("aspect %q declares option %s twice", e.Aspect, e.Name)
}

// BindingError occurs when an option's declaration is malformed.
type BindingError struct {
	Option string
	Cause  error
}

// Error implements the error interface.
func (e BindingError) Error() string {
	return fmt.Sprintf("invalid declaration for option %s: %s", e.Option, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BindingError) Unwrap() error {
	return e.Cause
}

type registered struct {
	// definition chain, earliest first; the last entry is active and
	// earlier ones are reachable through Context.Base.
	defs []Option
}

// Profile is an immutable registry of options built from an ordered
// aspect composition. Build one with [New]; it can then serve any
// number of independent resolutions.
type Profile struct {
	prefix  string
	envFile string
	aspects []Aspect
	options map[string]*registered
	names   []string
}

type profileConfig struct {
	prefix  string
	envFile string
	aspects []Aspect
}

// ProfileOption configures a [Profile].
type ProfileOption func(*profileConfig)

// WithEnvPrefix sets the prefix combined with option names to derive
// environment variable names. Empty by default.
func WithEnvPrefix(prefix string) ProfileOption {
	return func(cfg *profileConfig) {
		cfg.prefix = prefix
	}
}

// WithEnvFile declares a flat KEY=VALUE file loaded into the
// environment accessor before resolution.
func WithEnvFile(path string) ProfileOption {
	return func(cfg *profileConfig) {
		cfg.envFile = path
	}
}

// WithAspects appends aspects to the composition. Later aspects
// shadow options declared by earlier ones.
func WithAspects(aspects ...Aspect) ProfileOption {
	return func(cfg *profileConfig) {
		cfg.aspects = append(cfg.aspects, aspects...)
	}
}

// WithOptions appends loose options as an anonymous aspect.
func WithOptions(opts ...Option) ProfileOption {
	return func(cfg *profileConfig) {
		cfg.aspects = append(cfg.aspects, Aspect{Options: opts})
	}
}

// New builds the option registry. Malformed declarations are
// definition errors and surface here, never during resolution.
func New(opts ...ProfileOption) (*Profile, error) {
	var cfg profileConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Profile{
		prefix:  cfg.prefix,
		envFile: cfg.envFile,
		aspects: cfg.aspects,
		options: make(map[string]*registered),
	}

	for _, aspect := range cfg.aspects {
		declared := make(map[string]struct{}, len(aspect.Options))
		for _, opt := range aspect.Options {
			name, err := normalizeName(opt.name)
			if err != nil {
				return nil, err
			}
			if _, ok := declared[name]; ok {
				return nil, DuplicateOptionError{Aspect: aspect.Name, Name: name}
			}
			declared[name] = struct{}{}

			opt.name = name
			if opt.binding != nil {
				b := *opt.binding
				if err := b.finish(p.prefix, name); err != nil {
					return nil, BindingError{Option: name, Cause: err}
				}
				opt.binding = &b
			}
			if !opt.hasValue && opt.binding == nil && opt.resolve == nil {
				return nil, BindingError{
					Option: name,
					Cause:  fmt.Errorf("no value, binding or resolver declared"),
				}
			}

			reg, ok := p.options[name]
			if !ok {
				reg = &registered{}
				p.options[name] = reg
				p.names = append(p.names, name)
			}
			reg.defs = append(reg.defs, opt)
		}
	}

	sort.Strings(p.names)
	return p, nil
}

// Options returns the sorted names of every registered option.
func (p *Profile) Options() []string {
	names := make([]string, len(p.names))
	copy(names, p.names)
	return names
}

// EnvPrefix returns the profile's environment variable prefix.
func (p *Profile) EnvPrefix() string {
	return p.prefix
}

func normalizeName(name string) (string, error) {
	if name == "" {
		return "", BadNameError{Name: name}
	}
	upper := strings.ToUpper(name)
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return "", BadNameError{Name: name}
		}
	}
	return upper, nil
}
