// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

import (
	"fmt"
	"strings"

	"github.com/settleconf/settle/env"
	"github.com/settleconf/settle/internal/try"

	"go.uber.org/zap"
)

// UnknownOptionError occurs when a constructor override, or a direct
// resolution request, names an option the profile never declared.
type UnknownOptionError struct {
	Name string
}

// Error implements the error interface.
func (e UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option: %s", e.Name)
}

// MissingDependencyError occurs when a resolver requires an option
// which resolves to [NotGiven] and declares no fallback. It names
// both sides of the failed edge.
type MissingDependencyError struct {
	Option     string
	Dependency string
}

// Error implements the error interface.
func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("%s: configuration must define a %s option", e.Option, e.Dependency)
}

// CycleError occurs when resolving an option reaches itself again.
// Cycles are definition mistakes; there is no retry.
type CycleError struct {
	Chain []string
}

// Error implements the error interface.
func (e CycleError) Error() string {
	return fmt.Sprintf("cyclic option dependency: %s", strings.Join(e.Chain, " -> "))
}

// EnvFileError occurs when the profile's declared env file cannot be
// loaded.
type EnvFileError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e EnvFileError) Error() string {
	return fmt.Sprintf("failed to load env file %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e EnvFileError) Unwrap() error {
	return e.Cause
}

// FinalizeError occurs when an aspect finalizer vetoes the snapshot.
type FinalizeError struct {
	Aspect string
	Cause  error
}

// Error implements the error interface.
func (e FinalizeError) Error() string {
	return fmt.Sprintf("aspect %q rejected settings: %s", e.Aspect, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e FinalizeError) Unwrap() error {
	return e.Cause
}

type loadConfig struct {
	env    *env.Accessor
	logger *zap.Logger
}

// LoadOption configures one resolution instance.
type LoadOption func(*loadConfig)

// WithEnv overrides the environment accessor. The default accessor is
// backed by the process environment; tests supply [env.FromMap]
// backed accessors instead.
func WithEnv(a *env.Accessor) LoadOption {
	return func(cfg *loadConfig) {
		cfg.env = a
	}
}

// WithLogger sets the logger used to report load failures before
// they are returned. The default is a no-op logger.
func WithLogger(logger *zap.Logger) LoadOption {
	return func(cfg *loadConfig) {
		cfg.logger = logger
	}
}

// Option resolution states. Absence from the state table means
// unresolved; a failed option aborts the pass so it needs no state.
const (
	stateResolving = iota + 1
	stateResolved
)

// Loader is one resolution instance of a [Profile]. It holds the
// per-instance memoization cache and the constructor overrides. A
// Loader is not safe for concurrent use; resolve once, at startup,
// and share the resulting [Snapshot] instead.
type Loader struct {
	profile   *Profile
	env       *env.Accessor
	logger    *zap.Logger
	overrides map[string]any

	cache    map[string]any
	state    map[string]int
	stack    []string
	snapshot map[string]any
	loadErr  error
}

// Instance validates the overrides and returns a fresh [Loader].
// Every override key must name a declared option; an unknown key
// fails here, before any resolution. An explicit nil override is a
// true override to null, not "use the default" — omit the key for
// that.
func (p *Profile) Instance(overrides map[string]any, opts ...LoadOption) (*Loader, error) {
	cfg := loadConfig{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.env == nil {
		a, err := env.New(env.Environ())
		if err != nil {
			return nil, err
		}
		cfg.env = a
	}

	normalized := make(map[string]any, len(overrides))
	for name, value := range overrides {
		attr := strings.ToUpper(name)
		if _, ok := p.options[attr]; !ok {
			return nil, UnknownOptionError{Name: attr}
		}
		normalized[attr] = value
	}

	return &Loader{
		profile:   p,
		env:       cfg.env,
		logger:    cfg.logger,
		overrides: normalized,
		cache:     make(map[string]any),
		state:     make(map[string]int),
	}, nil
}

// Load is shorthand for [Profile.Instance] followed by
// [Loader.Settings].
func (p *Profile) Load(overrides map[string]any, opts ...LoadOption) (Snapshot, error) {
	inst, err := p.Instance(overrides, opts...)
	if err != nil {
		return Snapshot{}, err
	}
	return inst.Settings()
}

// Env returns the accessor this instance reads from.
func (l *Loader) Env() *env.Accessor {
	return l.env
}

// Settings resolves every declared option and returns the finalized
// snapshot. It is idempotent: the computation runs once and repeated
// calls return copies of the cached mapping without re-reading the
// environment. A failed pass is latched the same way, and repeated
// calls return the original error.
func (l *Loader) Settings() (Snapshot, error) {
	if l.loadErr != nil {
		return Snapshot{}, l.loadErr
	}
	if l.snapshot != nil {
		return newSnapshot(l.snapshot), nil
	}

	settings, err := l.load()
	if err != nil {
		l.loadErr = err
		l.logger.Error("failed to load settings", zap.Error(err))
		return Snapshot{}, err
	}
	l.snapshot = settings
	return newSnapshot(l.snapshot), nil
}

func (l *Loader) load() (map[string]any, error) {
	err := l.prepare()
	if err != nil {
		return nil, err
	}

	settings := make(map[string]any, len(l.profile.names))
	for _, name := range l.profile.names {
		v, err := l.resolve(name)
		if err != nil {
			return nil, err
		}
		if IsNotGiven(v) {
			continue
		}
		settings[name] = v
	}

	for _, aspect := range l.profile.aspects {
		if aspect.Finalize == nil {
			continue
		}
		ctx := &Context{loader: l}
		settings, err = aspect.Finalize(ctx, settings)
		if err != nil {
			return nil, FinalizeError{Aspect: aspect.Name, Cause: err}
		}
	}

	// Finalizers may have introduced new keys; re-establish the
	// snapshot invariants.
	normalized := make(map[string]any, len(settings))
	for name, v := range settings {
		if IsNotGiven(v) {
			continue
		}
		normalized[strings.ToUpper(name)] = v
	}
	return normalized, nil
}

func (l *Loader) prepare() error {
	if l.profile.envFile != "" {
		err := l.env.Load(env.FromDotenv(l.profile.envFile))
		if err != nil {
			return EnvFileError{Path: l.profile.envFile, Cause: err}
		}
	}
	for _, aspect := range l.profile.aspects {
		if aspect.Prepare == nil {
			continue
		}
		err := aspect.Prepare(&Context{loader: l})
		if err != nil {
			return err
		}
	}
	return nil
}

// resolve computes one option on first access and memoizes it.
func (l *Loader) resolve(name string) (any, error) {
	if v, ok := l.cache[name]; ok {
		return v, nil
	}
	if v, ok := l.overrides[name]; ok {
		l.cache[name] = v
		return v, nil
	}

	reg, ok := l.profile.options[name]
	if !ok {
		return nil, UnknownOptionError{Name: name}
	}
	if l.state[name] == stateResolving {
		chain := append(append([]string(nil), l.stack...), name)
		return nil, CycleError{Chain: chain}
	}

	l.state[name] = stateResolving
	l.stack = append(l.stack, name)

	ctx := &Context{loader: l, option: name, defIndex: len(reg.defs) - 1}
	v, err := l.computeDef(ctx, reg.defs[len(reg.defs)-1])

	l.stack = l.stack[:len(l.stack)-1]
	if err != nil {
		return nil, err
	}

	l.state[name] = stateResolved
	l.cache[name] = v
	return v, nil
}

func (l *Loader) computeDef(ctx *Context, def Option) (v any, err error) {
	defer try.Recover(&err)

	switch {
	case def.hasValue:
		return def.value, nil
	case def.binding != nil:
		raw, err := def.binding.read(l.env)
		if err != nil {
			return nil, err
		}
		if def.transform == nil {
			return raw, nil
		}
		err = l.resolveDeps(ctx, def.deps)
		if err != nil {
			return nil, err
		}
		return def.transform(ctx, raw)
	case def.resolve != nil:
		err := l.resolveDeps(ctx, def.deps)
		if err != nil {
			return nil, err
		}
		return def.resolve(ctx)
	}
	return NotGiven, nil
}

// resolveDeps resolves declared dependencies in declaration order,
// recording fallbacks for the ones that came up empty.
func (l *Loader) resolveDeps(ctx *Context, deps []Dependency) error {
	for _, dep := range deps {
		v, err := l.resolve(dep.Name)
		switch {
		case err == nil && !IsNotGiven(v):
			ctx.set(dep.Name, v)
			continue
		case err != nil:
			if _, unknown := err.(UnknownOptionError); !unknown {
				return err
			}
		}
		if !dep.HasDefault {
			return MissingDependencyError{Option: ctx.option, Dependency: dep.Name}
		}
		ctx.set(dep.Name, dep.Default)
	}
	return nil
}

// Context is the view a resolver, transform or hook has of the
// resolution in progress.
type Context struct {
	loader   *Loader
	option   string
	defIndex int
	deps     map[string]any
}

func (c *Context) set(name string, v any) {
	if c.deps == nil {
		c.deps = make(map[string]any)
	}
	c.deps[name] = v
}

// Value resolves another option by name, recursively and memoized. A
// value of [NotGiven] is an error naming both this option and the
// missing one; declare the dependency with [DepDefault] to receive a
// fallback instead.
func (c *Context) Value(name string) (any, error) {
	name = strings.ToUpper(name)
	if v, ok := c.deps[name]; ok {
		return v, nil
	}
	v, err := c.loader.resolve(name)
	if err != nil {
		return nil, err
	}
	if IsNotGiven(v) {
		return nil, MissingDependencyError{Option: c.option, Dependency: name}
	}
	return v, nil
}

// String resolves another option and asserts it is a string.
func (c *Context) String(name string) (string, error) {
	v, err := c.Value(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: option %s is %T, not a string", c.option, name, v)
	}
	return s, nil
}

// Bool resolves another option and asserts it is a boolean.
func (c *Context) Bool(name string) (bool, error) {
	v, err := c.Value(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: option %s is %T, not a bool", c.option, name, v)
	}
	return b, nil
}

// Strings resolves another option and asserts it is a string list.
func (c *Context) Strings(name string) ([]string, error) {
	v, err := c.Value(name)
	if err != nil {
		return nil, err
	}
	ss, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("%s: option %s is %T, not a string list", c.option, name, v)
	}
	return ss, nil
}

// Env exposes the typed environment accessor, for resolvers that
// read variables outside any binding.
func (c *Context) Env() *env.Accessor {
	return c.loader.env
}

// Option returns the name of the option currently resolving. It is
// empty inside prepare and finalize hooks.
func (c *Context) Option() string {
	return c.option
}

// Base computes the definition this option shadowed, the explicit
// replacement for a subclass getter calling its parent. It returns
// [NotGiven] when nothing was shadowed.
func (c *Context) Base() (any, error) {
	if c.defIndex <= 0 {
		return NotGiven, nil
	}
	reg := c.loader.profile.options[c.option]
	base := &Context{loader: c.loader, option: c.option, defIndex: c.defIndex - 1}
	return c.loader.computeDef(base, reg.defs[c.defIndex-1])
}
