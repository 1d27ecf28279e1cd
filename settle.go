// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

import (
	"fmt"
	"os"
	"sync"
)

// TargetVar is the environment variable consulted by [Apply] when no
// explicit target is given. Its value must name a namespace
// previously registered with [RegisterNamespace].
const TargetVar = "SETTLE_SETTINGS_TARGET"

// Target receives the resolved options of a snapshot.
type Target interface {
	Set(name string, value any)
}

// MapTarget adapts a plain mapping into a [Target].
type MapTarget map[string]any

// Set implements the [Target] interface.
func (t MapTarget) Set(name string, value any) {
	t[name] = value
}

var (
	namespaceMu sync.RWMutex
	namespaces  = make(map[string]Target)
)

// RegisterNamespace registers a named settings namespace for [Apply]
// to select through [TargetVar]. Registration happens once, during
// process initialization; it is safe for concurrent use regardless.
func RegisterNamespace(name string, target Target) {
	namespaceMu.Lock()
	defer namespaceMu.Unlock()
	namespaces[name] = target
}

func lookupNamespace(name string) (Target, bool) {
	namespaceMu.RLock()
	defer namespaceMu.RUnlock()
	t, ok := namespaces[name]
	return t, ok
}

// NoTargetError occurs when [Apply] is called without a target and
// the active-namespace indicator does not identify one.
type NoTargetError struct {
	Name string
}

// Error implements the error interface.
func (e NoTargetError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("no settings target: pass one explicitly or set %s", TargetVar)
	}
	return fmt.Sprintf("no settings namespace registered under %q", e.Name)
}

// ApplyError occurs when [Apply] cannot produce or copy the snapshot.
type ApplyError struct {
	Cause error
}

// Error implements the error interface.
func (e ApplyError) Error() string {
	return fmt.Sprintf("failed to apply configuration: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ApplyError) Unwrap() error {
	return e.Cause
}

// Apply resolves the profile and copies every option of the snapshot
// into target. A nil target selects the namespace named by the
// [TargetVar] environment variable and fails loudly when neither is
// available.
func Apply(p *Profile, target Target, opts ...LoadOption) error {
	if target == nil {
		name, ok := os.LookupEnv(TargetVar)
		if !ok || name == "" {
			return NoTargetError{}
		}
		target, ok = lookupNamespace(name)
		if !ok {
			return NoTargetError{Name: name}
		}
	}

	// Load failures are logged by the loader itself when a logger
	// was supplied through opts.
	snap, err := p.Load(nil, opts...)
	if err != nil {
		return ApplyError{Cause: err}
	}

	for _, name := range snap.Keys() {
		v, _ := snap.Value(name)
		target.Set(name, v)
	}
	return nil
}
