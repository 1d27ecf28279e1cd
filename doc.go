// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package settle resolves named options from constructor overrides,
// environment variables and computed defaults into a single flat
// immutable snapshot a host application consumes at startup.
//
// # Core Concepts
//
// An [Option] declares where one named value comes from: a static
// value, an environment [Binding], or a resolver computing it from
// other options. Options are grouped into [Aspect]s; an ordered list
// of aspects composes into a [Profile]. A later aspect may shadow an
// earlier definition of the same option and reach the shadowed one
// through [Context.Base].
//
// Resolution is pull-based and memoized: asking for an option
// resolves its dependencies recursively, caches every intermediate
// value and detects cycles. The precedence for any option is
//
//	constructor override > static value / binding > resolver > not given
//
// # Basic Usage
//
//	profile, err := settle.New(
//	    settle.WithEnvPrefix("APP_"),
//	    settle.WithAspects(aspect.Default()...),
//	)
//	if err != nil {
//	    return err
//	}
//
//	snap, err := profile.Load(map[string]any{"ENVIRONMENT": "production"})
//	if err != nil {
//	    return err
//	}
//
// The snapshot is produced exactly once per instance; repeated loads
// return copies of the same cached mapping. [Apply] copies a snapshot
// into a [Target] namespace for the host to read.
//
// # Error Handling
//
// Definition errors (bad bindings, bad names) surface from [New].
// Resolution errors (missing dependencies, cycles, decode failures)
// surface from [Profile.Load] and abort the whole pass; no partial
// snapshot is ever exposed. Unknown constructor overrides fail before
// any resolution occurs. Nothing is retried or silently defaulted.
package settle
