// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package aspect provides prebuilt option groups for a typical host
// application: environment selection, filesystem paths, URL prefixes,
// an ordered module list, a middleware chain, logging and security.
//
// Aspects compose in order; a later aspect shadows options declared
// by an earlier one and can extend the shadowed definition through
// [settle.Context.Base]. [Default] returns the standard tower.
package aspect

import (
	"github.com/settleconf/settle"
)

// Default returns the standard aspect tower, with any extra aspects
// appended so they may shadow and extend it.
func Default(extra ...settle.Aspect) []settle.Aspect {
	base := []settle.Aspect{
		Environment(),
		Paths(),
		URLs(),
		Modules(),
		Middleware(),
		Logging(),
		Security(),
		Services(),
	}
	return append(base, extra...)
}
