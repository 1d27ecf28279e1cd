// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package aspect

import (
	"github.com/settleconf/settle"
)

// URLs declares the URL prefixes a host mounts its surfaces under.
// Each one is overridable through its derived environment variable.
func URLs() settle.Aspect {
	return settle.Aspect{
		Name: "urls",
		Options: []settle.Option{
			settle.Bound("ADMIN_URL", settle.Bind("/admin/")),
			settle.Bound("LOGIN_URL", settle.Bind("/login/")),
			settle.Bound("LOGOUT_URL", settle.Bind("/account/logout/")),
			settle.Bound("STATIC_URL", settle.Bind("/static/")),
			settle.Bound("MEDIA_URL", settle.Bind("/media/")),
			settle.Static("APPEND_SLASH", true),
		},
	}
}
