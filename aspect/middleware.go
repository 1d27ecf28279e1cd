// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package aspect

import (
	"github.com/settleconf/settle"
)

// Middleware derives the ordered middleware chain from the installed
// module list: entries tied to an optional module appear only when
// the module is installed.
func Middleware() settle.Aspect {
	return settle.Aspect{
		Name: "middleware",
		Options: []settle.Option{
			settle.Computed("MIDDLEWARE", func(ctx *settle.Context) (any, error) {
				modules, err := ctx.Strings("INSTALLED_MODULES")
				if err != nil {
					return nil, err
				}
				installed := make(map[string]struct{}, len(modules))
				for _, m := range modules {
					installed[m] = struct{}{}
				}
				add := func(chain []string, mw, module string) []string {
					if _, ok := installed[module]; ok {
						return append(chain, mw)
					}
					return chain
				}

				chain := []string{"security"}
				chain = add(chain, "sessions", "sessions")
				chain = append(chain, "common", "csrf")
				chain = add(chain, "auth", "auth")
				chain = add(chain, "messages", "messages")
				chain = append(chain, "clickjacking")
				return chain, nil
			}, settle.Dep("INSTALLED_MODULES")),
		},
	}
}
