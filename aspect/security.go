// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package aspect

import (
	"github.com/settleconf/settle"
)

// Security declares host access and secret options.
//
// SECRET_KEY resolves from its environment variable; without one, the
// local and test environments fall back to the environment name and
// every other environment leaves it unset. The finalizer then derives
// a stable secret by hashing the plain-data resolved options, so a
// fixed input environment always yields the same derived value. An
// explicit value is never overwritten.
func Security() settle.Aspect {
	return settle.Aspect{
		Name: "security",
		Options: []settle.Option{
			settle.Bound("ALLOWED_HOSTS", settle.Bind([]string{"localhost"})),

			settle.Derived("SECRET_KEY", settle.Bind(settle.NotGiven),
				func(ctx *settle.Context, raw any) (any, error) {
					if s, ok := raw.(string); ok && s != "" {
						return s, nil
					}
					environment, err := ctx.String("ENVIRONMENT")
					if err != nil {
						return nil, err
					}
					if environment == "local" || environment == "test" {
						return environment, nil
					}
					return settle.NotGiven, nil
				},
				settle.Dep("ENVIRONMENT")),
		},
		Finalize: func(ctx *settle.Context, settings map[string]any) (map[string]any, error) {
			if s, ok := settings["SECRET_KEY"].(string); ok && s != "" {
				return settings, nil
			}
			delete(settings, "SECRET_KEY")
			settings["SECRET_KEY"] = settle.SecretHash(settings)
			return settings, nil
		},
	}
}
