// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package aspect

import (
	"fmt"

	"github.com/settleconf/settle"
	"github.com/settleconf/settle/env"
)

// Environment declares the deployment environment and the options
// derived from it. ENVIRONMENT is one of local, test or production;
// DEBUG defaults to whether the environment is local but can be
// forced either way through the environment variable.
func Environment() settle.Aspect {
	return settle.Aspect{
		Name: "environment",
		Options: []settle.Option{
			settle.Derived("ENVIRONMENT", settle.Bind("local"),
				func(ctx *settle.Context, raw any) (any, error) {
					name, ok := raw.(string)
					if !ok {
						return nil, fmt.Errorf("environment name is %T, not a string", raw)
					}
					switch name {
					case "local", "test", "production":
						return name, nil
					}
					return nil, fmt.Errorf("invalid environment: %q", name)
				}),

			settle.Derived("DEBUG", settle.Bind(settle.NotGiven, settle.BindType(env.Bool)),
				func(ctx *settle.Context, raw any) (any, error) {
					if !settle.IsNotGiven(raw) {
						return raw, nil
					}
					environment, err := ctx.String("ENVIRONMENT")
					if err != nil {
						return nil, err
					}
					return environment == "local", nil
				},
				settle.Dep("ENVIRONMENT")),

			settle.Static("SERVE_STATIC_FILES", true),
		},
	}
}
