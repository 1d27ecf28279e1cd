// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package aspect

import (
	"github.com/settleconf/settle"
)

// Modules declares the aggregated ordered module list:
// project modules, then third party modules, then contrib modules,
// deduplicated while preserving order.
//
// Extension aspects contribute entries by shadowing one of the feeder
// options and splicing into the inherited list:
//
//	settle.Computed("THIRD_PARTY_MODULES", func(ctx *settle.Context) (any, error) {
//	    base, err := ctx.Base()
//	    if err != nil {
//	        return nil, err
//	    }
//	    return settle.Insert("metrics", base.([]string),
//	        settle.WithHardDeps[string]("collector"),
//	    ), nil
//	})
func Modules() settle.Aspect {
	return settle.Aspect{
		Name: "modules",
		Options: []settle.Option{
			settle.Static("USE_ADMIN", true),
			settle.Static("USE_AUTH", true),
			settle.Static("PROJECT_MODULES", []string{}),
			settle.Static("THIRD_PARTY_MODULES", []string{}),

			settle.Computed("CONTRIB_MODULES", func(ctx *settle.Context) (any, error) {
				useAdmin, err := ctx.Bool("USE_ADMIN")
				if err != nil {
					return nil, err
				}
				useAuth, err := ctx.Bool("USE_AUTH")
				if err != nil {
					return nil, err
				}
				serveStatic, err := ctx.Bool("SERVE_STATIC_FILES")
				if err != nil {
					return nil, err
				}

				var modules []string
				if useAdmin {
					modules = append(modules, "admin")
				}
				if useAuth {
					modules = append(modules, "auth", "sessions")
				}
				modules = append(modules, "contenttypes", "messages")
				if serveStatic {
					modules = append(modules, "staticfiles")
				}
				return modules, nil
			},
				settle.Dep("USE_ADMIN"),
				settle.Dep("USE_AUTH"),
				settle.DepDefault("SERVE_STATIC_FILES", true)),

			settle.Computed("INSTALLED_MODULES", func(ctx *settle.Context) (any, error) {
				var all []string
				for _, feeder := range []string{"PROJECT_MODULES", "THIRD_PARTY_MODULES", "CONTRIB_MODULES"} {
					modules, err := ctx.Strings(feeder)
					if err != nil {
						return nil, err
					}
					all = append(all, modules...)
				}
				return unique(all), nil
			},
				settle.Dep("PROJECT_MODULES"),
				settle.Dep("THIRD_PARTY_MODULES"),
				settle.Dep("CONTRIB_MODULES")),
		},
	}
}

func unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
