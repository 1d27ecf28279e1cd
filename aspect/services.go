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

// Services declares connection records for the external services a
// host talks to. Each one decodes from a single URL-shaped variable:
// DATABASE_URL, CACHE_URL and EMAIL_URL under the profile prefix.
func Services() settle.Aspect {
	return settle.Aspect{
		Name: "services",
		Options: []settle.Option{
			settle.Derived("DATABASES",
				settle.Bind(
					env.URL{Engine: "sqlite", Name: "local/db/db.sqlite3"},
					settle.BindType(env.DatabaseURL),
					settle.BindNameTemplate("{prefix}DATABASE_URL"),
				),
				func(ctx *settle.Context, raw any) (any, error) {
					u, ok := raw.(env.URL)
					if !ok {
						return nil, fmt.Errorf("database record is %T, not env.URL", raw)
					}
					return map[string]env.URL{"default": u}, nil
				}),

			settle.Derived("CACHES",
				settle.Bind(
					env.URL{Engine: "locmem"},
					settle.BindType(env.CacheURL),
					settle.BindNameTemplate("{prefix}CACHE_URL"),
				),
				func(ctx *settle.Context, raw any) (any, error) {
					u, ok := raw.(env.URL)
					if !ok {
						return nil, fmt.Errorf("cache record is %T, not env.URL", raw)
					}
					return map[string]env.URL{"default": u}, nil
				}),

			settle.Bound("EMAIL",
				settle.Bind(
					env.URL{Engine: "console"},
					settle.BindType(env.MailURL),
					settle.BindNameTemplate("{prefix}EMAIL_URL"),
				)),

			usingDatabase("USING_SQLITE", "sqlite"),
			usingDatabase("USING_POSTGRES", "postgres"),
			usingDatabase("USING_MYSQL", "mysql"),
		},
	}
}

// usingDatabase derives a boolean inspecting the default database
// engine.
func usingDatabase(name, engine string) settle.Option {
	return settle.Computed(name, func(ctx *settle.Context) (any, error) {
		v, err := ctx.Value("DATABASES")
		if err != nil {
			return nil, err
		}
		dbs, ok := v.(map[string]env.URL)
		if !ok {
			return nil, fmt.Errorf("DATABASES is %T, not a connection record map", v)
		}
		return dbs["default"].Engine == engine, nil
	}, settle.Dep("DATABASES"))
}
