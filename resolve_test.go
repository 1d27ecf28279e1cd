// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/settleconf/settle/env"

	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T, values map[string]string) *env.Accessor {
	t.Helper()

	a, err := env.New(env.FromMap(values))
	require.NoError(t, err)
	return a
}

func TestProfile_Load_Precedence(t *testing.T) {
	profile, err := New(
		WithEnvPrefix("APP_"),
		WithOptions(
			Static("NAME", "from-declaration"),
			Bound("PORT", Bind(8000)),
			Computed("GREETING", func(ctx *Context) (any, error) {
				return "computed", nil
			}),
		),
	)
	require.NoError(t, err)

	testCases := []struct {
		name      string
		values    map[string]string
		overrides map[string]any
		option    string
		expected  any
	}{
		{
			name:     "static declaration",
			option:   "NAME",
			expected: "from-declaration",
		},
		{
			name:      "override beats static declaration",
			overrides: map[string]any{"NAME": "from-override"},
			option:    "NAME",
			expected:  "from-override",
		},
		{
			name:     "binding default when variable absent",
			option:   "PORT",
			expected: 8000,
		},
		{
			name:     "environment beats binding default",
			values:   map[string]string{"APP_PORT": "9000"},
			option:   "PORT",
			expected: 9000,
		},
		{
			name:      "override beats environment",
			values:    map[string]string{"APP_PORT": "9000"},
			overrides: map[string]any{"PORT": 7000},
			option:    "PORT",
			expected:  7000,
		},
		{
			name:     "resolver when no value or binding",
			option:   "GREETING",
			expected: "computed",
		},
		{
			name:      "lower-case override key is normalized",
			overrides: map[string]any{"greeting": "hi"},
			option:    "GREETING",
			expected:  "hi",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snap, err := profile.Load(tc.overrides, WithEnv(testEnv(t, tc.values)))
			require.NoError(t, err)

			v, ok := snap.Value(tc.option)
			require.True(t, ok)
			require.Equal(t, tc.expected, v)
		})
	}
}

func TestProfile_Load_ExplicitNilOverride(t *testing.T) {
	profile, err := New(WithOptions(
		Static("FEATURE", "enabled"),
	))
	require.NoError(t, err)

	snap, err := profile.Load(map[string]any{"FEATURE": nil}, WithEnv(testEnv(t, nil)))
	require.NoError(t, err)

	// An explicit nil is a true override to null, not "use the default".
	v, ok := snap.Value("FEATURE")
	require.True(t, ok)
	require.Nil(t, v)
}

func TestProfile_Instance_UnknownOverride(t *testing.T) {
	profile, err := New(WithOptions(
		Static("KNOWN", 1),
	))
	require.NoError(t, err)

	_, err = profile.Instance(map[string]any{"UNKNOWN": 2})

	var uerr UnknownOptionError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, "UNKNOWN", uerr.Name)
}

func TestLoader_Settings_Idempotent(t *testing.T) {
	reads := 0
	profile, err := New(WithOptions(
		Computed("COUNTED", func(ctx *Context) (any, error) {
			reads++
			v, err := ctx.Env().String("SOURCE", "unset")
			return v, err
		}),
	))
	require.NoError(t, err)

	accessor := testEnv(t, map[string]string{"SOURCE": "original"})
	inst, err := profile.Instance(nil, WithEnv(accessor))
	require.NoError(t, err)

	first, err := inst.Settings()
	require.NoError(t, err)

	// Mutate the environment between calls; the second result must be
	// unchanged and must not recompute.
	err = accessor.Load(env.FromMap(map[string]string{"SOURCE": "mutated"}))
	require.NoError(t, err)

	second, err := inst.Settings()
	require.NoError(t, err)

	require.Equal(t, first.Map(), second.Map())
	require.Equal(t, 1, reads)

	// Each call returns an independent copy.
	m := second.Map()
	m["COUNTED"] = "tampered"
	third, err := inst.Settings()
	require.NoError(t, err)
	v, _ := third.Value("COUNTED")
	require.Equal(t, "original", v)
}

func TestLoader_Settings_FailureIsLatched(t *testing.T) {
	prepares := 0
	profile, err := New(WithAspects(Aspect{
		Name: "broken",
		Options: []Option{
			Computed("EMPTY", func(ctx *Context) (any, error) {
				return NotGiven, nil
			}),
			Computed("NEEDY", func(ctx *Context) (any, error) {
				return ctx.Value("EMPTY")
			}, Dep("EMPTY")),
		},
		Prepare: func(ctx *Context) error {
			prepares++
			return nil
		},
	}))
	require.NoError(t, err)

	inst, err := profile.Instance(nil, WithEnv(testEnv(t, nil)))
	require.NoError(t, err)

	_, first := inst.Settings()
	var merr MissingDependencyError
	require.ErrorAs(t, first, &merr)

	// The retry must report the original failure, not invent a cycle,
	// and must not run the prepare hooks again.
	_, second := inst.Settings()
	require.Equal(t, first, second)

	var cerr CycleError
	require.False(t, errors.As(second, &cerr))
	require.Equal(t, 1, prepares)
}

func TestProfile_Load_Dependencies(t *testing.T) {
	profile, err := New(WithOptions(
		Static("BASE", 10),
		Computed("DOUBLE", func(ctx *Context) (any, error) {
			v, err := ctx.Value("BASE")
			if err != nil {
				return nil, err
			}
			return v.(int) * 2, nil
		}, Dep("BASE")),
		Computed("QUADRUPLE", func(ctx *Context) (any, error) {
			v, err := ctx.Value("DOUBLE")
			if err != nil {
				return nil, err
			}
			return v.(int) * 2, nil
		}, Dep("DOUBLE")),
	))
	require.NoError(t, err)

	snap, err := profile.Load(nil, WithEnv(testEnv(t, nil)))
	require.NoError(t, err)

	v, _ := snap.Value("QUADRUPLE")
	require.Equal(t, 40, v)
}

func TestProfile_Load_MissingDependency(t *testing.T) {
	t.Run("dependency resolves to not given", func(t *testing.T) {
		profile, err := New(WithOptions(
			Computed("EMPTY", func(ctx *Context) (any, error) {
				return NotGiven, nil
			}),
			Computed("NEEDY", func(ctx *Context) (any, error) {
				return ctx.Value("EMPTY")
			}, Dep("EMPTY")),
		))
		require.NoError(t, err)

		_, err = profile.Load(nil, WithEnv(testEnv(t, nil)))

		var merr MissingDependencyError
		require.ErrorAs(t, err, &merr)
		require.Equal(t, "NEEDY", merr.Option)
		require.Equal(t, "EMPTY", merr.Dependency)
	})

	t.Run("undeclared option", func(t *testing.T) {
		profile, err := New(WithOptions(
			Computed("NEEDY", func(ctx *Context) (any, error) {
				return ctx.Value("NEVER_DECLARED")
			}, Dep("NEVER_DECLARED")),
		))
		require.NoError(t, err)

		_, err = profile.Load(nil, WithEnv(testEnv(t, nil)))

		var merr MissingDependencyError
		require.ErrorAs(t, err, &merr)
		require.Equal(t, "NEEDY", merr.Option)
		require.Equal(t, "NEVER_DECLARED", merr.Dependency)
	})

	t.Run("default fills the gap", func(t *testing.T) {
		profile, err := New(WithOptions(
			Computed("RELAXED", func(ctx *Context) (any, error) {
				return ctx.Value("NEVER_DECLARED")
			}, DepDefault("NEVER_DECLARED", "fallback")),
		))
		require.NoError(t, err)

		snap, err := profile.Load(nil, WithEnv(testEnv(t, nil)))
		require.NoError(t, err)

		v, _ := snap.Value("RELAXED")
		require.Equal(t, "fallback", v)
	})
}

func TestProfile_Load_CycleDetection(t *testing.T) {
	profile, err := New(WithOptions(
		Computed("PING", func(ctx *Context) (any, error) {
			return ctx.Value("PONG")
		}, Dep("PONG")),
		Computed("PONG", func(ctx *Context) (any, error) {
			return ctx.Value("PING")
		}, Dep("PING")),
	))
	require.NoError(t, err)

	_, err = profile.Load(nil, WithEnv(testEnv(t, nil)))

	var cerr CycleError
	require.ErrorAs(t, err, &cerr)
	require.GreaterOrEqual(t, len(cerr.Chain), 3)
	require.Equal(t, cerr.Chain[0], cerr.Chain[len(cerr.Chain)-1])
}

func TestProfile_Load_NotGivenDropped(t *testing.T) {
	profile, err := New(WithOptions(
		Static("KEPT", 1),
		Computed("DROPPED", func(ctx *Context) (any, error) {
			return NotGiven, nil
		}),
	))
	require.NoError(t, err)

	snap, err := profile.Load(nil, WithEnv(testEnv(t, nil)))
	require.NoError(t, err)

	_, ok := snap.Value("DROPPED")
	require.False(t, ok)
	require.Equal(t, []string{"KEPT"}, snap.Keys())
}

func TestProfile_Load_DerivedBinding(t *testing.T) {
	profile, err := New(
		WithEnvPrefix("APP_"),
		WithAspects(Aspect{
			Name: "environment",
			Options: []Option{
				Bound("ENVIRONMENT", Bind("local")),
				Derived("DEBUG", Bind(NotGiven, BindType(env.Bool)),
					func(ctx *Context, raw any) (any, error) {
						if !IsNotGiven(raw) {
							return raw, nil
						}
						environment, err := ctx.String("ENVIRONMENT")
						if err != nil {
							return nil, err
						}
						return environment == "local", nil
					},
					Dep("ENVIRONMENT")),
			},
		}),
	)
	require.NoError(t, err)

	t.Run("environment variable wins", func(t *testing.T) {
		snap, err := profile.Load(nil, WithEnv(testEnv(t, map[string]string{
			"APP_ENVIRONMENT": "production",
			"APP_DEBUG":       "yes",
		})))
		require.NoError(t, err)

		v, _ := snap.Value("DEBUG")
		require.Equal(t, true, v)
	})

	t.Run("transform decides the default", func(t *testing.T) {
		snap, err := profile.Load(nil, WithEnv(testEnv(t, map[string]string{
			"APP_ENVIRONMENT": "production",
		})))
		require.NoError(t, err)

		v, _ := snap.Value("DEBUG")
		require.Equal(t, false, v)
	})

	t.Run("override on the dependency propagates", func(t *testing.T) {
		// The environment would enable debug by making ENVIRONMENT
		// local; the constructor override must win.
		snap, err := profile.Load(
			map[string]any{"ENVIRONMENT": "production"},
			WithEnv(testEnv(t, map[string]string{"APP_ENVIRONMENT": "local"})),
		)
		require.NoError(t, err)

		v, _ := snap.Value("DEBUG")
		require.Equal(t, false, v)
	})
}

func TestProfile_Load_Shadowing(t *testing.T) {
	base := Aspect{
		Name: "base",
		Options: []Option{
			Computed("MODULES", func(ctx *Context) (any, error) {
				return []string{"core"}, nil
			}),
		},
	}
	extension := Aspect{
		Name: "extension",
		Options: []Option{
			Computed("MODULES", func(ctx *Context) (any, error) {
				prev, err := ctx.Base()
				if err != nil {
					return nil, err
				}
				return append(prev.([]string), "extra"), nil
			}),
		},
	}

	profile, err := New(WithAspects(base, extension))
	require.NoError(t, err)

	snap, err := profile.Load(nil, WithEnv(testEnv(t, nil)))
	require.NoError(t, err)

	v, _ := snap.Value("MODULES")
	require.Equal(t, []string{"core", "extra"}, v)
}

func TestContext_Base_NothingShadowed(t *testing.T) {
	profile, err := New(WithOptions(
		Computed("LONELY", func(ctx *Context) (any, error) {
			return ctx.Base()
		}),
	))
	require.NoError(t, err)

	snap, err := profile.Load(nil, WithEnv(testEnv(t, nil)))
	require.NoError(t, err)

	_, ok := snap.Value("LONELY")
	require.False(t, ok)
}

func TestProfile_Load_FinalizeHooks(t *testing.T) {
	t.Run("run in declaration order", func(t *testing.T) {
		first := Aspect{
			Name:    "first",
			Options: []Option{Static("A", 1)},
			Finalize: func(ctx *Context, settings map[string]any) (map[string]any, error) {
				settings["ORDER"] = "first"
				return settings, nil
			},
		}
		second := Aspect{
			Name: "second",
			Finalize: func(ctx *Context, settings map[string]any) (map[string]any, error) {
				settings["ORDER"] = settings["ORDER"].(string) + ",second"
				return settings, nil
			},
		}

		profile, err := New(WithAspects(first, second))
		require.NoError(t, err)

		snap, err := profile.Load(nil, WithEnv(testEnv(t, nil)))
		require.NoError(t, err)

		v, _ := snap.Value("ORDER")
		require.Equal(t, "first,second", v)
	})

	t.Run("veto aborts the snapshot", func(t *testing.T) {
		vetoer := Aspect{
			Name:    "vetoer",
			Options: []Option{Static("A", 1)},
			Finalize: func(ctx *Context, settings map[string]any) (map[string]any, error) {
				return nil, errors.New("refusing to run with these settings")
			},
		}

		profile, err := New(WithAspects(vetoer))
		require.NoError(t, err)

		_, err = profile.Load(nil, WithEnv(testEnv(t, nil)))

		var ferr FinalizeError
		require.ErrorAs(t, err, &ferr)
		require.Equal(t, "vetoer", ferr.Aspect)
	})
}

func TestProfile_Load_DecodeErrorAborts(t *testing.T) {
	profile, err := New(WithOptions(
		Bound("PORT", Bind(8000)),
	))
	require.NoError(t, err)

	_, err = profile.Load(nil, WithEnv(testEnv(t, map[string]string{"PORT": "not-a-number"})))

	var derr env.DecodeError
	require.ErrorAs(t, err, &derr)
}

func TestProfile_Load_ResolverPanicIsError(t *testing.T) {
	profile, err := New(WithOptions(
		Computed("BOOM", func(ctx *Context) (any, error) {
			panic(fmt.Errorf("resolver exploded"))
		}),
	))
	require.NoError(t, err)

	_, err = profile.Load(nil, WithEnv(testEnv(t, nil)))
	require.Error(t, err)
}

func TestProfile_Load_EnvFile(t *testing.T) {
	t.Run("loaded before resolution", func(t *testing.T) {
		dir := t.TempDir()
		path := dir + "/conf.env"
		writeFile(t, path, "APP_NAME=from-file\n")

		profile, err := New(
			WithEnvPrefix("APP_"),
			WithEnvFile(path),
			WithOptions(Bound("NAME", Bind("default"))),
		)
		require.NoError(t, err)

		snap, err := profile.Load(nil, WithEnv(testEnv(t, nil)))
		require.NoError(t, err)

		v, _ := snap.Value("NAME")
		require.Equal(t, "from-file", v)
	})

	t.Run("missing file fails", func(t *testing.T) {
		profile, err := New(
			WithEnvFile(t.TempDir()+"/missing.env"),
			WithOptions(Static("A", 1)),
		)
		require.NoError(t, err)

		_, err = profile.Load(nil, WithEnv(testEnv(t, nil)))

		var eerr EnvFileError
		require.ErrorAs(t, err, &eerr)
	})
}

func TestNew_DefinitionErrors(t *testing.T) {
	testCases := []struct {
		name   string
		option Option
	}{
		{
			name:   "empty option name",
			option: Static("", 1),
		},
		{
			name:   "option name with spaces",
			option: Static("NOT OK", 1),
		},
		{
			name:   "unsupported binding default shape",
			option: Bound("ODD", Bind(struct{}{})),
		},
		{
			name:   "invalid explicit type tag",
			option: Bound("ODD", Bind("x", BindType(env.Type(999)))),
		},
		{
			name:   "no source declared",
			option: Option{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(WithOptions(tc.option))
			require.Error(t, err)
		})
	}

	t.Run("uninferable default names its type", func(t *testing.T) {
		_, err := New(WithOptions(
			Bound("ODD", Bind(struct{ X int }{})),
		))

		var berr BindingError
		require.ErrorAs(t, err, &berr)
		require.ErrorContains(t, err, "struct { X int }")
	})

	t.Run("duplicate within one aspect", func(t *testing.T) {
		_, err := New(WithAspects(Aspect{
			Name: "dupes",
			Options: []Option{
				Static("TWICE", 1),
				Static("TWICE", 2),
			},
		}))

		var derr DuplicateOptionError
		require.ErrorAs(t, err, &derr)
		require.Equal(t, "TWICE", derr.Name)
	})
}

func TestProfile_Load_VariableNaming(t *testing.T) {
	profile, err := New(
		WithEnvPrefix("APP_"),
		WithOptions(
			Bound("PLAIN", Bind("d1")),
			Bound("EXPLICIT", Bind("d2", BindName("TOTALLY_CUSTOM"))),
			Bound("TEMPLATED", Bind("d3", BindNameTemplate("{prefix}X_{attr}"))),
		),
	)
	require.NoError(t, err)

	snap, err := profile.Load(nil, WithEnv(testEnv(t, map[string]string{
		"APP_PLAIN":       "v1",
		"TOTALLY_CUSTOM":  "v2",
		"APP_X_TEMPLATED": "v3",
	})))
	require.NoError(t, err)

	v, _ := snap.Value("PLAIN")
	require.Equal(t, "v1", v)
	v, _ = snap.Value("EXPLICIT")
	require.Equal(t, "v2", v)
	v, _ = snap.Value("TEMPLATED")
	require.Equal(t, "v3", v)
}
