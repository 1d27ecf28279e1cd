// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
}

func applyProfile(t *testing.T) *Profile {
	t.Helper()

	profile, err := New(WithOptions(
		Static("NAME", "demo"),
		Static("PORT", 8080),
	))
	require.NoError(t, err)
	return profile
}

func TestApply_ExplicitTarget(t *testing.T) {
	target := MapTarget{}

	err := Apply(applyProfile(t), target, WithEnv(testEnv(t, nil)))
	require.NoError(t, err)

	require.Equal(t, map[string]any{"NAME": "demo", "PORT": 8080}, map[string]any(target))
}

func TestApply_RegisteredNamespace(t *testing.T) {
	target := MapTarget{}
	RegisterNamespace("apply-test", target)
	t.Setenv(TargetVar, "apply-test")

	err := Apply(applyProfile(t), nil, WithEnv(testEnv(t, nil)))
	require.NoError(t, err)

	require.Equal(t, "demo", target["NAME"])
}

func TestApply_NoTarget(t *testing.T) {
	testCases := []struct {
		name      string
		namespace string
	}{
		{
			name: "indicator unset",
		},
		{
			name:      "namespace never registered",
			namespace: "nobody-registered-this",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.namespace == "" {
				// Guard against ambient state from the host shell.
				t.Setenv(TargetVar, "")
			} else {
				t.Setenv(TargetVar, tc.namespace)
			}

			err := Apply(applyProfile(t), nil, WithEnv(testEnv(t, nil)))

			var nerr NoTargetError
			require.ErrorAs(t, err, &nerr)
		})
	}
}

func TestApply_LoadFailure(t *testing.T) {
	profile, err := New(WithOptions(
		Computed("BROKEN", func(ctx *Context) (any, error) {
			return ctx.Value("MISSING")
		}, Dep("MISSING")),
	))
	require.NoError(t, err)

	err = Apply(profile, MapTarget{}, WithEnv(testEnv(t, nil)))

	var aerr ApplyError
	require.ErrorAs(t, err, &aerr)

	var merr MissingDependencyError
	require.ErrorAs(t, err, &merr)
}
