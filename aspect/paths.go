// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package aspect

import (
	"os"
	"path/filepath"

	"github.com/settleconf/settle"
	"github.com/settleconf/settle/env"
)

// Paths declares the default filesystem layout of a host project.
func Paths() settle.Aspect {
	return settle.Aspect{
		Name: "paths",
		Options: []settle.Option{
			settle.Computed("REPO_DIR", func(ctx *settle.Context) (any, error) {
				return repoDir(), nil
			}),

			settle.Computed("BASE_DIR", func(ctx *settle.Context) (any, error) {
				return ctx.Value("REPO_DIR")
			}, settle.Dep("REPO_DIR")),

			settle.Derived("LOG_FILE_PATH",
				settle.Bind(settle.NotGiven, settle.BindType(env.FilePath)),
				func(ctx *settle.Context, raw any) (any, error) {
					if !settle.IsNotGiven(raw) {
						return raw, nil
					}
					base, err := ctx.Value("BASE_DIR")
					if err != nil {
						return nil, err
					}
					return base.(env.Path).Join("logfile.log"), nil
				},
				settle.Dep("BASE_DIR")),
		},
	}
}

// repoDir guesses the repository directory by walking up from the
// working directory until a .git tree is found. The final guess is
// the working directory itself.
func repoDir() env.Path {
	wd, err := os.Getwd()
	if err != nil {
		return env.Path(".")
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return env.Path(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return env.Path(wd)
		}
		dir = parent
	}
}
