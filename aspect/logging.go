// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package aspect

import (
	"fmt"
	"os"

	"github.com/settleconf/settle"
	"github.com/settleconf/settle/env"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging derives a ready-to-build zap configuration: development
// encoding outside production, level forced to debug when DEBUG is
// set, output to stderr plus the configured log file.
func Logging() settle.Aspect {
	return settle.Aspect{
		Name: "logging",
		Options: []settle.Option{
			settle.Bound("LOG_LEVEL", settle.Bind("info")),

			settle.Computed("LOGGING", func(ctx *settle.Context) (any, error) {
				levelName, err := ctx.String("LOG_LEVEL")
				if err != nil {
					return nil, err
				}
				level, err := zapcore.ParseLevel(levelName)
				if err != nil {
					return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
				}

				environment, err := ctx.String("ENVIRONMENT")
				if err != nil {
					return nil, err
				}
				debug, err := ctx.Bool("DEBUG")
				if err != nil {
					return nil, err
				}

				logFile, err := ctx.Value("LOG_FILE_PATH")
				if err != nil {
					return nil, err
				}
				path := logFile.(env.Path).String()
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					return nil, fmt.Errorf("LOG_FILE_PATH points at a directory: %s", path)
				}

				var cfg zap.Config
				if environment == "production" {
					cfg = zap.NewProductionConfig()
				} else {
					cfg = zap.NewDevelopmentConfig()
				}
				cfg.Level = zap.NewAtomicLevelAt(level)
				if debug {
					cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
				}
				cfg.OutputPaths = []string{"stderr", path}
				return cfg, nil
			},
				settle.Dep("LOG_LEVEL"),
				settle.Dep("ENVIRONMENT"),
				settle.Dep("DEBUG"),
				settle.Dep("LOG_FILE_PATH")),
		},
	}
}
