// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command inspect resolves the default aspect tower against the
// current environment and prints the resulting snapshot, one option
// per line. Useful for checking what a deployment would boot with.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/settleconf/settle"
	"github.com/settleconf/settle/aspect"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var prefix string
	var envFile string
	var sets []string

	cmd := &cobra.Command{
		Use:          "inspect",
		Short:        "Resolve and print the settings snapshot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := make(map[string]any, len(sets))
			for _, kv := range sets {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("malformed --set %q, want NAME=value", kv)
				}
				overrides[k] = v
			}

			opts := []settle.ProfileOption{
				settle.WithEnvPrefix(prefix),
				settle.WithAspects(aspect.Default()...),
			}
			if envFile != "" {
				opts = append(opts, settle.WithEnvFile(envFile))
			}
			profile, err := settle.New(opts...)
			if err != nil {
				return err
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			snap, err := profile.Load(overrides, settle.WithLogger(logger))
			if err != nil {
				return err
			}

			for _, name := range snap.Keys() {
				v, _ := snap.Value(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", name, v)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "APP_", "environment variable prefix")
	cmd.Flags().StringVar(&envFile, "env-file", "", "optional KEY=VALUE file loaded before resolution")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "constructor override, NAME=value (repeatable)")

	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
