/*
 * Copyright 2022 Google LLC.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// forestcc compiles trained decision-tree ensembles into C source code.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootCmdConfig struct {
	verbose bool
	logger  *zap.SugaredLogger
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "forestcc",
		Short: "forestcc compiles decision-tree ensembles into C source code",
		Long: `A tool to compile trained decision-tree ensembles into a C scoring function
that reproduces the ensemble's prediction without tree-walking overhead`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log progress to stderr")
	rootCmd.AddCommand(compileCmd(config), predictCmd(config))
	return rootCmd
}

// Logger returns the process logger, building it on first use. Without
// --verbose only warnings and errors are logged.
func (c *rootCmdConfig) Logger() *zap.SugaredLogger {
	if c.logger == nil {
		zapConfig := zap.NewProductionConfig()
		zapConfig.OutputPaths = []string{"stderr"}
		if !c.verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
		logger, err := zapConfig.Build()
		if err != nil {
			panic(err)
		}
		c.logger = logger.Sugar()
	}
	return c.logger
}
