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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/google/forestcc/codegen"
	"github.com/google/forestcc/compiler"
	"github.com/google/forestcc/model/io"
	"github.com/google/forestcc/utils/file"

	// Register the available compiler implementations.
	_ "github.com/google/forestcc/compiler/recursive"
)

type compileCmdConfig struct {
	*rootCmdConfig
	modelInput   string
	output       string
	compilerName string
	quantize     int
	annotateIn   string
}

func compileCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &compileCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile an ensemble into a C scoring function",
		Long: `Compile a JSON ensemble model into C source implementing
float predict_margin(union Entry* data)`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.Validate(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if err := config.Run(context.Background()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.modelInput), "model", "m", "", "path to the JSON model to compile (required)")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to the generated C file; - or empty writes to stdout")
	cmd.Flags().StringVarP(&(config.compilerName), "compiler", "c", "recursive", "registered compiler implementation to use")
	cmd.Flags().IntVarP(&(config.quantize), "quantize", "q", 0, "a positive value rewrites split comparisons into quantized integer comparisons")
	cmd.Flags().StringVarP(&(config.annotateIn), "annotate-in", "a", compiler.DisabledAnnotation, "path to a branch-frequency annotation file, or NULL to disable")
	return cmd
}

func (ccc *compileCmdConfig) Validate() error {
	if ccc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	return nil
}

func (ccc *compileCmdConfig) Run(ctx context.Context) error {
	logger := ccc.Logger()
	defer logger.Sync()

	logger.Infow("loading model", "path", ccc.modelInput)
	ensemble, err := io.LoadEnsemble(ctx, ccc.modelInput)
	if err != nil {
		return err
	}
	logger.Infow("model loaded",
		"trees", len(ensemble.Trees),
		"nodes", ensemble.NumNodes(),
		"features", ensemble.NumFeatures)

	param := compiler.Param{Quantize: ccc.quantize, AnnotateIn: ccc.annotateIn}
	comp, err := compiler.New(ccc.compilerName, param)
	if err != nil {
		return err
	}

	logger.Infow("compiling", "compiler", comp.Name(), "quantize", ccc.quantize > 0,
		"annotated", ccc.annotateIn != compiler.DisabledAnnotation)
	artifact, err := comp.Compile(ensemble)
	if err != nil {
		return err
	}
	source := codegen.Render(artifact)

	if ccc.output == "" || ccc.output == "-" {
		fmt.Print(source)
		return nil
	}
	if err := file.WriteFile(ctx, ccc.output, []byte(source)); err != nil {
		return err
	}
	logger.Infow("artifact written", "path", ccc.output, "bytes", len(source))
	return nil
}
