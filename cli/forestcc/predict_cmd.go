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
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/google/forestcc/model"
	"github.com/google/forestcc/model/io"
	"github.com/google/forestcc/utils/file"
)

type predictCmdConfig struct {
	*rootCmdConfig
	modelInput  string
	recordInput string
}

// predictCmd scores a record with the in-memory interpreter. It is useful
// to cross-check the output of a compiled artifact.
func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a record by walking the ensemble directly",
		Long: `Score a JSON record (an array with one number or null per feature,
null marking a missing value) by interpreting the ensemble in memory`,
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
	cmd.Flags().StringVarP(&(config.modelInput), "model", "m", "", "path to the JSON model (required)")
	cmd.Flags().StringVarP(&(config.recordInput), "record", "r", "", "path to the JSON record to score (required)")
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	if pcc.recordInput == "" {
		return fmt.Errorf("required record flag was not set")
	}
	return nil
}

func (pcc *predictCmdConfig) Run(ctx context.Context) error {
	ensemble, err := io.LoadEnsemble(ctx, pcc.modelInput)
	if err != nil {
		return err
	}
	data, err := file.ReadFile(ctx, pcc.recordInput)
	if err != nil {
		return errors.Wrapf(err, "reading record from %s", pcc.recordInput)
	}
	record, err := parseRecord(data, ensemble.NumFeatures)
	if err != nil {
		return errors.Wrapf(err, "parsing record from %s", pcc.recordInput)
	}
	fmt.Println(ensemble.Predict(record))
	return nil
}

func parseRecord(data []byte, numFeatures int) (model.Record, error) {
	var values []*float32
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	if len(values) != numFeatures {
		return nil, fmt.Errorf("record has %d values but the model expects %d features", len(values), numFeatures)
	}
	record := make(model.Record, len(values))
	for i, value := range values {
		if value == nil {
			record[i] = model.Missing()
		} else {
			record[i] = model.Numerical(*value)
		}
	}
	return record, nil
}
