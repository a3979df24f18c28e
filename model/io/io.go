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

// Package io loads and saves ensembles as JSON documents. A model document
// is the JSON encoding of model.Ensemble: an object with "num_features" and
// a "trees" array whose nodes carry either a leaf value or the split
// fields.
package io

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/google/forestcc/model"
	"github.com/google/forestcc/utils/file"
)

// LoadEnsemble reads and validates a JSON model document from disk.
func LoadEnsemble(ctx context.Context, path string) (*model.Ensemble, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model from %s", path)
	}
	ensemble, err := ParseEnsemble(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading model from %s", path)
	}
	return ensemble, nil
}

// ParseEnsemble decodes and validates a JSON model document.
func ParseEnsemble(data []byte) (*model.Ensemble, error) {
	ensemble := &model.Ensemble{}
	if err := json.Unmarshal(data, ensemble); err != nil {
		return nil, errors.Wrap(err, "decoding model JSON")
	}
	if err := ensemble.Validate(); err != nil {
		return nil, err
	}
	return ensemble, nil
}

// SaveEnsemble writes the ensemble to disk as an indented JSON document.
func SaveEnsemble(ctx context.Context, path string, ensemble *model.Ensemble) error {
	if err := ensemble.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ensemble, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding model JSON")
	}
	if err := file.WriteFile(ctx, path, data); err != nil {
		return errors.Wrapf(err, "writing model to %s", path)
	}
	return nil
}
