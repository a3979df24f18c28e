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

package io

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/forestcc/model"
)

const modelDocument = `{
  "num_features": 2,
  "trees": [
    {
      "nodes": [
        {"split_index": 1, "comparison_op": "<=", "threshold": 0.3, "default_left": false, "left_child": 1, "right_child": 2},
        {"leaf": true, "leaf_value": 1.5},
        {"leaf": true, "leaf_value": -2.25}
      ]
    },
    {
      "nodes": [
        {"leaf": true, "leaf_value": 0.125}
      ]
    }
  ]
}`

func TestParseEnsemble(t *testing.T) {
	ensemble, err := ParseEnsemble([]byte(modelDocument))
	require.NoError(t, err)

	assert.Equal(t, 2, ensemble.NumFeatures)
	require.Len(t, ensemble.Trees, 2)

	root := ensemble.Trees[0].Nodes[0]
	assert.False(t, root.Leaf)
	assert.Equal(t, 1, root.SplitIndex)
	assert.Equal(t, model.OpLE, root.Op)
	assert.InDelta(t, 0.3, float64(root.Threshold), 1e-6)
	assert.False(t, root.DefaultLeft)

	assert.InDelta(t, 0.125, float64(ensemble.Trees[1].Nodes[0].LeafValue), 1e-6)
}

func TestParseEnsembleBadJSON(t *testing.T) {
	_, err := ParseEnsemble([]byte(`{"num_features": `))
	assert.Error(t, err)
}

func TestParseEnsembleBadOperator(t *testing.T) {
	_, err := ParseEnsemble([]byte(`{
	  "num_features": 1,
	  "trees": [{"nodes": [
	    {"split_index": 0, "comparison_op": "~", "threshold": 0.5, "left_child": 1, "right_child": 2},
	    {"leaf": true, "leaf_value": 1},
	    {"leaf": true, "leaf_value": 2}
	  ]}]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comparison operator")
}

func TestParseEnsembleInvalidStructure(t *testing.T) {
	// Child id out of range.
	_, err := ParseEnsemble([]byte(`{
	  "num_features": 1,
	  "trees": [{"nodes": [
	    {"split_index": 0, "comparison_op": "<", "threshold": 0.5, "left_child": 1, "right_child": 9},
	    {"leaf": true, "leaf_value": 1}
	  ]}]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	ensemble, err := ParseEnsemble([]byte(modelDocument))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, SaveEnsemble(ctx, path, ensemble))

	loaded, err := LoadEnsemble(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, ensemble, loaded)
}

func TestLoadEnsembleMissingFile(t *testing.T) {
	_, err := LoadEnsemble(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
