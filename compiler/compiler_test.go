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

package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/forestcc/model"
)

func testEnsemble() *model.Ensemble {
	return &model.Ensemble{
		NumFeatures: 1,
		Trees: []model.Tree{
			{Nodes: []model.Node{
				{SplitIndex: 0, Op: model.OpLT, Threshold: 0.5, DefaultLeft: true, LeftChild: 1, RightChild: 2},
				{Leaf: true, LeafValue: 1.0},
				{Leaf: true, LeafValue: -1.0},
			}},
			{Nodes: []model.Node{
				{Leaf: true, LeafValue: 0.5},
			}},
		},
	}
}

func writeAnnotation(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "annotation.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewUnknownCompiler(t *testing.T) {
	_, err := New("no-such-compiler", NewParam())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-compiler")
}

func TestNewParamDefaults(t *testing.T) {
	param := NewParam()
	assert.Equal(t, 0, param.Quantize)
	assert.Equal(t, DisabledAnnotation, param.AnnotateIn)
}

func TestLoadAnnotation(t *testing.T) {
	path := writeAnnotation(t, `[[10, 7, 3], [10]]`)

	annotation, err := LoadAnnotation(context.Background(), path, testEnsemble())
	require.NoError(t, err)
	require.Len(t, annotation, 2)
	assert.Equal(t, []uint64{10, 7, 3}, annotation[0])
	assert.Equal(t, []uint64{10}, annotation[1])
}

func TestLoadAnnotationTreeCountMismatch(t *testing.T) {
	path := writeAnnotation(t, `[[10, 7, 3]]`)

	_, err := LoadAnnotation(context.Background(), path, testEnsemble())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 trees")
}

func TestLoadAnnotationNodeCountMismatch(t *testing.T) {
	path := writeAnnotation(t, `[[10, 7], [10]]`)

	_, err := LoadAnnotation(context.Background(), path, testEnsemble())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tree 0")
}

func TestLoadAnnotationUnreadable(t *testing.T) {
	_, err := LoadAnnotation(context.Background(), filepath.Join(t.TempDir(), "absent.json"), testEnsemble())
	assert.Error(t, err)
}

func TestLoadAnnotationUnparsable(t *testing.T) {
	path := writeAnnotation(t, `{"not": "an array"}`)

	_, err := LoadAnnotation(context.Background(), path, testEnsemble())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing annotation")
}
