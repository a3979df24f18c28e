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
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/google/forestcc/model"
	"github.com/google/forestcc/utils/file"
)

// Annotation holds per-node traversal-frequency counts, produced by an
// external profiling pass. The outer slice is index-aligned with the
// ensemble's trees; each inner slice is indexed by node id.
type Annotation [][]uint64

// LoadAnnotation reads a JSON annotation file and checks its shape against
// the ensemble: one count sequence per tree, one count per node. A shape
// mismatch is fatal rather than silently truncated or padded.
func LoadAnnotation(ctx context.Context, path string, ensemble *model.Ensemble) (Annotation, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading annotation from %s", path)
	}
	var annotation Annotation
	if err := json.Unmarshal(data, &annotation); err != nil {
		return nil, errors.Wrapf(err, "parsing annotation from %s", path)
	}
	if len(annotation) != len(ensemble.Trees) {
		return nil, errors.Errorf("annotation covers %d trees but the ensemble has %d",
			len(annotation), len(ensemble.Trees))
	}
	for treeIdx, counts := range annotation {
		if len(counts) != len(ensemble.Trees[treeIdx].Nodes) {
			return nil, errors.Errorf("annotation for tree %d covers %d nodes but the tree has %d",
				treeIdx, len(counts), len(ensemble.Trees[treeIdx].Nodes))
		}
	}
	return annotation, nil
}
