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

// Package recursive implements the recursive compiler: each tree becomes a
// nest of conditionals mirroring the tree structure, so the generated
// function reproduces the ensemble's prediction without walking any tree
// data structure at inference time.
//
// Two code-generation strategies are available. The identity strategy
// compares floating-point feature values against literal thresholds. The
// quantized strategy (Param.Quantize > 0) replaces every feature value with
// an integer code locating it among the feature's cut points, so the
// generated conditionals compare integers.
package recursive

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/forestcc/codegen"
	"github.com/google/forestcc/compiler"
	"github.com/google/forestcc/model"
)

// CompilerKey is the registered name of the recursive compiler.
const CompilerKey = "recursive"

// Splits deeper than this indicate a malformed (cyclic) tree rather than a
// plausible model.
const maxTreeDepth = 512

func init() {
	compiler.RegisteredBuilders[CompilerKey] = func(param compiler.Param) compiler.Compiler {
		var pol policy
		if param.Quantize > 0 {
			pol = &quantize{}
		} else {
			pol = &noQuantize{}
		}
		return &Compiler{param: param, policy: pol}
	}
}

// Metadata is derived from the ensemble once per compilation and shared
// read-only by the active policy.
type Metadata struct {
	// NumFeatures of the ensemble.
	NumFeatures int

	// CutPoints maps each feature id to the sorted distinct thresholds used
	// by any split on that feature. Only populated for policies that request
	// extraction.
	CutPoints [][]float32
}

// ExtractCutPoints collects, for every feature id in [0, NumFeatures), the
// sorted set of distinct threshold values used by any split node anywhere
// in the ensemble. Each tree is walked in level order; the walk order does
// not matter since the result is deduplicated and sorted.
func ExtractCutPoints(ensemble *model.Ensemble) [][]float32 {
	seen := make([]map[float32]bool, ensemble.NumFeatures)
	for featureIdx := range seen {
		seen[featureIdx] = make(map[float32]bool)
	}
	for treeIdx := range ensemble.Trees {
		tree := &ensemble.Trees[treeIdx]
		queue := []int{0}
		for len(queue) > 0 {
			node := &tree.Nodes[queue[0]]
			queue = queue[1:]
			if node.Leaf {
				continue
			}
			seen[node.SplitIndex][node.Threshold] = true
			queue = append(queue, node.LeftChild, node.RightChild)
		}
	}
	cutPoints := make([][]float32, ensemble.NumFeatures)
	for featureIdx, thresholds := range seen {
		points := make([]float32, 0, len(thresholds))
		for threshold := range thresholds {
			points = append(points, threshold)
		}
		sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
		cutPoints[featureIdx] = points
	}
	return cutPoints
}

// policy is the code-generation strategy consulted by the tree walker. A
// policy decides how a numeric split comparison is rendered, what preamble
// declarations and per-record preprocessing the artifact needs, and whether
// cut-point extraction is required at all.
type policy interface {
	init(info Metadata)
	renderNumeric(op model.Operator, splitIndex int, threshold float32) (string, error)
	preamble() []string
	preprocessing() []string
	wantsCutPoints() bool
}

// splitCondition is the routing test of one split node: true routes the
// input to the left child. Missing values bypass the numeric comparison and
// follow the node's default disposition.
type splitCondition struct {
	splitIndex  int
	defaultLeft bool
	numeric     string
}

// Compile implements codegen.Condition.
func (c splitCondition) Compile() string {
	present := fmt.Sprintf("data[%d].missing != -1", c.splitIndex)
	if c.defaultLeft {
		return "!(" + present + ") || " + c.numeric
	}
	return " (" + present + ") && " + c.numeric
}

// Compiler compiles an ensemble by recursion on the tree structure.
type Compiler struct {
	param  compiler.Param
	policy policy
}

// Name implements compiler.Compiler.
func (c *Compiler) Name() string {
	return CompilerKey
}

// Compile implements compiler.Compiler. It emits a preamble block (input
// slot layout, lookup tables and the quantization helper when quantizing,
// branch-hint macros when annotating) followed by the prediction function
//
//	float predict_margin(union Entry* data)
//
// returning the sum of every tree's reached leaf value.
func (c *Compiler) Compile(ensemble *model.Ensemble) (codegen.Block, error) {
	info := Metadata{NumFeatures: ensemble.NumFeatures}
	if c.policy.wantsCutPoints() {
		info.CutPoints = ExtractCutPoints(ensemble)
	}
	c.policy.init(info)

	var annotation compiler.Annotation
	annotate := false
	if c.param.AnnotateIn != compiler.DisabledAnnotation && c.param.AnnotateIn != "" {
		var err error
		annotation, err = compiler.LoadAnnotation(context.Background(), c.param.AnnotateIn, ensemble)
		if err != nil {
			return nil, err
		}
		annotate = true
	}

	sequence := &codegen.SequenceBlock{}
	sequence.Reserve(len(ensemble.Trees) + 3)
	sequence.PushBack(codegen.PlainBlock{"float sum = 0.0f;"})
	sequence.PushBack(codegen.PlainBlock(c.policy.preprocessing()))
	for treeIdx := range ensemble.Trees {
		var counts []uint64
		if annotate {
			counts = annotation[treeIdx]
		}
		block, err := c.walkTree(&ensemble.Trees[treeIdx], counts)
		if err != nil {
			return nil, fmt.Errorf("compiling tree %d: %w", treeIdx, err)
		}
		sequence.PushBack(block)
	}
	sequence.PushBack(codegen.PlainBlock{"return sum;"})

	function := &codegen.FunctionBlock{
		Signature: "float predict_margin(union Entry* data)",
		Body:      sequence,
	}

	preamble := append([]string{}, c.policy.preamble()...)
	preamble = append(preamble, "")
	if annotate {
		preamble = append(preamble,
			"#define LIKELY(x)     __builtin_expect(!!(x), 1)",
			"#define UNLIKELY(x)   __builtin_expect(!!(x), 0)")
	}

	artifact := &codegen.SequenceBlock{}
	artifact.Reserve(2)
	artifact.PushBack(codegen.PlainBlock(preamble))
	artifact.PushBack(function)
	return artifact, nil
}

func (c *Compiler) walkTree(tree *model.Tree, counts []uint64) (codegen.Block, error) {
	return c.walkNode(tree, counts, 0, 0)
}

// walkNode converts the subtree rooted at nodeIdx into a code block: a leaf
// becomes an accumulation statement, a split becomes a conditional whose
// if-branch holds the left child (the condition means "go left").
func (c *Compiler) walkNode(tree *model.Tree, counts []uint64, nodeIdx int, depth int) (codegen.Block, error) {
	if nodeIdx < 0 || nodeIdx >= len(tree.Nodes) {
		return nil, fmt.Errorf("node id %d out of range [0, %d)", nodeIdx, len(tree.Nodes))
	}
	if depth > maxTreeDepth {
		return nil, fmt.Errorf("tree deeper than %d levels at node %d; the tree is likely cyclic", maxTreeDepth, nodeIdx)
	}
	node := &tree.Nodes[nodeIdx]
	if node.Leaf {
		return codegen.PlainBlock{"sum += " + codegen.FormatFloat32(node.LeafValue) + ";"}, nil
	}

	likely := codegen.LikelyNone
	if len(counts) > 0 {
		if counts[node.LeftChild] > counts[node.RightChild] {
			likely = codegen.LikelyLeft
		} else {
			likely = codegen.LikelyRight
		}
	}

	numeric, err := c.policy.renderNumeric(node.Op, node.SplitIndex, node.Threshold)
	if err != nil {
		return nil, err
	}

	left, err := c.walkNode(tree, counts, node.LeftChild, depth+1)
	if err != nil {
		return nil, err
	}
	right, err := c.walkNode(tree, counts, node.RightChild, depth+1)
	if err != nil {
		return nil, err
	}

	return &codegen.IfElseBlock{
		Cond: splitCondition{
			splitIndex:  node.SplitIndex,
			defaultLeft: node.DefaultLeft,
			numeric:     numeric,
		},
		Then:   left,
		Else:   right,
		Likely: likely,
	}, nil
}
