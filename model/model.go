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

// Package model defines the decision-tree ensemble consumed by the
// compilers, and a direct (tree-walking) interpreter used as the reference
// implementation of the prediction semantics.
package model

import "fmt"

// Operator is the comparison operator of a split condition. The operator is
// applied as "feature value OP threshold".
type Operator int

// Supported split operators.
const (
	OpEQ Operator = iota
	OpLT
	OpLE
	OpGT
	OpGE
)

// String returns the operator symbol. The symbol is valid in C source.
func (op Operator) String() string {
	switch op {
	case OpEQ:
		return "=="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// ParseOperator returns the operator denoted by symbol.
func ParseOperator(symbol string) (Operator, error) {
	switch symbol {
	case "==":
		return OpEQ, nil
	case "<":
		return OpLT, nil
	case "<=":
		return OpLE, nil
	case ">":
		return OpGT, nil
	case ">=":
		return OpGE, nil
	}
	return 0, fmt.Errorf("unknown comparison operator %q", symbol)
}

// Evaluate applies the operator to a feature value and a threshold.
func (op Operator) Evaluate(value float64, threshold float64) bool {
	switch op {
	case OpEQ:
		return value == threshold
	case OpLT:
		return value < threshold
	case OpLE:
		return value <= threshold
	case OpGT:
		return value > threshold
	case OpGE:
		return value >= threshold
	}
	return false
}

// MarshalText encodes the operator as its symbol.
func (op Operator) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText decodes an operator symbol.
func (op *Operator) UnmarshalText(text []byte) error {
	parsed, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// Node is one node of a decision tree, either a leaf or a split. The
// discriminant is the "Leaf" field: for leaves only "LeafValue" is
// meaningful, for splits every field but "LeafValue" is.
type Node struct {
	// Leaf indicates a terminal node.
	Leaf bool `json:"leaf" bson:"leaf"`

	// LeafValue is the additive contribution of a leaf.
	LeafValue float32 `json:"leaf_value" bson:"leaf_value"`

	// SplitIndex is the feature tested by a split.
	SplitIndex int `json:"split_index" bson:"split_index"`

	// Op compares the feature value against Threshold. A true comparison
	// routes the input to the left child.
	Op Operator `json:"comparison_op" bson:"comparison_op"`

	// Threshold of the split comparison.
	Threshold float32 `json:"threshold" bson:"threshold"`

	// DefaultLeft routes missing feature values to the left child when true,
	// to the right child otherwise.
	DefaultLeft bool `json:"default_left" bson:"default_left"`

	// LeftChild and RightChild are node ids within the same tree.
	LeftChild  int `json:"left_child" bson:"left_child"`
	RightChild int `json:"right_child" bson:"right_child"`
}

// Tree is a binary decision tree. Nodes are addressed by id; the root is
// node 0.
type Tree struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
}

// Ensemble is an ordered collection of trees whose individual predictions
// are summed to produce the final score.
type Ensemble struct {
	// NumFeatures is the number of feature slots addressable by the split
	// indices of the trees.
	NumFeatures int `json:"num_features" bson:"num_features"`

	Trees []Tree `json:"trees" bson:"trees"`
}

// Entry is one feature slot of an input record: a numeric value or missing.
type Entry struct {
	Missing bool
	Value   float32
}

// Record is one input to the prediction function, with one entry per
// feature slot.
type Record []Entry

// Numerical returns a present entry.
func Numerical(value float32) Entry {
	return Entry{Value: value}
}

// Missing returns a missing entry.
func Missing() Entry {
	return Entry{Missing: true}
}

// Predict walks every tree of the ensemble and returns the sum of the
// reached leaf values. It is the reference semantics that compiled
// artifacts must reproduce. The ensemble must be valid (see Validate);
// Predict panics on out-of-range node or feature ids.
func (e *Ensemble) Predict(record Record) float32 {
	var sum float32
	for treeIdx := range e.Trees {
		sum += e.Trees[treeIdx].predict(record)
	}
	return sum
}

func (t *Tree) predict(record Record) float32 {
	nodeIdx := 0
	for {
		node := &t.Nodes[nodeIdx]
		if node.Leaf {
			return node.LeafValue
		}
		entry := record[node.SplitIndex]
		var goLeft bool
		if entry.Missing {
			goLeft = node.DefaultLeft
		} else {
			goLeft = node.Op.Evaluate(float64(entry.Value), float64(node.Threshold))
		}
		if goLeft {
			nodeIdx = node.LeftChild
		} else {
			nodeIdx = node.RightChild
		}
	}
}

// Validate checks the structural invariants of the ensemble: every tree has
// a root, child ids are in range, no node is reachable twice (no cycles, no
// shared children) and split indices address valid feature slots.
func (e *Ensemble) Validate() error {
	if e.NumFeatures <= 0 {
		return fmt.Errorf("invalid model: num_features is %d", e.NumFeatures)
	}
	for treeIdx := range e.Trees {
		if err := e.Trees[treeIdx].validate(e.NumFeatures); err != nil {
			return fmt.Errorf("invalid model: tree %d: %w", treeIdx, err)
		}
	}
	return nil
}

func (t *Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	visited := make([]bool, len(t.Nodes))
	pending := []int{0}
	for len(pending) > 0 {
		nodeIdx := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if nodeIdx < 0 || nodeIdx >= len(t.Nodes) {
			return fmt.Errorf("node id %d out of range [0, %d)", nodeIdx, len(t.Nodes))
		}
		if visited[nodeIdx] {
			return fmt.Errorf("node %d is reachable through multiple paths", nodeIdx)
		}
		visited[nodeIdx] = true
		node := &t.Nodes[nodeIdx]
		if node.Leaf {
			continue
		}
		if node.SplitIndex < 0 || node.SplitIndex >= numFeatures {
			return fmt.Errorf("node %d split index %d out of range [0, %d)", nodeIdx, node.SplitIndex, numFeatures)
		}
		pending = append(pending, node.LeftChild, node.RightChild)
	}
	return nil
}

// NumNodes is the total number of nodes in the forest.
func (e *Ensemble) NumNodes() int {
	count := 0
	for treeIdx := range e.Trees {
		count += len(e.Trees[treeIdx].Nodes)
	}
	return count
}

// NumLeafs is the number of leaf nodes in the forest.
func (e *Ensemble) NumLeafs() int {
	count := 0
	for treeIdx := range e.Trees {
		for nodeIdx := range e.Trees[treeIdx].Nodes {
			if e.Trees[treeIdx].Nodes[nodeIdx].Leaf {
				count++
			}
		}
	}
	return count
}
