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

package recursive

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/forestcc/codegen"
	"github.com/google/forestcc/model"
)

// Lines wrap at this width in the generated lookup tables.
const tableWidth = 80

// noQuantize renders split comparisons against literal floating-point
// thresholds. No preprocessing and no cut-point extraction are needed.
type noQuantize struct {
	info Metadata
}

func (p *noQuantize) init(info Metadata) {
	p.info = info
}

func (p *noQuantize) renderNumeric(op model.Operator, splitIndex int, threshold float32) (string, error) {
	return fmt.Sprintf("data[%d].fvalue %v %v", splitIndex, op, codegen.FormatFloat32(threshold)), nil
}

func (p *noQuantize) preamble() []string {
	return []string{
		"union Entry {",
		"  int missing;",
		"  float fvalue;",
		"};",
	}
}

func (p *noQuantize) preprocessing() []string {
	return nil
}

func (p *noQuantize) wantsCutPoints() bool {
	return false
}

// quantize renders split comparisons between integer quantized codes. At
// evaluation time a preprocessing loop replaces every present feature value
// with the code returned by the generated quantize() helper; split
// thresholds are compiled down to the even code of their position among the
// feature's cut points.
type quantize struct {
	info          Metadata
	quantPreamble []string
}

func (p *quantize) init(info Metadata) {
	p.info = info
	p.quantPreamble = []string{
		fmt.Sprintf("for (int i = 0; i < %d; ++i) {", info.NumFeatures),
		"  if (data[i].missing != -1) {",
		"    data[i].qvalue = quantize(data[i].fvalue, i);",
		"  }",
		"}",
	}
}

func (p *quantize) renderNumeric(op model.Operator, splitIndex int, threshold float32) (string, error) {
	points := p.info.CutPoints[splitIndex]
	loc := sort.Search(len(points), func(i int) bool { return points[i] >= threshold })
	if loc == len(points) || points[loc] != threshold {
		// Every split threshold was collected during extraction, so a failed
		// lookup is an internal-consistency violation, not a data problem.
		return "", fmt.Errorf("threshold %v of feature %d is missing from the extracted cut points",
			threshold, splitIndex)
	}
	return fmt.Sprintf("data[%d].qvalue %v %d", splitIndex, op, loc*2), nil
}

func (p *quantize) preamble() []string {
	lines := []string{
		"union Entry {",
		"  int missing;",
		"  float fvalue;",
		"  int qvalue;",
		"};",
	}

	var thresholds, begins, lengths []string
	accum := 0
	for _, points := range p.info.CutPoints {
		begins = append(begins, strconv.Itoa(accum))
		lengths = append(lengths, strconv.Itoa(len(points)))
		accum += len(points)
		for _, point := range points {
			thresholds = append(thresholds, codegen.FormatFloat32(point))
		}
	}
	lines = append(lines, "static const float threshold[] = {")
	lines = append(lines, codegen.WrapValues(thresholds, tableWidth)...)
	lines = append(lines, "};")
	lines = append(lines, "static const int th_begin[] = {")
	lines = append(lines, codegen.WrapValues(begins, tableWidth)...)
	lines = append(lines, "};")
	lines = append(lines, "static const int th_len[] = {")
	lines = append(lines, codegen.WrapValues(lengths, tableWidth)...)
	lines = append(lines, "};")

	helper := &codegen.FunctionBlock{
		Signature: "static inline int quantize(float val, unsigned fid)",
		Body: codegen.PlainBlock{
			"const float* array = &threshold[th_begin[fid]];",
			"int len = th_len[fid];",
			"int low = 0;",
			"int high = len;",
			"int mid;",
			"float mval;",
			"if (val < array[0]) {",
			"  return -10;",
			"}",
			"while (low + 1 < high) {",
			"  mid = (low + high) / 2;",
			"  mval = array[mid];",
			"  if (val == mval) {",
			"    return mid * 2;",
			"  } else if (val < mval) {",
			"    high = mid;",
			"  } else {",
			"    low = mid;",
			"  }",
			"}",
			"if (array[low] == val) {",
			"  return low * 2;",
			"} else if (high == len) {",
			"  return len * 2;",
			"} else {",
			"  return low * 2 + 1;",
			"}",
		},
	}
	return append(lines, helper.Compile()...)
}

func (p *quantize) preprocessing() []string {
	return p.quantPreamble
}

func (p *quantize) wantsCutPoints() bool {
	return true
}

// QuantizeValue is the reference implementation of the generated quantize()
// helper: it returns the integer code of value among a feature's sorted cut
// points. Exact matches get the even code position*2, values strictly
// between two cut points get the odd code low*2+1, values below the first
// cut point get the sentinel -10 and values at or beyond the last get
// len*2. The encoding preserves the truth value of every <, <=, > and >=
// comparison against an even threshold code.
func QuantizeValue(value float32, cutPoints []float32) int {
	if len(cutPoints) == 0 || value < cutPoints[0] {
		return -10
	}
	low, high := 0, len(cutPoints)
	for low+1 < high {
		mid := (low + high) / 2
		mval := cutPoints[mid]
		if value == mval {
			return mid * 2
		} else if value < mval {
			high = mid
		} else {
			low = mid
		}
	}
	if cutPoints[low] == value {
		return low * 2
	} else if high == len(cutPoints) {
		return len(cutPoints) * 2
	}
	return low*2 + 1
}
