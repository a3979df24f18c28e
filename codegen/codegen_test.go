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

package codegen

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSequenceBlock(t *testing.T) {
	sequence := &SequenceBlock{}
	sequence.Reserve(3)
	sequence.PushBack(PlainBlock{"int a = 0;"})
	sequence.PushBack(PlainBlock{"a += 1;", "a += 2;"})

	expected := []string{"int a = 0;", "a += 1;", "a += 2;"}
	if diff := cmp.Diff(expected, sequence.Compile()); diff != "" {
		t.Errorf("unexpected sequence lines (-want +got):\n%s", diff)
	}
}

func TestIfElseBlock(t *testing.T) {
	block := &IfElseBlock{
		Cond: TextCondition("x < 1"),
		Then: PlainBlock{"sum += 1;"},
		Else: PlainBlock{"sum += 2;"},
	}
	expected := []string{
		"if (x < 1) {",
		"  sum += 1;",
		"} else {",
		"  sum += 2;",
		"}",
	}
	if diff := cmp.Diff(expected, block.Compile()); diff != "" {
		t.Errorf("unexpected conditional lines (-want +got):\n%s", diff)
	}
}

func TestIfElseBlockLikelihood(t *testing.T) {
	block := &IfElseBlock{
		Cond:   TextCondition("x < 1"),
		Then:   PlainBlock{"sum += 1;"},
		Else:   PlainBlock{"sum += 2;"},
		Likely: LikelyLeft,
	}
	assert.Equal(t, "if (LIKELY(x < 1)) {", block.Compile()[0])

	block.Likely = LikelyRight
	assert.Equal(t, "if (UNLIKELY(x < 1)) {", block.Compile()[0])
}

func TestFunctionBlockNesting(t *testing.T) {
	inner := &IfElseBlock{
		Cond: TextCondition("x < 1"),
		Then: PlainBlock{"sum += 1;"},
		Else: PlainBlock{"sum += 2;"},
	}
	function := &FunctionBlock{Signature: "float f(float x)", Body: inner}
	expected := []string{
		"float f(float x) {",
		"  if (x < 1) {",
		"    sum += 1;",
		"  } else {",
		"    sum += 2;",
		"  }",
		"}",
	}
	if diff := cmp.Diff(expected, function.Compile()); diff != "" {
		t.Errorf("unexpected function lines (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "a;\nb;\n", Render(PlainBlock{"a;", "b;"}))
}

func TestFormatFloat32(t *testing.T) {
	assert.Equal(t, "0.5", FormatFloat32(0.5))
	assert.Equal(t, "-1", FormatFloat32(-1))
	assert.Equal(t, "0.1", FormatFloat32(0.1))
}

func TestWrapValues(t *testing.T) {
	assert.Nil(t, WrapValues(nil, 80))

	lines := WrapValues([]string{"1", "2", "3"}, 80)
	if diff := cmp.Diff([]string{"  1, 2, 3,"}, lines); diff != "" {
		t.Errorf("unexpected wrapped lines (-want +got):\n%s", diff)
	}

	values := make([]string, 40)
	for i := range values {
		values[i] = "0.125"
	}
	wrapped := WrapValues(values, 80)
	assert.Greater(t, len(wrapped), 1)
	for _, line := range wrapped {
		assert.LessOrEqual(t, len(line), 80)
		assert.True(t, strings.HasPrefix(line, "  "))
	}
}
