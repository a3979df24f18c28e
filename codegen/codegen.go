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

// Package codegen defines the abstract code blocks that compilers build
// their output from, and renders them into C source text. Blocks compile to
// lines; nested blocks are indented by two spaces per level.
package codegen

import (
	"strconv"
	"strings"
)

// Block is one structured piece of generated code.
type Block interface {
	// Compile renders the block into source lines, without a trailing
	// newline per line.
	Compile() []string
}

// Condition is a boolean source expression guarding an IfElseBlock.
type Condition interface {
	Compile() string
}

// LikelyDirection marks which branch of a conditional is statistically more
// often taken. It biases code generation for branch prediction.
type LikelyDirection int

// Branch-likelihood markers.
const (
	LikelyNone LikelyDirection = iota
	LikelyLeft
	LikelyRight
)

// PlainBlock is a fixed sequence of source lines.
type PlainBlock []string

// Compile implements Block.
func (b PlainBlock) Compile() []string {
	return b
}

// TextCondition is a condition held as literal source text.
type TextCondition string

// Compile implements Condition.
func (c TextCondition) Compile() string {
	return string(c)
}

// SequenceBlock concatenates sub-blocks at the same indentation level.
type SequenceBlock struct {
	blocks []Block
}

// Reserve pre-allocates room for n sub-blocks.
func (b *SequenceBlock) Reserve(n int) {
	if cap(b.blocks) < n {
		blocks := make([]Block, len(b.blocks), n)
		copy(blocks, b.blocks)
		b.blocks = blocks
	}
}

// PushBack appends a sub-block.
func (b *SequenceBlock) PushBack(block Block) {
	b.blocks = append(b.blocks, block)
}

// Compile implements Block.
func (b *SequenceBlock) Compile() []string {
	var lines []string
	for _, block := range b.blocks {
		lines = append(lines, block.Compile()...)
	}
	return lines
}

// IfElseBlock is a two-way conditional. The if-branch is taken when the
// condition is true. When Likely is LikelyLeft the condition is wrapped in
// the LIKELY() macro, when LikelyRight in UNLIKELY(); the macros must then
// be declared by the surrounding preamble.
type IfElseBlock struct {
	Cond   Condition
	Then   Block
	Else   Block
	Likely LikelyDirection
}

// Compile implements Block.
func (b *IfElseBlock) Compile() []string {
	condition := b.Cond.Compile()
	switch b.Likely {
	case LikelyLeft:
		condition = "LIKELY(" + condition + ")"
	case LikelyRight:
		condition = "UNLIKELY(" + condition + ")"
	}
	lines := []string{"if (" + condition + ") {"}
	lines = append(lines, indent(b.Then.Compile())...)
	lines = append(lines, "} else {")
	lines = append(lines, indent(b.Else.Compile())...)
	lines = append(lines, "}")
	return lines
}

// FunctionBlock wraps a body in a function definition.
type FunctionBlock struct {
	Signature string
	Body      Block
}

// Compile implements Block.
func (b *FunctionBlock) Compile() []string {
	lines := []string{b.Signature + " {"}
	lines = append(lines, indent(b.Body.Compile())...)
	lines = append(lines, "}")
	return lines
}

func indent(lines []string) []string {
	indented := make([]string, len(lines))
	for i, line := range lines {
		if line == "" {
			continue
		}
		indented[i] = "  " + line
	}
	return indented
}

// Render serializes a block into source text, one line per compiled line.
func Render(block Block) string {
	return strings.Join(block.Compile(), "\n") + "\n"
}

// FormatFloat32 formats a value as a C floating-point literal with the
// shortest representation that round-trips at single precision.
func FormatFloat32(value float32) string {
	return strconv.FormatFloat(float64(value), 'g', -1, 32)
}

// WrapValues lays out comma-separated values over multiple lines, keeping
// lines under width characters. Every line is indented by two spaces and
// every value, including the last, is followed by a comma, which C array
// initializers allow.
func WrapValues(values []string, width int) []string {
	if len(values) == 0 {
		return nil
	}
	var lines []string
	current := "  "
	for _, value := range values {
		item := value + ", "
		if len(current) > 2 && len(current)+len(item) > width {
			lines = append(lines, strings.TrimRight(current, " "))
			current = "  "
		}
		current += item
	}
	lines = append(lines, strings.TrimRight(current, " "))
	return lines
}
