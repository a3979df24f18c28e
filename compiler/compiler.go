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

// Package compiler defines the Compiler interface, its parameters, and the
// registry of compiler implementations. It doesn't include any actual
// compiler by default; import an implementation package (e.g.
// "compiler/recursive") to register one.
package compiler

import (
	"fmt"

	"github.com/google/forestcc/codegen"
	"github.com/google/forestcc/model"
)

// DisabledAnnotation is the AnnotateIn sentinel that disables annotation
// loading entirely.
const DisabledAnnotation = "NULL"

// Param holds the recognized compiler options.
type Param struct {
	// Quantize selects the quantized code-generation strategy when positive:
	// floating-point comparisons are rewritten into integer comparisons
	// against per-feature cut-point indices.
	Quantize int

	// AnnotateIn is the path to a branch-frequency annotation file, or
	// DisabledAnnotation to compile without branch-likelihood hints.
	AnnotateIn string
}

// NewParam returns the default compiler parameters.
func NewParam() Param {
	return Param{Quantize: 0, AnnotateIn: DisabledAnnotation}
}

// Compiler compiles an ensemble into a renderable code artifact. One
// Compile call fully materializes one artifact; no state persists across
// calls and the returned block does not alias compiler-internal state.
type Compiler interface {
	// Name is the registered name of the compiler.
	Name() string

	// Compile converts the ensemble into a sequence of code blocks: preamble
	// declarations followed by the prediction function.
	Compile(ensemble *model.Ensemble) (codegen.Block, error)
}

// RegisteredBuilders is the list of compiler builders, keyed by a unique
// name per implementation. Only register (change) this during runtime
// initialization, in `init()` functions. End users probably want to call
// `New()` instead.
var RegisteredBuilders = make(map[string]func(param Param) Compiler)

// New instantiates the registered compiler with the given name.
func New(name string, param Param) (Compiler, error) {
	builder, hasBuilder := RegisteredBuilders[name]
	if !hasBuilder {
		names := make([]string, 0, len(RegisteredBuilders))
		for registered := range RegisteredBuilders {
			names = append(names, registered)
		}
		return nil, fmt.Errorf("unknown compiler %q. The available compilers are: %v. This may be "+
			"because the implementation package was not imported", name, names)
	}
	return builder(param), nil
}
