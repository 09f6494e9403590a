/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package transform

import (
	"slices"
	"strings"

	"github.com/go-errors/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	"github.com/samber/lo"
)

type filter struct {
	name         string
	defaultValue bool
	condition    string
	prog         *vm.Program
}

type column struct {
	source     int
	expression string
	prog       *vm.Program
}

// Template holds the compiled row filters and the projection from
// the source columns onto the target schema. Programs are shared,
// the virtual machines evaluating them are not.
type Template struct {
	source  *schema.Schema
	target  *schema.Schema
	filters []filter
	columns []column
	project bool
}

// Compile validates filter conditions and projection expressions
// against the source columns. A nil source means rows already come
// in the target schema.
func Compile(
	filterDefinitions map[string]config.FilterConfig, projection map[string]string,
	source, target *schema.Schema,
) (*Template, error) {

	if source == nil {
		source = target
	}

	known := make(map[string]bool, source.Len())
	for _, field := range source.Fields() {
		known[field.Name] = true
	}

	t := &Template{
		source: source,
		target: target,
	}

	names := lo.Keys(filterDefinitions)
	slices.Sort(names)
	for _, name := range names {
		def := filterDefinitions[name]
		defaultValue := true
		if def.DefaultValue != nil {
			defaultValue = *def.DefaultValue
		}

		prog, err := compile(def.Condition, known, expr.AsBool())
		if err != nil {
			return nil, failure.New(failure.Configuration, "filter '%s' is invalid: %s", name, err)
		}
		t.filters = append(t.filters, filter{
			name:         name,
			defaultValue: defaultValue,
			condition:    def.Condition,
			prog:         prog,
		})
	}

	for name := range projection {
		if target.IndexOf(name) == -1 {
			return nil, failure.New(failure.Configuration, "projection targets unknown column '%s'", name)
		}
	}

	t.project = source != target || len(projection) > 0
	for _, field := range target.Fields() {
		expression, present := projection[field.Name]
		if !present {
			index := indexOf(source, field.Name)
			if index == -1 {
				return nil, failure.New(
					failure.Configuration, "column '%s' has neither a source column nor a projection", field.Name,
				)
			}
			t.columns = append(t.columns, column{source: index})
			continue
		}

		prog, err := compile(expression, known)
		if err != nil {
			return nil, failure.New(failure.Configuration, "projection of '%s' is invalid: %s", field.Name, err)
		}
		t.columns = append(t.columns, column{source: -1, expression: expression, prog: prog})
	}
	return t, nil
}

// compile checks that the expression only references known
// columns. Column values are untyped at compile time, their
// types only exist per row.
func compile(
	expression string, known map[string]bool, options ...expr.Option,
) (*vm.Program, error) {

	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, err
	}
	references := &referenceCollector{declared: map[string]bool{}}
	ast.Walk(&tree.Node, references)
	for _, name := range references.names {
		if !known[name] && !references.declared[name] {
			return nil, errors.Errorf("unknown column '%s'", name)
		}
	}
	return expr.Compile(expression, append(options, expr.AllowUndefinedVariables())...)
}

type referenceCollector struct {
	names    []string
	declared map[string]bool
}

func (r *referenceCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		r.names = append(r.names, n.Value)
	case *ast.VariableDeclaratorNode:
		r.declared[n.Name] = true
	}
}

func indexOf(
	s *schema.Schema, name string,
) int {

	if index := s.IndexOf(name); index != -1 {
		return index
	}
	for i, field := range s.Fields() {
		if strings.EqualFold(field.Name, name) {
			return i
		}
	}
	return -1
}

func (t *Template) Source() *schema.Schema {
	return t.source
}

// Identity returns true if the template neither filters nor
// projects rows.
func (t *Template) Identity() bool {
	return len(t.filters) == 0 && !t.project
}

// NewTransformer creates the per-worker evaluator.
func (t *Template) NewTransformer() *Transformer {
	return &Transformer{
		template: t,
		vm:       &vm.VM{},
	}
}

type Transformer struct {
	template *Template
	vm       *vm.VM
}

// Transform applies the filters and the projection to a source
// row. It returns false for rows dropped by a filter. Evaluation
// errors are coercion failures of the row.
func (t *Transformer) Transform(
	row *schema.Row,
) (*schema.Row, bool, error) {

	if t.template.Identity() {
		return row, true, nil
	}

	env := row.Env()
	for _, f := range t.template.filters {
		result, err := t.vm.Run(f.prog, env)
		if err != nil {
			return nil, false, failure.New(failure.Coercion, "filter '%s' failed: %s", f.name, err)
		}
		r, ok := result.(bool)
		if !ok {
			return nil, false, failure.New(failure.Coercion, "result of filter «%s» isn't a boolean", f.condition)
		}
		keep := f.defaultValue
		if !r {
			keep = !f.defaultValue
		}
		if !keep {
			return nil, false, nil
		}
	}

	if !t.template.project {
		return row, true, nil
	}

	values := make([]any, len(t.template.columns))
	for i, c := range t.template.columns {
		if c.prog == nil {
			values[i] = row.Values[c.source]
			continue
		}
		value, err := t.vm.Run(c.prog, env)
		if err != nil {
			return nil, false, failure.New(
				failure.Coercion, "projection «%s» failed: %s", c.expression, err,
			).WithPath(t.template.target.Field(i).Name)
		}
		values[i] = value
	}
	return &schema.Row{Schema: t.template.target, Values: values}, true, nil
}
