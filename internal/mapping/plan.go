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

package mapping

import (
	"strings"

	"github.com/noctarius/es-bulk-exporter/internal/coercion"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
)

// Plan is the destination layout derived from a row schema and
// the alias table. It is built once before any row is written and
// shared read-only by all workers.
type Plan struct {
	schema       *schema.Schema
	members      *coercion.Members
	destinations map[string][]string
	removals     [][]string
	mapping      document.Mapping
}

type Options struct {
	Aliases  Aliases
	Includes []string
	Excludes []string
}

func NewPlan(
	s *schema.Schema, options Options,
) (*Plan, error) {

	paths := make([]sourcePath, 0)
	s.Walk(func(path string, field schema.Field) {
		paths = append(paths, sourcePath{path: path, field: field, depth: strings.Count(path, ".")})
	})

	aliases, err := options.Aliases.resolve(paths)
	if err != nil {
		return nil, err
	}

	naming := func(path string, field schema.Field) string {
		if destination, present := aliases[path]; present {
			return destination
		}
		return field.Name
	}

	members, err := coercion.NewMembers("", s.Fields(), naming)
	if err != nil {
		return nil, err
	}

	destinations := make(map[string][]string, len(paths))
	for _, p := range paths {
		parent := []string{}
		if i := strings.LastIndex(p.path, "."); i != -1 {
			parent = destinations[p.path[:i]]
		}
		destination := make([]string, len(parent), len(parent)+1)
		copy(destination, parent)
		destinations[p.path] = append(destination, naming(p.path, p.field))
	}

	selection, err := newSelection(paths, options.Includes, options.Excludes)
	if err != nil {
		return nil, err
	}

	removals := make([][]string, 0)
	removed := make(map[string]bool)
	for _, p := range paths {
		if i := strings.LastIndex(p.path, "."); i != -1 && removed[p.path[:i]] {
			removed[p.path] = true
			continue
		}
		if !selection.keeps(p.path) {
			removed[p.path] = true
			removals = append(removals, destinations[p.path])
		}
	}

	mapping := make(document.Mapping)
	for _, field := range s.Fields() {
		if removed[field.Name] {
			continue
		}
		mapping[naming(field.Name, field)] = propertyOf(field.Name, field.Type, naming, removed)
	}

	return &Plan{
		schema:       s,
		members:      members,
		destinations: destinations,
		removals:     removals,
		mapping:      mapping,
	}, nil
}

func (p *Plan) Schema() *schema.Schema {
	return p.schema
}

// Mapping returns the destination mapping implied by the schema.
// Building a plan twice from the same input yields equal mappings.
func (p *Plan) Mapping() document.Mapping {
	return p.mapping.Clone()
}

// Convert coerces a row into its full document, including fields
// that are removed later by Project.
func (p *Plan) Convert(
	row *schema.Row,
) (*document.Object, error) {

	if row.Schema != p.schema && row.Schema.Len() != p.schema.Len() {
		return nil, failure.New(
			failure.Coercion, "row has %d columns but the schema declares %d", row.Schema.Len(), p.schema.Len(),
		)
	}
	return p.members.Positional(row.Values)
}

// Project removes the fields deselected by includes and excludes.
func (p *Plan) Project(
	obj *document.Object,
) *document.Object {

	for _, removal := range p.removals {
		obj.DeletePath(removal)
	}
	return obj
}

// Accessor reads the converted value of a source field from a
// document produced by Convert.
type Accessor struct {
	source      string
	destination []string
}

func (p *Plan) Accessor(
	source string,
) (Accessor, error) {

	if destination, present := p.destinations[source]; present {
		return Accessor{source: source, destination: destination}, nil
	}
	for path, destination := range p.destinations {
		if strings.EqualFold(path, source) {
			return Accessor{source: path, destination: destination}, nil
		}
	}
	return Accessor{}, failure.New(failure.Configuration, "field '%s' doesn't exist", source)
}

func (a Accessor) Source() string {
	return a.source
}

func (a Accessor) Destination() string {
	return strings.Join(a.destination, ".")
}

func (a Accessor) Get(
	obj *document.Object,
) (any, bool) {

	return obj.Lookup(a.destination)
}

func propertyOf(
	path string, fieldType schema.FieldType, naming coercion.Naming, removed map[string]bool,
) *document.Property {

	switch t := fieldType.(type) {
	case *schema.Primitive:
		switch {
		case t.Kind.Integral():
			return document.Leaf(document.LongType)
		case t.Kind == schema.Float || t.Kind == schema.Double:
			return document.Leaf(document.DoubleType)
		case t.Kind == schema.Boolean:
			return document.Leaf(document.BooleanType)
		case t.Kind.Temporal():
			return document.Leaf(document.DateType)
		default:
			return document.Leaf(document.StringType)
		}
	case *schema.Struct:
		properties := make(document.Mapping, len(t.Fields))
		for _, sub := range t.Fields {
			subPath := path + "." + sub.Name
			if removed[subPath] {
				continue
			}
			properties[naming(subPath, sub)] = propertyOf(subPath, sub.Type, naming, removed)
		}
		return document.Nested(properties)
	case *schema.Array:
		return propertyOf(path, t.Element, naming, removed)
	case *schema.Map:
		return document.Nested(document.Mapping{
			document.DynamicKey: propertyOf(path, t.Value, naming, removed),
		})
	default:
		return document.Leaf(document.StringType)
	}
}
