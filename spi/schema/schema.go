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

package schema

import (
	"strings"

	"github.com/go-errors/errors"
)

// Schema is the ordered, immutable column list of a row stream.
// It is computed once and passed by reference through the
// pipeline.
type Schema struct {
	fields  []Field
	indexes map[string]int
}

func NewSchema(
	fields ...Field,
) (*Schema, error) {

	indexes := make(map[string]int, len(fields))
	for i, field := range fields {
		if err := validateField(field, field.Name); err != nil {
			return nil, err
		}
		if _, present := indexes[field.Name]; present {
			return nil, errors.Errorf("duplicate column '%s'", field.Name)
		}
		indexes[field.Name] = i
	}
	return &Schema{
		fields:  fields,
		indexes: indexes,
	}, nil
}

func MustSchema(
	fields ...Field,
) *Schema {

	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func validateField(
	field Field, path string,
) error {

	if field.Name == "" {
		return errors.Errorf("empty field name in '%s'", path)
	}
	if strings.Contains(field.Name, ".") {
		return errors.Errorf("field name '%s' must not contain '.'", path)
	}
	return validateType(field.Type, path)
}

func validateType(
	fieldType FieldType, path string,
) error {

	switch t := fieldType.(type) {
	case *Primitive:
		if (t.Kind == Char || t.Kind == Varchar) && t.Length <= 0 {
			return errors.Errorf("%s requires a positive length at '%s'", t.Kind, path)
		}
		return nil
	case *Struct:
		names := make(map[string]bool, len(t.Fields))
		for _, sub := range t.Fields {
			if names[sub.Name] {
				return errors.Errorf("duplicate field '%s' in '%s'", sub.Name, path)
			}
			names[sub.Name] = true
			if err := validateField(sub, path+"."+sub.Name); err != nil {
				return err
			}
		}
		return nil
	case *Array:
		if t.Element == nil {
			return errors.Errorf("array without element type at '%s'", path)
		}
		return validateType(t.Element, path)
	case *Map:
		if t.Key == nil || t.Value == nil {
			return errors.Errorf("map without key or value type at '%s'", path)
		}
		if _, ok := t.Key.(*Primitive); !ok {
			return errors.Errorf("map keys must be primitive at '%s'", path)
		}
		return validateType(t.Value, path)
	case nil:
		return errors.Errorf("missing type at '%s'", path)
	default:
		return errors.Errorf("unknown field type %T at '%s'", t, path)
	}
}

func (s *Schema) Len() int {
	return len(s.fields)
}

func (s *Schema) Field(
	index int,
) Field {

	return s.fields[index]
}

func (s *Schema) Fields() []Field {
	return s.fields
}

func (s *Schema) IndexOf(
	name string,
) int {

	if i, present := s.indexes[name]; present {
		return i
	}
	return -1
}

// Lookup resolves a dotted source path (such as "links.url") to
// the declared field. Array elements are transparent, so the
// sub-fields of an ARRAY<STRUCT<...>> are addressed like the
// sub-fields of a plain struct.
func (s *Schema) Lookup(
	path string,
) (Field, bool) {

	segments := strings.Split(path, ".")
	index := s.IndexOf(segments[0])
	if index == -1 {
		return Field{}, false
	}
	field := s.fields[index]
	for _, segment := range segments[1:] {
		st, ok := structOf(field.Type)
		if !ok {
			return Field{}, false
		}
		if field, ok = st.FieldByName(segment); !ok {
			return Field{}, false
		}
	}
	return field, true
}

// Walk visits every named field depth-first with its dotted path.
func (s *Schema) Walk(
	visitor func(path string, field Field),
) {

	for _, field := range s.fields {
		walk(field.Name, field, visitor)
	}
}

func walk(
	path string, field Field, visitor func(path string, field Field),
) {

	visitor(path, field)
	if st, ok := structOf(field.Type); ok {
		for _, sub := range st.Fields {
			walk(path+"."+sub.Name, sub, visitor)
		}
	}
}

func structOf(
	fieldType FieldType,
) (*Struct, bool) {

	for {
		switch t := fieldType.(type) {
		case *Struct:
			return t, true
		case *Array:
			fieldType = t.Element
		default:
			return nil, false
		}
	}
}

func (s *Schema) String() string {
	builder := strings.Builder{}
	for i, field := range s.fields {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(field.String())
	}
	return builder.String()
}

// Row is a single record of the row stream. Values are
// positional and follow the schema's column order.
type Row struct {
	Schema *Schema
	Values []any
}

func NewRow(
	schema *Schema, values ...any,
) (*Row, error) {

	if len(values) != schema.Len() {
		return nil, errors.Errorf(
			"row has %d values but schema declares %d columns", len(values), schema.Len(),
		)
	}
	return &Row{
		Schema: schema,
		Values: values,
	}, nil
}

func (r *Row) Value(
	name string,
) (any, bool) {

	index := r.Schema.IndexOf(name)
	if index == -1 {
		return nil, false
	}
	return r.Values[index], true
}

// Env returns the row as a column name to value map.
func (r *Row) Env() map[string]any {
	env := make(map[string]any, len(r.Values))
	for i, field := range r.Schema.fields {
		env[field.Name] = r.Values[i]
	}
	return env
}
