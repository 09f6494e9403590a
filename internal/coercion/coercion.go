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

package coercion

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-errors/errors"
	"github.com/noctarius/es-bulk-exporter/spi/document"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
)

// Converter turns an engine-native value into its document
// representation. A nil value converts to nil, nullability is
// enforced by the enclosing struct or row.
type Converter func(value any) (any, error)

// Naming returns the destination name of the field at the given
// dotted source path.
type Naming func(path string, field schema.Field) string

// SourceNames keeps the source field names.
var SourceNames Naming = func(_ string, field schema.Field) string {
	return field.Name
}

// NewConverter builds the converter for a value of fieldType at
// path. All failures produced by the converter are coercion
// failures carrying the path of the offending value.
func NewConverter(
	path string, fieldType schema.FieldType, naming Naming,
) (Converter, error) {

	switch t := fieldType.(type) {
	case *schema.Primitive:
		return newPrimitiveConverter(path, t)
	case *schema.Struct:
		return newStructConverter(path, t, naming)
	case *schema.Array:
		return newArrayConverter(path, t, naming)
	case *schema.Map:
		return newMapConverter(path, t, naming)
	default:
		return nil, failure.New(failure.Configuration, "unsupported field type %T", fieldType).WithPath(path)
	}
}

func newPrimitiveConverter(
	path string, primitive *schema.Primitive,
) (Converter, error) {

	var convert func(value any) (any, error)
	switch primitive.Kind {
	case schema.TinyInt, schema.SmallInt, schema.Int, schema.BigInt:
		convert = func(value any) (any, error) {
			return toInteger(value, primitive.Kind)
		}
	case schema.Float, schema.Double:
		convert = func(value any) (any, error) {
			return toFloat(value, primitive.Kind)
		}
	case schema.Boolean:
		convert = toBoolean
	case schema.String, schema.Char, schema.Varchar:
		convert = func(value any) (any, error) {
			return toText(value, primitive)
		}
	case schema.Timestamp:
		convert = toTimestamp
	case schema.Date:
		// Native DATE values carry no time zone and would be
		// indexed as a shifted instant, reject them instead.
		convert = func(value any) (any, error) {
			return nil, errors.Errorf("DATE values are not supported, export the column as TIMESTAMP or STRING")
		}
	default:
		return nil, failure.New(failure.Configuration, "unsupported primitive kind %s", primitive.Kind).WithPath(path)
	}

	return func(value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		v, err := convert(value)
		if err != nil {
			return nil, failure.Wrap(failure.Coercion, err).WithPath(path)
		}
		return v, nil
	}, nil
}

type structMember struct {
	field     schema.Field
	path      string
	name      string
	converter Converter
}

func newStructConverter(
	path string, st *schema.Struct, naming Naming,
) (Converter, error) {

	members, err := NewMembers(path, st.Fields, naming)
	if err != nil {
		return nil, err
	}

	return func(value any) (any, error) {
		switch v := value.(type) {
		case nil:
			return nil, nil
		case []any:
			return members.Positional(v)
		case map[string]any:
			return members.Named(v)
		default:
			return nil, failure.New(failure.Coercion, "cannot convert %T to %s", value, st).WithPath(path)
		}
	}, nil
}

// Members converts an ordered set of named fields into a
// document object, either from positional or from named values.
type Members struct {
	path    string
	members []structMember
}

func NewMembers(
	path string, fields []schema.Field, naming Naming,
) (*Members, error) {

	members := make([]structMember, 0, len(fields))
	names := make(map[string]string, len(fields))
	for _, field := range fields {
		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}

		name := naming(fieldPath, field)
		if other, present := names[name]; present {
			return nil, failure.New(
				failure.Configuration, "fields '%s' and '%s' both map to '%s'", other, fieldPath, name,
			).WithPath(path)
		}
		names[name] = fieldPath

		converter, err := NewConverter(fieldPath, field.Type, naming)
		if err != nil {
			return nil, err
		}
		members = append(members, structMember{
			field:     field,
			path:      fieldPath,
			name:      name,
			converter: converter,
		})
	}
	return &Members{
		path:    path,
		members: members,
	}, nil
}

func (m *Members) Positional(
	values []any,
) (*document.Object, error) {

	if len(values) != len(m.members) {
		return nil, failure.New(
			failure.Coercion, "expected %d values but got %d", len(m.members), len(values),
		).WithPath(m.path)
	}
	obj := document.NewObject()
	for i, member := range m.members {
		if err := member.convertInto(obj, values[i]); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (m *Members) Named(
	values map[string]any,
) (*document.Object, error) {

	obj := document.NewObject()
	for _, member := range m.members {
		if err := member.convertInto(obj, values[member.field.Name]); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (s structMember) convertInto(
	obj *document.Object, value any,
) error {

	v, err := s.converter(value)
	if err != nil {
		return err
	}
	if v == nil {
		if !s.field.Nullable {
			return failure.New(failure.Coercion, "null value for NOT NULL field").WithPath(s.path)
		}
		return nil
	}
	obj.Set(s.name, v)
	return nil
}

func newArrayConverter(
	path string, array *schema.Array, naming Naming,
) (Converter, error) {

	element, err := NewConverter(path, array.Element, naming)
	if err != nil {
		return nil, err
	}

	return func(value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		elements, ok := value.([]any)
		if !ok {
			rv := reflect.ValueOf(value)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				return nil, failure.New(failure.Coercion, "cannot convert %T to %s", value, array).WithPath(path)
			}
			elements = make([]any, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				elements[i] = rv.Index(i).Interface()
			}
		}

		result := make([]any, len(elements))
		for i, e := range elements {
			v, err := element(e)
			if err != nil {
				return nil, err
			}
			result[i] = v
		}
		return result, nil
	}, nil
}

func newMapConverter(
	path string, m *schema.Map, naming Naming,
) (Converter, error) {

	if _, err := NewConverter(path, m.Key, naming); err != nil {
		return nil, err
	}
	value, err := NewConverter(path, m.Value, naming)
	if err != nil {
		return nil, err
	}

	// Keys are string labels taken verbatim from the source, the
	// declared key type doesn't constrain them.
	label := func(k any) (string, error) {
		if k == nil {
			return "", failure.New(failure.Coercion, "null map key").WithPath(path)
		}
		if s, ok := k.(string); ok {
			return s, nil
		}
		switch reflect.ValueOf(k).Kind() {
		case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64, reflect.String:
			return fmt.Sprint(k), nil
		}
		return "", failure.New(failure.Coercion, "map key of type %T has no label", k).WithPath(path)
	}

	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}

		entries := make(map[string]any)
		add := func(k, e any) error {
			l, err := label(k)
			if err != nil {
				return err
			}
			if _, present := entries[l]; present {
				return failure.New(failure.Coercion, "duplicate map key '%s'", l).WithPath(path)
			}
			converted, err := value(e)
			if err != nil {
				return err
			}
			entries[l] = converted
			return nil
		}

		if plain, ok := v.(map[string]any); ok {
			for k, e := range plain {
				if err := add(k, e); err != nil {
					return nil, err
				}
			}
		} else {
			rv := reflect.ValueOf(v)
			if rv.Kind() != reflect.Map {
				return nil, failure.New(failure.Coercion, "cannot convert %T to %s", v, m).WithPath(path)
			}
			iter := rv.MapRange()
			for iter.Next() {
				if err := add(iter.Key().Interface(), iter.Value().Interface()); err != nil {
					return nil, err
				}
			}
		}

		labels := make([]string, 0, len(entries))
		for l := range entries {
			labels = append(labels, l)
		}
		sort.Strings(labels)

		obj := document.NewObject()
		for _, l := range labels {
			if entries[l] != nil {
				obj.Set(l, entries[l])
			}
		}
		return obj, nil
	}, nil
}
