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

package document

import (
	"sort"
	"strings"

	"github.com/go-errors/errors"
	"github.com/zeebo/xxh3"
)

// Type is the field type reported by the document store.
type Type string

const (
	LongType    Type = "LONG"
	DoubleType  Type = "DOUBLE"
	BooleanType Type = "BOOLEAN"
	StringType  Type = "STRING"
	DateType    Type = "DATE"
	ObjectType  Type = "OBJECT"
)

// DynamicKey names the single property of an object whose keys
// are only known at write time.
const DynamicKey = "*"

type Property struct {
	Type       Type
	Properties Mapping
}

func Leaf(
	t Type,
) *Property {

	return &Property{Type: t}
}

func Nested(
	properties Mapping,
) *Property {

	return &Property{Type: ObjectType, Properties: properties}
}

// Mapping is the field name to property tree of one index.
type Mapping map[string]*Property

// String renders the mapping with its fields sorted by name,
// e.g. "[id=LONG, links=[picture=STRING, url=STRING]]".
func (m Mapping) String() string {
	builder := strings.Builder{}
	m.write(&builder)
	return builder.String()
}

func (m Mapping) write(
	builder *strings.Builder,
) {

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	builder.WriteByte('[')
	for i, name := range names {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(name)
		builder.WriteByte('=')
		property := m[name]
		if property.Type == ObjectType {
			property.Properties.write(builder)
		} else {
			builder.WriteString(string(property.Type))
		}
	}
	builder.WriteByte(']')
}

// Describe renders the mapping the way the store's mapping
// introspection reports it: "name=[field=TYPE, ...]".
func Describe(
	name string, m Mapping,
) string {

	return name + "=" + m.String()
}

func (m Mapping) Equal(
	other Mapping,
) bool {

	return m.String() == other.String()
}

// Fingerprint is a stable hash of the rendered mapping.
func (m Mapping) Fingerprint() uint64 {
	return xxh3.HashString(m.String())
}

func (m Mapping) Clone() Mapping {
	clone := make(Mapping, len(m))
	for name, property := range m {
		clone[name] = &Property{
			Type:       property.Type,
			Properties: property.Properties.Clone(),
		}
	}
	return clone
}

// Compatible returns true if a value detected as incoming can be
// stored in a field already mapped as existing.
func Compatible(
	existing, incoming Type,
) bool {

	if existing == incoming {
		return true
	}
	switch existing {
	case LongType, DoubleType:
		return incoming == LongType || incoming == DoubleType
	case StringType:
		return incoming != ObjectType
	case DateType:
		return incoming == LongType
	default:
		return false
	}
}

// Merge folds other into a copy of m. Fields present in both
// must be compatible, otherwise an error names the conflicting
// field path.
func (m Mapping) Merge(
	other Mapping,
) (Mapping, error) {

	merged := m.Clone()
	if err := merged.mergeInto(other, ""); err != nil {
		return nil, err
	}
	return merged, nil
}

func (m Mapping) mergeInto(
	other Mapping, prefix string,
) error {

	for name, incoming := range other {
		existing, present := m[name]
		if !present {
			m[name] = &Property{Type: incoming.Type, Properties: incoming.Properties.Clone()}
			continue
		}
		if existing.Type == ObjectType && incoming.Type == ObjectType {
			if err := existing.Properties.mergeInto(incoming.Properties, prefix+name+"."); err != nil {
				return err
			}
			continue
		}
		if !Compatible(existing.Type, incoming.Type) {
			return errors.Errorf(
				"mapper [%s%s] cannot be changed from type [%s] to [%s]",
				prefix, name, existing.Type, incoming.Type,
			)
		}
	}
	return nil
}

// ParseMapping converts the "properties" section of a store
// mapping response into a Mapping.
func ParseMapping(
	properties map[string]any,
) Mapping {

	m := make(Mapping, len(properties))
	for name, raw := range properties {
		definition, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if nested, ok := definition["properties"].(map[string]any); ok {
			m[name] = Nested(ParseMapping(nested))
			continue
		}
		typeName, _ := definition["type"].(string)
		m[name] = Leaf(storeType(typeName))
	}
	return m
}

func storeType(
	name string,
) Type {

	switch name {
	case "long", "integer", "short", "byte", "unsigned_long":
		return LongType
	case "double", "float", "half_float", "scaled_float":
		return DoubleType
	case "boolean":
		return BooleanType
	case "date", "date_nanos":
		return DateType
	case "object", "nested":
		return ObjectType
	default:
		return StringType
	}
}
