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
	"fmt"
	"strings"
)

// Kind is the primitive category of a scalar column.
type Kind string

const (
	Boolean   Kind = "BOOLEAN"
	TinyInt   Kind = "TINYINT"
	SmallInt  Kind = "SMALLINT"
	Int       Kind = "INT"
	BigInt    Kind = "BIGINT"
	Float     Kind = "FLOAT"
	Double    Kind = "DOUBLE"
	String    Kind = "STRING"
	Char      Kind = "CHAR"
	Varchar   Kind = "VARCHAR"
	Date      Kind = "DATE"
	Timestamp Kind = "TIMESTAMP"
)

// Integral returns true for the signed integer kinds.
func (k Kind) Integral() bool {
	return k == TinyInt || k == SmallInt || k == Int || k == BigInt
}

// Textual returns true for the character kinds.
func (k Kind) Textual() bool {
	return k == String || k == Char || k == Varchar
}

// Temporal returns true for DATE and TIMESTAMP.
func (k Kind) Temporal() bool {
	return k == Date || k == Timestamp
}

// FieldType is the closed set of column types: *Primitive,
// *Struct, *Array and *Map. Every switch over a FieldType
// handles exactly these four variants.
type FieldType interface {
	fmt.Stringer
	fieldType()
}

type Primitive struct {
	Kind Kind
	// Length is the declared maximum length of CHAR and
	// VARCHAR columns, zero for all other kinds.
	Length int
}

func (*Primitive) fieldType() {}

func (p *Primitive) String() string {
	if p.Length > 0 {
		return fmt.Sprintf("%s(%d)", p.Kind, p.Length)
	}
	return string(p.Kind)
}

type Struct struct {
	Fields []Field
}

func (*Struct) fieldType() {}

func (s *Struct) String() string {
	builder := strings.Builder{}
	builder.WriteString("STRUCT<")
	for i, field := range s.Fields {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString(field.Name)
		builder.WriteString(":")
		builder.WriteString(field.Type.String())
	}
	builder.WriteString(">")
	return builder.String()
}

// FieldByName returns the sub-field with the given name.
func (s *Struct) FieldByName(
	name string,
) (Field, bool) {

	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

type Array struct {
	Element FieldType
}

func (*Array) fieldType() {}

func (a *Array) String() string {
	return fmt.Sprintf("ARRAY<%s>", a.Element)
}

type Map struct {
	Key   FieldType
	Value FieldType
}

func (*Map) fieldType() {}

func (m *Map) String() string {
	return fmt.Sprintf("MAP<%s,%s>", m.Key, m.Value)
}

func NewPrimitive(
	kind Kind,
) *Primitive {

	return &Primitive{Kind: kind}
}

func NewChar(
	length int,
) *Primitive {

	return &Primitive{Kind: Char, Length: length}
}

func NewVarchar(
	length int,
) *Primitive {

	return &Primitive{Kind: Varchar, Length: length}
}

func NewStruct(
	fields ...Field,
) *Struct {

	return &Struct{Fields: fields}
}

func NewArray(
	element FieldType,
) *Array {

	return &Array{Element: element}
}

func NewMap(
	key, value FieldType,
) *Map {

	return &Map{Key: key, Value: value}
}

type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// NewField creates a nullable field, which is the default for
// columns and struct members.
func NewField(
	name string, fieldType FieldType,
) Field {

	return Field{Name: name, Type: fieldType, Nullable: true}
}

// Required returns a copy of the field which rejects null values.
func (f Field) Required() Field {
	f.Nullable = false
	return f
}

func (f Field) String() string {
	if f.Nullable {
		return fmt.Sprintf("%s %s", f.Name, f.Type)
	}
	return fmt.Sprintf("%s %s NOT NULL", f.Name, f.Type)
}
