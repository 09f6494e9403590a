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
	"strconv"
	"strings"
	"unicode"

	"github.com/go-errors/errors"
)

var kindAliases = map[string]Kind{
	"BOOLEAN":   Boolean,
	"TINYINT":   TinyInt,
	"SMALLINT":  SmallInt,
	"INT":       Int,
	"INTEGER":   Int,
	"BIGINT":    BigInt,
	"FLOAT":     Float,
	"DOUBLE":    Double,
	"STRING":    String,
	"CHAR":      Char,
	"VARCHAR":   Varchar,
	"DATE":      Date,
	"TIMESTAMP": Timestamp,
}

// ParseColumns parses a column list in table DDL notation, e.g.
// "id BIGINT, links STRUCT<url:STRING>, ts TIMESTAMP NOT NULL".
func ParseColumns(
	ddl string,
) (*Schema, error) {

	p := &parser{tokens: tokenize(ddl)}
	fields := make([]Field, 0)
	for !p.done() {
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		fieldType, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		field := NewField(name, fieldType)
		if p.keyword("NOT") {
			if !p.keyword("NULL") {
				return nil, p.unexpected("NULL")
			}
			field = field.Required()
		}
		fields = append(fields, field)
		if p.done() {
			break
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 {
		return nil, errors.Errorf("column list is empty")
	}
	return NewSchema(fields...)
}

// ParseType parses a single type expression, e.g. "MAP<INT,STRING>".
func ParseType(
	expression string,
) (FieldType, error) {

	p := &parser{tokens: tokenize(expression)}
	fieldType, err := p.fieldType()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.unexpected("end of type")
	}
	return fieldType, nil
}

type parser struct {
	tokens   []string
	position int
}

func (p *parser) done() bool {
	return p.position >= len(p.tokens)
}

func (p *parser) peek() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.position]
}

func (p *parser) next() string {
	token := p.peek()
	p.position++
	return token
}

func (p *parser) unexpected(
	expected string,
) error {

	if p.done() {
		return errors.Errorf("expected %s but reached the end of input", expected)
	}
	return errors.Errorf("expected %s but found '%s'", expected, p.peek())
}

func (p *parser) expect(
	token string,
) error {

	if p.peek() != token {
		return p.unexpected("'" + token + "'")
	}
	p.position++
	return nil
}

func (p *parser) keyword(
	keyword string,
) bool {

	if strings.EqualFold(p.peek(), keyword) {
		p.position++
		return true
	}
	return false
}

func (p *parser) identifier() (string, error) {
	token := p.peek()
	if token == "" || isSymbol(token) {
		return "", p.unexpected("identifier")
	}
	p.position++
	return strings.Trim(token, "`"), nil
}

func (p *parser) fieldType() (FieldType, error) {
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(name) {
	case "STRUCT":
		return p.structType()
	case "ARRAY":
		if err := p.expect("<"); err != nil {
			return nil, err
		}
		element, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		return NewArray(element), p.expect(">")
	case "MAP":
		if err := p.expect("<"); err != nil {
			return nil, err
		}
		key, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		if _, ok := key.(*Primitive); !ok {
			return nil, errors.Errorf("map key must be a primitive type, got %s", key)
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		value, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		return NewMap(key, value), p.expect(">")
	}

	kind, ok := kindAliases[strings.ToUpper(name)]
	if !ok {
		return nil, errors.Errorf("unsupported type '%s'", name)
	}
	if kind != Char && kind != Varchar {
		return NewPrimitive(kind), nil
	}

	if err := p.expect("("); err != nil {
		return nil, err
	}
	length, err := strconv.Atoi(p.next())
	if err != nil || length <= 0 {
		return nil, errors.Errorf("%s requires a positive length", kind)
	}
	return &Primitive{Kind: kind, Length: length}, p.expect(")")
}

func (p *parser) structType() (FieldType, error) {
	if err := p.expect("<"); err != nil {
		return nil, err
	}
	fields := make([]Field, 0)
	for {
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		fieldType, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, NewField(name, fieldType))
		if p.peek() == ">" {
			p.position++
			return NewStruct(fields...), nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func isSymbol(
	token string,
) bool {

	return len(token) == 1 && strings.ContainsAny(token, "<>(),:")
}

func tokenize(
	input string,
) []string {

	tokens := make([]string, 0)
	current := strings.Builder{}
	quoted := false
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range input {
		switch {
		case r == '`':
			quoted = !quoted
			current.WriteRune(r)
		case quoted:
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		case strings.ContainsRune("<>(),:", r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
