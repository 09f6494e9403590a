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

package source

import (
	"io"
	"strings"

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	spisource "github.com/noctarius/es-bulk-exporter/spi/source"
)

const (
	defaultFieldDelimiter      = "\t"
	defaultCollectionDelimiter = ","
	defaultMapKeyDelimiter     = ":"
	defaultNullSequence        = `\N`
)

func init() {
	spisource.RegisterSource(config.Delimited, openDelimited)
}

// Delimiters are the separators of the text table format. Level 0
// separates columns, level 1 collection items and struct members,
// level 2 map keys from values. Deeper levels use the control
// characters starting at \004.
type Delimiters struct {
	Field      string
	Collection string
	MapKey     string
	Null       string
}

func DefaultDelimiters() Delimiters {
	return Delimiters{
		Field:      defaultFieldDelimiter,
		Collection: defaultCollectionDelimiter,
		MapKey:     defaultMapKeyDelimiter,
		Null:       defaultNullSequence,
	}
}

func (d Delimiters) level(
	level int,
) string {

	switch level {
	case 0:
		return d.Field
	case 1:
		return d.Collection
	case 2:
		return d.MapKey
	}
	return string(rune(level + 1))
}

func openDelimited(
	c *config.Config, s *schema.Schema,
) ([]spisource.Partition, error) {

	delimiters := Delimiters{
		Field:      config.GetOrDefault(c, config.PropertySourceDelimiterField, defaultFieldDelimiter),
		Collection: config.GetOrDefault(c, config.PropertySourceDelimiterCollection, defaultCollectionDelimiter),
		MapKey:     config.GetOrDefault(c, config.PropertySourceDelimiterMapKey, defaultMapKeyDelimiter),
		Null:       config.GetOrDefault(c, config.PropertySourceNull, defaultNullSequence),
	}
	for _, d := range []string{delimiters.Field, delimiters.Collection, delimiters.MapKey} {
		if d == "" {
			return nil, failure.New(failure.Configuration, "source delimiters must not be empty")
		}
	}

	files, err := expandPaths(config.GetOrDefault[[]string](c, config.PropertySourcePaths, nil))
	if err != nil {
		return nil, err
	}

	partitions := make([]spisource.Partition, 0, len(files))
	for _, file := range files {
		lines, err := openLines(file)
		if err != nil {
			for _, p := range partitions {
				p.Close()
			}
			return nil, err
		}
		partitions = append(partitions, &delimitedPartition{
			lineReader: lines,
			parser:     NewDelimitedParser(s, delimiters),
		})
	}
	return partitions, nil
}

type delimitedPartition struct {
	*lineReader
	parser *DelimitedParser
}

func (d *delimitedPartition) Next() (*schema.Row, error) {
	line, ok, err := d.next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	return d.parser.Parse(line), nil
}

// DelimitedParser splits text lines into rows. Scalars stay text,
// conversion happens in the coercion layer.
type DelimitedParser struct {
	schema     *schema.Schema
	delimiters Delimiters
}

func NewDelimitedParser(
	s *schema.Schema, delimiters Delimiters,
) *DelimitedParser {

	return &DelimitedParser{
		schema:     s,
		delimiters: delimiters,
	}
}

// Parse never fails: missing trailing columns become null and
// surplus columns are ignored.
func (p *DelimitedParser) Parse(
	line string,
) *schema.Row {

	columns := strings.Split(line, p.delimiters.Field)
	values := make([]any, p.schema.Len())
	for i, field := range p.schema.Fields() {
		if i < len(columns) {
			values[i] = p.value(columns[i], field.Type, 1)
		}
	}
	return &schema.Row{Schema: p.schema, Values: values}
}

func (p *DelimitedParser) value(
	text string, fieldType schema.FieldType, level int,
) any {

	if text == p.delimiters.Null {
		return nil
	}

	switch t := fieldType.(type) {
	case *schema.Primitive:
		return text

	case *schema.Array:
		if text == "" {
			return []any{}
		}
		items := strings.Split(text, p.delimiters.level(level))
		elements := make([]any, len(items))
		for i, item := range items {
			elements[i] = p.value(item, t.Element, level+1)
		}
		return elements

	case *schema.Struct:
		items := strings.Split(text, p.delimiters.level(level))
		members := make([]any, len(t.Fields))
		for i, field := range t.Fields {
			if i < len(items) {
				members[i] = p.value(items[i], field.Type, level+1)
			}
		}
		return members

	case *schema.Map:
		entries := make(map[string]any)
		if text == "" {
			return entries
		}
		for _, entry := range strings.Split(text, p.delimiters.level(level)) {
			key, value, found := strings.Cut(entry, p.delimiters.level(level+1))
			if !found {
				entries[key] = nil
				continue
			}
			entries[key] = p.value(value, t.Value, level+2)
		}
		return entries
	}
	return text
}
