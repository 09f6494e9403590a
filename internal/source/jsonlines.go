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
	"github.com/noctarius/es-bulk-exporter/spi/encoding"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	spisource "github.com/noctarius/es-bulk-exporter/spi/source"
)

var lineDecoder = encoding.NewJsonDecoder(true)

func init() {
	spisource.RegisterSource(config.JsonLines, openJsonLines)
}

func openJsonLines(
	c *config.Config, s *schema.Schema,
) ([]spisource.Partition, error) {

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
		partitions = append(partitions, &jsonLinesPartition{
			lineReader: lines,
			schema:     s,
		})
	}
	return partitions, nil
}

type jsonLinesPartition struct {
	*lineReader
	schema *schema.Schema
}

// Next returns a coercion failure for lines which are no JSON
// object, the partition stays readable.
func (j *jsonLinesPartition) Next() (*schema.Row, error) {
	line, ok, err := j.next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	return ParseJsonLine(j.schema, line)
}

// ParseJsonLine reads one JSON object into a row. Columns are
// matched by exact name first, then case-insensitive. Numbers are
// kept as json.Number to avoid float rounding of large integers.
func ParseJsonLine(
	s *schema.Schema, line string,
) (*schema.Row, error) {

	object := make(map[string]any)
	if err := lineDecoder.UnmarshalNumbers([]byte(line), &object); err != nil {
		return nil, failure.New(failure.Coercion, "line is not a JSON object: %s", err)
	}

	values := make([]any, s.Len())
	for i, field := range s.Fields() {
		if value, present := object[field.Name]; present {
			values[i] = value
			continue
		}
		for key, value := range object {
			if strings.EqualFold(key, field.Name) {
				values[i] = value
				break
			}
		}
	}
	return &schema.Row{Schema: s, Values: values}, nil
}
