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

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
)

// Partition is one independent slice of the row stream. A
// partition is consumed by exactly one worker and needs no
// synchronization.
type Partition interface {
	Name() string
	// Next returns the next row or io.EOF at the end of the
	// partition.
	Next() (*schema.Row, error)
	Close() error
}

// ReadError is a partition failing to deliver rows, as opposed to
// a row failing to convert.
type ReadError struct {
	Partition string
	cause     error
}

func NewReadError(
	partition string, cause error,
) *ReadError {

	return &ReadError{
		Partition: partition,
		cause:     cause,
	}
}

func (e *ReadError) Error() string {
	return "reading partition " + e.Partition + " failed: " + e.cause.Error()
}

func (e *ReadError) Unwrap() error {
	return e.cause
}

// Provider opens the partitions configured for a source format.
// Rows are produced in the given schema.
type Provider = func(config *config.Config, schema *schema.Schema) ([]Partition, error)

var sourceRegistry = config.NewRegistry[config.SourceFormat, Provider]("source format")

// RegisterSource makes a source format available to Open, it
// returns false if the format was taken already.
func RegisterSource(format config.SourceFormat, provider Provider) bool {
	return sourceRegistry.Register(format, provider)
}

// Open opens the partitions of the requested source format.
func Open(format config.SourceFormat, c *config.Config, s *schema.Schema) ([]Partition, error) {
	provider, err := sourceRegistry.Lookup(format)
	if err != nil {
		return nil, err
	}
	return provider(c, s)
}

type slicePartition struct {
	name string
	rows []*schema.Row
	next int
}

// NewSlicePartition returns a partition serving rows from memory.
func NewSlicePartition(
	name string, rows ...*schema.Row,
) Partition {

	return &slicePartition{
		name: name,
		rows: rows,
	}
}

func (s *slicePartition) Name() string {
	return s.name
}

func (s *slicePartition) Next() (*schema.Row, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

func (s *slicePartition) Close() error {
	return nil
}
