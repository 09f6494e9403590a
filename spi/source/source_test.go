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
	"testing"

	"github.com/noctarius/es-bulk-exporter/spi/config"
	"github.com/noctarius/es-bulk-exporter/spi/failure"
	"github.com/noctarius/es-bulk-exporter/spi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlicePartition(t *testing.T) {
	s := schema.MustSchema(schema.NewField("id", schema.NewPrimitive(schema.BigInt)))
	first, err := schema.NewRow(s, int64(1))
	require.NoError(t, err)
	second, err := schema.NewRow(s, int64(2))
	require.NoError(t, err)

	partition := NewSlicePartition("p0", first, second)
	assert.Equal(t, "p0", partition.Name())

	row, err := partition.Next()
	require.NoError(t, err)
	assert.Same(t, first, row)

	row, err = partition.Next()
	require.NoError(t, err)
	assert.Same(t, second, row)

	_, err = partition.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, partition.Close())
}

func TestOpen_UnknownFormat(t *testing.T) {
	_, err := Open("parquet", &config.Config{}, nil)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Configuration))
}

func TestRegisterSource_Once(t *testing.T) {
	provider := func(_ *config.Config, _ *schema.Schema) ([]Partition, error) {
		return []Partition{NewSlicePartition("p0")}, nil
	}
	assert.True(t, RegisterSource("test-format", provider))
	assert.False(t, RegisterSource("test-format", provider))

	partitions, err := Open("test-format", &config.Config{}, nil)
	require.NoError(t, err)
	assert.Len(t, partitions, 1)
}
